// Package export turns a rendered design into a downloadable artifact:
// a PNG of the first page, a multi-page PDF, or a one-slide-per-page
// PPTX deck. Layout and rasterization are delegated to an external
// rendering collaborator behind the Rasterizer interface; this package
// never interprets CSS.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/net/html"

	"github.com/locaith/locaith-design/internal/model"
)

// Format selects the output container.
type Format string

const (
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatPPTX Format = "pptx"
)

// Valid reports whether f is a supported output format.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatPDF || f == FormatPPTX
}

// PageSize is a physical page geometry in millimeters.
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

// Points converts the geometry to PDF points.
func (p PageSize) Points() (w, h int) {
	const ptPerMM = 72.0 / 25.4
	return int(p.WidthMM*ptPerMM + 0.5), int(p.HeightMM*ptPerMM + 0.5)
}

// EMU converts the geometry to English Metric Units for OOXML.
func (p PageSize) EMU() (w, h int64) {
	const emuPerMM = 36000
	return int64(p.WidthMM * emuPerMM), int64(p.HeightMM * emuPerMM)
}

// SizeFor returns the physical page size for a design type: A4 portrait
// by default, 16:9 landscape for slides and pitches, A5 portrait for
// invitations.
func SizeFor(t model.DesignType) PageSize {
	switch {
	case t.Landscape():
		return PageSize{WidthMM: 297, HeightMM: 168}
	case t == model.TypeInvitation:
		return PageSize{WidthMM: 148, HeightMM: 210}
	default:
		return PageSize{WidthMM: 210, HeightMM: 297}
	}
}

// Rasterizer renders one page's markup into a PNG bitmap at the given
// physical size and upscale factor. Implementations wrap an external
// rendering service; this repo does not contain a layout engine.
type Rasterizer interface {
	RenderPage(ctx context.Context, pageHTML string, size PageSize, scale float64) ([]byte, error)
}

// Artifact is a finished export.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

var (
	ErrNoPages           = errors.New("no pages to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// exportScale is the fixed upscale factor applied during rasterization
// for output quality.
const exportScale = 2.0

// Pipeline drives exports. Pages are processed strictly one at a time to
// bound peak memory from simultaneous raster buffers.
type Pipeline struct {
	ras    Rasterizer
	client *http.Client
}

// NewPipeline builds a Pipeline over the given rasterizer. client is used
// to prefetch embedded remote images before rasterization; nil uses
// http.DefaultClient.
func NewPipeline(ras Rasterizer, client *http.Client) *Pipeline {
	if client == nil {
		client = http.DefaultClient
	}
	return &Pipeline{ras: ras, client: client}
}

// Export renders every page of the displayed (token-substituted) document
// and packages the rasters into the requested format. The artifact
// filename is derived from the design title; the stored record is never
// touched.
func (p *Pipeline) Export(ctx context.Context, d *model.Design, display string, format Format) (*Artifact, error) {
	if !format.Valid() {
		return nil, ErrUnsupportedFormat
	}
	pages := ExtractPages(display)
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	size := SizeFor(d.Type)
	rasters := make([][]byte, 0, len(pages))
	for _, page := range pages {
		// Never rasterize a half-loaded page: every embedded remote image
		// is fetched to completion (or definite failure) first.
		p.prefetchImages(ctx, page)

		raster, err := p.ras.RenderPage(ctx, page, size, exportScale)
		if err != nil {
			return nil, fmt.Errorf("rasterize page: %w", err)
		}
		rasters = append(rasters, raster)

		if format == FormatPNG {
			break // single-image export captures page 1 only
		}
	}

	name := Filename(d.Title)
	switch format {
	case FormatPNG:
		return &Artifact{Filename: name + "_page1.png", ContentType: "image/png", Data: rasters[0]}, nil
	case FormatPDF:
		data, err := packPDF(rasters, size)
		if err != nil {
			return nil, fmt.Errorf("pack pdf: %w", err)
		}
		return &Artifact{Filename: name + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := packPPTX(rasters, size)
		if err != nil {
			return nil, fmt.Errorf("pack pptx: %w", err)
		}
		return &Artifact{
			Filename:    name + ".pptx",
			ContentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
			Data:        data,
		}, nil
	}
}

// Filename derives a download filename stem from a design title.
func Filename(title string) string {
	name := strings.Join(strings.Fields(strings.TrimSpace(title)), "_")
	if name == "" {
		name = "Locaith_Design"
	}
	return name
}

// ExtractPages returns the outer markup of every print-page element, in
// document order. One element per output page.
func ExtractPages(display string) []string {
	doc, err := html.Parse(strings.NewReader(display))
	if err != nil {
		return nil
	}
	var pages []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "print-page") {
			var buf bytes.Buffer
			if err := html.Render(&buf, n); err == nil {
				pages = append(pages, buf.String())
			}
			return // nested print-pages are not a thing
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return pages
}

// ImageURLs returns the remote (http/https) img sources of a page.
func ImageURLs(pageHTML string) []string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	var urls []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "src" && (strings.HasPrefix(attr.Val, "http://") || strings.HasPrefix(attr.Val, "https://")) {
					urls = append(urls, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}

// prefetchImages is the load-or-error wait: each remote image is fetched
// once; failures are tolerated (the rasterizer shows a broken image) but
// nothing proceeds while a fetch is still in flight.
func (p *Pipeline) prefetchImages(ctx context.Context, pageHTML string) {
	for _, u := range ImageURLs(pageHTML) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		resp, err := p.client.Do(req)
		if err != nil {
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// packPDF appends each raster as one full page of a new PDF.
func packPDF(rasters [][]byte, size PageSize) ([]byte, error) {
	w, h := size.Points()
	imp, err := api.Import(fmt.Sprintf("dim:%d %d, pos:c, sc:1.0", w, h), types.POINTS)
	if err != nil {
		return nil, err
	}
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	imgs := make([]io.Reader, len(rasters))
	for i, r := range rasters {
		imgs[i] = bytes.NewReader(r)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, imgs, imp, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
