package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/storage"
	storageMocks "github.com/locaith/locaith-design/internal/storage/mocks"
)

// stubRasterizer records what it rendered and answers with raster (a real
// encoded image when the packer needs to decode it) or a fake marker.
type stubRasterizer struct {
	raster []byte
	pages  []string
	scales []float64
	err    error
}

func (s *stubRasterizer) RenderPage(_ context.Context, pageHTML string, _ PageSize, scale float64) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.pages = append(s.pages, pageHTML)
	s.scales = append(s.scales, scale)
	if s.raster != nil {
		return s.raster, nil
	}
	return []byte(fmt.Sprintf("PNG-%d", len(s.pages))), nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func threePageDoc() string {
	var b strings.Builder
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&b, `<div class="print-page" id="p%d"><h1>Page %d</h1></div>`, i, i)
	}
	return b.String()
}

func TestExtractPages(t *testing.T) {
	t.Run("one entry per print-page in document order", func(t *testing.T) {
		pages := ExtractPages(threePageDoc())
		require.Len(t, pages, 3)
		for i, p := range pages {
			assert.Contains(t, p, fmt.Sprintf("Page %d", i+1))
		}
	})

	t.Run("multi-class attribute still matches", func(t *testing.T) {
		pages := ExtractPages(`<section class="a4 print-page shadow">x</section>`)
		require.Len(t, pages, 1)
		assert.Contains(t, pages[0], ">x</section>")
	})

	t.Run("no pages in plain markup", func(t *testing.T) {
		assert.Empty(t, ExtractPages("<p>just a paragraph</p>"))
		assert.Empty(t, ExtractPages(""))
	})
}

func TestImageURLs(t *testing.T) {
	page := `<div class="print-page">
		<img src="https://cdn.example.com/a.png"/>
		<img src="data:image/png;base64,Zm9v"/>
		<img src="http://example.com/b.jpg"/>
		<img alt="no source"/>
	</div>`
	urls := ImageURLs(page)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "http://example.com/b.jpg"}, urls,
		"only remote sources need prefetching; data URLs are already loaded")
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Coffee Pitch Deck", "Coffee_Pitch_Deck"},
		{"  padded   title ", "padded_title"},
		{"", "Locaith_Design"},
		{"   ", "Locaith_Design"},
		{"single", "single"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.title))
	}
}

func TestSizeFor(t *testing.T) {
	assert.Equal(t, PageSize{WidthMM: 210, HeightMM: 297}, SizeFor(model.TypeCV))
	assert.Equal(t, PageSize{WidthMM: 210, HeightMM: 297}, SizeFor(model.TypeBrochure))
	assert.Equal(t, PageSize{WidthMM: 297, HeightMM: 168}, SizeFor(model.TypeSlide))
	assert.Equal(t, PageSize{WidthMM: 297, HeightMM: 168}, SizeFor(model.TypePitch))
	assert.Equal(t, PageSize{WidthMM: 297, HeightMM: 168}, SizeFor(model.TypeSalekit))
	assert.Equal(t, PageSize{WidthMM: 148, HeightMM: 210}, SizeFor(model.TypeInvitation))
}

func TestPageSizeConversions(t *testing.T) {
	w, h := PageSize{WidthMM: 210, HeightMM: 297}.Points()
	assert.Equal(t, 595, w)
	assert.Equal(t, 842, h)

	cx, cy := PageSize{WidthMM: 297, HeightMM: 168}.EMU()
	assert.Equal(t, int64(10692000), cx)
	assert.Equal(t, int64(6048000), cy)
}

func TestExport_PNGFirstPageOnly(t *testing.T) {
	ras := &stubRasterizer{}
	p := NewPipeline(ras, nil)
	d := &model.Design{Title: "My CV", Type: model.TypeCV}

	art, err := p.Export(context.Background(), d, threePageDoc(), FormatPNG)
	require.NoError(t, err)

	assert.Equal(t, "My_CV_page1.png", art.Filename)
	assert.Equal(t, "image/png", art.ContentType)
	assert.Equal(t, []byte("PNG-1"), art.Data)
	assert.Len(t, ras.pages, 1, "single-image export never rasterizes past page 1")
	assert.Equal(t, exportScale, ras.scales[0])
}

func TestExport_PDFAllPages(t *testing.T) {
	ras := &stubRasterizer{raster: tinyPNG(t)}
	p := NewPipeline(ras, nil)
	d := &model.Design{Title: "Brochure", Type: model.TypeBrochure}

	art, err := p.Export(context.Background(), d, threePageDoc(), FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "Brochure.pdf", art.Filename)
	assert.Equal(t, "application/pdf", art.ContentType)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF")), "artifact is a PDF document")
	assert.Len(t, ras.pages, 3, "every page is rasterized")
}

func TestExport_PPTXOnePerSlide(t *testing.T) {
	ras := &stubRasterizer{}
	p := NewPipeline(ras, nil)
	d := &model.Design{Title: "Pitch", Type: model.TypePitch}

	art, err := p.Export(context.Background(), d, threePageDoc(), FormatPPTX)
	require.NoError(t, err)
	assert.Equal(t, "Pitch.pptx", art.Filename)

	zr, err := zip.NewReader(bytes.NewReader(art.Data), int64(len(art.Data)))
	require.NoError(t, err)

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["[Content_Types].xml"])
	assert.True(t, names["ppt/presentation.xml"])
	for i := 1; i <= 3; i++ {
		assert.True(t, names[fmt.Sprintf("ppt/slides/slide%d.xml", i)])
		assert.True(t, names[fmt.Sprintf("ppt/media/image%d.png", i)])
	}
	assert.False(t, names["ppt/slides/slide4.xml"])
}

func TestExport_Errors(t *testing.T) {
	p := NewPipeline(&stubRasterizer{}, nil)
	d := &model.Design{Type: model.TypeCV}

	_, err := p.Export(context.Background(), d, "<p>no pages</p>", FormatPDF)
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = p.Export(context.Background(), d, threePageDoc(), Format("docx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	broken := NewPipeline(&stubRasterizer{err: errors.New("render service down")}, nil)
	_, err = broken.Export(context.Background(), d, threePageDoc(), FormatPNG)
	assert.Error(t, err)
}

func TestThumbnailer_Capture(t *testing.T) {
	ras := &stubRasterizer{}
	th := NewThumbnailer(ras, nil)
	d := &model.Design{
		ID:      "d1",
		Type:    model.TypeCV,
		Content: `<div class="print-page"><img src="[[USER_IMG_1]]"/></div>`,
		Assets:  []model.ImageAsset{{ID: "USER_IMG_1", Data: "data:image/png;base64,Zm9v"}},
	}

	ref, err := th.Capture(context.Background(), d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"), "no object store inlines the raster")
	require.Len(t, ras.pages, 1)
	assert.Contains(t, ras.pages[0], "data:image/png;base64,Zm9v", "tokens are substituted before capture")
	assert.Equal(t, thumbScale, ras.scales[0])
}

func TestThumbnailer_StoreUpload(t *testing.T) {
	ras := &stubRasterizer{raster: tinyPNG(t)}
	store := new(storageMocks.MockStorage)
	store.On("Put", mock.Anything, "thumbnails/d1.png", mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
		return opt.ContentType == "image/png" && opt.Size > 0
	})).Return(storage.ObjectInfo{Key: "thumbnails/d1.png"}, nil).Once()

	th := NewThumbnailer(ras, store)
	d := &model.Design{ID: "d1", Type: model.TypeCV, Content: `<div class="print-page">x</div>`}

	ref, err := th.Capture(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/d1.png", ref, "a configured store yields the object key, not a data URL")
	store.AssertExpectations(t)
}

func TestThumbnailer_StoreFailure(t *testing.T) {
	ras := &stubRasterizer{raster: tinyPNG(t)}
	store := new(storageMocks.MockStorage)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("bucket unavailable")).Once()

	th := NewThumbnailer(ras, store)
	d := &model.Design{ID: "d2", Type: model.TypeCV, Content: `<div class="print-page">x</div>`}

	_, err := th.Capture(context.Background(), d)
	assert.ErrorContains(t, err, "store thumbnail")
	store.AssertExpectations(t)
}

func TestThumbnailer_NoPages(t *testing.T) {
	th := NewThumbnailer(&stubRasterizer{}, nil)
	_, err := th.Capture(context.Background(), &model.Design{ID: "d2", Content: "<p>empty</p>"})
	assert.ErrorIs(t, err, ErrNoPages)
}
