package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/locaith/locaith-design/internal/codec"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/storage"
)

// thumbScale keeps preview captures cheap; thumbnails are list decor, not
// print output.
const thumbScale = 0.5

// Thumbnailer captures a small raster of a design's first page. With an
// object store configured the raster is uploaded and the object key is
// returned; without one the raster is inlined as a data URL.
type Thumbnailer struct {
	ras    Rasterizer
	store  storage.Storage
	client *http.Client
}

// NewThumbnailer builds a Thumbnailer. store may be nil.
func NewThumbnailer(ras Rasterizer, store storage.Storage) *Thumbnailer {
	return &Thumbnailer{ras: ras, store: store, client: http.DefaultClient}
}

// Capture renders the first page of d and returns a thumbnail reference.
func (t *Thumbnailer) Capture(ctx context.Context, d *model.Design) (string, error) {
	display := codec.Substitute(d.Content, d.Assets)
	pages := ExtractPages(display)
	if len(pages) == 0 {
		return "", ErrNoPages
	}

	raster, err := t.ras.RenderPage(ctx, pages[0], SizeFor(d.Type), thumbScale)
	if err != nil {
		return "", fmt.Errorf("capture thumbnail: %w", err)
	}

	if t.store == nil {
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raster), nil
	}

	key := "thumbnails/" + d.ID + ".png"
	_, err = t.store.Put(ctx, key, bytes.NewReader(raster), storage.PutObjectOptions{
		Size:        int64(len(raster)),
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return key, nil
}
