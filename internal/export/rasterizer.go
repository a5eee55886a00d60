package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// httpRasterizer delegates page rendering to an external headless-browser
// service. The service receives the page markup plus physical dimensions
// and answers with a PNG body.
type httpRasterizer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRasterizer returns a Rasterizer backed by the rendering service
// at endpoint.
func NewHTTPRasterizer(endpoint string) Rasterizer {
	return &httpRasterizer{
		endpoint: endpoint,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   60 * time.Second,
		},
	}
}

type renderRequest struct {
	HTML     string  `json:"html"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	Scale    float64 `json:"scale"`
}

func (r *httpRasterizer) RenderPage(ctx context.Context, pageHTML string, size PageSize, scale float64) ([]byte, error) {
	body, err := json.Marshal(renderRequest{
		HTML:     pageHTML,
		WidthMM:  size.WidthMM,
		HeightMM: size.HeightMM,
		Scale:    scale,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("render service returned %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}
