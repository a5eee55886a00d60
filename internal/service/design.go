package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/locaith/locaith-design/internal/codec"
	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
)

var (
	ErrIDRequired    = errors.New("design id is required")
	ErrNotFound      = errors.New("design not found")
	ErrNotOwner      = errors.New("design belongs to another user")
	ErrInvalidType   = errors.New("unknown design type")
	ErrTooManyAssets = errors.New("image asset limit reached")
	ErrAssetTooLarge = errors.New("image asset exceeds size limit")
	ErrAssetMissing  = errors.New("image asset not found")
)

// DesignListResult is the service-level DTO for paginated designs.
type DesignListResult struct {
	Items []model.Design `json:"data"`
	Total int            `json:"total"`
}

// Thumbnailer captures a raster of a design's first page, best effort.
// The returned value is whatever reference the capture produced (a data
// URL or an object-store key).
type Thumbnailer interface {
	Capture(ctx context.Context, d *model.Design) (string, error)
}

// DesignService defines the use cases around design records.
type DesignService interface {
	// Save persists a design keyed by its ID (minting one when absent).
	// The stored content is always the placeholder-bearing raw form: if
	// the incoming content carries substituted payloads they are
	// reverse-mapped through the codec before the write. Saving the same
	// ID twice overwrites. Thumbnail capture is best-effort and never
	// fails the save.
	Save(ctx context.Context, d *model.Design) (*model.Design, error)

	// Get returns a stored design (raw content plus full asset set).
	Get(ctx context.Context, ownerID, id string) (*model.Design, error)

	// Display derives the displayable content for a design. Never
	// persisted; unmatched tokens are left for the renderer to show as
	// broken images.
	Display(d *model.Design) string

	// List returns an owner's designs using limit/offset and a total.
	List(ctx context.Context, ownerID string, limit, offset int) (*DesignListResult, error)

	// Delete removes a design by ID.
	Delete(ctx context.Context, ownerID, id string) error

	// AddAsset attaches an uploaded image to a design, minting its token
	// id. A sixth image is rejected.
	AddAsset(ctx context.Context, ownerID, id string, data string, imgCtx model.ImageContext, description string) (*model.Design, error)

	// UpdateAsset edits an asset's context and/or description.
	UpdateAsset(ctx context.Context, ownerID, id, assetID string, imgCtx model.ImageContext, description string) (*model.Design, error)

	// RemoveAsset detaches an asset. Tokens already referencing it stay
	// in the raw content and render as broken images.
	RemoveAsset(ctx context.Context, ownerID, id, assetID string) (*model.Design, error)
}

// designService is the concrete implementation of DesignService.
type designService struct {
	repos  *repository.Selector
	thumbs Thumbnailer
}

// NewDesignService constructs a DesignService. thumbs may be nil, in
// which case saves skip thumbnail capture.
func NewDesignService(repos *repository.Selector, thumbs Thumbnailer) DesignService {
	return &designService{repos: repos, thumbs: thumbs}
}

func (s *designService) Save(ctx context.Context, d *model.Design) (*model.Design, error) {
	if !d.Type.Valid() {
		return nil, ErrInvalidType
	}
	if len(d.Assets) > model.MaxAssetsPerDesign {
		return nil, ErrTooManyAssets
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.OwnerID == "" {
		d.OwnerID = repository.GuestOwnerID
	}
	if d.Title == "" {
		d.Title = "Untitled Design"
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	// Persisting the substituted form is a correctness bug: it bloats
	// storage and breaks portability. Reverse-map any payloads that leaked
	// into the content (e.g. after direct visual edits on the rendered
	// view).
	d.Content = codec.Reverse(d.Content, d.Assets)

	if s.thumbs != nil && d.Content != "" {
		if thumb, err := s.thumbs.Capture(ctx, d); err != nil {
			logEvent("thumbnail_capture_failed", map[string]any{"design_id": d.ID, "error": err.Error()})
		} else if thumb != "" {
			d.Thumbnail = thumb
		}
	}

	stored, err := s.repos.ForOwner(d.OwnerID).Upsert(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}
	return stored, nil
}

func (s *designService) Get(ctx context.Context, ownerID, id string) (*model.Design, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if ownerID == "" {
		ownerID = repository.GuestOwnerID
	}
	d, err := s.repos.ForOwner(ownerID).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return d, nil
}

func (s *designService) Display(d *model.Design) string {
	return codec.Substitute(d.Content, d.Assets)
}

func (s *designService) List(ctx context.Context, ownerID string, limit, offset int) (*DesignListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repos.ForOwner(ownerID).ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DesignListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *designService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repos.ForOwner(ownerID).Delete(ctx, id)
}

func (s *designService) AddAsset(ctx context.Context, ownerID, id string, data string, imgCtx model.ImageContext, description string) (*model.Design, error) {
	if len(data) > model.MaxAssetBytes {
		return nil, ErrAssetTooLarge
	}
	if !imgCtx.Valid() {
		imgCtx = model.ContextProduct
	}
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(d.Assets) >= model.MaxAssetsPerDesign {
		return nil, ErrTooManyAssets
	}
	d.Assets = append(d.Assets, model.ImageAsset{
		ID:          codec.NewAssetID(),
		Data:        data,
		Context:     imgCtx,
		Description: strings.TrimSpace(description),
	})
	return s.repos.ForOwner(ownerID).Upsert(ctx, d)
}

func (s *designService) UpdateAsset(ctx context.Context, ownerID, id, assetID string, imgCtx model.ImageContext, description string) (*model.Design, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	for i := range d.Assets {
		if d.Assets[i].ID != assetID {
			continue
		}
		if imgCtx.Valid() {
			d.Assets[i].Context = imgCtx
		}
		if description != "" {
			d.Assets[i].Description = description
		}
		return s.repos.ForOwner(ownerID).Upsert(ctx, d)
	}
	return nil, ErrAssetMissing
}

func (s *designService) RemoveAsset(ctx context.Context, ownerID, id, assetID string) (*model.Design, error) {
	d, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	kept := d.Assets[:0]
	found := false
	for _, a := range d.Assets {
		if a.ID == assetID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return nil, ErrAssetMissing
	}
	d.Assets = kept
	return s.repos.ForOwner(ownerID).Upsert(ctx, d)
}

func logEvent(event string, fields map[string]any) {
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	fields["level"] = "warn"
	fields["event"] = event
	if b, err := json.Marshal(fields); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
