package repository

import (
	"context"

	"github.com/locaith/locaith-design/internal/model"
)

// DesignRepository defines data access for design records. No business
// logic here — strictly persistence operations.
//
// Stored content is always the placeholder-bearing raw form; enforcing
// that is the service layer's job, repositories store what they are given.
type DesignRepository interface {
	// Upsert writes a design keyed by its ID. Saving the same ID twice
	// overwrites the record rather than duplicating it.
	Upsert(ctx context.Context, d *model.Design) (*model.Design, error)

	// FindByID returns a design by its ID.
	FindByID(ctx context.Context, id string) (*model.Design, error)

	// ListByOwner returns a paginated list of an owner's designs plus the
	// total row count, newest first.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Design], error)

	// Delete removes a design by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
