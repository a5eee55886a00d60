// Package memory is the local-only design store backing anonymous/guest
// usage. Records live for the lifetime of the process and are never
// written to the remote store.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
)

// DesignMemory is an in-process implementation of
// repository.DesignRepository. Safe for concurrent use. Missing rows are
// reported as sql.ErrNoRows so callers translate both stores identically.
type DesignMemory struct {
	mu      sync.RWMutex
	designs map[string]model.Design
}

// NewDesignMemory creates an empty guest store.
func NewDesignMemory() *DesignMemory {
	return &DesignMemory{designs: make(map[string]model.Design)}
}

var _ repository.DesignRepository = (*DesignMemory)(nil)

// Upsert writes a design keyed by ID, overwriting any previous record.
func (r *DesignMemory) Upsert(_ context.Context, d *model.Design) (*model.Design, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.designs[d.ID] = clone(d)
	stored := clone(d)
	return &stored, nil
}

// FindByID returns a design by its ID.
func (r *DesignMemory) FindByID(_ context.Context, id string) (*model.Design, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.designs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := clone(&d)
	return &out, nil
}

// ListByOwner returns an owner's designs newest first with limit/offset
// pagination.
func (r *DesignMemory) ListByOwner(_ context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Design], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Design, 0)
	for _, d := range r.designs {
		if d.OwnerID == ownerID {
			items = append(items, clone(&d))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})

	total := len(items)
	if pq.Offset >= total {
		items = []model.Design{}
	} else {
		items = items[pq.Offset:]
	}
	if pq.Limit > 0 && len(items) > pq.Limit {
		items = items[:pq.Limit]
	}

	return &repository.PageResult[model.Design]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a design by ID; deleting a missing row is not an error.
func (r *DesignMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.designs, id)
	return nil
}

// clone copies a design including its asset slice so callers cannot
// mutate stored state through returned pointers.
func clone(d *model.Design) model.Design {
	out := *d
	if d.Assets != nil {
		out.Assets = make([]model.ImageAsset, len(d.Assets))
		copy(out.Assets, d.Assets)
	}
	return out
}
