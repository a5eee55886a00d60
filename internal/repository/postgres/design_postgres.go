package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
)

// DesignPostgres is a PostgreSQL implementation of
// repository.DesignRepository. It uses database/sql with parameterized
// queries and contains no business logic. The asset set is stored as a
// JSONB column alongside the record so a design always reloads with its
// full image set.
type DesignPostgres struct {
	db *sql.DB
}

// NewDesignPostgres creates a new DesignPostgres repository.
func NewDesignPostgres(db *sql.DB) *DesignPostgres {
	return &DesignPostgres{db: db}
}

var _ repository.DesignRepository = (*DesignPostgres)(nil)

// Upsert writes a design keyed by ID; a second save with the same ID
// overwrites the row.
func (r *DesignPostgres) Upsert(ctx context.Context, d *model.Design) (*model.Design, error) {
	assets, err := json.Marshal(d.Assets)
	if err != nil {
		return nil, fmt.Errorf("marshal assets: %w", err)
	}

	const q = `
		INSERT INTO designs (id, user_id, prompt, type, content, title, thumbnail, assets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			prompt = EXCLUDED.prompt,
			type = EXCLUDED.type,
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			thumbnail = EXCLUDED.thumbnail,
			assets = EXCLUDED.assets
		RETURNING id, user_id, prompt, type, content, title, thumbnail, assets, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		d.ID,
		d.OwnerID,
		d.Prompt,
		d.Type,
		d.Content,
		d.Title,
		d.Thumbnail,
		assets,
		d.CreatedAt,
	)
	return scanDesign(row)
}

// FindByID fetches a single design by its ID.
func (r *DesignPostgres) FindByID(ctx context.Context, id string) (*model.Design, error) {
	const q = `
		SELECT id, user_id, prompt, type, content, title, thumbnail, assets, created_at
		FROM designs
		WHERE id = $1
	`
	return scanDesign(r.db.QueryRowContext(ctx, q, id))
}

// ListByOwner returns an owner's designs using LIMIT/OFFSET pagination and
// a total count, newest first.
func (r *DesignPostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Design], error) {
	const qCount = `SELECT COUNT(*) FROM designs WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, user_id, prompt, type, content, title, thumbnail, assets, created_at
		FROM designs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Design, 0)
	for rows.Next() {
		d, err := scanDesignRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Design]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a design by ID. It does not return an error if the row
// does not exist.
func (r *DesignPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM designs WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDesign(row rowScanner) (*model.Design, error) {
	return scanDesignRow(row)
}

func scanDesignRow(row rowScanner) (*model.Design, error) {
	var (
		d      model.Design
		assets []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Prompt,
		&d.Type,
		&d.Content,
		&d.Title,
		&d.Thumbnail,
		&assets,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(assets) > 0 {
		if err := json.Unmarshal(assets, &d.Assets); err != nil {
			return nil, fmt.Errorf("unmarshal assets: %w", err)
		}
	}
	return &d, nil
}
