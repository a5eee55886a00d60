package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
)

var designColumns = []string{"id", "user_id", "prompt", "type", "content", "title", "thumbnail", "assets", "created_at"}

func sampleDesign() *model.Design {
	return &model.Design{
		ID:      "d1",
		OwnerID: "u1",
		Prompt:  "a cv for a developer",
		Type:    model.TypeCV,
		Content: `<div class="print-page"><img src="[[USER_IMG_a]]"/></div>`,
		Title:   "Developer CV",
		Assets: []model.ImageAsset{
			{ID: "USER_IMG_a", Data: "data:image/png;base64,AAAA", Context: model.ContextLogo},
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func designRow(t *testing.T, d *model.Design) *sqlmock.Rows {
	t.Helper()
	assets, err := json.Marshal(d.Assets)
	require.NoError(t, err)
	return sqlmock.NewRows(designColumns).
		AddRow(d.ID, d.OwnerID, d.Prompt, string(d.Type), d.Content, d.Title, d.Thumbnail, assets, d.CreatedAt)
}

func TestDesignPostgres_Upsert(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDesignPostgres(db)
	d := sampleDesign()

	t.Run("insert returns stored row", func(t *testing.T) {
		dbMock.ExpectQuery("INSERT INTO designs").
			WithArgs(d.ID, d.OwnerID, d.Prompt, d.Type, d.Content, d.Title, d.Thumbnail, sqlmock.AnyArg(), d.CreatedAt).
			WillReturnRows(designRow(t, d))

		stored, err := repo.Upsert(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, d.ID, stored.ID)
		assert.Equal(t, d.Content, stored.Content)
		assert.Equal(t, d.Assets, stored.Assets)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("saving twice overwrites, not duplicates", func(t *testing.T) {
		// Same id goes through the same ON CONFLICT statement; the query
		// shape is identical so the second save is an overwrite by
		// construction.
		dbMock.ExpectQuery("INSERT INTO designs").
			WillReturnRows(designRow(t, d))
		dbMock.ExpectQuery("INSERT INTO designs").
			WillReturnRows(designRow(t, d))

		_, err := repo.Upsert(context.Background(), d)
		require.NoError(t, err)
		stored, err := repo.Upsert(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, d.ID, stored.ID)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbMock.ExpectQuery("INSERT INTO designs").
			WillReturnError(errors.New("db down"))

		_, err := repo.Upsert(context.Background(), d)
		assert.Error(t, err)
	})
}

func TestDesignPostgres_FindByID(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDesignPostgres(db)
	d := sampleDesign()

	t.Run("found with asset set intact", func(t *testing.T) {
		dbMock.ExpectQuery("SELECT (.+) FROM designs").
			WithArgs(d.ID).
			WillReturnRows(designRow(t, d))

		got, err := repo.FindByID(context.Background(), d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.Content, got.Content)
		assert.Len(t, got.Assets, 1)
		assert.Equal(t, "USER_IMG_a", got.Assets[0].ID)
	})

	t.Run("missing row", func(t *testing.T) {
		dbMock.ExpectQuery("SELECT (.+) FROM designs").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestDesignPostgres_ListByOwner(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDesignPostgres(db)
	d := sampleDesign()

	dbMock.ExpectQuery("SELECT COUNT").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	dbMock.ExpectQuery("SELECT (.+) FROM designs").
		WithArgs("u1", 10, 0).
		WillReturnRows(designRow(t, d))

	res, err := repo.ListByOwner(context.Background(), "u1", repository.PageQuery{Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, d.ID, res.Items[0].ID)
}

func TestDesignPostgres_Delete(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDesignPostgres(db)

	dbMock.ExpectExec("DELETE FROM designs").
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "d1"))

	dbMock.ExpectExec("DELETE FROM designs").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "missing"), "deleting a missing row is not an error")
}
