package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/locaith/locaith-design/internal/model"
	"github.com/locaith/locaith-design/internal/repository"
	"github.com/locaith/locaith-design/internal/repository/memory"
	repoMocks "github.com/locaith/locaith-design/internal/repository/mocks"
)

// guestOnly wires both strategy slots to one in-memory store so tests
// exercise the real persistence path.
func guestOnly() (*repository.Selector, *memory.DesignMemory) {
	store := memory.NewDesignMemory()
	return repository.NewSelector(store, store), store
}

type stubThumbnailer struct {
	thumb string
	err   error
	calls int
}

func (s *stubThumbnailer) Capture(_ context.Context, _ *model.Design) (string, error) {
	s.calls++
	return s.thumb, s.err
}

func newDesign() *model.Design {
	return &model.Design{
		OwnerID: repository.GuestOwnerID,
		Prompt:  "brochure for a bakery",
		Type:    model.TypeBrochure,
		Content: `<div class="print-page"><img src="[[USER_IMG_1]]"/></div>`,
		Title:   "Bakery Brochure",
		Assets:  []model.ImageAsset{{ID: "USER_IMG_1", Data: "data:image/png;base64,Zm9v", Context: model.ContextLogo}},
	}
}

func TestDesignService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("mints id and defaults, stores raw content", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)

		stored, err := svc.Save(ctx, newDesign())
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.False(t, stored.CreatedAt.IsZero())
		assert.Contains(t, stored.Content, "[[USER_IMG_1]]")
	})

	t.Run("substituted content is reverse-mapped before persisting", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)

		d := newDesign()
		// Simulate a visual edit round trip: the rendered view baked the
		// payload into the markup, twice.
		d.Content = `<img src="data:image/png;base64,Zm9v"/><img src="data:image/png;base64,Zm9v"/>`
		stored, err := svc.Save(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, `<img src="[[USER_IMG_1]]"/><img src="[[USER_IMG_1]]"/>`, stored.Content)
		assert.NotContains(t, stored.Content, "base64")
	})

	t.Run("idempotent by id", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)

		d := newDesign()
		first, err := svc.Save(ctx, d)
		require.NoError(t, err)
		_, err = svc.Save(ctx, first)
		require.NoError(t, err)

		res, err := svc.List(ctx, repository.GuestOwnerID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total, "one stored record, not two")
	})

	t.Run("save and load are structurally equal", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)

		d := newDesign()
		d.CreatedAt = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
		stored, err := svc.Save(ctx, d)
		require.NoError(t, err)

		loaded, err := svc.Get(ctx, repository.GuestOwnerID, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.Content, loaded.Content)
		assert.Equal(t, stored.Assets, loaded.Assets)
		assert.Equal(t, stored.Title, loaded.Title)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)

		d := newDesign()
		d.Type = "BANNER"
		_, err := svc.Save(ctx, d)
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("thumbnail failure does not fail the save", func(t *testing.T) {
		repos, _ := guestOnly()
		thumbs := &stubThumbnailer{err: errors.New("raster service down")}
		svc := NewDesignService(repos, thumbs)

		stored, err := svc.Save(ctx, newDesign())
		require.NoError(t, err)
		assert.Empty(t, stored.Thumbnail)
		assert.Equal(t, 1, thumbs.calls)
	})

	t.Run("thumbnail recorded on success", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, &stubThumbnailer{thumb: "thumbnails/d1.png"})

		stored, err := svc.Save(ctx, newDesign())
		require.NoError(t, err)
		assert.Equal(t, "thumbnails/d1.png", stored.Thumbnail)
	})
}

func TestDesignService_Display(t *testing.T) {
	repos, _ := guestOnly()
	svc := NewDesignService(repos, nil)

	d := newDesign()
	assert.Equal(t, `<div class="print-page"><img src="data:image/png;base64,Zm9v"/></div>`, svc.Display(d))

	// A token whose asset was deleted stays literal; rendering it is the
	// renderer's problem (broken image), not a failure here.
	d.Assets = nil
	assert.Equal(t, d.Content, svc.Display(d))
}

func TestDesignService_Assets(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc DesignService, assetCount int) *model.Design {
		t.Helper()
		d := newDesign()
		d.Assets = nil
		for i := 0; i < assetCount; i++ {
			d.Assets = append(d.Assets, model.ImageAsset{
				ID:      "USER_IMG_seed_" + strings.Repeat("x", i+1),
				Data:    "data:image/png;base64,Zm9v",
				Context: model.ContextProduct,
			})
		}
		stored, err := svc.Save(ctx, d)
		require.NoError(t, err)
		return stored
	}

	t.Run("sixth image is rejected and the count stays five", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)
		d := seed(t, svc, 5)

		_, err := svc.AddAsset(ctx, d.OwnerID, d.ID, "data:image/png;base64,Zm9v", model.ContextProduct, "")
		assert.ErrorIs(t, err, ErrTooManyAssets)

		loaded, err := svc.Get(ctx, d.OwnerID, d.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Assets, 5)
	})

	t.Run("add mints a token id", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)
		d := seed(t, svc, 0)

		updated, err := svc.AddAsset(ctx, d.OwnerID, d.ID, "data:image/png;base64,Zm9v", model.ContextLogo, "company logo")
		require.NoError(t, err)
		require.Len(t, updated.Assets, 1)
		assert.True(t, strings.HasPrefix(updated.Assets[0].ID, "USER_IMG_"))
		assert.Equal(t, model.ContextLogo, updated.Assets[0].Context)
	})

	t.Run("oversized payload rejected", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)
		d := seed(t, svc, 0)

		big := strings.Repeat("a", model.MaxAssetBytes+1)
		_, err := svc.AddAsset(ctx, d.OwnerID, d.ID, big, model.ContextProduct, "")
		assert.ErrorIs(t, err, ErrAssetTooLarge)
	})

	t.Run("update and remove", func(t *testing.T) {
		repos, _ := guestOnly()
		svc := NewDesignService(repos, nil)
		d := seed(t, svc, 1)
		assetID := d.Assets[0].ID

		updated, err := svc.UpdateAsset(ctx, d.OwnerID, d.ID, assetID, model.ContextStyle, "mood board")
		require.NoError(t, err)
		assert.Equal(t, model.ContextStyle, updated.Assets[0].Context)
		assert.Equal(t, "mood board", updated.Assets[0].Description)

		updated, err = svc.RemoveAsset(ctx, d.OwnerID, d.ID, assetID)
		require.NoError(t, err)
		assert.Empty(t, updated.Assets)

		_, err = svc.RemoveAsset(ctx, d.OwnerID, d.ID, assetID)
		assert.ErrorIs(t, err, ErrAssetMissing)
	})
}

func TestDesignService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockDesignRepository)
	svc := NewDesignService(repository.NewSelector(repo, repo), nil)

	t.Run("upsert failure surfaces wrapped", func(t *testing.T) {
		repo.On("Upsert", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection reset")).Once()

		_, err := svc.Save(ctx, newDesign())
		assert.ErrorContains(t, err, "save design")
		repo.AssertExpectations(t)
	})

	t.Run("lookup failure is not reported as missing", func(t *testing.T) {
		repo.On("FindByID", mock.Anything, "d1").
			Return(nil, errors.New("connection reset")).Once()

		_, err := svc.Get(ctx, repository.GuestOwnerID, "d1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		repo.AssertExpectations(t)
	})

	t.Run("list failure propagates", func(t *testing.T) {
		repo.On("ListByOwner", mock.Anything, repository.GuestOwnerID, repository.PageQuery{Limit: 10, Offset: 0}).
			Return(nil, errors.New("connection reset")).Once()

		_, err := svc.List(ctx, repository.GuestOwnerID, 10, 0)
		assert.Error(t, err)
		repo.AssertExpectations(t)
	})
}

func TestDesignService_GetDeleteErrors(t *testing.T) {
	ctx := context.Background()
	repos, _ := guestOnly()
	svc := NewDesignService(repos, nil)

	_, err := svc.Get(ctx, repository.GuestOwnerID, "")
	assert.ErrorIs(t, err, ErrIDRequired)

	_, err = svc.Get(ctx, repository.GuestOwnerID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, repository.GuestOwnerID, "missing"), ErrNotFound)

	stored, err := svc.Save(ctx, newDesign())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "someone-else", stored.ID)
	assert.Error(t, err, "cross-owner access is refused")

	require.NoError(t, svc.Delete(ctx, repository.GuestOwnerID, stored.ID))
	_, err = svc.Get(ctx, repository.GuestOwnerID, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
