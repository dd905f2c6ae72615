package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/domain"
	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

func TestAdd_ThenList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := session("alice")

	fav, created, err := env.favorites.Add(ctx, alice, 550, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice", fav.UserID)
	assert.Equal(t, int64(550), fav.ExternalID())
	assert.Nil(t, fav.Note)

	list, err := env.favorites.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fav.ID, list[0].ID)
	assert.Equal(t, "Fight Club", list[0].Item.Title)
}

func TestAdd_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := session("alice")

	first, created, err := env.favorites.Add(ctx, alice, 550, strPtr("first"))
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := env.favorites.Add(ctx, alice, 550, strPtr("ignored"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, strPtr("first"), second.Note, "existing favorite is returned unchanged")

	list, err := env.favorites.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// raceStore inserts a competing favorite right before the service's insert.
type raceStore struct {
	store.FavoriteStore
	once sync.Once
}

func (r *raceStore) CreateFavorite(ctx context.Context, fav *domain.Favorite) error {
	r.once.Do(func() {
		competitor := *fav
		competitor.ID = "fav-winner"
		if err := r.FavoriteStore.CreateFavorite(ctx, &competitor); err != nil {
			panic(err)
		}
	})
	return r.FavoriteStore.CreateFavorite(ctx, fav)
}

func TestAdd_LosesInsertRace(t *testing.T) {
	env := newTestEnv(t)
	svc := NewFavoritesService(&raceStore{FavoriteStore: env.store}, env.cache, logger.Discard())

	fav, created, err := svc.Add(context.Background(), session("alice"), 550, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "fav-winner", fav.ID)

	list, err := svc.List(context.Background(), session("alice"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAdd_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	alice := session("alice")

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]bool{}
		created int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fav, c, err := env.favorites.Add(context.Background(), alice, 13, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[fav.ID] = true
			if c {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, created)

	list, err := env.favorites.List(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAdd_UnknownMovie(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.favorites.Add(context.Background(), session("alice"), 99999, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, "externalId")
}

func TestAdd_CatalogDown(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.setErr(catalog.ErrUnavailable)

	_, _, err := env.favorites.Add(context.Background(), session("alice"), 550, nil)
	assert.ErrorIs(t, err, domainerrors.ErrUpstreamUnavailable)

	list, err := env.favorites.List(context.Background(), session("alice"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdd_AlreadyCachedSkipsCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.favorites.Add(ctx, session("alice"), 550, nil)
	require.NoError(t, err)

	// Catalog outage does not matter once the item is cached.
	env.catalog.setErr(catalog.ErrUnavailable)
	_, created, err := env.favorites.Add(ctx, session("bob"), 550, nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := session("alice")

	_, _, err := env.favorites.Add(ctx, alice, 550, nil)
	require.NoError(t, err)

	require.NoError(t, env.favorites.Remove(ctx, alice, 550))

	list, err := env.favorites.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = env.favorites.Remove(ctx, alice, 550)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRemove_NeverFavorited(t *testing.T) {
	env := newTestEnv(t)

	err := env.favorites.Remove(context.Background(), session("alice"), 603)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpdateNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := session("alice")

	_, _, err := env.favorites.Add(ctx, alice, 550, nil)
	require.NoError(t, err)

	require.NoError(t, env.favorites.UpdateNote(ctx, alice, 550, strPtr("N")))
	require.NoError(t, env.favorites.UpdateNote(ctx, alice, 550, strPtr("last write")))

	list, err := env.favorites.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strPtr("last write"), list[0].Note)

	require.NoError(t, env.favorites.UpdateNote(ctx, alice, 550, nil))
	list, _ = env.favorites.List(ctx, alice)
	assert.Nil(t, list[0].Note)
}

func TestUpdateNote_NotFavorited(t *testing.T) {
	env := newTestEnv(t)

	err := env.favorites.UpdateNote(context.Background(), session("alice"), 550, strPtr("x"))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	expired := domain.Session{UserID: "alice", ExpiresAt: time.Now().Add(-time.Minute)}

	for _, sess := range []domain.Session{{}, expired} {
		_, _, err := env.favorites.Add(ctx, sess, 550, nil)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

		assert.ErrorIs(t, env.favorites.Remove(ctx, sess, 550), domainerrors.ErrUnauthorized)
		assert.ErrorIs(t, env.favorites.UpdateNote(ctx, sess, 550, nil), domainerrors.ErrUnauthorized)

		_, err = env.favorites.List(ctx, sess)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	}
	assert.Equal(t, int32(0), env.catalog.calls.Load())
}

func TestFavorites_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := session("user-a"), session("user-b")

	_, _, err := env.favorites.Add(ctx, a, 550, nil)
	require.NoError(t, err)
	list, _ := env.favorites.List(ctx, a)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Note)

	require.NoError(t, env.favorites.UpdateNote(ctx, a, 550, strPtr("watch with mom")))
	list, _ = env.favorites.List(ctx, a)
	assert.Equal(t, strPtr("watch with mom"), list[0].Note)

	require.NoError(t, env.favorites.Remove(ctx, a, 550))
	list, _ = env.favorites.List(ctx, a)
	assert.Empty(t, list)

	_, created, err := env.favorites.Add(ctx, b, 550, nil)
	require.NoError(t, err)
	assert.True(t, created)
	listA, _ := env.favorites.List(ctx, a)
	assert.Empty(t, listA)

	// The cached item outlives user A's favorite.
	_, err = env.store.GetCachedItemByExternalID(ctx, 550)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), env.catalog.calls.Load())
}

func TestList_InsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := session("alice")

	for _, ext := range []int64{603, 13, 550} {
		_, _, err := env.favorites.Add(ctx, alice, ext, nil)
		require.NoError(t, err)
	}

	list, err := env.favorites.List(ctx, alice)
	require.NoError(t, err)
	got := make([]int64, 0, len(list))
	for _, f := range list {
		got = append(got, f.ExternalID())
	}
	assert.Equal(t, []int64{603, 13, 550}, got)
}
