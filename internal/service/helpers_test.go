package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/store/sqlite"
)

// fakeCatalog serves movies from a map. onLookup, when set, runs before the
// answer is returned and can be used to inject a competing writer.
type fakeCatalog struct {
	mu       sync.Mutex
	movies   map[int64]*catalog.Item
	err      error
	calls    atomic.Int32
	onLookup func(ctx context.Context, externalID int64)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{movies: map[int64]*catalog.Item{
		550: {ExternalID: 550, Title: "Fight Club", PosterRef: "/fc.jpg", Overview: "Soap."},
		13:  {ExternalID: 13, Title: "Forrest Gump", PosterRef: "/fg.jpg", Overview: "Run."},
		603: {ExternalID: 603, Title: "The Matrix", PosterRef: "/m.jpg", Overview: "Red pill."},
	}}
}

func (f *fakeCatalog) GetMovie(ctx context.Context, externalID int64) (*catalog.Item, error) {
	f.calls.Add(1)
	if f.onLookup != nil {
		f.onLookup(ctx, externalID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.movies[externalID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type testEnv struct {
	store     *sqlite.Store
	catalog   *fakeCatalog
	cache     *MetadataCache
	favorites *FavoritesService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newTestStore(t)
	cat := newFakeCatalog()
	cache := NewMetadataCache(st, cat, time.Second, logger.Discard())
	return &testEnv{
		store:     st,
		catalog:   cat,
		cache:     cache,
		favorites: NewFavoritesService(st, cache, logger.Discard()),
	}
}

func session(userID string) domain.Session {
	return domain.Session{UserID: userID, TokenID: "tok-" + userID, ExpiresAt: time.Now().Add(time.Hour)}
}

func strPtr(s string) *string { return &s }
