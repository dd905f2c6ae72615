package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelnotes/reelnotes-server/internal/api"
	"github.com/reelnotes/reelnotes-server/internal/auth"
	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/service"
	"github.com/reelnotes/reelnotes-server/internal/store/sqlite"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// fakeClock fires timers only when advanced. Callbacks run synchronously on
// the goroutine calling Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// pendingTimers counts timers that are armed and not yet fired.
func (c *fakeClock) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type stubCatalog struct {
	mu     sync.Mutex
	movies map[int64]*catalog.Item
	errs   map[int64]error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		movies: map[int64]*catalog.Item{
			550: {ExternalID: 550, Title: "Fight Club", PosterRef: "/fc.jpg", Overview: "Soap."},
			603: {ExternalID: 603, Title: "The Matrix", PosterRef: "/m.jpg", Overview: "Red pill."},
			13:  {ExternalID: 13, Title: "Forrest Gump", PosterRef: "/fg.jpg", Overview: "Run."},
		},
		errs: map[int64]error{},
	}
}

func (c *stubCatalog) GetMovie(_ context.Context, externalID int64) (*catalog.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.errs[externalID]; err != nil {
		return nil, err
	}
	item, ok := c.movies[externalID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (c *stubCatalog) set(externalID int64, item *catalog.Item, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item != nil {
		c.movies[externalID] = item
	}
	if err != nil {
		c.errs[externalID] = err
	} else {
		delete(c.errs, externalID)
	}
}

// serverEnv runs the real API over httptest with a SQLite store.
type serverEnv struct {
	url     string
	catalog *stubCatalog
	tokens  *auth.TokenService
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()
	log := logger.Discard()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "client.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	cat := newStubCatalog()
	cache := service.NewMetadataCache(st, cat, time.Second, log)
	favorites := service.NewFavoritesService(st, cache, log)

	srv := httptest.NewServer(api.NewServer(favorites, st, tokens, config.ServerConfig{}, log))
	t.Cleanup(srv.Close)

	return &serverEnv{url: srv.URL, catalog: cat, tokens: tokens}
}

func (e *serverEnv) client(t *testing.T, userID string) *API {
	t.Helper()
	tok, err := e.tokens.GenerateAccessToken(userID)
	require.NoError(t, err)
	a, err := NewAPI(e.url, tok)
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }
