package client

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
)

// DefaultHydrateConcurrency bounds parallel catalog fetches during Load.
const DefaultHydrateConcurrency = 8

// FavoritesLister lists the caller's favorites. *API satisfies it.
type FavoritesLister interface {
	List(ctx context.Context) ([]Entry, error)
}

// View is one favorite merged with live catalog metadata.
type View struct {
	ExternalID int64
	Title      string
	PosterRef  string
	Overview   string
	Note       *string

	// Placeholder means no live metadata could be fetched. Title then holds
	// the server's cached title as a label only; poster and overview are empty.
	Placeholder bool
	// Err is this entry's live fetch failure, if any.
	Err error
}

// FavoritesClient loads favorites and refreshes their display metadata from
// the catalog, so titles and posters are current even when the server's
// cached copy is old.
type FavoritesClient struct {
	api         FavoritesLister
	catalog     catalog.Lookup
	concurrency int
	logger      *slog.Logger
}

// NewFavoritesClient creates a client. A non-positive concurrency uses the default.
func NewFavoritesClient(api FavoritesLister, lookup catalog.Lookup, concurrency int, logger *slog.Logger) *FavoritesClient {
	if concurrency <= 0 {
		concurrency = DefaultHydrateConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FavoritesClient{api: api, catalog: lookup, concurrency: concurrency, logger: logger}
}

// Load lists favorites and hydrates each one independently. Only the list
// call can fail Load; per-entry catalog failures are recorded on that entry.
func (c *FavoritesClient) Load(ctx context.Context) ([]View, error) {
	entries, err := c.api.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(entries))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			views[i] = c.hydrate(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return views, nil
}

func (c *FavoritesClient) hydrate(ctx context.Context, entry Entry) View {
	view := View{ExternalID: entry.ExternalID, Note: entry.Note}

	if c.catalog == nil {
		return placeholder(view, entry)
	}

	live, err := c.catalog.GetMovie(ctx, entry.ExternalID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("live metadata unavailable", "external_id", entry.ExternalID, "error", err)
		}
		view.Err = err
		return placeholder(view, entry)
	}

	view.Title = live.Title
	view.PosterRef = live.PosterRef
	view.Overview = live.Overview
	return view
}

func placeholder(view View, entry Entry) View {
	view.Placeholder = true
	view.Title = entry.Title
	return view
}
