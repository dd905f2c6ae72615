package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/domain"
	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
	"github.com/reelnotes/reelnotes-server/internal/id"
	"github.com/reelnotes/reelnotes-server/internal/metrics"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

// DefaultLookupTimeout bounds a single catalog lookup during resolution.
const DefaultLookupTimeout = 5 * time.Second

// MetadataCache is the only writer of cached catalog metadata.
type MetadataCache struct {
	items   store.CachedItemStore
	catalog catalog.Lookup
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewMetadataCache creates a metadata cache. A non-positive timeout uses DefaultLookupTimeout.
func NewMetadataCache(items store.CachedItemStore, lookup catalog.Lookup, timeout time.Duration, logger *slog.Logger) *MetadataCache {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &MetadataCache{
		items:   items,
		catalog: lookup,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Resolve returns the cached item for externalID, fetching and persisting it on first use.
//
// Concurrent first-time resolution is settled by the unique external id: the
// losing insert re-reads and returns the winner's record. Catalog failures
// never touch the cache and surface as NOT_FOUND or UPSTREAM_UNAVAILABLE.
func (c *MetadataCache) Resolve(ctx context.Context, externalID int64) (*domain.CachedItem, error) {
	if externalID <= 0 {
		return nil, invalidExternalID("must be greater than 0")
	}

	existing, err := c.items.GetCachedItemByExternalID(ctx, externalID)
	if err == nil {
		metrics.CacheResolutions.WithLabelValues("hit").Inc()
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read metadata cache")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fetched, err := c.catalog.GetMovie(lookupCtx, externalID)
	if err != nil {
		return nil, c.lookupError(externalID, err)
	}

	itemID, err := id.NewCachedItemID()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate item id")
	}
	item := &domain.CachedItem{
		ID:         itemID,
		ExternalID: externalID,
		Title:      fetched.Title,
		PosterRef:  fetched.PosterRef,
		Synopsis:   fetched.Overview,
		CreatedAt:  c.now(),
	}

	err = c.items.CreateCachedItem(ctx, item)
	switch {
	case err == nil:
		metrics.CacheResolutions.WithLabelValues("miss").Inc()
		c.logger.Info("cached catalog item",
			"external_id", externalID,
			"item_id", item.ID,
			"title", item.Title,
		)
		return item, nil

	case errors.Is(err, store.ErrAlreadyExists):
		// Another request cached it first; theirs is canonical.
		winner, getErr := c.items.GetCachedItemByExternalID(ctx, externalID)
		if getErr != nil {
			return nil, domainerrors.Wrap(getErr, domainerrors.CodeInternal, "failed to re-read cached item")
		}
		metrics.CacheResolutions.WithLabelValues("race").Inc()
		c.logger.Debug("lost cache insert race", "external_id", externalID, "item_id", winner.ID)
		return winner, nil

	default:
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist cached item")
	}
}

func (c *MetadataCache) lookupError(externalID int64, err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "movie not found in catalog")
	}
	c.logger.Warn("catalog lookup failed", "external_id", externalID, "error", err)
	return domainerrors.Wrap(err, domainerrors.CodeUpstreamUnavailable, "movie catalog unavailable")
}

func invalidExternalID(reason string) error {
	return domainerrors.ValidationWithDetails("invalid externalId", map[string]string{
		"externalId": reason,
	})
}
