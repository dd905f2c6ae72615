// Package store defines the persistence contracts for cached catalog items and favorites.
package store

import (
	"context"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/domain"
)

// CachedItemStore persists catalog metadata keyed by external id.
type CachedItemStore interface {
	// CreateCachedItem inserts item. Returns ErrAlreadyExists if the external id is taken.
	CreateCachedItem(ctx context.Context, item *domain.CachedItem) error
	// GetCachedItemByExternalID returns ErrNotFound if nothing is cached for externalID.
	GetCachedItemByExternalID(ctx context.Context, externalID int64) (*domain.CachedItem, error)
}

// FavoriteStore persists per-user favorites. Every method is scoped by user id.
type FavoriteStore interface {
	// CreateFavorite inserts fav. Returns ErrAlreadyExists if the user already favorited the item.
	CreateFavorite(ctx context.Context, fav *domain.Favorite) error
	GetFavorite(ctx context.Context, userID string, externalID int64) (*domain.Favorite, error)
	// ListFavorites returns the user's favorites in insertion order.
	ListFavorites(ctx context.Context, userID string) ([]*domain.Favorite, error)
	// UpdateFavoriteNote overwrites the note. A nil note clears it.
	UpdateFavoriteNote(ctx context.Context, userID string, externalID int64, note *string, updatedAt time.Time) error
	DeleteFavorite(ctx context.Context, userID string, externalID int64) error
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	CachedItemStore
	FavoriteStore
	Pinger
	Close() error
}
