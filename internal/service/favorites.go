// Package service holds the favorites core: metadata caching and per-user favorites.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
	"github.com/reelnotes/reelnotes-server/internal/id"
	"github.com/reelnotes/reelnotes-server/internal/metrics"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

// ItemResolver turns an external id into a cached item.
type ItemResolver interface {
	Resolve(ctx context.Context, externalID int64) (*domain.CachedItem, error)
}

// FavoritesService owns per-user favorites. Every call is scoped to the
// session's user; nothing reads a user id from request payloads.
type FavoritesService struct {
	store    store.FavoriteStore
	resolver ItemResolver
	now      func() time.Time
	logger   *slog.Logger
}

// NewFavoritesService creates a new favorites service.
func NewFavoritesService(favorites store.FavoriteStore, resolver ItemResolver, logger *slog.Logger) *FavoritesService {
	return &FavoritesService{
		store:    favorites,
		resolver: resolver,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *FavoritesService) requireSession(sess domain.Session) error {
	if !sess.Valid(s.now()) {
		return domainerrors.Unauthorized("session required")
	}
	return nil
}

// Add favorites externalID for the session user. It is idempotent: an existing
// favorite is returned unchanged with created=false, including when a
// concurrent add wins the insert. An id the catalog does not know is a
// validation error.
func (s *FavoritesService) Add(ctx context.Context, sess domain.Session, externalID int64, note *string) (*domain.Favorite, bool, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, false, err
	}
	if externalID <= 0 {
		return nil, false, invalidExternalID("must be greater than 0")
	}

	existing, err := s.store.GetFavorite(ctx, sess.UserID, externalID)
	if err == nil {
		metrics.FavoriteMutations.WithLabelValues("add", "existing").Inc()
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, s.internal("add", err)
	}

	item, err := s.resolver.Resolve(ctx, externalID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, false, invalidExternalID("no such movie in the catalog")
		}
		metrics.FavoriteMutations.WithLabelValues("add", "error").Inc()
		return nil, false, err
	}

	favID, err := id.NewFavoriteID()
	if err != nil {
		return nil, false, s.internal("add", err)
	}
	now := s.now()
	fav := &domain.Favorite{
		ID:        favID,
		UserID:    sess.UserID,
		Item:      *item,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.CreateFavorite(ctx, fav)
	if errors.Is(err, store.ErrAlreadyExists) {
		winner, getErr := s.store.GetFavorite(ctx, sess.UserID, externalID)
		if getErr != nil {
			return nil, false, s.internal("add", getErr)
		}
		metrics.FavoriteMutations.WithLabelValues("add", "existing").Inc()
		return winner, false, nil
	}
	if err != nil {
		return nil, false, s.internal("add", err)
	}

	metrics.FavoriteMutations.WithLabelValues("add", "created").Inc()
	s.logger.Info("favorite added",
		"user_id", sess.UserID,
		"external_id", externalID,
		"favorite_id", fav.ID,
	)

	return fav, true, nil
}

// Remove deletes the session user's favorite for externalID.
// The cached item stays. Returns NOT_FOUND if it was not favorited.
func (s *FavoritesService) Remove(ctx context.Context, sess domain.Session, externalID int64) error {
	if err := s.requireSession(sess); err != nil {
		return err
	}

	err := s.store.DeleteFavorite(ctx, sess.UserID, externalID)
	if errors.Is(err, store.ErrNotFound) {
		metrics.FavoriteMutations.WithLabelValues("remove", "not_found").Inc()
		return domainerrors.NotFound("favorite not found")
	}
	if err != nil {
		return s.internal("remove", err)
	}

	metrics.FavoriteMutations.WithLabelValues("remove", "ok").Inc()
	s.logger.Info("favorite removed", "user_id", sess.UserID, "external_id", externalID)
	return nil
}

// UpdateNote overwrites the note on the session user's favorite; last write wins.
// A nil note clears it. Returns NOT_FOUND if the item is not favorited.
func (s *FavoritesService) UpdateNote(ctx context.Context, sess domain.Session, externalID int64, note *string) error {
	if err := s.requireSession(sess); err != nil {
		return err
	}

	err := s.store.UpdateFavoriteNote(ctx, sess.UserID, externalID, note, s.now())
	if errors.Is(err, store.ErrNotFound) {
		metrics.FavoriteMutations.WithLabelValues("update_note", "not_found").Inc()
		return domainerrors.NotFound("favorite not found")
	}
	if err != nil {
		return s.internal("update_note", err)
	}

	metrics.FavoriteMutations.WithLabelValues("update_note", "ok").Inc()
	s.logger.Debug("favorite note updated", "user_id", sess.UserID, "external_id", externalID)
	return nil
}

// List returns the session user's favorites in insertion order.
func (s *FavoritesService) List(ctx context.Context, sess domain.Session) ([]*domain.Favorite, error) {
	if err := s.requireSession(sess); err != nil {
		return nil, err
	}

	favs, err := s.store.ListFavorites(ctx, sess.UserID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list favorites")
	}
	return favs, nil
}

func (s *FavoritesService) internal(op string, err error) error {
	metrics.FavoriteMutations.WithLabelValues(op, "error").Inc()
	return domainerrors.Wrapf(err, domainerrors.CodeInternal, "favorite %s failed", op)
}
