package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

// favoriteSelect joins each favorite to its cached item.
// Column order must match scanFavorite.
const favoriteSelect = `
	SELECT f.id, f.user_id, f.note, f.created_at, f.updated_at,
	       c.id, c.external_id, c.title, c.poster_ref, c.synopsis, c.created_at
	FROM favorites f
	JOIN cached_items c ON c.id = f.cached_item_id`

// itemByExternalID resolves an external id to the cached item primary key inside a statement.
const itemByExternalID = `(SELECT id FROM cached_items WHERE external_id = ?)`

func scanFavorite(scanner interface{ Scan(dest ...any) error }) (*domain.Favorite, error) {
	var (
		f             domain.Favorite
		note          sql.NullString
		posterRef     sql.NullString
		synopsis      sql.NullString
		createdAt     string
		updatedAt     string
		itemCreatedAt string
	)

	err := scanner.Scan(
		&f.ID,
		&f.UserID,
		&note,
		&createdAt,
		&updatedAt,
		&f.Item.ID,
		&f.Item.ExternalID,
		&f.Item.Title,
		&posterRef,
		&synopsis,
		&itemCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if note.Valid {
		f.Note = &note.String
	}
	f.Item.PosterRef = posterRef.String
	f.Item.Synopsis = synopsis.String

	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if f.Item.CreatedAt, err = parseTime(itemCreatedAt); err != nil {
		return nil, err
	}

	return &f, nil
}

// CreateFavorite inserts a favorite for fav.UserID and fav.Item.ID.
// Returns store.ErrAlreadyExists if the user already favorited the item.
func (s *Store) CreateFavorite(ctx context.Context, fav *domain.Favorite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, cached_item_id, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fav.ID,
		fav.UserID,
		fav.Item.ID,
		nullableString(fav.Note),
		formatTime(fav.CreatedAt),
		formatTime(fav.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// GetFavorite returns the user's favorite for externalID.
// Returns store.ErrNotFound if the user has not favorited it.
func (s *Store) GetFavorite(ctx context.Context, userID string, externalID int64) (*domain.Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		favoriteSelect+` WHERE f.user_id = ? AND c.external_id = ?`, userID, externalID)

	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return f, nil
}

// ListFavorites returns the user's favorites in insertion order.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		favoriteSelect+` WHERE f.user_id = ? ORDER BY f.rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favs := []*domain.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	return favs, nil
}

// UpdateFavoriteNote overwrites the note on the user's favorite. A nil note clears it.
// Returns store.ErrNotFound if the user has not favorited externalID.
func (s *Store) UpdateFavoriteNote(ctx context.Context, userID string, externalID int64, note *string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE favorites SET note = ?, updated_at = ?
		WHERE user_id = ? AND cached_item_id = `+itemByExternalID,
		nullableString(note),
		formatTime(updatedAt),
		userID,
		externalID,
	)
	if err != nil {
		return fmt.Errorf("update favorite note: %w", err)
	}
	return requireOneRow(result)
}

// DeleteFavorite removes the user's favorite. The cached item is left in place.
// Returns store.ErrNotFound if the user has not favorited externalID.
func (s *Store) DeleteFavorite(ctx context.Context, userID string, externalID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = ? AND cached_item_id = `+itemByExternalID,
		userID,
		externalID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
