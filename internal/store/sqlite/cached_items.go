package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

// cachedItemColumns must match the scan order in scanCachedItem.
const cachedItemColumns = `id, external_id, title, poster_ref, synopsis, created_at`

func scanCachedItem(scanner interface{ Scan(dest ...any) error }) (*domain.CachedItem, error) {
	var (
		item      domain.CachedItem
		posterRef sql.NullString
		synopsis  sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&item.ID,
		&item.ExternalID,
		&item.Title,
		&posterRef,
		&synopsis,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	item.PosterRef = posterRef.String
	item.Synopsis = synopsis.String
	item.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// CreateCachedItem inserts a cached item.
// Returns store.ErrAlreadyExists if the external id is already cached.
func (s *Store) CreateCachedItem(ctx context.Context, item *domain.CachedItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cached_items (id, external_id, title, poster_ref, synopsis, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.ExternalID,
		item.Title,
		nullString(item.PosterRef),
		nullString(item.Synopsis),
		formatTime(item.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return fmt.Errorf("insert cached item: %w", err)
	}
	return nil
}

// GetCachedItemByExternalID retrieves a cached item by its catalog id.
// Returns store.ErrNotFound if the item has never been cached.
func (s *Store) GetCachedItemByExternalID(ctx context.Context, externalID int64) (*domain.CachedItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cachedItemColumns+` FROM cached_items WHERE external_id = ?`, externalID)

	item, err := scanCachedItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached item: %w", err)
	}
	return item, nil
}
