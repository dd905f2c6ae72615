package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/store"
)

func makeTestFavorite(id, userID string, item *domain.CachedItem, note *string) *domain.Favorite {
	now := time.Now()
	return &domain.Favorite{
		ID:        id,
		UserID:    userID,
		Item:      *item,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func strPtr(s string) *string { return &s }

// seedItems caches one item per external id and returns them in order.
func seedItems(t *testing.T, s *Store, externalIDs ...int64) []*domain.CachedItem {
	t.Helper()
	items := make([]*domain.CachedItem, 0, len(externalIDs))
	for i, ext := range externalIDs {
		item := makeTestItem("item-"+string(rune('a'+i)), ext)
		if err := s.CreateCachedItem(context.Background(), item); err != nil {
			t.Fatalf("seed item %d: %v", ext, err)
		}
		items = append(items, item)
	}
	return items
}

func TestCreateAndGetFavorite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	fav := makeTestFavorite("fav-1", "user-a", items[0], strPtr("rewatch"))
	if err := s.CreateFavorite(ctx, fav); err != nil {
		t.Fatalf("CreateFavorite: %v", err)
	}

	got, err := s.GetFavorite(ctx, "user-a", 550)
	if err != nil {
		t.Fatalf("GetFavorite: %v", err)
	}
	if got.ID != "fav-1" {
		t.Errorf("ID: got %q, want fav-1", got.ID)
	}
	if got.Item.ExternalID != 550 || got.Item.Title != "Fight Club" {
		t.Errorf("Item: got %+v", got.Item)
	}
	if got.Note == nil || *got.Note != "rewatch" {
		t.Errorf("Note: got %v, want rewatch", got.Note)
	}

	// Another user sees nothing.
	if _, err := s.GetFavorite(ctx, "user-b", 550); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestCreateFavorite_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-1", "user-a", items[0], nil)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := s.CreateFavorite(ctx, makeTestFavorite("fav-2", "user-a", items[0], nil))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Same item, different user is fine.
	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-3", "user-b", items[0], nil)); err != nil {
		t.Fatalf("other user create: %v", err)
	}
}

func TestCreateFavorite_UnknownItem(t *testing.T) {
	s := newTestStore(t)

	ghost := &domain.CachedItem{ID: "item-ghost", ExternalID: 1}
	err := s.CreateFavorite(context.Background(), makeTestFavorite("fav-1", "user-a", ghost, nil))
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
}

func TestListFavorites_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 300, 100, 200)

	for i, item := range items {
		fav := makeTestFavorite("fav-"+string(rune('z'-i)), "user-a", item, nil)
		if err := s.CreateFavorite(ctx, fav); err != nil {
			t.Fatalf("CreateFavorite: %v", err)
		}
	}

	got, err := s.ListFavorites(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}

	want := []int64{300, 100, 200}
	if len(got) != len(want) {
		t.Fatalf("expected %d favorites, got %d", len(want), len(got))
	}
	for i, ext := range want {
		if got[i].Item.ExternalID != ext {
			t.Errorf("position %d: got %d, want %d", i, got[i].Item.ExternalID, ext)
		}
	}
}

func TestListFavorites_Empty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ListFavorites(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestUpdateFavoriteNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-1", "user-a", items[0], nil)); err != nil {
		t.Fatalf("CreateFavorite: %v", err)
	}

	later := time.Now().Add(time.Minute)
	if err := s.UpdateFavoriteNote(ctx, "user-a", 550, strPtr("watch with mom"), later); err != nil {
		t.Fatalf("UpdateFavoriteNote: %v", err)
	}

	got, err := s.GetFavorite(ctx, "user-a", 550)
	if err != nil {
		t.Fatalf("GetFavorite: %v", err)
	}
	if got.Note == nil || *got.Note != "watch with mom" {
		t.Errorf("Note: got %v", got.Note)
	}
	if !got.UpdatedAt.Equal(later.UTC()) {
		t.Errorf("UpdatedAt: got %v, want %v", got.UpdatedAt, later)
	}

	// nil clears.
	if err := s.UpdateFavoriteNote(ctx, "user-a", 550, nil, later); err != nil {
		t.Fatalf("clear note: %v", err)
	}
	got, _ = s.GetFavorite(ctx, "user-a", 550)
	if got.Note != nil {
		t.Errorf("expected nil note, got %q", *got.Note)
	}
}

func TestUpdateFavoriteNote_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-1", "user-a", items[0], nil)); err != nil {
		t.Fatalf("CreateFavorite: %v", err)
	}

	tests := []struct {
		name   string
		userID string
		ext    int64
	}{
		{"other user", "user-b", 550},
		{"not cached", "user-a", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateFavoriteNote(ctx, tt.userID, tt.ext, strPtr("x"), time.Now())
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDeleteFavorite_KeepsCachedItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-1", "user-a", items[0], nil)); err != nil {
		t.Fatalf("CreateFavorite: %v", err)
	}

	if err := s.DeleteFavorite(ctx, "user-a", 550); err != nil {
		t.Fatalf("DeleteFavorite: %v", err)
	}
	if _, err := s.GetFavorite(ctx, "user-a", 550); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected favorite gone, got %v", err)
	}
	if _, err := s.GetCachedItemByExternalID(ctx, 550); err != nil {
		t.Errorf("cached item should survive: %v", err)
	}

	if err := s.DeleteFavorite(ctx, "user-a", 550); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCachedItem_Restricted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	items := seedItems(t, s, 550)

	if err := s.CreateFavorite(ctx, makeTestFavorite("fav-1", "user-a", items[0], nil)); err != nil {
		t.Fatalf("CreateFavorite: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_items WHERE id = ?`, items[0].ID); err == nil {
		t.Error("expected foreign key restriction")
	}
}
