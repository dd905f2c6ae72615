package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
)

// FavoriteMutator adds and removes favorites. *API satisfies it.
type FavoriteMutator interface {
	Add(ctx context.Context, externalID int64, note *string) (*Favorite, error)
	Remove(ctx context.Context, externalID int64) error
}

// ToggleState is what a favorite button should show.
type ToggleState struct {
	// Favorited is the rendered value: the target while pending, else the confirmed value.
	Favorited bool
	// Pending is true while a request for this item is in flight.
	Pending bool
}

type toggleItem struct {
	sem       *semaphore.Weighted
	confirmed bool
	pending   bool
	target    bool
}

func (it *toggleItem) state() ToggleState {
	if it.pending {
		return ToggleState{Favorited: it.target, Pending: true}
	}
	return ToggleState{Favorited: it.confirmed}
}

// OptimisticToggle flips favorite membership locally before the server
// answers and reverts on failure. Toggles on one item run one at a time;
// different items proceed independently.
type OptimisticToggle struct {
	api      FavoriteMutator
	onChange func(externalID int64, st ToggleState)
	logger   *slog.Logger

	mu    sync.Mutex
	items map[int64]*toggleItem
}

// NewOptimisticToggle creates a toggle controller. onChange, if non-nil, is
// called outside any lock on every rendered state change.
func NewOptimisticToggle(api FavoriteMutator, onChange func(externalID int64, st ToggleState), logger *slog.Logger) *OptimisticToggle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OptimisticToggle{
		api:      api,
		onChange: onChange,
		logger:   logger,
		items:    make(map[int64]*toggleItem),
	}
}

// Seed marks externalIDs as confirmed favorites, typically from a List.
func (t *OptimisticToggle) Seed(externalIDs ...int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range externalIDs {
		it := t.itemLocked(id)
		if !it.pending {
			it.confirmed = true
		}
	}
}

// State returns what the item should currently render as.
func (t *OptimisticToggle) State(externalID int64) ToggleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.itemLocked(externalID).state()
}

// Toggle flips the item's membership. If another toggle on the same item is
// in flight it waits for it to settle first. It returns the settled value,
// which is the prior value when err is non-nil.
func (t *OptimisticToggle) Toggle(ctx context.Context, externalID int64) (bool, error) {
	return t.apply(ctx, externalID, func(confirmed bool) bool { return !confirmed })
}

// Set drives the item to want. It is a no-op when the settled value already matches.
func (t *OptimisticToggle) Set(ctx context.Context, externalID int64, want bool) (bool, error) {
	return t.apply(ctx, externalID, func(bool) bool { return want })
}

func (t *OptimisticToggle) apply(ctx context.Context, externalID int64, targetFor func(confirmed bool) bool) (bool, error) {
	t.mu.Lock()
	it := t.itemLocked(externalID)
	t.mu.Unlock()

	if err := it.sem.Acquire(ctx, 1); err != nil {
		return t.State(externalID).Favorited, err
	}
	defer it.sem.Release(1)

	t.mu.Lock()
	prior := it.confirmed
	target := targetFor(prior)
	if target == prior {
		t.mu.Unlock()
		return prior, nil
	}
	it.pending = true
	it.target = target
	st := it.state()
	t.mu.Unlock()
	t.notify(externalID, st)

	err := t.send(ctx, externalID, target)

	t.mu.Lock()
	it.pending = false
	if err == nil {
		it.confirmed = target
	}
	settled := it.confirmed
	st = it.state()
	t.mu.Unlock()
	t.notify(externalID, st)

	if err != nil {
		t.logger.Warn("favorite toggle reverted", "external_id", externalID, "target", target, "error", err)
		return settled, err
	}
	return settled, nil
}

// send issues the request. A remove of something already gone and an add of
// something already present both count as success.
func (t *OptimisticToggle) send(ctx context.Context, externalID int64, add bool) error {
	if add {
		_, err := t.api.Add(ctx, externalID, nil)
		if errors.Is(err, domainerrors.ErrConflict) {
			return nil
		}
		return err
	}

	err := t.api.Remove(ctx, externalID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil
	}
	return err
}

func (t *OptimisticToggle) notify(externalID int64, st ToggleState) {
	if t.onChange != nil {
		t.onChange(externalID, st)
	}
}

func (t *OptimisticToggle) itemLocked(externalID int64) *toggleItem {
	it, ok := t.items[externalID]
	if !ok {
		it = &toggleItem{sem: semaphore.NewWeighted(1)}
		t.items[externalID] = it
	}
	return it
}
