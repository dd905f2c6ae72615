package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultNoteDebounce is the quiet period after the last edit before a note commits.
const DefaultNoteDebounce = time.Second

const defaultCommitTimeout = 10 * time.Second

// ErrAutosaveClosed is returned by Edit after Close.
var ErrAutosaveClosed = errors.New("note autosave closed")

// NoteCommitter persists a note. *API satisfies it.
type NoteCommitter interface {
	UpdateNote(ctx context.Context, externalID int64, note *string) error
}

// AutosaveState is the state of a NoteAutosave.
type AutosaveState int

const (
	// Idle: nothing waiting to be saved.
	Idle AutosaveState = iota
	// PendingCommit: an edit is waiting for the quiet period to elapse.
	PendingCommit
	// Committing: a save is in flight.
	Committing
)

func (s AutosaveState) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingCommit:
		return "pending"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// AutosaveOptions configures a NoteAutosave. Zero values pick defaults.
type AutosaveOptions struct {
	Debounce      time.Duration
	CommitTimeout time.Duration
	Clock         Clock
	Logger        *slog.Logger
	// OnError is called, outside any lock, after a failed commit.
	OnError func(err error)
	// OnCommit is called after a successful commit with the saved text.
	OnCommit func(text string)
}

// NoteAutosave debounces note edits for one favorite and commits at most once
// per quiet period. An edit that lands while a commit is in flight is saved by
// a follow-up commit once the first one finishes.
type NoteAutosave struct {
	api        NoteCommitter
	externalID int64
	opts       AutosaveOptions

	mu     sync.Mutex
	state  AutosaveState
	text   string
	dirty  bool
	timer  Timer
	gen    uint64
	done   chan struct{}
	err    error
	closed bool
}

// NewNoteAutosave creates an autosave for the favorite identified by externalID.
func NewNoteAutosave(api NoteCommitter, externalID int64, opts AutosaveOptions) *NoteAutosave {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultNoteDebounce
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &NoteAutosave{api: api, externalID: externalID, opts: opts}
}

// Edit records the current text of the note field.
func (a *NoteAutosave) Edit(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAutosaveClosed
	}
	a.text = text

	if a.state == Committing {
		a.dirty = true
		return nil
	}
	a.arm()
	return nil
}

// Retry schedules another commit of the current text after a failure.
func (a *NoteAutosave) Retry() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.state != Idle || a.err == nil {
		return
	}
	a.arm()
}

// State returns the current state.
func (a *NoteAutosave) State() AutosaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Text returns the latest edited text.
func (a *NoteAutosave) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text
}

// Err returns the failure of the most recent commit, or nil once a commit succeeds.
func (a *NoteAutosave) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Flush commits any pending edit now and waits for in-flight commits to finish.
// It returns the outcome of the last commit.
func (a *NoteAutosave) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		switch a.state {
		case Idle:
			err := a.err
			a.mu.Unlock()
			return err

		case PendingCommit:
			a.stopTimer()
			text, done := a.begin()
			a.mu.Unlock()
			a.commit(ctx, text, done)

		case Committing:
			done := a.done
			a.mu.Unlock()
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close stops accepting edits and flushes anything pending, so a note typed
// just before the field goes away is still saved.
func (a *NoteAutosave) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(ctx)
}

// arm (re)starts the quiet-period timer. Caller holds mu.
func (a *NoteAutosave) arm() {
	a.stopTimer()
	gen := a.gen
	a.state = PendingCommit
	a.timer = a.opts.Clock.AfterFunc(a.opts.Debounce, func() { a.fire(gen) })
}

// stopTimer cancels the scheduled commit. Bumping gen makes a callback that
// already started a no-op. Caller holds mu.
func (a *NoteAutosave) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

// begin moves to Committing and returns the text to save. Caller holds mu.
func (a *NoteAutosave) begin() (string, chan struct{}) {
	a.state = Committing
	a.dirty = false
	a.done = make(chan struct{})
	return a.text, a.done
}

func (a *NoteAutosave) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.state != PendingCommit {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	text, done := a.begin()
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.opts.CommitTimeout)
	defer cancel()
	a.commit(ctx, text, done)
}

func (a *NoteAutosave) commit(ctx context.Context, text string, done chan struct{}) {
	err := a.api.UpdateNote(ctx, a.externalID, notePtr(text))

	a.mu.Lock()
	a.err = err
	a.state = Idle
	if a.dirty {
		a.dirty = false
		if a.closed {
			// Flush picks this up without waiting for a timer.
			a.stopTimer()
			a.state = PendingCommit
		} else {
			a.arm()
		}
	}
	close(done)
	a.mu.Unlock()

	if err != nil {
		a.opts.Logger.Warn("note autosave failed", "external_id", a.externalID, "error", err)
		if a.opts.OnError != nil {
			a.opts.OnError(err)
		}
		return
	}
	if a.opts.OnCommit != nil {
		a.opts.OnCommit(text)
	}
}

// notePtr maps an empty field to a cleared note.
func notePtr(text string) *string {
	if text == "" {
		return nil
	}
	return &text
}
