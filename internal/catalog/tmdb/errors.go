package tmdb

import (
	"errors"
	"fmt"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
)

// Sentinel errors for TMDB API operations. Each wraps the matching catalog error.
var (
	ErrNotFound    = fmt.Errorf("tmdb: not found: %w", catalog.ErrNotFound)
	ErrRateLimited = fmt.Errorf("tmdb: rate limited by server: %w", catalog.ErrUnavailable)
	ErrAuth        = fmt.Errorf("tmdb: api key rejected: %w", catalog.ErrUnavailable)
	ErrServer      = fmt.Errorf("tmdb: server error: %w", catalog.ErrUnavailable)
	ErrBreakerOpen = fmt.Errorf("tmdb: circuit open: %w", catalog.ErrUnavailable)
	ErrMalformed   = fmt.Errorf("tmdb: %w", catalog.ErrMalformed)
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op         string
	ExternalID int64
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("tmdb %s [%d]: %v", e.Op, e.ExternalID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, externalID int64, err error) error {
	return &Error{Op: op, ExternalID: externalID, Err: err}
}

// outcome labels an error for the catalog request counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBreakerOpen):
		return "rejected"
	case errors.Is(err, catalog.ErrNotFound):
		return "not_found"
	case errors.Is(err, catalog.ErrMalformed):
		return "malformed"
	default:
		return "unavailable"
	}
}
