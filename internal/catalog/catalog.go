// Package catalog defines the external movie catalog the server caches from
// and the client hydrates with.
package catalog

import (
	"context"
	"errors"
)

// Errors every Lookup implementation reports through errors.Is.
var (
	// ErrNotFound means the catalog has no item with the requested id.
	ErrNotFound = errors.New("catalog: item not found")
	// ErrUnavailable covers transport failures, timeouts, throttling and open breakers.
	ErrUnavailable = errors.New("catalog: unavailable")
	// ErrMalformed means the catalog answered with a body missing required fields.
	ErrMalformed = errors.New("catalog: malformed response")
)

// Item is the metadata the catalog returns for one movie.
type Item struct {
	ExternalID int64
	Title      string
	PosterRef  string
	Overview   string
}

// Lookup fetches a single item by its external id.
type Lookup interface {
	GetMovie(ctx context.Context, externalID int64) (*Item, error)
}
