// Package client is the Go counterpart of the favorites page: an API client for
// /api/v1/favorites, live metadata hydration, debounced note autosave and
// optimistic favorite toggles.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	domainerrors "github.com/reelnotes/reelnotes-server/internal/errors"
)

const defaultHTTPTimeout = 10 * time.Second

// Entry is one favorite as the server reports it, with the server's cached metadata.
type Entry struct {
	ExternalID int64   `json:"externalId"`
	Title      string  `json:"title"`
	PosterRef  string  `json:"posterRef"`
	Overview   string  `json:"overview"`
	Note       *string `json:"note"`
}

// Favorite is the record returned by an add.
type Favorite struct {
	ID   string `json:"id"`
	Item struct {
		ExternalID int64  `json:"externalId"`
		Title      string `json:"title"`
		PosterRef  string `json:"posterRef"`
		Overview   string `json:"overview"`
	} `json:"item"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// Error is a failed API call. Code carries the server's error code, so
// errors.Is(err, domainerrors.ErrNotFound) works across the wire.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Is matches domain errors by code.
func (e *Error) Is(target error) bool {
	var de *domainerrors.Error
	if errors.As(target, &de) {
		return string(de.Code) == e.Code
	}
	return false
}

// IsUnauthorized reports whether the server rejected the session.
func (e *Error) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsNotFound reports whether the favorite does not exist for this user.
func (e *Error) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IsUpstreamUnavailable reports whether the server could not reach the catalog.
func (e *Error) IsUpstreamUnavailable() bool {
	return e.Code == string(domainerrors.CodeUpstreamUnavailable)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsUnauthorized()
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsNotFound()
}

// IsUpstreamUnavailable reports whether the server could not reach the catalog.
func IsUpstreamUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsUpstreamUnavailable()
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

// API talks to the favorites endpoints with a bearer token.
type API struct {
	http   *http.Client
	base   string
	token  string
	logger *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// NewAPI creates a client for the server at baseURL.
func NewAPI(baseURL, token string, opts ...Option) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	a := &API{
		http:   &http.Client{Timeout: defaultHTTPTimeout},
		base:   u.String() + "/api/v1",
		token:  token,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// List returns the caller's favorites in insertion order.
func (a *API) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := a.do(ctx, http.MethodGet, "/favorites", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Add favorites externalID. Adding an existing favorite returns it unchanged.
func (a *API) Add(ctx context.Context, externalID int64, note *string) (*Favorite, error) {
	body := map[string]any{"externalId": externalID}
	if note != nil {
		body["note"] = *note
	}
	var fav Favorite
	if err := a.do(ctx, http.MethodPost, "/favorites", body, &fav); err != nil {
		return nil, err
	}
	return &fav, nil
}

// Remove unfavorites externalID.
func (a *API) Remove(ctx context.Context, externalID int64) error {
	return a.do(ctx, http.MethodDelete, favoritePath(externalID), nil, nil)
}

// UpdateNote sets the note on a favorite; nil clears it.
func (a *API) UpdateNote(ctx context.Context, externalID int64, note *string) error {
	return a.do(ctx, http.MethodPut, favoritePath(externalID), map[string]any{"note": note}, nil)
}

func favoritePath(externalID int64) string {
	return "/favorites/" + strconv.FormatInt(externalID, 10)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	a.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Code: env.Code, Message: msg, Details: env.Details}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
