// Package tmdb implements catalog.Lookup against The Movie Database v3 API.
package tmdb

import (
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
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/reelnotes/reelnotes-server/internal/catalog"
	"github.com/reelnotes/reelnotes-server/internal/metrics"
	"github.com/reelnotes/reelnotes-server/internal/ratelimit"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

	defaultTimeout         = 5 * time.Second
	defaultRPS             = 20.0
	defaultBurst           = 20
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second

	// TMDB error bodies are small; anything beyond this is not worth reading.
	maxBodyBytes = 1 << 20
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL           string
	APIKey            string
	ImageBaseURL      string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
}

// Client is a rate-limited, circuit-broken TMDB client.
type Client struct {
	http    *http.Client
	base    *url.URL
	apiKey  string
	images  string
	timeout time.Duration
	limiter *ratelimit.KeyedRateLimiter
	breaker *gobreaker.CircuitBreaker[*catalog.Item]
	logger  *slog.Logger
}

var _ catalog.Lookup = (*Client)(nil)

// New creates a TMDB client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid tmdb base url %q", cfg.BaseURL)
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		base:    base,
		apiKey:  cfg.APIKey,
		images:  strings.TrimRight(cfg.ImageBaseURL, "/"),
		timeout: cfg.Timeout,
		limiter: ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		logger:  logger,
	}
	c.breaker = newBreaker("tmdb", cfg.BreakerFailures, cfg.BreakerCooldown, logger)

	return c, nil
}

func newBreaker(name string, failures uint32, cooldown time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker[*catalog.Item] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*catalog.Item](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Unknown ids and caller cancellation say nothing about TMDB health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, catalog.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(metrics.BreakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// ImageURL turns a poster reference into a fetchable URL. Empty refs stay empty.
func (c *Client) ImageURL(posterRef string) string {
	if posterRef == "" || strings.HasPrefix(posterRef, "http") {
		return posterRef
	}
	return c.images + "/" + strings.TrimLeft(posterRef, "/")
}

// GetMovie fetches /movie/{id}. The call is bounded by the client timeout even
// when ctx carries no deadline.
func (c *Client) GetMovie(ctx context.Context, externalID int64) (*catalog.Item, error) {
	if externalID <= 0 {
		return nil, wrapError("getMovie", externalID, ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	item, err := c.breaker.Execute(func() (*catalog.Item, error) {
		return c.fetchMovie(ctx, externalID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	metrics.CatalogRequests.WithLabelValues(outcome(err)).Inc()
	metrics.CatalogRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, wrapError("getMovie", externalID, err)
	}
	return item, nil
}

func (c *Client) fetchMovie(ctx context.Context, externalID int64) (*catalog.Item, error) {
	body, err := c.doRequest(ctx, "/movie/"+strconv.FormatInt(externalID, 10))
	if err != nil {
		return nil, err
	}

	var raw rawMovie
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrMalformed, err)
	}
	if raw.ID == 0 || strings.TrimSpace(raw.Title) == "" {
		return nil, fmt.Errorf("%w: missing id or title", ErrMalformed)
	}
	if raw.ID != externalID {
		return nil, fmt.Errorf("%w: asked for %d, got %d", ErrMalformed, externalID, raw.ID)
	}

	return &catalog.Item{
		ExternalID: raw.ID,
		Title:      raw.Title,
		PosterRef:  raw.PosterPath,
		Overview:   raw.Overview,
	}, nil
}

// doRequest executes a GET with rate limiting and maps HTTP status codes to sentinel errors.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.base.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w: %w", catalog.ErrUnavailable, err)
	}

	u := *c.base
	u.Path += path
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reelnotes/1.0")

	c.logger.Debug("tmdb request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w: %w", catalog.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w: %w", catalog.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuth
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, catalog.ErrUnavailable)
	}
}

type rawMovie struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
	Overview   string `json:"overview"`
}
