package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/reelnotes/reelnotes-server/internal/domain"
	"github.com/reelnotes/reelnotes-server/internal/http/response"
	"github.com/reelnotes/reelnotes-server/internal/metrics"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeySession contextKey = "session"

// requireAuth is middleware that validates access tokens and attaches the session.
// Nothing behind it runs without one.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Missing authorization header", s.logger)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(w, "Invalid authorization header format", s.logger)
			return
		}

		sess, err := s.sessions.VerifyAccessToken(parts[1])
		if err != nil {
			s.logger.Debug("Rejected access token", "error", err, "request_id", middleware.GetReqID(r.Context()))
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeySession, *sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getSession extracts the authenticated session from request context.
// The zero Session is never valid, so handlers can pass it through unchecked.
func getSession(ctx context.Context) domain.Session {
	if sess, ok := ctx.Value(contextKeySession).(domain.Session); ok {
		return sess
	}
	return domain.Session{}
}

// limitMutations caps favorite writes per client IP. A non-positive request
// count disables the limit.
func (s *Server) limitMutations() func(http.Handler) http.Handler {
	if s.cfg.RateLimitRequests <= 0 || s.cfg.RateLimitWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.cfg.RateLimitRequests,
		s.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, "Too many requests", s.logger)
		}),
	)
}

// recordMetrics observes request duration by route pattern, so path
// parameters do not explode label cardinality.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
