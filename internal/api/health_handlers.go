package api

import (
	"context"
	"net/http"
	"time"

	"github.com/reelnotes/reelnotes-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	db := s.checkDatabase(r.Context())

	overall := "healthy"
	if db.Status != "healthy" {
		overall = db.Status
	}

	response.Success(w, HealthResponse{
		Status:     overall,
		Components: map[string]ComponentHealth{"database": db},
	}, s.logger)
}

// handleKeepAlive answers load balancer probes: empty 200 when the database
// answers a ping, 500 when it does not.
func (s *Server) handleKeepAlive(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Error("Keep-alive ping failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// checkDatabase verifies SQLite is reachable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	// nil in tests that only exercise routing
	if s.pinger == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "database not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.pinger.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}
