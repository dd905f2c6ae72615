package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// WarmUp pings p until it answers, up to attempts times with delay between tries.
// It returns the last ping error if the database never answered.
func WarmUp(ctx context.Context, p Pinger, attempts int, delay time.Duration, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = p.Ping(ctx); err == nil {
			logger.Debug("database ready", "attempt", attempt)
			return nil
		}
		logger.Warn("database not ready", "attempt", attempt, "of", attempts, "error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database warm-up failed after %d attempts: %w", attempts, err)
}
