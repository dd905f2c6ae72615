package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/store"
	"github.com/reelnotes/reelnotes-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the SQLite database and waits for it to answer pings.
// A database that never answers is logged and left to the keep-alive probe.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	if err := store.WarmUp(context.Background(), db, warmUpAttempts, warmUpDelay, log.Logger); err != nil {
		log.Warn("Database did not answer during warm-up, continuing", "error", err)
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
