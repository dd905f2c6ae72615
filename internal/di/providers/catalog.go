package providers

import (
	"github.com/samber/do/v2"

	"github.com/reelnotes/reelnotes-server/internal/catalog/tmdb"
	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/logger"
)

// CatalogClientHandle wraps the TMDB client with shutdown capability.
type CatalogClientHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideCatalogClient provides the TMDB API client.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := tmdb.New(tmdb.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		APIKey:            cfg.Catalog.APIKey,
		ImageBaseURL:      cfg.Catalog.ImageBaseURL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
		BreakerFailures:   cfg.Catalog.BreakerFailures,
		BreakerCooldown:   cfg.Catalog.BreakerCooldown,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.APIKey == "" {
		log.Warn("TMDB API key is empty, catalog lookups will be rejected")
	}
	log.Info("TMDB client initialized",
		"base_url", cfg.Catalog.BaseURL,
		"timeout", cfg.Catalog.Timeout,
	)

	return &CatalogClientHandle{Client: client}, nil
}
