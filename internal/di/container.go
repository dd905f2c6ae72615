// Package di provides dependency injection configuration for the reelnotes server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/reelnotes/reelnotes-server/internal/auth"
	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/di/providers"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Catalog
	do.Provide(injector, providers.ProvideCatalogClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideMetadataCache)
	do.Provide(injector, providers.ProvideFavoritesService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CatalogClientHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*service.MetadataCache](injector)
	_ = do.MustInvoke[*service.FavoritesService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
