package providers

import (
	"github.com/samber/do/v2"

	"github.com/reelnotes/reelnotes-server/internal/config"
	"github.com/reelnotes/reelnotes-server/internal/logger"
	"github.com/reelnotes/reelnotes-server/internal/service"
)

// ProvideMetadataCache provides the cached-item resolver backed by TMDB.
func ProvideMetadataCache(i do.Injector) (*service.MetadataCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMetadataCache(storeHandle.Store, catalogHandle.Client, cfg.Catalog.Timeout, log.Logger), nil
}

// ProvideFavoritesService provides the favorites service.
func ProvideFavoritesService(i do.Injector) (*service.FavoritesService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cache := do.MustInvoke[*service.MetadataCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFavoritesService(storeHandle.Store, cache, log.Logger), nil
}
