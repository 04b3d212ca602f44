// Package di provides dependency injection configuration for tagcurator.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/di/providers"
	"github.com/listenupapp/tagcurator/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
// Services are built lazily on first invoke.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCorpus)

	// Search layer
	do.Provide(injector, providers.ProvideTagIndex)

	// Engine
	do.Provide(injector, providers.ProvideNormalizer)
	do.Provide(injector, providers.ProvideAnalyzer)
	do.Provide(injector, providers.ProvideSimilarity)
	do.Provide(injector, providers.ProvideConsolidator)

	// Review surface
	do.Provide(injector, providers.ProvideCurationService)
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideRecordsWatcher)

	return injector
}

// Bootstrap builds the engine and returns the consolidator, which reaches
// every other service.
func Bootstrap(injector *do.RootScope) (*consolidator.Consolidator, error) {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return nil, err
	}
	return do.Invoke[*consolidator.Consolidator](injector)
}
