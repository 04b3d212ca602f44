// Package providers contains dependency injection providers for tagcurator.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development" && cfg.Logger.Level == "debug",
		Environment: cfg.App.Environment,
	})

	log.Debug("Starting tagcurator",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_path", cfg.Store.Path,
		"in_memory", cfg.Store.InMemory,
		"rules_file", cfg.Rules.File,
	)

	return log, nil
}
