package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/service"
	"github.com/listenupapp/tagcurator/internal/watcher"
)

// ProvideRecordsWatcher provides a watcher that replaces the corpus with the
// configured records file whenever it changes. It fails when no file is set.
func ProvideRecordsWatcher(i do.Injector) (*watcher.Watcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	if cfg.Watch.File == "" {
		return nil, errors.New("no records file to watch")
	}
	curation := do.MustInvoke[*service.CurationService](i)

	onChange := func(ctx context.Context, path string) error {
		_, err := curation.ImportFile(ctx, path, false)
		return err
	}

	return watcher.New(cfg.Watch.File, onChange, &logger.Logger{Logger: log.Component("watcher")},
		watcher.Options{SettleDelay: cfg.Watch.SettleDelay})
}
