package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/corpus"
	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Store.Path
	if cfg.Store.InMemory {
		path = ""
	}

	db, err := store.New(path, log.Component("store"))
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: db}, nil
}

// ProvideCorpus loads the stored records into the in-memory corpus.
func ProvideCorpus(i do.Injector) (*corpus.Corpus, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	records, err := storeHandle.ListRecords(context.Background())
	if err != nil {
		return nil, err
	}

	c := corpus.New(records)
	log.Debug("Corpus loaded", "records", c.Len(), "version", c.Version())
	return c, nil
}
