package main

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/analyzer"
	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/consolidator"
	"github.com/listenupapp/tagcurator/internal/di"
	"github.com/listenupapp/tagcurator/internal/di/providers"
	"github.com/listenupapp/tagcurator/internal/service"
	"github.com/listenupapp/tagcurator/internal/similarity"
)

// commandContext builds the DI container on first use so commands that fail
// flag parsing never open the store.
type commandContext struct {
	flags      config.Flags
	inMemory   bool
	jsonOutput bool

	once     sync.Once
	injector *do.RootScope
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) container() *do.RootScope {
	c.once.Do(func() {
		flags := c.flags
		if c.inMemory {
			flags.InMemory = "true"
		}
		c.injector = di.NewContainer(flags)
	})
	return c.injector
}

func (c *commandContext) store() (*providers.StoreHandle, error) {
	return do.Invoke[*providers.StoreHandle](c.container())
}

func (c *commandContext) consolidator() (*consolidator.Consolidator, error) {
	return di.Bootstrap(c.container())
}

// analyzer returns the analyzer after the consolidator has synced it.
func (c *commandContext) analyzer() (*analyzer.Analyzer, error) {
	if _, err := c.consolidator(); err != nil {
		return nil, err
	}
	return do.Invoke[*analyzer.Analyzer](c.container())
}

func (c *commandContext) similarity() (*similarity.Engine, error) {
	if _, err := c.consolidator(); err != nil {
		return nil, err
	}
	return do.Invoke[*similarity.Engine](c.container())
}

func (c *commandContext) tagIndex() (*providers.TagIndexHandle, error) {
	if _, err := c.consolidator(); err != nil {
		return nil, err
	}
	return do.Invoke[*providers.TagIndexHandle](c.container())
}

func (c *commandContext) curation() (*service.CurationService, error) {
	if _, err := c.consolidator(); err != nil {
		return nil, err
	}
	return do.Invoke[*service.CurationService](c.container())
}

func (c *commandContext) close() {
	if c.injector != nil {
		_ = c.injector.Shutdown()
	}
}
