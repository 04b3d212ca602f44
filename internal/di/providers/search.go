package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcurator/internal/logger"
	"github.com/listenupapp/tagcurator/internal/search"
)

// TagIndexHandle wraps the tag index with shutdown capability.
type TagIndexHandle struct {
	*search.TagIndex
}

// Shutdown implements do.Shutdownable.
func (h *TagIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideTagIndex provides the in-memory Bleve tag index. It starts empty;
// the consolidator fills it on its first sync.
func ProvideTagIndex(i do.Injector) (*TagIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewTagIndex(search.Options{
		Logger: log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	return &TagIndexHandle{TagIndex: index}, nil
}
