package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.CourseIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve course index and wires it into the store.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewCourseIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Logger.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Keep the index in sync with course writes.
	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{CourseIndex: index}, nil
}

// EnsureSearchIndex rebuilds an empty index from the store.
// Should be called after all services are wired.
func EnsureSearchIndex(ctx context.Context, i do.Injector) {
	courses := do.MustInvoke[*service.CourseService](i)
	log := do.MustInvoke[*LoggerHandle](i)

	n, err := courses.EnsureSearchIndex(ctx)
	if err != nil {
		log.Error("Initial search reindex failed", "error", err)
		return
	}
	if n > 0 {
		log.Info("Initial search reindex completed", "documents", n)
	}
}
