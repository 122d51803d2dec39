package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/lilizblack/bookeareads-server/internal/config"
	"github.com/lilizblack/bookeareads-server/internal/logger"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded repopulates an empty index from the store.
// The index lands empty after a mapping-version rebuild or when the index
// directory was deleted while the database survived.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)

	count, err := indexHandle.DocumentCount()
	if err != nil {
		log.Warn("Could not read search index document count", "error", err)
		return
	}
	if count > 0 {
		return
	}

	go func() {
		indexed, err := library.ReindexAll(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		if indexed > 0 {
			log.Info("Search index rebuilt", "books", indexed)
		}
	}()
}
