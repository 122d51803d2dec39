// Package importwatch watches a drop directory for export files and imports
// them into the tracker. Dropping a library export into the watched folder
// replaces the collection, the same as a manual import.
package importwatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lilizblack/bookeareads-server/internal/tracker"
)

// defaultSettleDelay is how long a file must stay unchanged before it is
// considered fully written. Cloud sync folders write in bursts.
const defaultSettleDelay = 2 * time.Second

// doneSuffix marks files that were imported so they are not picked up again.
const doneSuffix = ".imported"

// Importer consumes an export document. Satisfied by *tracker.Tracker.
type Importer interface {
	Import(ctx context.Context, data []byte) (*tracker.ImportReport, error)
}

// Options configures the watcher.
type Options struct {
	// Dir is the drop directory to watch. Created when missing.
	Dir string

	// SettleDelay overrides how long a file must be quiet before import.
	SettleDelay time.Duration
}

// Watcher monitors the drop directory and imports settled export files.
type Watcher struct {
	importer    Importer
	watcher     *fsnotify.Watcher
	logger      *slog.Logger
	dir         string
	settleDelay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for the drop directory.
func New(importer Importer, logger *slog.Logger, opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("import watch directory is required")
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create import watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		importer:    importer,
		watcher:     fsw,
		logger:      logger,
		dir:         filepath.Clean(opts.Dir),
		settleDelay: opts.SettleDelay,
		pending:     make(map[string]*time.Timer),
	}, nil
}

// Start watches the drop directory until the context is cancelled. Files
// already present at startup are imported too.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching for library imports", "dir", w.dir)

	w.scanExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("import watch error", "error", err)
		}
	}
}

// scanExisting schedules any export files that were dropped while the
// watcher was not running.
func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan import directory", "dir", w.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.schedule(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// schedule queues a file for import once it has settled. Repeated writes
// reset the timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !isExportFile(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settleDelay)
		return
	}

	w.pending[path] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.importFile(ctx, path)
	})
}

// importFile reads one settled export file and feeds it to the importer.
// Successful imports get renamed so they are not processed twice.
func (w *Watcher) importFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("failed to read dropped export", "path", path, "error", err)
		return
	}

	report, err := w.importer.Import(ctx, data)
	if err != nil {
		w.logger.Error("import failed", "path", path, "error", err)
		return
	}

	w.logger.Info("import complete",
		"path", path,
		"imported", report.Imported,
		"duplicates", report.Duplicates,
		"errors", len(report.Errors),
	)

	if err := os.Rename(path, path+doneSuffix); err != nil {
		w.logger.Warn("failed to mark export as imported", "path", path, "error", err)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// isExportFile reports whether the path looks like a library export.
func isExportFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, doneSuffix)
}
