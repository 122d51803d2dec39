// Package covers downloads cover images and produces BlurHash placeholders.
package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxCoverSize limits download size to prevent memory exhaustion.
	maxCoverSize = 10 * 1024 * 1024 // 10MB

	// downloadTimeout is the maximum time for a cover download.
	downloadTimeout = 30 * time.Second
)

// Result describes a fetched cover.
type Result struct {
	Path     string // Where the image landed on disk
	BlurHash string // Placeholder hash, empty when computation failed
	Size     int64  // File size in bytes
}

// Cache downloads covers into a local directory, one file per book.
type Cache struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewCache creates a cover cache rooted at dir.
func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create covers directory: %w", err)
	}
	return &Cache{
		dir: dir,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
		logger: logger,
	}, nil
}

// Path returns where a book's cover lives, whether or not it exists yet.
func (c *Cache) Path(bookID string) string {
	return filepath.Join(c.dir, bookID+".img")
}

// Fetch downloads a cover and stores it for the given book ID. The BlurHash
// is best effort: an image we can store but not decode still succeeds,
// just without a placeholder.
func (c *Cache) Fetch(ctx context.Context, bookID, url string) (*Result, error) {
	if url == "" {
		return nil, errors.New("empty cover URL")
	}

	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverSize))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	result := &Result{
		Path: c.Path(bookID),
		Size: int64(len(data)),
	}

	hash, err := ComputeBlurHash(data)
	if err != nil {
		c.logger.Warn("failed to compute cover blurhash",
			"book_id", bookID,
			"url", url,
			"error", err,
		)
	} else {
		result.BlurHash = hash
	}

	if err := os.WriteFile(result.Path, data, 0o644); err != nil {
		return nil, fmt.Errorf("store cover: %w", err)
	}

	c.logger.Info("downloaded cover",
		"book_id", bookID,
		"size", result.Size,
	)

	return result, nil
}

// Remove deletes a book's cached cover. Idempotent.
func (c *Cache) Remove(bookID string) error {
	err := os.Remove(c.Path(bookID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
