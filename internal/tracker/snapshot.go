package tracker

import (
	"encoding/json/v2"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// snapshotDoc is the on-disk shape of the local library snapshot. A single
// JSON document holding the whole collection, rewritten after every
// mutation.
type snapshotDoc struct {
	Version     int                 `json:"version"`
	SavedAt     time.Time           `json:"savedAt"`
	Books       []*domain.Book      `json:"books"`
	ReadingGoal *domain.ReadingGoal `json:"readingGoal,omitempty"`
}

// snapshotVersion is bumped when the snapshot shape changes incompatibly.
const snapshotVersion = 1

// snapshot persists the in-memory collection to a single JSON file.
type snapshot struct {
	path string
}

func newSnapshot(path string) *snapshot {
	return &snapshot{path: path}
}

// Load reads the snapshot from disk. A missing file is not an error and
// returns an empty document.
func (s *snapshot) Load() (*snapshotDoc, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &snapshotDoc{Version: snapshotVersion}, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var doc snapshotDoc
	if err := json.UnmarshalRead(f, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Books == nil {
		doc.Books = []*domain.Book{}
	}
	return &doc, nil
}

// Save writes the snapshot atomically (temp file plus rename) so a crash
// mid-write never corrupts the previous snapshot.
func (s *snapshot) Save(books []*domain.Book, goal *domain.ReadingGoal) error {
	doc := snapshotDoc{
		Version:     snapshotVersion,
		SavedAt:     time.Now().UTC(),
		Books:       books,
		ReadingGoal: goal,
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if err := json.MarshalWrite(tmp, &doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
