package tracker

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
)

// ExportDocument is the interchange format for a full library. Field names
// are part of the format and stay camelCase regardless of internal
// conventions.
type ExportDocument struct {
	ID          string              `json:"id"`
	Version     int                 `json:"version"`
	ExportedAt  time.Time           `json:"exportedAt"`
	Books       []domain.Book       `json:"books"`
	ReadingGoal *domain.ReadingGoal `json:"readingGoal,omitempty"`
}

// exportVersion identifies the current interchange format.
const exportVersion = 1

// ImportReport summarizes an import run.
type ImportReport struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors,omitempty"`
}

// Export serializes the full collection and reading goal.
func (t *Tracker) Export() ([]byte, error) {
	t.mu.Lock()
	doc := ExportDocument{
		ID:         uuid.NewString(),
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Books:      make([]domain.Book, len(t.books)),
	}
	for i, b := range t.books {
		doc.Books[i] = *b
	}
	if t.goal != nil {
		g := *t.goal
		doc.ReadingGoal = &g
	}
	t.mu.Unlock()

	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "encode export")
	}
	return data, nil
}

// Import replaces the collection with the parsed document. Books are
// deduplicated by case-insensitive title or exact ISBN, first occurrence
// wins. With a session the server collection is destructively replaced
// (delete all, then insert each; not transactional, per-record failures
// are reported and already-applied writes stay). Without one the local
// state is replaced directly.
func (t *Tracker) Import(ctx context.Context, data []byte) (*ImportReport, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidation, "malformed import file")
	}
	if len(doc.Books) == 0 && doc.ReadingGoal == nil {
		return nil, apperrors.Validation("import file contains no books or goal")
	}

	report := &ImportReport{}

	// Dedupe and repair records. Missing IDs and timestamps get defaults
	// so files from other exporters still import.
	seenTitles := map[string]bool{}
	seenISBNs := map[string]bool{}
	books := make([]*domain.Book, 0, len(doc.Books))
	for i := range doc.Books {
		b := doc.Books[i]

		title, isbn := dedupeKeys(&b)
		if seenTitles[title] || (isbn != "" && seenISBNs[isbn]) {
			report.Duplicates++
			continue
		}
		seenTitles[title] = true
		if isbn != "" {
			seenISBNs[isbn] = true
		}

		if b.CreatedAt.IsZero() {
			b.InitTimestamps()
		}
		if b.Status == "" {
			b.Status = domain.StatusWantToRead
		}
		if b.ID == "" {
			localID, err := id.Generate(id.LocalPrefix)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign book id")
			}
			b.ID = localID
		}
		books = append(books, &b)
	}

	if t.remote != nil {
		if err := t.remote.DeleteAllBooks(ctx); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeRemoteUnavailable, "clear server collection")
		}
		for _, b := range books {
			remoteID, err := t.remote.CreateBook(ctx, b)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", b.Title, err))
				continue
			}
			b.ID = remoteID
			report.Imported++
		}
		if doc.ReadingGoal != nil {
			if err := t.remote.SetGoal(ctx, *doc.ReadingGoal); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("reading goal: %v", err))
			}
		}
		if err := t.Load(ctx); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("reload after import: %v", err))
		}
		return report, nil
	}

	t.mu.Lock()
	t.books = slices.Clone(books)
	t.sortLocked()
	if doc.ReadingGoal != nil {
		g := *doc.ReadingGoal
		t.goal = &g
	}
	report.Imported = len(books)
	t.persistLocked()
	t.reindexLocked()
	t.mu.Unlock()

	return report, nil
}
