package tracker

import (
	"context"
	"slices"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
)

// AddNote attaches a free-form note to a book. Notes live inside the book
// document, so the change rides the same mirror path as any other edit.
func (t *Tracker) AddNote(ctx context.Context, bookID, text string, page int) (*domain.Note, error) {
	if text == "" {
		return nil, apperrors.Validation("note text is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	book, err := t.getLocked(bookID)
	if err != nil {
		return nil, err
	}

	noteID, err := id.Generate("nt")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign note id")
	}

	note := domain.Note{
		ID:        noteID,
		Text:      text,
		Page:      page,
		CreatedAt: t.now(),
	}
	book.Notes = append(book.Notes, note)
	book.Touch()

	t.persistLocked()
	t.enqueueBookMirror(book)
	return &note, nil
}

// DeleteNote removes a note from a book. Idempotent.
func (t *Tracker) DeleteNote(ctx context.Context, bookID, noteID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	book, err := t.getLocked(bookID)
	if err != nil {
		return err
	}

	before := len(book.Notes)
	book.Notes = slices.DeleteFunc(book.Notes, func(n domain.Note) bool {
		return n.ID == noteID
	})
	if len(book.Notes) == before {
		return nil
	}
	book.Touch()

	t.persistLocked()
	t.enqueueBookMirror(book)
	return nil
}
