package tracker

import (
	"context"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// Remote is the sync server seen from the tracker. A nil Remote means no
// user session exists and the tracker runs purely against the local
// snapshot.
type Remote interface {
	// ListBooks returns the user's full collection, newest first.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// CreateBook stores a new book and returns the server-assigned ID.
	CreateBook(ctx context.Context, book *domain.Book) (string, error)

	// UpdateBook replaces the stored book with the given state.
	UpdateBook(ctx context.Context, book *domain.Book) error

	// DeleteBook removes a book.
	DeleteBook(ctx context.Context, id string) error

	// DeleteAllBooks clears the user's collection. Used by destructive
	// import, which replaces the remote set wholesale.
	DeleteAllBooks(ctx context.Context) error

	// CreateSession records a completed timed reading session.
	CreateSession(ctx context.Context, session *domain.ReadingSession) error

	// GetGoal returns the user's reading goal, or ErrNotFound.
	GetGoal(ctx context.Context) (*domain.ReadingGoal, error)

	// SetGoal stores the user's reading goal.
	SetGoal(ctx context.Context, goal domain.ReadingGoal) error
}
