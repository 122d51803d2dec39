package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

// LibraryService manages each user's book collection on the sync server.
// Clients are the source of truth: document writes from them win, so most
// operations are thin persistence calls plus index upkeep.
type LibraryService struct {
	store  *store.Store
	index  *search.SearchIndex // optional
	logger *slog.Logger
}

// NewLibraryService creates the library service.
func NewLibraryService(store *store.Store, index *search.SearchIndex, logger *slog.Logger) *LibraryService {
	return &LibraryService{store: store, index: index, logger: logger}
}

// CreateBook stores a new book for the user and assigns it a server ID.
// Client-side provisional IDs are discarded.
func (s *LibraryService) CreateBook(ctx context.Context, userID string, book *domain.Book) (*domain.Book, error) {
	if book.Title == "" {
		return nil, apperrors.Validation("title is required")
	}

	bookID, err := id.Generate("bk")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign book id")
	}
	book.ID = bookID
	if book.CreatedAt.IsZero() {
		book.InitTimestamps()
	} else {
		book.UpdatedAt = time.Now()
	}
	if book.Status == "" {
		book.Status = domain.StatusWantToRead
	}

	if err := s.store.CreateBook(ctx, userID, book); err != nil {
		return nil, err
	}
	s.indexBook(userID, book)
	return book, nil
}

// GetBook returns one book.
func (s *LibraryService) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, userID, bookID)
}

// PutBook stores the client's state for a book unconditionally. Mirror
// writes use this; the client is authoritative.
func (s *LibraryService) PutBook(ctx context.Context, userID string, book *domain.Book) error {
	if book.ID == "" {
		return apperrors.Validation("book id is required")
	}
	book.UpdatedAt = time.Now()
	if err := s.store.PutBook(ctx, userID, book); err != nil {
		return err
	}
	s.indexBook(userID, book)
	return nil
}

// DeleteBook removes one book.
func (s *LibraryService) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := s.store.DeleteBook(ctx, userID, bookID); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteDocument(bookID); err != nil {
			s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
		}
	}
	return nil
}

// ListBooks returns the user's collection, newest first.
func (s *LibraryService) ListBooks(ctx context.Context, userID string) ([]domain.Book, error) {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(books, func(a, b domain.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return books, nil
}

// ReplaceAllBooks wipes the collection. Destructive import calls this
// before re-inserting; the two steps are not transactional.
func (s *LibraryService) ReplaceAllBooks(ctx context.Context, userID string) error {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAllBooks(ctx, userID); err != nil {
		return err
	}
	if s.index != nil && len(books) > 0 {
		ids := make([]string, len(books))
		for i := range books {
			ids[i] = books[i].ID
		}
		if err := s.index.DeleteDocuments(ids); err != nil {
			s.logger.Warn("failed to clear user's search documents", "user_id", userID, "error", err)
		}
	}
	return nil
}

// RecordSession stores a completed timed reading session.
func (s *LibraryService) RecordSession(ctx context.Context, userID string, session *domain.ReadingSession) (*domain.ReadingSession, error) {
	if session.BookID == "" {
		return nil, apperrors.Validation("book_id is required")
	}
	if session.ID == "" {
		sessionID, err := id.Generate("ses")
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign session id")
		}
		session.ID = sessionID
	}
	if err := s.store.CreateReadingSession(ctx, userID, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the user's reading sessions.
func (s *LibraryService) ListSessions(ctx context.Context, userID string) ([]domain.ReadingSession, error) {
	return s.store.ListReadingSessions(ctx, userID)
}

// ListBookSessions returns the user's reading sessions for one book.
func (s *LibraryService) ListBookSessions(ctx context.Context, userID, bookID string) ([]domain.ReadingSession, error) {
	return s.store.ListBookSessions(ctx, userID, bookID)
}

// GetGoal returns the user's reading goal, or ErrNotFound.
func (s *LibraryService) GetGoal(ctx context.Context, userID string) (*domain.ReadingGoal, error) {
	return s.store.GetGoal(ctx, userID)
}

// SetGoal stores the user's reading goal.
func (s *LibraryService) SetGoal(ctx context.Context, userID string, goal domain.ReadingGoal) error {
	if goal.YearlyTarget < 0 || goal.MonthlyTarget < 0 {
		return apperrors.Validation("goal targets cannot be negative")
	}
	return s.store.SetGoal(ctx, userID, &goal)
}

// DeleteGoal removes the user's reading goal. Idempotent.
func (s *LibraryService) DeleteGoal(ctx context.Context, userID string) error {
	err := s.store.DeleteGoal(ctx, userID)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}

// Search runs a full-text query scoped to the user's documents.
func (s *LibraryService) Search(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, apperrors.Internal("search index not configured")
	}
	params.User = userID
	return s.index.Search(ctx, params)
}

// ReindexAll rebuilds the search index from the store, walking every
// user's collection. Returns the number of books indexed.
func (s *LibraryService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, apperrors.Internal("search index not configured")
	}

	indexed := 0
	for user, err := range s.store.Users.List(ctx) {
		if err != nil {
			return indexed, apperrors.Wrap(err, apperrors.CodeInternal, "list users")
		}

		books, err := s.store.ListBooks(ctx, user.ID)
		if err != nil {
			return indexed, err
		}

		docs := make([]*search.SearchDocument, 0, len(books))
		for i := range books {
			doc := search.FromBook(&books[i])
			doc.User = user.ID
			docs = append(docs, doc)
		}
		if err := s.index.IndexDocuments(docs); err != nil {
			return indexed, apperrors.Wrap(err, apperrors.CodeInternal, "index books")
		}
		indexed += len(docs)
	}
	return indexed, nil
}

func (s *LibraryService) indexBook(userID string, book *domain.Book) {
	if s.index == nil {
		return
	}
	doc := search.FromBook(book)
	doc.User = userID
	if err := s.index.IndexDocument(doc); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}
