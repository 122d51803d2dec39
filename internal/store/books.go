package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// userBooks returns the book collection for one user. Every user's library
// lives under its own key prefix so operations never cross accounts.
func (s *Store) userBooks(userID string) *Entity[domain.Book] {
	return NewEntity[domain.Book](s, "book:"+userID+":")
}

// CreateBook inserts a new book into a user's library.
// Returns ErrAlreadyExists when the ID is taken.
func (s *Store) CreateBook(ctx context.Context, userID string, book *domain.Book) error {
	return s.userBooks(userID).Create(ctx, book.ID, book)
}

// GetBook retrieves one book from a user's library.
func (s *Store) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	return s.userBooks(userID).Get(ctx, bookID)
}

// UpdateBook replaces an existing book document.
// Returns ErrNotFound when the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, userID string, book *domain.Book) error {
	return s.userBooks(userID).Update(ctx, book.ID, book)
}

// PutBook writes a book document unconditionally. Mirror writes from
// clients use this: the client state is authoritative, so the write wins
// whether or not the document exists yet.
func (s *Store) PutBook(ctx context.Context, userID string, book *domain.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte("book:"+userID+":"+book.ID), book)
}

// DeleteBook removes one book. Idempotent.
func (s *Store) DeleteBook(ctx context.Context, userID, bookID string) error {
	return s.userBooks(userID).Delete(ctx, bookID)
}

// ListBooks returns every book in a user's library.
func (s *Store) ListBooks(ctx context.Context, userID string) ([]domain.Book, error) {
	var books []domain.Book
	for book, err := range s.userBooks(userID).List(ctx) {
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, nil
}

// DeleteAllBooks wipes a user's entire library. Used by imports, which
// replace the library wholesale.
func (s *Store) DeleteAllBooks(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := []byte("book:" + userID + ":")

	// Collect keys first; Badger iterators cannot delete in place.
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list book keys: %w", err)
	}

	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for _, key := range keys {
		if err := batch.Delete(key); err != nil {
			return fmt.Errorf("failed to delete book key: %w", err)
		}
	}
	return batch.Flush()
}
