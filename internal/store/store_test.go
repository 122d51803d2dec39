package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestUsersEmailIndexIsCaseInsensitive(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	user := &domain.User{Email: "Reader@Example.com", DisplayName: "Reader"}
	user.ID = "usr-1"
	user.InitTimestamps()

	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	found, err := s.Users.GetByIndex(ctx, "email", "reader@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", found.ID)
}

func TestUsersDuplicateEmailRejected(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	a := &domain.User{Email: "reader@example.com"}
	a.ID = "usr-1"
	require.NoError(t, s.Users.Create(ctx, a.ID, a))

	b := &domain.User{Email: "READER@example.com"}
	b.ID = "usr-2"
	err := s.Users.Create(ctx, b.ID, b)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestAuthSessionsListByUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"ses-1", "ses-2"} {
		require.NoError(t, s.AuthSessions.Create(ctx, id, &domain.AuthSession{ID: id, UserID: "usr-1"}))
	}
	require.NoError(t, s.AuthSessions.Create(ctx, "ses-3", &domain.AuthSession{ID: "ses-3", UserID: "usr-2"}))

	sessions, err := s.AuthSessions.ListByIndex(ctx, "user", "usr-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func newBook(id, title string) *domain.Book {
	b := &domain.Book{Title: title, Author: "Author", Status: domain.StatusWantToRead}
	b.ID = id
	b.InitTimestamps()
	return b
}

func TestBookCRUD(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	book := newBook("bk-1", "The Hobbit")
	require.NoError(t, s.CreateBook(ctx, "usr-1", book))

	got, err := s.GetBook(ctx, "usr-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", got.Title)

	got.Progress = 50
	require.NoError(t, s.UpdateBook(ctx, "usr-1", got))

	got, err = s.GetBook(ctx, "usr-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Progress)

	require.NoError(t, s.DeleteBook(ctx, "usr-1", "bk-1"))
	_, err = s.GetBook(ctx, "usr-1", "bk-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateBookDuplicateID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, "usr-1", newBook("bk-1", "A")))
	err := s.CreateBook(ctx, "usr-1", newBook("bk-1", "B"))
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestPutBookUpserts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	book := newBook("bk-1", "First Write")
	require.NoError(t, s.PutBook(ctx, "usr-1", book))

	book.Title = "Second Write"
	require.NoError(t, s.PutBook(ctx, "usr-1", book))

	got, err := s.GetBook(ctx, "usr-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "Second Write", got.Title)
}

func TestBooksAreScopedPerUser(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, "usr-1", newBook("bk-1", "Mine")))

	_, err := s.GetBook(ctx, "usr-2", "bk-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	books, err := s.ListBooks(ctx, "usr-2")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestDeleteAllBooks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, "usr-1", newBook("bk-1", "A")))
	require.NoError(t, s.CreateBook(ctx, "usr-1", newBook("bk-2", "B")))
	require.NoError(t, s.CreateBook(ctx, "usr-2", newBook("bk-3", "C")))

	require.NoError(t, s.DeleteAllBooks(ctx, "usr-1"))

	books, err := s.ListBooks(ctx, "usr-1")
	require.NoError(t, err)
	assert.Empty(t, books)

	others, err := s.ListBooks(ctx, "usr-2")
	require.NoError(t, err)
	assert.Len(t, others, 1, "other users keep their books")
}

func TestGoalLifecycle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.GetGoal(ctx, "usr-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	goal := &domain.ReadingGoal{Year: 2024, YearlyTarget: 24, MonthlyTarget: 2}
	require.NoError(t, s.SetGoal(ctx, "usr-1", goal))

	got, err := s.GetGoal(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 24, got.YearlyTarget)

	goal.MonthlyTarget = 3
	require.NoError(t, s.SetGoal(ctx, "usr-1", goal))
	got, err = s.GetGoal(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.MonthlyTarget)

	require.NoError(t, s.DeleteGoal(ctx, "usr-1"))
	_, err = s.GetGoal(ctx, "usr-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
