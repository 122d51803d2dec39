package tracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
)

// fakeRemote is an in-memory Remote for tests with per-call failure
// switches.
type fakeRemote struct {
	mu       sync.Mutex
	books    map[string]domain.Book
	order    []string
	sessions []domain.ReadingSession
	goal     *domain.ReadingGoal
	nextID   int

	failCreate  bool
	failUpdate  bool
	failDelete  bool
	failList    bool
	updateCalls int
	deleteAlls  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{books: map[string]domain.Book{}}
}

func (r *fakeRemote) ListBooks(ctx context.Context) ([]domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, fmt.Errorf("list: connection refused")
	}
	out := make([]domain.Book, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if b, ok := r.books[r.order[i]]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRemote) CreateBook(ctx context.Context, book *domain.Book) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return "", fmt.Errorf("create: connection refused")
	}
	r.nextID++
	remoteID := fmt.Sprintf("bk-%d", r.nextID)
	cp := *book
	cp.ID = remoteID
	r.books[remoteID] = cp
	r.order = append(r.order, remoteID)
	return remoteID, nil
}

func (r *fakeRemote) UpdateBook(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdate {
		return fmt.Errorf("update: connection refused")
	}
	r.books[book.ID] = *book
	return nil
}

func (r *fakeRemote) DeleteBook(ctx context.Context, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return fmt.Errorf("delete: connection refused")
	}
	delete(r.books, bookID)
	return nil
}

func (r *fakeRemote) DeleteAllBooks(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteAlls++
	r.books = map[string]domain.Book{}
	r.order = nil
	return nil
}

func (r *fakeRemote) CreateSession(ctx context.Context, session *domain.ReadingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, *session)
	return nil
}

func (r *fakeRemote) GetGoal(ctx context.Context) (*domain.ReadingGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.goal == nil {
		return nil, apperrors.ErrNotFound
	}
	g := *r.goal
	return &g, nil
}

func (r *fakeRemote) SetGoal(ctx context.Context, goal domain.ReadingGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goal = &goal
	return nil
}

func (r *fakeRemote) book(t *testing.T, bookID string) domain.Book {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[bookID]
	require.True(t, ok, "book %s not on fake remote", bookID)
	return b
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTracker creates a tracker with a temp snapshot path. Pass a nil
// remote for the offline case.
func setupTracker(t *testing.T, remote Remote) *Tracker {
	t.Helper()
	tr := New(Options{
		SnapshotPath: filepath.Join(t.TempDir(), "library.json"),
		Remote:       remote,
		Logger:       testLogger(),
		RetryDelay:   time.Millisecond,
	})
	t.Cleanup(tr.Close)
	require.NoError(t, tr.Load(context.Background()))
	return tr
}

func TestAddOfflineAssignsLocalID(t *testing.T) {
	tr := setupTracker(t, nil)

	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune", Progress: 40})
	require.NoError(t, err)

	assert.True(t, id.IsLocal(book.ID))
	assert.Equal(t, domain.StatusWantToRead, book.Status)
	// Initial progress seeds today's log... except want-to-read resets it.
	assert.Zero(t, book.Progress)
}

func TestAddSeedsLogFromInitialProgress(t *testing.T) {
	tr := setupTracker(t, nil)

	book, err := tr.Add(context.Background(), &domain.Book{
		Title:    "Dune",
		Status:   domain.StatusReading,
		Progress: 40,
	})
	require.NoError(t, err)

	require.Len(t, book.ReadingLogs, 1)
	assert.Equal(t, 40.0, book.ReadingLogs[0].Value)
	assert.NotNil(t, book.StartedAt)
}

func TestAddOnlineTakesServerID(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)

	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	assert.Equal(t, "bk-1", book.ID)
	assert.False(t, id.IsLocal(book.ID))
	remote.book(t, "bk-1")
}

func TestAddFailsLoudWhenServerWriteFails(t *testing.T) {
	remote := newFakeRemote()
	remote.failCreate = true
	tr := setupTracker(t, remote)

	_, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRemoteUnavailable))

	// Not applied locally either.
	assert.Empty(t, tr.List())
}

func TestAddRequiresTitle(t *testing.T) {
	tr := setupTracker(t, nil)

	_, err := tr.Add(context.Background(), &domain.Book{})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUpdateStatusReadCompletesProgress(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:      "Dune",
		Status:     domain.StatusReading,
		Progress:   120,
		TotalPages: 300,
	})
	require.NoError(t, err)

	status := domain.StatusRead
	updated, err := tr.Update(context.Background(), book.ID, BookPatch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, 300.0, updated.Progress)
	assert.NotNil(t, updated.FinishedAt)
	require.NotEmpty(t, updated.ReadingLogs)
	last := updated.ReadingLogs[len(updated.ReadingLogs)-1]
	assert.Equal(t, 300.0, last.Value)
}

func TestUpdateMirrorsInBackground(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)
	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	title := "Dune Messiah"
	_, err = tr.Update(context.Background(), book.ID, BookPatch{Title: &title})
	require.NoError(t, err)

	tr.WaitMirror()
	assert.Equal(t, "Dune Messiah", remote.book(t, book.ID).Title)
	assert.Empty(t, tr.MirrorFailures())
}

func TestUpdateIsOptimisticOnMirrorFailure(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)
	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	remote.failUpdate = true
	rating := 4.5
	updated, err := tr.Update(context.Background(), book.ID, BookPatch{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)

	tr.WaitMirror()
	failures := tr.MirrorFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, book.ID, failures[0].BookID)
	assert.Equal(t, string(mirrorUpdateBook), failures[0].Kind)

	// Local state kept the optimistic write.
	got, err := tr.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Rating)
}

func TestLogProgressOverwritesSameDay(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:  "Dune",
		Status: domain.StatusReading,
	})
	require.NoError(t, err)

	_, err = tr.LogProgress(context.Background(), book.ID, 50)
	require.NoError(t, err)
	updated, err := tr.LogProgress(context.Background(), book.ID, 80)
	require.NoError(t, err)

	require.Len(t, updated.ReadingLogs, 1)
	assert.Equal(t, 80.0, updated.ReadingLogs[0].Value)
	assert.Equal(t, 80.0, updated.Progress)
}

func TestDeleteRemovesFromServerFirst(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)
	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	remote.failDelete = true
	err = tr.Delete(context.Background(), book.ID)
	require.Error(t, err)

	// Local copy survives a failed server delete.
	_, err = tr.Get(book.ID)
	assert.NoError(t, err)

	remote.failDelete = false
	require.NoError(t, tr.Delete(context.Background(), book.ID))
	_, err = tr.Get(book.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestBulkDeleteContinuesPastMissing(t *testing.T) {
	tr := setupTracker(t, nil)
	a, err := tr.Add(context.Background(), &domain.Book{Title: "A"})
	require.NoError(t, err)
	b, err := tr.Add(context.Background(), &domain.Book{Title: "B"})
	require.NoError(t, err)

	err = tr.BulkDelete(context.Background(), []string{a.ID, "bk-missing", b.ID})
	require.Error(t, err)
	assert.Empty(t, tr.List())
}

func TestLoadFallsBackToSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "library.json")

	offline := New(Options{SnapshotPath: snapshotPath, Logger: testLogger()})
	t.Cleanup(offline.Close)
	require.NoError(t, offline.Load(context.Background()))
	_, err := offline.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	remote := newFakeRemote()
	remote.failList = true
	tr := New(Options{
		SnapshotPath: snapshotPath,
		Remote:       remote,
		Logger:       testLogger(),
		RetryDelay:   time.Millisecond,
	})
	t.Cleanup(tr.Close)
	require.NoError(t, tr.Load(context.Background()))

	books := tr.List()
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "library.json")

	tr := New(Options{SnapshotPath: snapshotPath, Logger: testLogger()})
	t.Cleanup(tr.Close)
	require.NoError(t, tr.Load(context.Background()))

	_, err := tr.Add(context.Background(), &domain.Book{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	require.NoError(t, tr.SetGoal(context.Background(), domain.ReadingGoal{Year: 2026, YearlyTarget: 24}))

	// A fresh tracker against the same path sees the same state.
	reloaded := New(Options{SnapshotPath: snapshotPath, Logger: testLogger()})
	t.Cleanup(reloaded.Close)
	require.NoError(t, reloaded.Load(context.Background()))

	books := reloaded.List()
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, 24, reloaded.Goal().YearlyTarget)

	// Snapshot file exists and is the only artifact.
	_, err = os.Stat(snapshotPath)
	assert.NoError(t, err)
}

func TestGoalLoadedFromServer(t *testing.T) {
	remote := newFakeRemote()
	remote.goal = &domain.ReadingGoal{Year: 2026, YearlyTarget: 52}
	tr := setupTracker(t, remote)

	assert.Equal(t, 52, tr.Goal().YearlyTarget)
}
