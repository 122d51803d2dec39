package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/api"
	"github.com/lilizblack/bookeareads-server/internal/auth"
	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/service"
	"github.com/lilizblack/bookeareads-server/internal/store"
	"github.com/lilizblack/bookeareads-server/internal/tracker"
)

// startTestServer runs a real sync server on a local listener.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir(), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	services := &api.Services{
		Auth:    service.NewAuthService(st, tokens, logger),
		Library: service.NewLibraryService(st, index, logger),
		Stats:   service.NewStatsService(st, logger),
	}

	server := api.NewServer(st, services, index, logger)
	t.Cleanup(server.Close)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSessionClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()

	client := NewClient(ts.URL, testLogger())
	account, err := client.Register(context.Background(), "reader@example.com", "correct-horse-battery", "Reader")
	require.NoError(t, err)
	require.True(t, account.IsRoot)
	require.True(t, client.HasSession())
	return client
}

func TestBookRoundTrip(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	book := &domain.Book{Title: "Dune", Author: "Frank Herbert", Status: domain.StatusReading}
	book.ID = "local-abc123"

	serverID, err := client.CreateBook(ctx, book)
	require.NoError(t, err)
	assert.NotEqual(t, "local-abc123", serverID)

	books, err := client.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, serverID, books[0].ID)

	books[0].Rating = 4.5
	require.NoError(t, client.UpdateBook(ctx, &books[0]))

	books, err = client.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 4.5, books[0].Rating)

	require.NoError(t, client.DeleteBook(ctx, serverID))

	books, err = client.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestDeleteAllBooks(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	for _, title := range []string{"Dune", "Piranesi"} {
		_, err := client.CreateBook(ctx, &domain.Book{Title: title, Status: domain.StatusWantToRead})
		require.NoError(t, err)
	}

	require.NoError(t, client.DeleteAllBooks(ctx))

	books, err := client.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestGoalRoundTrip(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	_, err := client.GetGoal(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, client.SetGoal(ctx, domain.ReadingGoal{Year: 2026, YearlyTarget: 24}))

	goal, err := client.GetGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24, goal.YearlyTarget)
}

func TestCreateSession(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	serverID, err := client.CreateBook(ctx, &domain.Book{Title: "Dune", Status: domain.StatusReading})
	require.NoError(t, err)

	err = client.CreateSession(ctx, &domain.ReadingSession{
		BookID:    serverID,
		StartedAt: time.Now().Add(-20 * time.Minute),
		EndedAt:   time.Now(),
		Minutes:   20,
		Progress:  55,
	})
	require.NoError(t, err)
}

func TestUnauthenticatedRequestsFail(t *testing.T) {
	ts := startTestServer(t)
	client := NewClient(ts.URL, testLogger())

	_, err := client.ListBooks(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestInvalidCredentials(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)

	other := NewClient(ts.URL, testLogger())
	_, err := other.Login(context.Background(), "reader@example.com", "wrong-password", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_ = client
}

func TestRefreshRecoversExpiredAccessToken(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	// Break the access token but keep the refresh token. The next call gets
	// a 401, rotates the session, and retries.
	creds := client.Credentials()
	creds.AccessToken = "v4.local.garbage"
	client.SetCredentials(creds)

	books, err := client.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	rotated := client.Credentials()
	assert.NotEqual(t, creds.RefreshToken, rotated.RefreshToken)
}

func TestCredentialsRestore(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)

	restored := NewClient(ts.URL, testLogger())
	restored.SetCredentials(client.Credentials())

	_, err := restored.ListBooks(context.Background())
	require.NoError(t, err)
}

func TestTrackerAgainstLiveServer(t *testing.T) {
	ts := startTestServer(t)
	client := newSessionClient(t, ts)
	ctx := context.Background()

	tr := tracker.New(tracker.Options{
		SnapshotPath: t.TempDir() + "/library.json",
		Remote:       client,
		Logger:       testLogger(),
		RetryDelay:   time.Millisecond,
	})
	t.Cleanup(tr.Close)
	require.NoError(t, tr.Load(ctx))

	book, err := tr.Add(ctx, &domain.Book{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Contains(t, book.ID, "bk")

	// Updates flow through the mirror queue to the server.
	_, err = tr.Update(ctx, book.ID, tracker.BookPatch{Rating: ptr(5.0)})
	require.NoError(t, err)
	tr.WaitMirror()
	assert.Empty(t, tr.MirrorFailures())

	books, err := client.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 5.0, books[0].Rating)
}

func ptr[T any](v T) *T { return &v }
