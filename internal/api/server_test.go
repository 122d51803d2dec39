package api

import (
	"bytes"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/auth"
	"github.com/lilizblack/bookeareads-server/internal/domain"
	"github.com/lilizblack/bookeareads-server/internal/search"
	"github.com/lilizblack/bookeareads-server/internal/service"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

// setupTestServer creates a test server with a real store and search index.
func setupTestServer(t *testing.T) *Server {
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

	services := &Services{
		Auth:    service.NewAuthService(st, tokens, logger),
		Library: service.NewLibraryService(st, index, logger),
		Stats:   service.NewStatsService(st, logger),
	}

	server := NewServer(st, services, index, logger)
	t.Cleanup(server.Close)

	return server
}

// doJSON performs a request against the server and returns the recorder.
func doJSON(t *testing.T, server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// registerUser creates an account and returns the auth response.
func registerUser(t *testing.T, server *Server, email string) AuthResponse {
	t.Helper()

	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Reader",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

func TestAuthFlow(t *testing.T) {
	server := setupTestServer(t)

	first := registerUser(t, server, "first@example.com")
	assert.True(t, first.User.IsRoot)
	assert.Equal(t, "Bearer", first.TokenType)

	// Current user reflects the token.
	w := doJSON(t, server, http.MethodGet, "/api/v1/users/me", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "first@example.com", me.Email)

	// Login issues a fresh session.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "first@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEqual(t, first.SessionID, login.SessionID)
}

func TestSecondUserIsNotRoot(t *testing.T) {
	server := setupTestServer(t)

	registerUser(t, server, "first@example.com")
	second := registerUser(t, server, "second@example.com")
	assert.False(t, second.User.IsRoot)
}

func TestRefreshRotatesTokens(t *testing.T) {
	server := setupTestServer(t)

	session := registerUser(t, server, "reader@example.com")

	w := doJSON(t, server, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var refreshed AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshed))
	assert.NotEqual(t, session.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is dead after rotation.
	w = doJSON(t, server, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBooksRequireAuth(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/books", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookCRUD(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	book := domain.Book{Title: "Dune", Author: "Frank Herbert", Status: domain.StatusReading}
	book.ID = "local-abc123"

	w := doJSON(t, server, http.MethodPost, "/api/v1/books", token, book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created domain.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, "local-abc123", created.ID)
	assert.Contains(t, created.ID, "bk")

	// The collection lists it.
	w = doJSON(t, server, http.MethodGet, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list BookListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Dune", list.Books[0].Title)

	// Full-document upsert.
	created.Rating = 4.5
	w = doJSON(t, server, http.MethodPut, "/api/v1/books/"+created.ID, token, created)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/books/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched domain.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, 4.5, fetched.Rating)

	// Delete, then the book is gone.
	w = doJSON(t, server, http.MethodDelete, "/api/v1/books/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/books/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksAreScopedPerUser(t *testing.T) {
	server := setupTestServer(t)
	alice := registerUser(t, server, "alice@example.com")
	bob := registerUser(t, server, "bob@example.com")

	book := domain.Book{Title: "Piranesi", Author: "Susanna Clarke", Status: domain.StatusRead}
	w := doJSON(t, server, http.MethodPost, "/api/v1/books", alice.AccessToken, book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/books", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list BookListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)
}

func TestDeleteAllBooks(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	for _, title := range []string{"Dune", "Piranesi"} {
		book := domain.Book{Title: title, Status: domain.StatusWantToRead}
		w := doJSON(t, server, http.MethodPost, "/api/v1/books", token, book)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, server, http.MethodDelete, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list BookListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Total)
}

func TestGoalLifecycle(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	// No goal yet.
	w := doJSON(t, server, http.MethodGet, "/api/v1/goal", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	goal := domain.ReadingGoal{Year: 2026, YearlyTarget: 24, MonthlyTarget: 2}
	w = doJSON(t, server, http.MethodPut, "/api/v1/goal", token, goal)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/goal", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.ReadingGoal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 24, got.YearlyTarget)

	w = doJSON(t, server, http.MethodDelete, "/api/v1/goal", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/goal", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoints(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	book := domain.Book{Title: "Dune", Status: domain.StatusReading}
	w := doJSON(t, server, http.MethodPost, "/api/v1/books", token, book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created domain.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	reading := domain.ReadingSession{
		BookID:    created.ID,
		StartedAt: time.Now().Add(-25 * time.Minute),
		EndedAt:   time.Now(),
		Minutes:   25,
		Progress:  60,
	}
	w = doJSON(t, server, http.MethodPost, "/api/v1/sessions", token, reading)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/sessions?book_id="+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, 25, list.Sessions[0].Minutes)
}

func TestStatsEndpoint(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	finished := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	book := domain.Book{
		Title:      "Dune",
		Status:     domain.StatusRead,
		FinishedAt: &finished,
	}
	book.CreatedAt = finished
	book.UpdatedAt = finished

	w := doJSON(t, server, http.MethodPost, "/api/v1/books", token, book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/stats?year=2026&month=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats service.PeriodStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Finished)
	assert.Equal(t, 1, stats.Added)
}

func TestSearchEndpoint(t *testing.T) {
	server := setupTestServer(t)
	session := registerUser(t, server, "reader@example.com")
	token := session.AccessToken

	book := domain.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", Status: domain.StatusRead}
	w := doJSON(t, server, http.MethodPost, "/api/v1/books", token, book)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/v1/search?q=hobbit", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result search.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
}

func TestAuthRateLimit(t *testing.T) {
	server := setupTestServer(t)

	// Burst allows a handful of attempts, then the limiter kicks in.
	var limited bool
	for i := 0; i < authBurst+3; i++ {
		w := doJSON(t, server, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    fmt.Sprintf("guess%d@example.com", i),
			"password": "wrong-password",
		})
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}
