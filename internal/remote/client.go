// Package remote talks to a Bookea Reads sync server over HTTP. The Client
// implements tracker.Remote so the tracker can mirror local changes to the
// cloud collection.
package remote

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Client is an authenticated HTTP client for the sync server.
// All methods are safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	sessionID    string
}

// Credentials holds the tokens of a server session so callers can persist
// and restore them across runs.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// Account describes the authenticated user.
type Account struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsRoot      bool   `json:"is_root"`
}

// NewClient creates a client for the server at baseURL, e.g.
// "https://reads.example.com".
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		baseURL:    baseURL,
	}
}

// SetCredentials restores a previously saved session.
func (c *Client) SetCredentials(cr Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = cr.AccessToken
	c.refreshToken = cr.RefreshToken
	c.sessionID = cr.SessionID
}

// Credentials returns the current session tokens for persisting.
func (c *Client) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Credentials{
		AccessToken:  c.accessToken,
		RefreshToken: c.refreshToken,
		SessionID:    c.sessionID,
	}
}

// HasSession reports whether the client holds tokens.
func (c *Client) HasSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

// === Wire shapes ===

// authResponse mirrors the server's auth payload.
type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		IsRoot      bool   `json:"is_root"`
	} `json:"user"`
}

// bookListResponse mirrors the server's collection payload.
type bookListResponse struct {
	Books []domain.Book `json:"books"`
	Total int           `json:"total"`
}

// apiError mirrors the server's error payload.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// === Auth ===

// Register creates an account on the server and stores the session tokens.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*Account, error) {
	body := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", body, &resp, false); err != nil {
		return nil, err
	}

	c.adoptSession(&resp)
	return accountOf(&resp), nil
}

// Login authenticates and stores the session tokens.
func (c *Client) Login(ctx context.Context, email, password, deviceName string) (*Account, error) {
	body := map[string]string{
		"email":       email,
		"password":    password,
		"device_name": deviceName,
	}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp, false); err != nil {
		return nil, err
	}

	c.adoptSession(&resp)
	return accountOf(&resp), nil
}

// Logout revokes the current session and clears the stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{"session_id": sessionID}, nil, true)

	c.mu.Lock()
	c.accessToken = ""
	c.refreshToken = ""
	c.sessionID = ""
	c.mu.Unlock()

	return err
}

// refresh exchanges the refresh token for new tokens. Returns false when no
// refresh token is available or the rotation failed.
func (c *Client) refresh(ctx context.Context) bool {
	c.mu.Lock()
	token := c.refreshToken
	c.mu.Unlock()

	if token == "" {
		return false
	}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": token}, &resp, false)
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return false
	}

	c.adoptSession(&resp)
	return true
}

func (c *Client) adoptSession(resp *authResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	c.sessionID = resp.SessionID
}

func accountOf(resp *authResponse) *Account {
	return &Account{
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		DisplayName: resp.User.DisplayName,
		IsRoot:      resp.User.IsRoot,
	}
}

// === tracker.Remote ===

// ListBooks returns the user's full collection, newest first.
func (c *Client) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var resp bookListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/books", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Books, nil
}

// CreateBook stores a new book and returns the server-assigned ID.
func (c *Client) CreateBook(ctx context.Context, book *domain.Book) (string, error) {
	var created domain.Book
	if err := c.do(ctx, http.MethodPost, "/api/v1/books", book, &created, true); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateBook replaces the stored book with the given state.
func (c *Client) UpdateBook(ctx context.Context, book *domain.Book) error {
	return c.do(ctx, http.MethodPut, "/api/v1/books/"+book.ID, book, nil, true)
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/books/"+id, nil, nil, true)
}

// DeleteAllBooks clears the user's collection.
func (c *Client) DeleteAllBooks(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/books", nil, nil, true)
}

// CreateSession records a completed timed reading session.
func (c *Client) CreateSession(ctx context.Context, session *domain.ReadingSession) error {
	return c.do(ctx, http.MethodPost, "/api/v1/sessions", session, nil, true)
}

// GetGoal returns the user's reading goal, or ErrNotFound when unset.
func (c *Client) GetGoal(ctx context.Context) (*domain.ReadingGoal, error) {
	var goal domain.ReadingGoal
	if err := c.do(ctx, http.MethodGet, "/api/v1/goal", nil, &goal, true); err != nil {
		return nil, err
	}
	return &goal, nil
}

// SetGoal stores the user's reading goal.
func (c *Client) SetGoal(ctx context.Context, goal domain.ReadingGoal) error {
	return c.do(ctx, http.MethodPut, "/api/v1/goal", goal, nil, true)
}

// === Core ===

// do sends one request and decodes the response into out (when non-nil).
// Authenticated requests retry once after a token refresh on 401.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && authed && c.refresh(ctx) {
		_ = resp.Body.Close()
		resp, err = c.send(ctx, method, path, body, authed)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close() //nolint:errcheck // Read-side close

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if out != nil {
		if err := json.UnmarshalRead(resp.Body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, authed bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.Lock()
		token := c.accessToken
		c.mu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.RemoteUnavailablef("request %s %s: %v", method, path, err)
	}
	return resp, nil
}

// decodeError turns a non-2xx response into a domain error. The server and
// client share error codes, so the code survives the wire round trip. Most
// errors arrive flat; middleware-level rejections use the envelope form.
func (c *Client) decodeError(resp *http.Response) error {
	var wire struct {
		apiError
		Error *apiError `json:"error"`
	}
	if err := json.UnmarshalRead(resp.Body, &wire); err != nil {
		return statusError(resp.StatusCode)
	}

	doc := wire.apiError
	if doc.Code == "" && wire.Error != nil {
		doc = *wire.Error
	}
	if doc.Code == "" {
		return statusError(resp.StatusCode)
	}

	return &apperrors.Error{
		Code:    apperrors.Code(doc.Code),
		Message: doc.Message,
	}
}

func statusError(status int) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	default:
		return apperrors.Internalf("server returned status %d", status)
	}
}
