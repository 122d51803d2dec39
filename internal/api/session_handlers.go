package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "recordSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Record reading session",
		Description:   "Stores a completed timed reading session",
		Tags:          []string{"Sessions"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleRecordSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List reading sessions",
		Description: "Returns recorded sessions, optionally filtered by book",
		Tags:        []string{"Sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSessions)
}

// === DTOs ===

// SessionInput wraps a reading session for Huma.
type SessionInput struct {
	Body domain.ReadingSession
}

// SessionOutput wraps a single session for Huma.
type SessionOutput struct {
	Body domain.ReadingSession
}

// ListSessionsInput contains the optional book filter.
type ListSessionsInput struct {
	BookID string `query:"book_id" maxLength:"100" doc:"Restrict to one book"`
}

// SessionListResponse contains recorded sessions.
type SessionListResponse struct {
	Sessions []domain.ReadingSession `json:"sessions" doc:"Recorded sessions"`
	Total    int                     `json:"total" doc:"Number of sessions"`
}

// SessionListOutput wraps the session list for Huma.
type SessionListOutput struct {
	Body SessionListResponse
}

// === Handlers ===

func (s *Server) handleRecordSession(ctx context.Context, input *SessionInput) (*SessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	session := input.Body
	created, err := s.services.Library.RecordSession(ctx, userID, &session)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: *created}, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *ListSessionsInput) (*SessionListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var sessions []domain.ReadingSession
	if input.BookID != "" {
		sessions, err = s.services.Library.ListBookSessions(ctx, userID, input.BookID)
	} else {
		sessions, err = s.services.Library.ListSessions(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return &SessionListOutput{Body: SessionListResponse{Sessions: sessions, Total: len(sessions)}}, nil
}
