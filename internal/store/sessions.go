package store

import (
	"context"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// userSessions returns the reading-session collection for one user.
func (s *Store) userSessions(userID string) *Entity[domain.ReadingSession] {
	return NewEntity[domain.ReadingSession](s, "session:"+userID+":")
}

// CreateReadingSession stores a completed timed reading session.
func (s *Store) CreateReadingSession(ctx context.Context, userID string, session *domain.ReadingSession) error {
	return s.userSessions(userID).Create(ctx, session.ID, session)
}

// ListReadingSessions returns every reading session for a user.
func (s *Store) ListReadingSessions(ctx context.Context, userID string) ([]domain.ReadingSession, error) {
	var sessions []domain.ReadingSession
	for session, err := range s.userSessions(userID).List(ctx) {
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// ListBookSessions returns the reading sessions recorded for one book.
func (s *Store) ListBookSessions(ctx context.Context, userID, bookID string) ([]domain.ReadingSession, error) {
	all, err := s.ListReadingSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions := all[:0]
	for _, session := range all {
		if session.BookID == bookID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}
