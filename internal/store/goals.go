package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

// goalKey returns the key of a user's reading goal document. A user has one
// goal document per account, replaced when targets change.
func goalKey(userID string) []byte {
	return []byte("goal:" + userID)
}

// GetGoal retrieves a user's reading goal.
// Returns ErrNotFound when no goal has been set.
func (s *Store) GetGoal(ctx context.Context, userID string) (*domain.ReadingGoal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var goal domain.ReadingGoal
	err := s.get(goalKey(userID), &goal)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// SetGoal stores a user's reading goal, replacing any existing one.
func (s *Store) SetGoal(ctx context.Context, userID string, goal *domain.ReadingGoal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set(goalKey(userID), goal)
}

// DeleteGoal removes a user's reading goal. Idempotent.
func (s *Store) DeleteGoal(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(goalKey(userID))
}
