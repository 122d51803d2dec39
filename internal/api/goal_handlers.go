package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

func (s *Server) registerGoalRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getGoal",
		Method:      http.MethodGet,
		Path:        "/api/v1/goal",
		Summary:     "Get reading goal",
		Tags:        []string{"Goals"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "setGoal",
		Method:      http.MethodPut,
		Path:        "/api/v1/goal",
		Summary:     "Set reading goal",
		Description: "Stores the yearly and monthly targets, replacing any previous goal",
		Tags:        []string{"Goals"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetGoal)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGoal",
		Method:      http.MethodDelete,
		Path:        "/api/v1/goal",
		Summary:     "Clear reading goal",
		Tags:        []string{"Goals"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGoal)
}

// GoalInput wraps a reading goal for Huma.
type GoalInput struct {
	Body domain.ReadingGoal
}

// GoalOutput wraps a reading goal for Huma.
type GoalOutput struct {
	Body domain.ReadingGoal
}

func (s *Server) handleGetGoal(ctx context.Context, _ *struct{}) (*GoalOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	goal, err := s.services.Library.GetGoal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GoalOutput{Body: *goal}, nil
}

func (s *Server) handleSetGoal(ctx context.Context, input *GoalInput) (*GoalOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.SetGoal(ctx, userID, input.Body); err != nil {
		return nil, err
	}

	return &GoalOutput{Body: input.Body}, nil
}

func (s *Server) handleDeleteGoal(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.DeleteGoal(ctx, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Goal cleared"}}, nil
}
