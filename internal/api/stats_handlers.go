package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lilizblack/bookeareads-server/internal/service"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "periodStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Reading statistics",
		Description: "Aggregates the collection for one calendar month, or a whole year when month is omitted",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePeriodStats)
}

// StatsInput contains the reporting window.
type StatsInput struct {
	Year  int `query:"year" minimum:"1" doc:"Calendar year to report on"`
	Month int `query:"month" minimum:"0" maximum:"12" doc:"Month 1-12, or 0 for the whole year"`
}

// StatsOutput wraps the aggregate readout for Huma.
type StatsOutput struct {
	Body service.PeriodStats
}

func (s *Server) handlePeriodStats(ctx context.Context, input *StatsInput) (*StatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	out, err := s.services.Stats.Period(ctx, userID, input.Year, time.Month(input.Month))
	if err != nil {
		return nil, err
	}

	return &StatsOutput{Body: *out}, nil
}
