package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/stats"
	"github.com/lilizblack/bookeareads-server/internal/store"
)

// StatsService computes reading statistics over a user's server-side
// collection. Everything is recomputed per request from the stored books;
// collections are personal-library sized, so no caching.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatsService creates the stats service.
func NewStatsService(store *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

// PeriodStats is the aggregate readout for one window.
type PeriodStats struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`

	CountByStatus map[domain.Status]int `json:"count_by_status"`
	Finished      int                   `json:"finished"`
	Added         int                   `json:"added"`
	Spend         float64               `json:"spend"`

	PagesRead    float64 `json:"pages_read"`
	ChaptersRead float64 `json:"chapters_read"`
	MinutesRead  int     `json:"minutes_read"`

	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`

	WorstBookID    string  `json:"worst_book_id,omitempty"`
	WorstBookTitle string  `json:"worst_book_title,omitempty"`
	WorstRating    float64 `json:"worst_rating,omitempty"`

	Goal *stats.GoalProgress `json:"goal,omitempty"`
}

// Period computes stats for a calendar month (month > 0) or a whole year.
func (s *StatsService) Period(ctx context.Context, userID string, year int, month time.Month) (*PeriodStats, error) {
	if year < 1 {
		return nil, apperrors.Validation("year is required")
	}

	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	var period stats.Period
	if month > 0 {
		period = stats.MonthPeriod(year, month)
	} else {
		period = stats.YearPeriod(year)
	}

	now := time.Now()
	out := &PeriodStats{
		Year:          year,
		Month:         month,
		CountByStatus: stats.CountByStatus(books),
		Finished:      len(stats.FinishedIn(books, period)),
		Added:         stats.AddedIn(books, period),
		Spend:         stats.Spend(books, period),
		MinutesRead:   stats.MinutesRead(books, period),
		CurrentStreak: stats.CurrentStreak(books, now),
		LongestStreak: stats.LongestStreak(books),
	}

	for _, b := range books {
		switch b.Mode() {
		case domain.TrackPages:
			out.PagesRead += stats.ProgressDelta(b, period)
		case domain.TrackChapters:
			out.ChaptersRead += stats.ProgressDelta(b, period)
		}
	}

	if worst := stats.WorstRated(books, period); worst != nil {
		out.WorstBookID = worst.ID
		out.WorstBookTitle = worst.Title
		out.WorstRating = worst.Rating
	}

	goal, err := s.store.GetGoal(ctx, userID)
	if err == nil && goal.Year == year && goal.IsSet() {
		gp := stats.Goal(*goal, books, now)
		out.Goal = &gp
	} else if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("failed to load reading goal for stats", "user_id", userID, "error", err)
	}

	return out, nil
}
