package domain

import "time"

// ReadingSession is a completed timed reading session.
type ReadingSession struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Minutes   int       `json:"minutes"`
	// Progress is the cumulative position reported when the timer stopped,
	// in the unit of the book's tracking mode. Zero when not reported.
	Progress float64 `json:"progress,omitempty"`
}

// ActiveTimer is the single running reading timer. Starting a timer while
// one is running replaces it; the earlier start time is discarded.
type ActiveTimer struct {
	BookID    string    `json:"book_id"`
	StartedAt time.Time `json:"started_at"`
}

// Elapsed returns whole minutes since the timer started, never negative.
func (t ActiveTimer) Elapsed(now time.Time) int {
	m := int(now.Sub(t.StartedAt).Minutes())
	if m < 0 {
		return 0
	}
	return m
}
