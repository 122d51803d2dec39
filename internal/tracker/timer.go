package tracker

import (
	"context"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
)

// StartTimer sets the single active-timer slot to the given book. Starting
// while another timer runs replaces it and discards the earlier start; the
// replacement is logged so the lost session is at least visible.
func (t *Tracker) StartTimer(bookID string) (*domain.ActiveTimer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.getLocked(bookID); err != nil {
		return nil, err
	}

	if t.timer != nil {
		t.logger.Warn("replacing running timer, earlier session discarded",
			"previous_book_id", t.timer.BookID,
			"book_id", bookID,
		)
	}

	t.timer = &domain.ActiveTimer{BookID: bookID, StartedAt: t.now()}
	timer := *t.timer
	return &timer, nil
}

// ActiveTimer returns the running timer, or nil.
func (t *Tracker) ActiveTimer() *domain.ActiveTimer {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return nil
	}
	timer := *t.timer
	return &timer
}

// StopTimer clears the timer slot and folds the session into the book:
// today's log gains the elapsed minutes and keeps the higher of its
// existing value and the reported position, the book's progress ratchets
// the same way, and per-book timed totals accumulate. The completed
// session is mirrored to the server in the background.
func (t *Tracker) StopTimer(ctx context.Context, bookID string, minutesSpent int, sessionProgress float64) (*domain.ReadingSession, error) {
	if minutesSpent < 0 {
		return nil, apperrors.Validation("minutes spent cannot be negative")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return nil, apperrors.NotFound("no timer is running")
	}
	if t.timer.BookID != bookID {
		return nil, apperrors.Validationf("timer is running for a different book (%s)", t.timer.BookID)
	}

	book, err := t.getLocked(bookID)
	if err != nil {
		return nil, err
	}

	sessionID, err := id.Generate("ses")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign session id")
	}

	now := t.now()
	session := &domain.ReadingSession{
		ID:        sessionID,
		BookID:    bookID,
		StartedAt: t.timer.StartedAt,
		EndedAt:   now,
		Minutes:   minutesSpent,
		Progress:  sessionProgress,
	}
	t.timer = nil

	day := domain.DayKey(now)
	logValue := sessionProgress
	if existing := book.LogFor(day); existing != nil && existing.Value > logValue {
		logValue = existing.Value
	}
	book.UpsertLog(day, logValue, minutesSpent)

	gain := sessionProgress - book.Progress
	if gain < 0 {
		gain = 0
	}
	if sessionProgress > book.Progress {
		book.Progress = sessionProgress
	}
	book.TotalTimeRead += minutesSpent
	book.TotalTimedProgress += gain
	book.Touch()

	t.persistLocked()
	t.indexBookLocked(book)
	if t.mirror != nil && !id.IsLocal(bookID) {
		cp := *session
		t.mirror.enqueue(mirrorOp{Kind: mirrorCreateSession, Session: &cp})
	}
	t.enqueueBookMirror(book)

	return session, nil
}
