package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

func TestStartTimerSetsSlot(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	timer, err := tr.StartTimer(book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, timer.BookID)

	active := tr.ActiveTimer()
	require.NotNil(t, active)
	assert.Equal(t, book.ID, active.BookID)
}

func TestStartTimerUnknownBook(t *testing.T) {
	tr := setupTracker(t, nil)

	_, err := tr.StartTimer("bk-missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStartTimerReplacesRunningTimer(t *testing.T) {
	tr := setupTracker(t, nil)
	a, err := tr.Add(context.Background(), &domain.Book{Title: "A"})
	require.NoError(t, err)
	b, err := tr.Add(context.Background(), &domain.Book{Title: "B"})
	require.NoError(t, err)

	_, err = tr.StartTimer(a.ID)
	require.NoError(t, err)
	_, err = tr.StartTimer(b.ID)
	require.NoError(t, err)

	// Single slot: the earlier timer is gone.
	active := tr.ActiveTimer()
	require.NotNil(t, active)
	assert.Equal(t, b.ID, active.BookID)
}

func TestStopTimerWithoutStart(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{Title: "Dune"})
	require.NoError(t, err)

	_, err = tr.StopTimer(context.Background(), book.ID, 25, 60)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStopTimerWrongBook(t *testing.T) {
	tr := setupTracker(t, nil)
	a, err := tr.Add(context.Background(), &domain.Book{Title: "A"})
	require.NoError(t, err)
	b, err := tr.Add(context.Background(), &domain.Book{Title: "B"})
	require.NoError(t, err)

	_, err = tr.StartTimer(a.ID)
	require.NoError(t, err)
	_, err = tr.StopTimer(context.Background(), b.ID, 25, 60)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestStopTimerFoldsSessionIntoBook(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:    "Dune",
		Status:   domain.StatusReading,
		Progress: 40,
	})
	require.NoError(t, err)

	_, err = tr.StartTimer(book.ID)
	require.NoError(t, err)

	session, err := tr.StopTimer(context.Background(), book.ID, 25, 60)
	require.NoError(t, err)
	assert.Equal(t, 25, session.Minutes)
	assert.Equal(t, 60.0, session.Progress)

	got, err := tr.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.Progress)
	assert.Equal(t, 25, got.TotalTimeRead)
	assert.Equal(t, 20.0, got.TotalTimedProgress)
	assert.Nil(t, tr.ActiveTimer())

	day := domain.DayKey(time.Now())
	log := got.LogFor(day)
	require.NotNil(t, log)
	assert.Equal(t, 60.0, log.Value)
	assert.Equal(t, 25, log.Minutes)
}

func TestStopTimerKeepsHigherExistingProgress(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:    "Dune",
		Status:   domain.StatusReading,
		Progress: 100,
	})
	require.NoError(t, err)

	_, err = tr.StartTimer(book.ID)
	require.NoError(t, err)

	// Session reports a lower position than the book already had. The
	// log and progress ratchet, only minutes accumulate.
	_, err = tr.StopTimer(context.Background(), book.ID, 15, 80)
	require.NoError(t, err)

	got, err := tr.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, 15, got.TotalTimeRead)
	assert.Zero(t, got.TotalTimedProgress)

	log := got.LogFor(domain.DayKey(time.Now()))
	require.NotNil(t, log)
	assert.Equal(t, 100.0, log.Value)
	assert.Equal(t, 15, log.Minutes)
}

func TestStopTimerAccumulatesMinutesAcrossSessions(t *testing.T) {
	tr := setupTracker(t, nil)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:  "Dune",
		Status: domain.StatusReading,
	})
	require.NoError(t, err)

	_, err = tr.StartTimer(book.ID)
	require.NoError(t, err)
	_, err = tr.StopTimer(context.Background(), book.ID, 10, 20)
	require.NoError(t, err)

	_, err = tr.StartTimer(book.ID)
	require.NoError(t, err)
	_, err = tr.StopTimer(context.Background(), book.ID, 15, 45)
	require.NoError(t, err)

	got, err := tr.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.TotalTimeRead)

	log := got.LogFor(domain.DayKey(time.Now()))
	require.NotNil(t, log)
	assert.Equal(t, 25, log.Minutes)
	assert.Equal(t, 45.0, log.Value)
}

func TestStopTimerMirrorsSession(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)
	book, err := tr.Add(context.Background(), &domain.Book{
		Title:  "Dune",
		Status: domain.StatusReading,
	})
	require.NoError(t, err)

	_, err = tr.StartTimer(book.ID)
	require.NoError(t, err)
	session, err := tr.StopTimer(context.Background(), book.ID, 30, 75)
	require.NoError(t, err)

	tr.WaitMirror()

	remote.mu.Lock()
	defer remote.mu.Unlock()
	require.Len(t, remote.sessions, 1)
	assert.Equal(t, session.ID, remote.sessions[0].ID)
	assert.Equal(t, book.ID, remote.sessions[0].BookID)
	assert.Equal(t, 75.0, remote.books[book.ID].Progress)
}
