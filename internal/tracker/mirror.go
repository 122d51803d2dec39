package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// mirrorOpKind identifies the remote write a queued operation performs.
type mirrorOpKind string

const (
	mirrorUpdateBook    mirrorOpKind = "update_book"
	mirrorCreateSession mirrorOpKind = "create_session"
	mirrorSetGoal       mirrorOpKind = "set_goal"
)

// mirrorOp is one background write to the sync server. Book and session
// payloads are copies taken at enqueue time so later local edits do not
// race the in-flight write.
type mirrorOp struct {
	ID      string
	Kind    mirrorOpKind
	Book    *domain.Book
	Session *domain.ReadingSession
	Goal    *domain.ReadingGoal
}

// MirrorFailure records a background write that exhausted its retries.
// Failures are kept for inspection instead of being silently dropped, so
// the caller can reconcile (typically via SyncLocalToCloud) or surface
// them to the user.
type MirrorFailure struct {
	OpID     string    `json:"op_id"`
	Kind     string    `json:"kind"`
	BookID   string    `json:"book_id,omitempty"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

const mirrorMaxAttempts = 3

// mirrorQueue serializes background writes to the sync server. Operations
// run in enqueue order on a single worker goroutine; each failed operation
// is retried with linear backoff before being recorded as a failure.
type mirrorQueue struct {
	remote     Remote
	logger     *slog.Logger
	retryDelay time.Duration

	ops      chan mirrorOp
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu       sync.Mutex
	failures []MirrorFailure
}

func newMirrorQueue(remote Remote, logger *slog.Logger, retryDelay time.Duration) *mirrorQueue {
	q := &mirrorQueue{
		remote:     remote,
		logger:     logger,
		retryDelay: retryDelay,
		ops:        make(chan mirrorOp, 256),
	}
	go q.worker()
	return q
}

func (q *mirrorQueue) worker() {
	for op := range q.ops {
		q.process(op)
		q.wg.Done()
	}
}

func (q *mirrorQueue) process(op mirrorOp) {
	var err error
	for attempt := 1; attempt <= mirrorMaxAttempts; attempt++ {
		err = q.apply(op)
		if err == nil {
			return
		}
		if attempt < mirrorMaxAttempts {
			time.Sleep(q.retryDelay * time.Duration(attempt))
		}
	}

	failure := MirrorFailure{
		OpID:     op.ID,
		Kind:     string(op.Kind),
		Error:    err.Error(),
		FailedAt: time.Now().UTC(),
	}
	if op.Book != nil {
		failure.BookID = op.Book.ID
	}
	if op.Session != nil {
		failure.BookID = op.Session.BookID
	}

	q.mu.Lock()
	q.failures = append(q.failures, failure)
	q.mu.Unlock()

	q.logger.Warn("background mirror write failed after retries",
		"op_id", op.ID,
		"kind", op.Kind,
		"book_id", failure.BookID,
		"error", err,
	)
}

func (q *mirrorQueue) apply(op mirrorOp) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch op.Kind {
	case mirrorUpdateBook:
		return q.remote.UpdateBook(ctx, op.Book)
	case mirrorCreateSession:
		return q.remote.CreateSession(ctx, op.Session)
	case mirrorSetGoal:
		return q.remote.SetGoal(ctx, *op.Goal)
	}
	return nil
}

func (q *mirrorQueue) enqueue(op mirrorOp) {
	op.ID = uuid.NewString()
	q.wg.Add(1)
	select {
	case q.ops <- op:
	default:
		// Queue full. Drop the op and record it rather than blocking the
		// caller, which is on the interactive path.
		q.wg.Done()
		failure := MirrorFailure{
			OpID:     op.ID,
			Kind:     string(op.Kind),
			Error:    "mirror queue full",
			FailedAt: time.Now().UTC(),
		}
		if op.Book != nil {
			failure.BookID = op.Book.ID
		}
		q.mu.Lock()
		q.failures = append(q.failures, failure)
		q.mu.Unlock()
		q.logger.Warn("mirror queue full, dropped write", "kind", op.Kind)
	}
}

// Wait blocks until all enqueued operations have settled.
func (q *mirrorQueue) Wait() {
	q.wg.Wait()
}

// Failures returns the operations that exhausted their retries, oldest
// first, and clears the list.
func (q *mirrorQueue) Failures() []MirrorFailure {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.failures
	q.failures = nil
	return out
}

// Close stops the worker after draining queued operations.
func (q *mirrorQueue) Close() {
	q.stopOnce.Do(func() {
		q.wg.Wait()
		close(q.ops)
	})
}
