// Package tracker implements the local-first reading tracker: an in-memory
// book collection backed by a durable JSON snapshot, opportunistically
// mirrored to the sync server when a user session exists.
//
// All mutation happens under one mutex and applies to memory first; the
// snapshot is rewritten after every mutation. Remote writes are either
// synchronous and fail-loud (Add, Delete, import) or queued background
// mirrors whose failures land in an explicit retry/reconciliation list
// (Update, LogProgress, StopTimer).
package tracker

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
	"github.com/lilizblack/bookeareads-server/internal/search"
)

// Options configures a Tracker.
type Options struct {
	SnapshotPath string
	Remote       Remote              // nil when no user session exists
	Index        *search.SearchIndex // optional full-text index
	Logger       *slog.Logger
	RetryDelay   time.Duration // backoff base for background mirror retries
}

// Tracker owns the in-process copy of the library.
type Tracker struct {
	mu     sync.Mutex
	books  []*domain.Book // newest first
	goal   *domain.ReadingGoal
	timer  *domain.ActiveTimer
	snap   *snapshot
	remote Remote
	index  *search.SearchIndex
	mirror *mirrorQueue
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Tracker. Call Load before using it.
func New(opts Options) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = 2 * time.Second
	}

	t := &Tracker{
		snap:   newSnapshot(opts.SnapshotPath),
		remote: opts.Remote,
		index:  opts.Index,
		logger: logger,
		now:    time.Now,
	}
	if opts.Remote != nil {
		t.mirror = newMirrorQueue(opts.Remote, logger, retryDelay)
	}
	return t
}

// Close settles pending mirror writes and releases resources.
func (t *Tracker) Close() {
	if t.mirror != nil {
		t.mirror.Close()
	}
}

// Load populates the in-memory collection. With a session it fetches the
// remote collection and falls back to the local snapshot when the server
// is unreachable; without one it reads the snapshot only.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.remote != nil {
		books, err := t.remote.ListBooks(ctx)
		if err == nil {
			t.books = make([]*domain.Book, 0, len(books))
			for i := range books {
				t.books = append(t.books, &books[i])
			}
			t.sortLocked()

			if goal, goalErr := t.remote.GetGoal(ctx); goalErr == nil {
				t.goal = goal
			} else if !apperrors.Is(goalErr, apperrors.ErrNotFound) {
				t.logger.Warn("failed to load reading goal from server", "error", goalErr)
			}

			t.persistLocked()
			t.reindexLocked()
			t.logger.Info("loaded library from server", "books", len(t.books))
			return nil
		}
		t.logger.Warn("server unreachable, falling back to local snapshot", "error", err)
	}

	return t.loadSnapshotLocked()
}

// LoadSnapshot reads the local snapshot without consulting the server.
// Sign-in flows use it to collect offline-created books for
// SyncLocalToCloud before the first server load replaces the collection.
func (t *Tracker) LoadSnapshot() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadSnapshotLocked()
}

func (t *Tracker) loadSnapshotLocked() error {
	doc, err := t.snap.Load()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "load local snapshot")
	}
	t.books = doc.Books
	t.goal = doc.ReadingGoal
	t.sortLocked()
	t.reindexLocked()
	t.logger.Info("loaded library from snapshot", "books", len(t.books))
	return nil
}

// Get returns the book with the given ID.
func (t *Tracker) Get(bookID string) (*domain.Book, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getLocked(bookID)
}

// List returns the collection, newest first.
func (t *Tracker) List() []*domain.Book {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.books)
}

// Collection returns the collection by value, for the stats functions.
func (t *Tracker) Collection() []domain.Book {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Book, len(t.books))
	for i, b := range t.books {
		out[i] = *b
	}
	return out
}

// Add creates a book. A provisional local ID is assigned first; when a
// session exists the book is written to the server synchronously and takes
// the server-assigned ID. A failed server write aborts the add entirely so
// local and remote state cannot silently diverge.
func (t *Tracker) Add(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if book.Title == "" {
		return nil, apperrors.Validation("title is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	book.InitTimestamps()
	localID, err := id.Generate(id.LocalPrefix)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "assign book id")
	}
	book.ID = localID

	if book.Status == "" {
		book.Status = domain.StatusWantToRead
	}
	book.ApplyStatus(book.Status)
	if book.Progress > 0 {
		book.UpsertLog(domain.DayKey(t.now()), book.Progress, 0)
	}

	if t.remote != nil {
		remoteID, err := t.remote.CreateBook(ctx, book)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.CodeRemoteUnavailable,
				"store %q on server", book.Title)
		}
		book.ID = remoteID
	}

	t.books = append([]*domain.Book{book}, t.books...)
	t.persistLocked()
	t.indexBookLocked(book)
	return book, nil
}

// BookPatch is a partial update. Nil fields are left untouched.
type BookPatch struct {
	Title            *string              `json:"title,omitempty"`
	Author           *string              `json:"author,omitempty"`
	ISBN             *string              `json:"isbn,omitempty"`
	Description      *string              `json:"description,omitempty"`
	Publisher        *string              `json:"publisher,omitempty"`
	PublishYear      *string              `json:"publish_year,omitempty"`
	CoverURL         *string              `json:"cover_url,omitempty"`
	CoverBlurHash    *string              `json:"cover_blurhash,omitempty"`
	Genres           *[]string            `json:"genres,omitempty"`
	Format           *domain.Format       `json:"format,omitempty"`
	Status           *domain.Status       `json:"status,omitempty"`
	TrackingMode     *domain.TrackingMode `json:"tracking_mode,omitempty"`
	Progress         *float64             `json:"progress,omitempty"`
	TotalPages       *int                 `json:"total_pages,omitempty"`
	TotalChapters    *int                 `json:"total_chapters,omitempty"`
	TotalMinutes     *int                 `json:"total_minutes,omitempty"`
	Owned            *bool                `json:"owned,omitempty"`
	Price            *float64             `json:"price,omitempty"`
	PurchaseLocation *string              `json:"purchase_location,omitempty"`
	PurchaseDate     *time.Time           `json:"purchase_date,omitempty"`
	Ownership        *domain.Ownership    `json:"ownership,omitempty"`
	Rating           *float64             `json:"rating,omitempty"`
	SpiceRating      *float64             `json:"spice_rating,omitempty"`
}

// Update merges the patch into the book, applies status side effects,
// upserts today's log when progress changed, and mirrors the result to the
// server in the background. The local mutation is optimistic: it does not
// roll back when the background write fails, the failure lands in the
// mirror failure list instead.
func (t *Tracker) Update(ctx context.Context, bookID string, patch BookPatch) (*domain.Book, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	book, err := t.getLocked(bookID)
	if err != nil {
		return nil, err
	}

	applyPatch(book, patch)

	if patch.Status != nil {
		book.ApplyStatus(*patch.Status)
	}
	if patch.Progress != nil || (patch.Status != nil && *patch.Status == domain.StatusRead) {
		book.UpsertLog(domain.DayKey(t.now()), book.Progress, 0)
	}
	book.Touch()

	t.persistLocked()
	t.indexBookLocked(book)
	t.enqueueBookMirror(book)
	return book, nil
}

func applyPatch(b *domain.Book, p BookPatch) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Publisher != nil {
		b.Publisher = *p.Publisher
	}
	if p.PublishYear != nil {
		b.PublishYear = *p.PublishYear
	}
	if p.CoverURL != nil {
		b.CoverURL = *p.CoverURL
	}
	if p.CoverBlurHash != nil {
		b.CoverBlurHash = *p.CoverBlurHash
	}
	if p.Genres != nil {
		b.Genres = *p.Genres
	}
	if p.Format != nil {
		b.Format = *p.Format
	}
	if p.TrackingMode != nil {
		b.TrackingMode = *p.TrackingMode
	}
	if p.Progress != nil {
		b.Progress = *p.Progress
	}
	if p.TotalPages != nil {
		b.TotalPages = *p.TotalPages
	}
	if p.TotalChapters != nil {
		b.TotalChapters = *p.TotalChapters
	}
	if p.TotalMinutes != nil {
		b.TotalMinutes = *p.TotalMinutes
	}
	if p.Owned != nil {
		b.Owned = *p.Owned
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.PurchaseLocation != nil {
		b.PurchaseLocation = *p.PurchaseLocation
	}
	if p.PurchaseDate != nil {
		b.PurchaseDate = p.PurchaseDate
	}
	if p.Ownership != nil {
		b.Ownership = *p.Ownership
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.SpiceRating != nil {
		b.SpiceRating = *p.SpiceRating
	}
}

// LogProgress records a new cumulative position for today and mirrors it.
func (t *Tracker) LogProgress(ctx context.Context, bookID string, value float64) (*domain.Book, error) {
	if value < 0 {
		return nil, apperrors.Validation("progress cannot be negative")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	book, err := t.getLocked(bookID)
	if err != nil {
		return nil, err
	}

	book.Progress = value
	book.UpsertLog(domain.DayKey(t.now()), value, 0)
	book.Touch()

	t.persistLocked()
	t.indexBookLocked(book)
	t.enqueueBookMirror(book)
	return book, nil
}

// Delete removes a book, server first when a session exists. A failed
// server delete leaves local state untouched.
func (t *Tracker) Delete(ctx context.Context, bookID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(ctx, bookID)
}

// BulkDelete removes several books, continuing past per-book failures and
// returning them joined.
func (t *Tracker) BulkDelete(ctx context.Context, bookIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, bookID := range bookIDs {
		if err := t.deleteLocked(ctx, bookID); err != nil {
			errs = append(errs, err)
		}
	}
	return apperrors.Join(errs...)
}

func (t *Tracker) deleteLocked(ctx context.Context, bookID string) error {
	idx := slices.IndexFunc(t.books, func(b *domain.Book) bool { return b.ID == bookID })
	if idx < 0 {
		return apperrors.NotFoundf("book %s not found", bookID)
	}

	if t.remote != nil && !id.IsLocal(bookID) {
		if err := t.remote.DeleteBook(ctx, bookID); err != nil {
			return apperrors.Wrapf(err, apperrors.CodeRemoteUnavailable,
				"delete book %s on server", bookID)
		}
	}

	t.books = slices.Delete(t.books, idx, idx+1)
	t.persistLocked()
	if t.index != nil {
		if err := t.index.DeleteDocument(bookID); err != nil {
			t.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
		}
	}
	return nil
}

// Goal returns the current reading goal, zero-valued when unset.
func (t *Tracker) Goal() domain.ReadingGoal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.goal == nil {
		return domain.ReadingGoal{}
	}
	return *t.goal
}

// SetGoal stores the reading goal locally and mirrors it.
func (t *Tracker) SetGoal(ctx context.Context, goal domain.ReadingGoal) error {
	if goal.YearlyTarget < 0 || goal.MonthlyTarget < 0 {
		return apperrors.Validation("goal targets cannot be negative")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	g := goal
	t.goal = &g
	t.persistLocked()
	if t.mirror != nil {
		t.mirror.enqueue(mirrorOp{Kind: mirrorSetGoal, Goal: &g})
	}
	return nil
}

// MirrorFailures drains the background writes that exhausted retries.
func (t *Tracker) MirrorFailures() []MirrorFailure {
	if t.mirror == nil {
		return nil
	}
	return t.mirror.Failures()
}

// WaitMirror blocks until queued background writes settle. Test hook and
// shutdown aid.
func (t *Tracker) WaitMirror() {
	if t.mirror != nil {
		t.mirror.Wait()
	}
}

// Search runs a full-text query over the indexed collection.
func (t *Tracker) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if t.index == nil {
		return nil, apperrors.Internal("search index not configured")
	}
	return t.index.Search(ctx, params)
}

func (t *Tracker) getLocked(bookID string) (*domain.Book, error) {
	for _, b := range t.books {
		if b.ID == bookID {
			return b, nil
		}
	}
	return nil, apperrors.NotFoundf("book %s not found", bookID)
}

func (t *Tracker) sortLocked() {
	slices.SortStableFunc(t.books, func(a, b *domain.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// persistLocked rewrites the snapshot. Snapshot failures do not roll back
// the in-memory mutation; they are logged and the next mutation retries.
func (t *Tracker) persistLocked() {
	if err := t.snap.Save(t.books, t.goal); err != nil {
		t.logger.Warn("failed to write library snapshot", "error", err)
	}
}

func (t *Tracker) indexBookLocked(book *domain.Book) {
	if t.index == nil {
		return
	}
	if err := t.index.IndexDocument(search.FromBook(book)); err != nil {
		t.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

func (t *Tracker) reindexLocked() {
	if t.index == nil {
		return
	}
	docs := make([]*search.SearchDocument, 0, len(t.books))
	for _, b := range t.books {
		docs = append(docs, search.FromBook(b))
	}
	if err := t.index.IndexDocuments(docs); err != nil {
		t.logger.Warn("failed to reindex library", "error", err)
	}
}

// enqueueBookMirror queues a background server write carrying a copy of
// the book taken now, so later edits do not race the in-flight write.
func (t *Tracker) enqueueBookMirror(book *domain.Book) {
	if t.mirror == nil || id.IsLocal(book.ID) {
		return
	}
	cp := *book
	cp.ReadingLogs = slices.Clone(book.ReadingLogs)
	cp.Notes = slices.Clone(book.Notes)
	cp.Genres = slices.Clone(book.Genres)
	t.mirror.enqueue(mirrorOp{Kind: mirrorUpdateBook, Book: &cp})
}
