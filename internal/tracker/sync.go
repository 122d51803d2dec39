package tracker

import (
	"context"
	"fmt"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
	"github.com/lilizblack/bookeareads-server/internal/id"
	"github.com/lilizblack/bookeareads-server/internal/normalize"
)

// SyncReport summarizes a SyncLocalToCloud run. Partial writes are not
// rolled back; per-record failures are listed so the user can retry.
type SyncReport struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// dedupeKeys returns the duplicate-detection keys for a book: normalized
// title and, when present, normalized ISBN. Matching either counts as a
// duplicate. Best-effort heuristic, not a uniqueness guarantee.
func dedupeKeys(b *domain.Book) (title, isbn string) {
	return normalize.Title(b.Title), normalize.ISBN(b.ISBN)
}

// SyncLocalToCloud pushes books created offline (still carrying local IDs)
// to the server. Duplicates within the local set keep their first
// occurrence. Records whose title or ISBN already exist remotely are
// skipped. The rest are created, then the collection is reloaded from the
// server.
func (t *Tracker) SyncLocalToCloud(ctx context.Context) (*SyncReport, error) {
	if t.remote == nil {
		return nil, apperrors.Unauthorized("sign in before syncing to the server")
	}

	t.mu.Lock()

	report := &SyncReport{}
	seenTitles := map[string]bool{}
	seenISBNs := map[string]bool{}

	// Walk oldest first so "first occurrence wins" follows added order,
	// not the newest-first display order.
	var pending []*domain.Book
	for i := len(t.books) - 1; i >= 0; i-- {
		b := t.books[i]
		if !id.IsLocal(b.ID) {
			title, isbn := dedupeKeys(b)
			seenTitles[title] = true
			if isbn != "" {
				seenISBNs[isbn] = true
			}
			continue
		}

		title, isbn := dedupeKeys(b)
		if seenTitles[title] || (isbn != "" && seenISBNs[isbn]) {
			report.Skipped++
			continue
		}
		seenTitles[title] = true
		if isbn != "" {
			seenISBNs[isbn] = true
		}
		pending = append(pending, b)
	}
	t.mu.Unlock()

	if len(pending) == 0 {
		return report, nil
	}

	// Cross-check against what the server already has. The local seen-sets
	// cover books loaded from the server, but another device may have
	// written since our last load.
	remoteBooks, err := t.remote.ListBooks(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRemoteUnavailable, "list server collection")
	}
	remoteTitles := map[string]bool{}
	remoteISBNs := map[string]bool{}
	for i := range remoteBooks {
		title, isbn := dedupeKeys(&remoteBooks[i])
		remoteTitles[title] = true
		if isbn != "" {
			remoteISBNs[isbn] = true
		}
	}

	for _, b := range pending {
		title, isbn := dedupeKeys(b)
		if remoteTitles[title] || (isbn != "" && remoteISBNs[isbn]) {
			report.Skipped++
			continue
		}

		remoteID, err := t.remote.CreateBook(ctx, b)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", b.Title, err))
			continue
		}

		t.mu.Lock()
		b.ID = remoteID
		t.mu.Unlock()
		report.Synced++
	}

	// Reload so the in-memory collection reflects the server's view,
	// including writes from other devices discovered above.
	if err := t.Load(ctx); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("reload after sync: %v", err))
	}

	return report, nil
}
