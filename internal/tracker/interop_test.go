package tracker

import (
	"context"
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/domain"
	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

func TestExportImportRoundTrip(t *testing.T) {
	tr := setupTracker(t, nil)
	_, err := tr.Add(context.Background(), &domain.Book{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	_, err = tr.Add(context.Background(), &domain.Book{Title: "Piranesi", Author: "Susanna Clarke"})
	require.NoError(t, err)
	require.NoError(t, tr.SetGoal(context.Background(), domain.ReadingGoal{Year: 2026, YearlyTarget: 24}))

	data, err := tr.Export()
	require.NoError(t, err)

	var doc ExportDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, exportVersion, doc.Version)
	assert.False(t, doc.ExportedAt.IsZero())
	assert.Len(t, doc.Books, 2)

	// Import into a fresh offline tracker.
	fresh := setupTracker(t, nil)
	report, err := fresh.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Zero(t, report.Duplicates)

	books := fresh.List()
	require.Len(t, books, 2)
	assert.Equal(t, 24, fresh.Goal().YearlyTarget)
}

func TestImportDeduplicates(t *testing.T) {
	tr := setupTracker(t, nil)

	data := []byte(`{
		"books": [
			{"title": "Dune", "status": "read"},
			{"title": "DUNE"},
			{"title": "Dune Messiah", "isbn": "978-0441013593"},
			{"title": "Different", "isbn": "9780441013593"}
		]
	}`)

	report, err := tr.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.Duplicates)
	assert.Len(t, tr.List(), 2)
}

func TestImportToleratesMissingOptionalFields(t *testing.T) {
	tr := setupTracker(t, nil)

	data := []byte(`{"books": [{"title": "Dune"}]}`)
	report, err := tr.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	books := tr.List()
	require.Len(t, books, 1)
	assert.NotEmpty(t, books[0].ID)
	assert.Equal(t, domain.StatusWantToRead, books[0].Status)
	assert.False(t, books[0].CreatedAt.IsZero())
}

func TestImportRejectsMalformedFile(t *testing.T) {
	tr := setupTracker(t, nil)

	_, err := tr.Import(context.Background(), []byte("not json"))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = tr.Import(context.Background(), []byte(`{"books": []}`))
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestImportReplacesRemoteCollection(t *testing.T) {
	remote := newFakeRemote()
	tr := setupTracker(t, remote)
	_, err := tr.Add(context.Background(), &domain.Book{Title: "Old Book"})
	require.NoError(t, err)

	data := []byte(`{
		"books": [
			{"title": "New One"},
			{"title": "New Two"}
		],
		"readingGoal": {"year": 2026, "yearly_target": 12}
	}`)

	report, err := tr.Import(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, remote.deleteAlls)

	books, err := remote.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)

	// Local collection reloaded from the server afterwards.
	titles := []string{}
	for _, b := range tr.List() {
		titles = append(titles, b.Title)
	}
	assert.ElementsMatch(t, []string{"New One", "New Two"}, titles)
	assert.Equal(t, 12, tr.Goal().YearlyTarget)
}

func TestImportReplacesLocalStateOffline(t *testing.T) {
	tr := setupTracker(t, nil)
	_, err := tr.Add(context.Background(), &domain.Book{Title: "Old Book"})
	require.NoError(t, err)

	data := []byte(`{"books": [{"title": "New One"}]}`)
	_, err = tr.Import(context.Background(), data)
	require.NoError(t, err)

	books := tr.List()
	require.Len(t, books, 1)
	assert.Equal(t, "New One", books[0].Title)
}
