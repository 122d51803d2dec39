package openlibrary

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPayload = `{
	"numFound": 1,
	"docs": [{
		"title": "The Hobbit",
		"author_name": ["J.R.R. Tolkien"],
		"isbn": ["9780618260300"],
		"cover_i": 6549851,
		"first_publish_year": 1937,
		"publisher": ["Houghton Mifflin"],
		"number_of_pages_median": 310,
		"subject": ["Fantasy", "Adventure", "Middle Earth", "Hobbits", "Dragons", "Extra"]
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(slog.New(slog.DiscardHandler)).WithBaseURL(server.URL)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "The Hobbit", r.URL.Query().Get("title"))
		assert.Equal(t, "Tolkien", r.URL.Query().Get("author"))
		w.Write([]byte(searchPayload))
	})

	results, err := client.Search(context.Background(), "The Hobbit", "Tolkien")
	require.NoError(t, err)
	require.Len(t, results, 1)

	c := results[0]
	assert.Equal(t, "The Hobbit", c.Title)
	assert.Equal(t, "J.R.R. Tolkien", c.Author)
	assert.Equal(t, "9780618260300", c.ISBN)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6549851-L.jpg", c.CoverURL)
	assert.Equal(t, "1937", c.PublishYear)
	assert.Equal(t, "Houghton Mifflin", c.Publisher)
	assert.Equal(t, 310, c.Pages)
	assert.Len(t, c.Genres, 5, "subjects capped")
}

func TestSearchISBN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "9780618260300", r.URL.Query().Get("isbn"))
		w.Write([]byte(searchPayload))
	})

	results, err := client.SearchISBN(context.Background(), "9780618260300")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "anything", "")
	assert.Error(t, err)
}

func TestSearchEmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"numFound": 0, "docs": []}`))
	})

	results, err := client.Search(context.Background(), "nothing", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}
