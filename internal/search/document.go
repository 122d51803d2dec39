package search

import (
	"strconv"
	"strings"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

// SearchDocument is the indexed representation of a book.
// Only the fields needed for querying and displaying hits are kept.
type SearchDocument struct {
	ID string `json:"id"`
	// User scopes documents when one index serves several accounts.
	// Empty in the single-user tracker index.
	User        string   `json:"user,omitempty"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Genres      []string `json:"genres"`
	Status      string   `json:"status"`
	Format      string   `json:"format"`
	PublishYear int      `json:"publish_year"`
	Rating      float64  `json:"rating"`
	CreatedAt   int64    `json:"created_at"`
}

// FromBook converts a book into its search document. The publish year is
// stored as a string on books; unparseable values index as zero.
func FromBook(b *domain.Book) *SearchDocument {
	year, _ := strconv.Atoi(b.PublishYear)
	return &SearchDocument{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Genres:      b.Genres,
		Status:      string(b.Status),
		Format:      string(b.Format),
		PublishYear: year,
		Rating:      b.Rating,
		CreatedAt:   b.CreatedAt.Unix(),
	}
}

// ToMap converts the document to a map with lowercase field names
// matching the index mapping. Bleve uses struct field names (uppercase)
// when given a struct directly, which breaks field-scoped queries.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":           d.ID,
		"user":         d.User,
		"title":        d.Title,
		"author":       d.Author,
		"status":       d.Status,
		"format":       d.Format,
		"publish_year": d.PublishYear,
		"rating":       d.Rating,
		"created_at":   d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genres) > 0 {
		genres := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			genres[i] = strings.ToLower(g)
		}
		m["genres"] = genres
	}
	return m
}
