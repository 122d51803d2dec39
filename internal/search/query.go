package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a catalog search.
type SearchParams struct {
	Query string // User's search query

	// Filters
	User     string   // Restrict to one account's documents (shared index)
	Statuses []string // Filter by reading status
	Formats  []string // Filter by book format
	Genres   []string // Filter by exact genre (lowercase)
	MinYear  int      // Minimum publish year
	MaxYear  int      // Maximum publish year

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "author", "recent", "rating"
	SortOrder string // "asc", "desc"

	Highlight bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single matched book.
type SearchHit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Title       string            `json:"title"`
	Author      string            `json:"author,omitempty"`
	Status      string            `json:"status,omitempty"`
	Format      string            `json:"format,omitempty"`
	PublishYear int               `json:"publish_year,omitempty"`
	Rating      float64           `json:"rating,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query against the book catalog.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("author")
	}

	searchRequest.Fields = []string{
		"id", "title", "author", "status", "format", "publish_year", "rating",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}
		if st, ok := hit.Fields["status"].(string); ok {
			searchHit.Status = st
		}
		if f, ok := hit.Fields["format"].(string); ok {
			searchHit.Format = f
		}
		if y, ok := hit.Fields["publish_year"].(float64); ok {
			searchHit.PublishYear = int(y)
		}
		if r, ok := hit.Fields["rating"].(float64); ok {
			searchHit.Rating = r
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query: title is the strongest signal, author and
	// description weaker, plus fuzzy and prefix variants on title for
	// typo tolerance and incremental search.
	if params.Query != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		authorMatch := bleve.NewMatchQuery(params.Query)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)
		textQueries = append(textQueries, authorMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)
		textQueries = append(textQueries, descMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Account scoping (shared server index)
	if params.User != "" {
		uq := bleve.NewTermQuery(params.User)
		uq.SetField("user")
		queries = append(queries, uq)
	}

	// Status filter (exact match, OR across values)
	if len(params.Statuses) > 0 {
		statusQueries := make([]query.Query, len(params.Statuses))
		for i, st := range params.Statuses {
			sq := bleve.NewTermQuery(st)
			sq.SetField("status")
			statusQueries[i] = sq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(statusQueries...))
	}

	// Format filter
	if len(params.Formats) > 0 {
		formatQueries := make([]query.Query, len(params.Formats))
		for i, f := range params.Formats {
			fq := bleve.NewTermQuery(f)
			fq.SetField("format")
			formatQueries[i] = fq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(formatQueries...))
	}

	// Genre filter (indexed lowercase)
	if len(params.Genres) > 0 {
		genreQueries := make([]query.Query, len(params.Genres))
		for i, g := range params.Genres {
			gq := bleve.NewTermQuery(strings.ToLower(g))
			gq.SetField("genres")
			genreQueries[i] = gq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(genreQueries...))
	}

	// Year range filter
	if params.MinYear > 0 || params.MaxYear > 0 {
		min := float64(params.MinYear)
		max := float64(params.MaxYear)
		if params.MaxYear == 0 {
			max = 3000
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("publish_year")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "author":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-author", "-title"})
		} else {
			req.SortBy([]string{"author", "title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "rating":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"rating"})
		} else {
			req.SortBy([]string{"-rating"})
		}
	default:
		// Relevance by score
		req.SortBy([]string{"-_score"})
	}
}
