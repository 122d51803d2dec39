package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lilizblack/bookeareads-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search collection",
		Description: "Full-text search over the user's books with status, format, genre, and year filters",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the collection.
type SearchInput struct {
	Query     string `query:"q" maxLength:"200" doc:"Search query. Empty matches all books."`
	Statuses  string `query:"statuses" maxLength:"200" doc:"Comma-separated reading statuses to filter by"`
	Formats   string `query:"formats" maxLength:"200" doc:"Comma-separated formats to filter by"`
	Genres    string `query:"genres" maxLength:"200" doc:"Comma-separated genres to filter by"`
	MinYear   int    `query:"min_year" minimum:"0" doc:"Minimum publish year"`
	MaxYear   int    `query:"max_year" minimum:"0" doc:"Maximum publish year"`
	Limit     int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	SortBy    string `query:"sort" maxLength:"20" doc:"Sort order: relevance, title, author, recent, rating"`
	SortOrder string `query:"order" maxLength:"4" doc:"asc or desc"`
	Highlight bool   `query:"highlight" doc:"Include match highlighting"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body search.SearchResult
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if s.searchIndex == nil {
		return nil, huma.Error503ServiceUnavailable("Search index not configured")
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Statuses = splitCSV(input.Statuses)
	params.Formats = splitCSV(input.Formats)
	params.Genres = splitCSV(input.Genres)
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.Offset = input.Offset
	params.Highlight = input.Highlight
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}
	if input.SortOrder != "" {
		params.SortOrder = input.SortOrder
	}

	result, err := s.services.Library.Search(ctx, userID, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	return &SearchOutput{Body: *result}, nil
}

// splitCSV splits a comma-separated query value into trimmed parts.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var parts []string
	for p := range strings.SplitSeq(value, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
