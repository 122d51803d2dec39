// Package metadata resolves book details from public catalog APIs.
// Providers are tried in order until one returns a plausible match.
package metadata

import "context"

// Candidate is one search hit from a catalog provider, already mapped to
// our field names.
type Candidate struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	Publisher   string
	PublishYear string
	CoverURL    string
	Pages       int
	Genres      []string
}

// Provider is a catalog API that can be searched by title/author or ISBN.
type Provider interface {
	Name() string
	Search(ctx context.Context, title, author string) ([]Candidate, error)
	SearchISBN(ctx context.Context, isbn string) ([]Candidate, error)
}

// LookupQuery describes what the caller knows about the book. ISBN takes
// priority when present.
type LookupQuery struct {
	Title  string
	Author string
	ISBN   string
}

// LookupResult is the chosen candidate plus the provider that supplied it.
type LookupResult struct {
	Candidate
	Source string
}
