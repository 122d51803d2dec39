package metadata

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/lilizblack/bookeareads-server/internal/normalize"
)

// Service runs lookups across catalog providers in priority order.
type Service struct {
	providers []Provider
	logger    *slog.Logger
	clean     bool
}

// NewService creates a lookup service. Providers are tried in the order
// given; the first plausible match wins.
func NewService(logger *slog.Logger, clean bool, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		logger:    logger,
		clean:     clean,
	}
}

// Lookup resolves book details for a query. Providers are consulted in
// order; their candidates are filtered by Plausible so a wrong-but-ranked
// hit from an early provider does not shadow a correct hit from a later
// one. A query no provider can answer returns (nil, nil): absence of data
// is not an error. The returned error is reserved for context cancellation.
func (s *Service) Lookup(ctx context.Context, q LookupQuery) (*LookupResult, error) {
	for _, p := range s.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := s.searchProvider(ctx, p, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Provider outage falls through to the next provider.
			s.logger.Warn("catalog provider failed",
				"provider", p.Name(),
				"error", err,
			)
			continue
		}

		for i := range candidates {
			if Plausible(q, &candidates[i]) {
				s.logger.Debug("catalog match",
					"provider", p.Name(),
					"title", candidates[i].Title,
				)
				return s.finish(p.Name(), candidates[i]), nil
			}
		}
	}

	s.logger.Debug("no plausible catalog match",
		"title", q.Title,
		"isbn", q.ISBN,
	)
	return nil, nil
}

func (s *Service) searchProvider(ctx context.Context, p Provider, q LookupQuery) ([]Candidate, error) {
	if q.ISBN != "" {
		return p.SearchISBN(ctx, normalize.ISBN(q.ISBN))
	}
	return p.Search(ctx, q.Title, q.Author)
}

func (s *Service) finish(source string, c Candidate) *LookupResult {
	if s.clean {
		c.Description = CleanDescription(c.Description)
	}
	return &LookupResult{Candidate: c, Source: source}
}

// Plausible reports whether a candidate credibly answers the query. An ISBN
// query requires an exact ISBN match; title queries require at least half
// of the title keywords to appear in the candidate title.
func Plausible(q LookupQuery, c *Candidate) bool {
	if q.ISBN != "" {
		return normalize.ISBN(c.ISBN) == normalize.ISBN(q.ISBN)
	}

	keywords := normalize.Keywords(q.Title)
	if len(keywords) == 0 {
		// Nothing to compare on; accept whatever the provider ranked first.
		return c.Title != ""
	}

	candidateWords := strings.Fields(normalize.Title(c.Title))
	matched := 0
	for _, kw := range keywords {
		if slices.Contains(candidateWords, kw) {
			matched++
		}
	}
	return matched*2 >= len(keywords)
}
