package metadata

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	candidates []Candidate
	err        error
	calls      int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(_ context.Context, _, _ string) ([]Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

func (f *fakeProvider) SearchISBN(_ context.Context, _ string) ([]Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLookupFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", candidates: []Candidate{{Title: "The Name of the Wind", Author: "Patrick Rothfuss"}}}
	second := &fakeProvider{name: "second", candidates: []Candidate{{Title: "The Name of the Wind"}}}

	svc := NewService(discard(), false, first, second)
	result, err := svc.Lookup(context.Background(), LookupQuery{Title: "The Name of the Wind"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "first", result.Source)
	assert.Equal(t, 0, second.calls, "second provider not consulted")
}

func TestLookupFallsBackOnISBNMiss(t *testing.T) {
	// First provider has no record of the ISBN, second does.
	first := &fakeProvider{name: "first", candidates: nil}
	second := &fakeProvider{name: "second", candidates: []Candidate{{Title: "Dune", ISBN: "9780441172719"}}}

	svc := NewService(discard(), false, first, second)
	result, err := svc.Lookup(context.Background(), LookupQuery{ISBN: "978-0-441-17271-9"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "second", result.Source)
	assert.Equal(t, 1, first.calls)
}

func TestLookupSkipsImplausibleHits(t *testing.T) {
	// First provider returns a hit for a different book entirely.
	first := &fakeProvider{name: "first", candidates: []Candidate{{Title: "Cooking for Beginners"}}}
	second := &fakeProvider{name: "second", candidates: []Candidate{{Title: "The Way of Kings", Author: "Brandon Sanderson"}}}

	svc := NewService(discard(), false, first, second)
	result, err := svc.Lookup(context.Background(), LookupQuery{Title: "The Way of Kings"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "second", result.Source)
}

func TestLookupProviderFailureFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "first", err: assert.AnError}
	second := &fakeProvider{name: "second", candidates: []Candidate{{Title: "Dune"}}}

	svc := NewService(discard(), false, first, second)
	result, err := svc.Lookup(context.Background(), LookupQuery{Title: "Dune"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "second", result.Source)
}

func TestLookupNoMatchIsNotAnError(t *testing.T) {
	first := &fakeProvider{name: "first"}

	svc := NewService(discard(), false, first)
	result, err := svc.Lookup(context.Background(), LookupQuery{Title: "Completely Unknown Book"})

	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestLookupCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(discard(), false, &fakeProvider{name: "first"})
	_, err := svc.Lookup(ctx, LookupQuery{Title: "Dune"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookupCleansDescriptions(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []Candidate{{
		Title:       "Dune",
		Description: "<p>A <b>classic</b> of science fiction.</p>",
	}}}

	svc := NewService(discard(), true, p)
	result, err := svc.Lookup(context.Background(), LookupQuery{Title: "Dune"})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotContains(t, result.Description, "<p>")
	assert.Contains(t, result.Description, "classic")
}

func TestPlausible(t *testing.T) {
	tests := []struct {
		name      string
		query     LookupQuery
		candidate Candidate
		expected  bool
	}{
		{
			name:      "exact isbn match",
			query:     LookupQuery{ISBN: "9780441172719"},
			candidate: Candidate{ISBN: "978-0-441-17271-9"},
			expected:  true,
		},
		{
			name:      "isbn mismatch",
			query:     LookupQuery{ISBN: "9780441172719"},
			candidate: Candidate{ISBN: "9780000000000"},
			expected:  false,
		},
		{
			name:      "title keyword overlap",
			query:     LookupQuery{Title: "The Name of the Wind"},
			candidate: Candidate{Title: "The Name of the Wind (Kingkiller Chronicle)"},
			expected:  true,
		},
		{
			name:      "unrelated title",
			query:     LookupQuery{Title: "The Name of the Wind"},
			candidate: Candidate{Title: "Gardening at Home"},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Plausible(tt.query, &tt.candidate))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "plain text", CleanDescription("plain text"))
	assert.Equal(t, "", CleanDescription(""))

	md := CleanDescription("<p>Hello <strong>world</strong></p>")
	assert.Contains(t, md, "**world**")
}
