// Package normalize provides canonical forms used for duplicate detection and matching.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Title returns the canonical form of a book title used for duplicate
// detection: unicode-decomposed, diacritics and non-ASCII dropped, lowercased,
// whitespace collapsed. Two books are considered the same title when their
// canonical forms are equal.
func Title(s string) string {
	// Decompose accented characters so the base letter survives the ASCII filter.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(strings.TrimSpace(s))

	// Collapse runs of whitespace to a single space.
	return strings.Join(strings.Fields(s), " ")
}

// ISBN strips separators and whitespace from an ISBN and uppercases the
// check digit. Returns empty string for input with no digits at all.
func ISBN(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "of": {}, "or": {}, "the": {}, "to": {},
}

// Keywords splits a query into lowercase search keywords, dropping short
// words and articles that carry no matching signal.
func Keywords(s string) []string {
	const minKeywordLen = 3

	fields := strings.Fields(Title(s))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if _, stop := stopwords[f]; stop {
			continue
		}
		if len(f) >= minKeywordLen {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
