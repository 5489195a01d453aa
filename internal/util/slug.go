// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Slug converts free text to a dashed lowercase ASCII slug.
//
//	"Project Hail Mary" → "project-hail-mary"
//	"sci-fi/fantasy"    → "sci-fi-fantasy"
//	"--leading--"       → "leading"
func Slug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = wordSeparatorRe.ReplaceAllString(s, "-")
	s = nonAlphanumericRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CompactSlug lowercases input and keeps only letters and digits, with
// diacritics folded so "Misérables" and "Miserables" agree.
//
//	"The Way of Kings!" → "thewayofkings"
//	"Brandon Sanderson" → "brandonsanderson"
func CompactSlug(input string) string {
	folded, _, err := transform.String(foldDiacritics(), input)
	if err != nil {
		folded = input
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldDiacritics must be built per call; transform chains keep state.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
