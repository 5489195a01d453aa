// Package unify groups provider records that describe the same work into
// persistent unified entities.
package unify

import (
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/util"
)

// minISBNLen is the shortest identifier trusted as a strong match.
const minISBNLen = 10

// MatchKey returns the heuristic grouping key for b. A usable ISBN wins;
// otherwise the key is the compacted title and first author. Distinct works
// sharing both, such as reissues without an ISBN, get the same key.
//
//	ISBN "978-0-441-01359-3"        → "isbn:9780441013593"
//	"Dune" by "Frank Herbert"       → "dune|frankherbert"
//	"Dune" with no author           → "dune|unknown"
func MatchKey(b *domain.Book) string {
	if isbn := normalizeISBN(b.ISBN); len(isbn) >= minISBNLen {
		return "isbn:" + isbn
	}
	author := util.CompactSlug(b.FirstAuthor())
	if author == "" {
		author = "unknown"
	}
	return util.CompactSlug(b.Title) + "|" + author
}

// normalizeISBN keeps digits and a trailing check character X.
func normalizeISBN(raw string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// priorities orders providers when picking a group's representative.
var priorities = map[string]int{
	domain.ProviderAudible:     10,
	domain.ProviderHardcover:   8,
	domain.ProviderPRH:         6,
	domain.ProviderITunes:      5,
	domain.ProviderGoogleBooks: 4,
	domain.ProviderGoodreads:   2,
}

// Priority returns the merge priority of a provider tag. Unknown tags rank 1.
func Priority(provider string) int {
	if p, ok := priorities[provider]; ok {
		return p
	}
	return 1
}
