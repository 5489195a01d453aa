package gateway

import (
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SearchParams are the inputs that determine a search result set.
type SearchParams struct {
	Query     string
	Author    string
	ISBN      string
	Providers []string
	MinRating *float64
	Limit     int
	Unify     bool
}

// Fingerprint derives the cache key suffix for p. Text fields are
// lowercased and whitespace-collapsed, the provider list is sorted and
// deduplicated, and every field is length-prefixed before hashing so
// field boundaries cannot shift.
func Fingerprint(p SearchParams) string {
	providers := make([]string, 0, len(p.Providers))
	for _, name := range p.Providers {
		if name = canonical(name); name != "" {
			providers = append(providers, name)
		}
	}
	slices.Sort(providers)
	providers = slices.Compact(providers)

	rating := ""
	if p.MinRating != nil {
		rating = strconv.FormatFloat(*p.MinRating, 'f', -1, 64)
	}

	var b strings.Builder
	field := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	field(canonical(p.Query))
	field(canonical(p.Author))
	field(canonical(p.ISBN))
	field(strconv.Itoa(len(providers)))
	for _, name := range providers {
		field(name)
	}
	field(rating)
	field(strconv.Itoa(p.Limit))
	field(strconv.FormatBool(p.Unify))

	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func canonical(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
