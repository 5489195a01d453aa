package normalize

import (
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/util"
)

// Genres trims provider genre names and drops blanks and names that fold
// to one already seen, so "Science Fiction" and "science-fiction" collapse.
// The first spelling wins. Slash-separated categories ("Fiction / Fantasy")
// keep only their most specific segment.
func Genres(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, g := range raw {
		if i := strings.LastIndex(g, " / "); i >= 0 {
			g = g[i+3:]
		}
		g = strings.TrimSpace(g)
		key := util.CompactSlug(g)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}
