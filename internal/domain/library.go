package domain

import (
	"slices"
	"time"
)

// LibraryEntry is a Book that has been persisted in the durable store.
// AddedAt is set once; AccessCount never decreases across re-ingestion.
type LibraryEntry struct {
	Book
	AddedAt      time.Time  `json:"added_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AccessCount  int64      `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
}

// Relation links one raw provider record to a unified entity.
type Relation struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"provider_id"`
}

// UnifiedEntity groups provider records that describe the same work.
// Relations are append-only and each pair belongs to at most one entity.
type UnifiedEntity struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Authors   []string   `json:"authors"`
	Relations []Relation `json:"relations"`
	CreatedAt time.Time  `json:"created_at"`
}

// UnifiedBook is the highest-priority Book of a group, decorated with the
// entity id and the set of providers that carry the work.
type UnifiedBook struct {
	Book
	UnifiedID          string   `json:"unified_id"`
	AvailableProviders []string `json:"available_providers"`
}

// NewUnifiedBook decorates primary with the providers found in members.
func NewUnifiedBook(unifiedID string, primary Book, members []Book) UnifiedBook {
	providers := make([]string, 0, len(members))
	for _, m := range members {
		if m.Provider != "" {
			providers = append(providers, m.Provider)
		}
	}
	slices.Sort(providers)
	return UnifiedBook{
		Book:               primary,
		UnifiedID:          unifiedID,
		AvailableProviders: slices.Compact(providers),
	}
}

// LibraryFilter narrows the library browse view.
type LibraryFilter struct {
	MinRating float64
	Provider  string
	Language  string
	Year      string
	Offset    int
	Limit     int
}

// LibraryPage is one page of library entries plus the unpaginated total.
type LibraryPage struct {
	Entries []LibraryEntry `json:"entries"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}
