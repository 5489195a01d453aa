package domain

import "time"

// ListKind distinguishes lists scraped from a URL from lists built by hand.
type ListKind string

const (
	// ListImported lists are keyed by their source URL; re-import overwrites.
	ListImported ListKind = "imported"
	// ListCustom lists are keyed by a generated id and never touched by import.
	ListCustom ListKind = "custom"
)

// List is an ordered collection of provider ids.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      ListKind  `json:"kind"`
	SourceURL string    `json:"source_url,omitempty"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSummary is a list without its items, for index views.
type ListSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      ListKind  `json:"kind"`
	SourceURL string    `json:"source_url,omitempty"`
	ItemCount int       `json:"item_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
