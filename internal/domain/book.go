// Package domain contains the canonical records shared by every provider adapter, the caches and the unification engine.
package domain

import (
	"strings"
)

// Provider tags carried on every Book. They double as keys for merge priority.
const (
	ProviderAudible     = "Audible"
	ProviderITunes      = "iTunes"
	ProviderGoodreads   = "Goodreads"
	ProviderPRH         = "Penguin Random House"
	ProviderHardcover   = "Hardcover"
	ProviderGoogleBooks = "Google Books"
)

// DefaultLanguage is used when a provider reports no usable language.
const DefaultLanguage = "en"

// Book is the canonical audiobook record every adapter produces.
// (Provider, ProviderID) identifies the raw source record.
type Book struct {
	ProviderID     string         `json:"id"`
	Provider       string         `json:"provider"`
	Title          string         `json:"title"`
	Subtitle       string         `json:"subtitle,omitempty"`
	Authors        []string       `json:"authors"`
	Narrators      []string       `json:"narrators"`
	Series         []SeriesEntry  `json:"series"`
	Publisher      string         `json:"publisher,omitempty"`
	PublishedDate  string         `json:"published_date,omitempty"` // YYYY, YYYY-MM or YYYY-MM-DD
	Language       string         `json:"language"`
	Genres         []string       `json:"genres"`
	Description    string         `json:"description"`
	Rating         *float64       `json:"rating,omitempty"`
	RatingCount    *int           `json:"rating_count,omitempty"`
	RuntimeMinutes *int           `json:"runtime_minutes,omitempty"`
	CoverImage     string         `json:"cover_image,omitempty"`
	SampleURL      string         `json:"sample_url,omitempty"`
	ISBN           string         `json:"isbn,omitempty"`
	Chapters       []Chapter      `json:"chapters"`
	CustomMetadata map[string]any `json:"custom_metadata"`
}

// SeriesEntry places a book in a series. Sequence is free-form ("1", "1.5", "Book Zero").
type SeriesEntry struct {
	Name     string `json:"name"`
	Sequence string `json:"sequence,omitempty"`
}

// Chapter is a chapter marker. The core never interprets it.
type Chapter struct {
	Title         string `json:"title"`
	StartOffsetMs int64  `json:"start_offset_ms"`
	LengthMs      int64  `json:"length_ms"`
}

// FirstAuthor returns the first credited author, or "" when there is none.
func (b *Book) FirstAuthor() string {
	if len(b.Authors) == 0 {
		return ""
	}
	return b.Authors[0]
}

// Year returns the four-digit year prefix of PublishedDate, or "" when unknown.
func (b *Book) Year() string {
	if len(b.PublishedDate) < 4 {
		return ""
	}
	year := b.PublishedDate[:4]
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}

// RatingValue returns the rating or 0 when the provider reports none.
func (b *Book) RatingValue() float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

// Normalize fills the defaults a finished record must carry: trimmed title,
// default language, and non-nil collections so JSON renders [] and {}.
func (b *Book) Normalize() {
	b.Title = strings.TrimSpace(b.Title)
	b.Subtitle = strings.TrimSpace(b.Subtitle)
	if b.Language == "" {
		b.Language = DefaultLanguage
	}
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Narrators == nil {
		b.Narrators = []string{}
	}
	if b.Series == nil {
		b.Series = []SeriesEntry{}
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	if b.Chapters == nil {
		b.Chapters = []Chapter{}
	}
	if b.CustomMetadata == nil {
		b.CustomMetadata = map[string]any{}
	}
}

// Ptr returns a pointer to v. Adapters use it for optional numeric fields.
func Ptr[T any](v T) *T {
	return &v
}
