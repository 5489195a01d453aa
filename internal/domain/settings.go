package domain

import "time"

// Adapter names used for provider selection and stats.
const (
	SourceAudible     = "audible"
	SourceITunes      = "itunes"
	SourceGoodreads   = "goodreads"
	SourcePRH         = "prh"
	SourceHardcover   = "hardcover"
	SourceGoogleBooks = "googlebooks"
)

// DefaultSourceOrder is the fixed provider order of a fan-out. First-seen-wins
// deduplication follows it.
var DefaultSourceOrder = []string{
	SourceAudible,
	SourceITunes,
	SourceGoodreads,
	SourcePRH,
	SourceHardcover,
	SourceGoogleBooks,
}

// Settings is the runtime configuration snapshot.
// It is read from the durable store on every request.
type Settings struct {
	Providers       map[string]bool `json:"providers"`
	SearchLimit     int             `json:"search_limit"`
	ScrapePageLimit int             `json:"scrape_page_limit"`
	APIKeys         APIKeys         `json:"api_keys"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// APIKeys holds the credentials some providers require.
type APIKeys struct {
	PRH         string `json:"prh,omitempty"`
	Hardcover   string `json:"hardcover,omitempty"`
	GoogleBooks string `json:"googlebooks,omitempty"`
}

// NewSettings creates settings with the default provider flags.
func NewSettings() *Settings {
	return &Settings{
		Providers: map[string]bool{
			SourceAudible:     true,
			SourceITunes:      true,
			SourceGoodreads:   true,
			SourcePRH:         true,
			SourceHardcover:   false,
			SourceGoogleBooks: false,
		},
		SearchLimit:     5,
		ScrapePageLimit: 100,
		UpdatedAt:       time.Now(),
	}
}

// Enabled reports whether the named provider is switched on.
// Unknown names are off.
func (s *Settings) Enabled(name string) bool {
	return s.Providers[name]
}

// EnabledSources returns the enabled providers in DefaultSourceOrder.
func (s *Settings) EnabledSources() []string {
	var out []string
	for _, name := range DefaultSourceOrder {
		if s.Enabled(name) {
			out = append(out, name)
		}
	}
	return out
}
