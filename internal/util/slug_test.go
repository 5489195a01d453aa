package util

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "DUNE", "dune"},
		{"spaces to dashes", "project hail mary", "project-hail-mary"},
		{"underscores to dashes", "the_martian", "the-martian"},
		{"already normalized", "the-martian", "the-martian"},
		{"trim whitespace", "  dune  ", "dune"},
		{"multiple spaces", "hail   mary", "hail-mary"},
		{"punctuation removal", "Dune: Part One", "dune-part-one"},
		{"slashes", "sci-fi/fantasy", "sci-fi-fantasy"},
		{"apostrophe removal", "Ender's Game", "enders-game"},
		{"multiple dashes", "slow--burn", "slow-burn"},
		{"leading and trailing dashes", "--dune--", "dune"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.expected {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCompactSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Way of Kings!", "thewayofkings"},
		{"Brandon Sanderson", "brandonsanderson"},
		{"Les Misérables", "lesmiserables"},
		{"Dune (Book 1)", "dunebook1"},
		{"  ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CompactSlug(tt.input); got != tt.expected {
				t.Errorf("CompactSlug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
