package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// ISO 639-1 codes (passthrough)
		{"en", "en"},
		{"de", "de"},
		{"fr", "fr"},
		// ISO 639-2 codes
		{"eng", "en"},
		{"deu", "de"},
		{"ger", "de"}, // bibliographic variant
		// Locale codes
		{"en-US", "en"},
		{"EN-us", "en"},
		{"en_GB", "en"},
		{"de-AT", "de"},
		// Language names
		{"English", "en"},
		{"ENGLISH", "en"},
		{"german", "de"},
		{"Deutsch", "de"},
		{"Español", "es"},
		{"francais", "fr"},
		// BCP 47 with script
		{"zh-Hant-TW", "zh"},
		// Fallbacks
		{"", "en"},
		{"  ", "en"},
		{"xx", "en"},
		{"xyz", "en"},
		{"unknown", "en"},
		{"  fr  ", "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LanguageCode(tt.input))
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "Just plain text", "Just plain text"},
		{"removes simple tags", "<p>Hello</p><p>World</p>", "Hello World"},
		{"handles br tags", "Line 1<br>Line 2<br/>Line 3", "Line 1 Line 2 Line 3"},
		{"removes nested tags", "<div><p><b>Bold</b> and <i>italic</i></p></div>", "Bold and italic"},
		{"handles entities", "&amp; &lt; &gt; &quot;", "& < > \""},
		{"escaped markup", "Tom&#39;s &lt;b&gt;story&lt;/b&gt;", "Tom's story"},
		{"drops scripts", "<p>Keep</p><script>alert(1)</script>", "Keep"},
		{"empty string", "", ""},
		{"only whitespace", "   \n\t  ", ""},
		{"collapses multiple spaces", "<p>Too    many     spaces</p>", "Too many spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Description(tt.input))
		})
	}
}

func TestMinutes(t *testing.T) {
	assert.Nil(t, MinutesFromMillis(0))
	assert.Equal(t, 90, *MinutesFromMillis(90*60000+59999))
	assert.Nil(t, MinutesFromSeconds(-1))
	assert.Equal(t, 2, *MinutesFromSeconds(150))
	assert.Nil(t, Minutes(0))
	assert.Equal(t, 7, *Minutes(7))
}

func TestDate(t *testing.T) {
	assert.Equal(t, "2021-05-04", Date("2021-05-04T07:00:00Z"))
	assert.Equal(t, "2021", Date(" 2021 "))
	assert.Empty(t, Date(""))
}

func TestGenres(t *testing.T) {
	got := Genres([]string{" Science Fiction", "science-fiction", "", "Fiction / Fantasy", "fantasy", "Café", "Cafe"})
	assert.Equal(t, []string{"Science Fiction", "Fantasy", "Café"}, got)
	assert.Empty(t, Genres(nil))
}
