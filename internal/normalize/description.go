package normalize

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Description turns provider HTML or entity-escaped text into plain text.
// Block elements become single spaces and runs of whitespace collapse.
// Markup that was itself entity-escaped (&lt;p&gt;) is stripped too.
func Description(s string) string {
	for range 2 {
		s = plainText(s)
		if !htmlTagRegex.MatchString(s) {
			break
		}
	}
	return s
}

func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := xhtml.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(stripFallback(s))
	}

	var buf strings.Builder
	extractText(doc, &buf)

	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

func extractText(n *xhtml.Node, buf *strings.Builder) {
	if n.Type == xhtml.TextNode {
		buf.WriteString(n.Data)
	}

	if n.Type == xhtml.ElementNode {
		switch n.Data {
		case "script", "style":
			return
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == xhtml.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

func stripFallback(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// MinutesFromMillis converts a millisecond duration to whole minutes.
// Non-positive input yields nil so the field is omitted.
func MinutesFromMillis(ms int64) *int {
	if ms <= 0 {
		return nil
	}
	m := int(ms / 60000)
	return &m
}

// MinutesFromSeconds converts a duration in seconds to whole minutes.
func MinutesFromSeconds(sec int64) *int {
	if sec <= 0 {
		return nil
	}
	m := int(sec / 60)
	return &m
}

// Minutes wraps an already-minute value, dropping non-positive input.
func Minutes(m int) *int {
	if m <= 0 {
		return nil
	}
	return &m
}

// Date trims a provider timestamp to its date part, keeping partial dates
// ("2021", "2021-05") as they are.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}
