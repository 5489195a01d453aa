// Package scrape has small DOM helpers over golang.org/x/net/html for the
// providers that only publish HTML.
package scrape

import (
	"bytes"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Matcher selects nodes.
type Matcher func(*html.Node) bool

// Parse parses an HTML document.
func Parse(body []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(body))
}

// Tag matches element nodes with the given tag name.
func Tag(name string) Matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

// Class matches <tag class="... class ..."> elements. An empty tag matches any element.
func Class(tag, class string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		return HasClass(n, class)
	}
}

// HasAttr matches elements carrying attr, whatever its value.
func HasAttr(tag, attr string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		_, ok := lookup(n, attr)
		return ok
	}
}

// AttrEquals matches elements whose attr is exactly value.
func AttrEquals(tag, attr, value string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		v, ok := lookup(n, attr)
		return ok && v == value
	}
}

// AttrContains matches elements whose attr contains substr.
func AttrContains(tag, attr, substr string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		v, ok := lookup(n, attr)
		return ok && strings.Contains(v, substr)
	}
}

// Find returns the first descendant of n (depth-first, document order) matching m.
func Find(n *html.Node, m Matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := range n.Descendants() {
		if m(c) {
			return c
		}
	}
	return nil
}

// FindAll returns every descendant of n matching m in document order.
func FindAll(n *html.Node, m Matcher) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := range n.Descendants() {
		if m(c) {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of attr on n, or "".
func Attr(n *html.Node, attr string) string {
	if n == nil {
		return ""
	}
	v, _ := lookup(n, attr)
	return v
}

// HasClass reports whether n's class list contains class.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(Attr(n, "class")), class)
}

// Text returns the text content of n with whitespace collapsed and trimmed.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collect(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collect(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, b)
	}
}

func lookup(n *html.Node, attr string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == attr {
			return a.Val, true
		}
	}
	return "", false
}
