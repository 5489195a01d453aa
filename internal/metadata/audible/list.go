package audible

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/metadata/scrape"
)

const defaultListTitle = "Imported List"

// pdLinkRegex matches product links like /pd/Title-Audiobook/B0xxxxxxxx.
var pdLinkRegex = regexp.MustCompile(`/pd/.*(B0[A-Z0-9]{8})`)

// ScrapeList harvests ASINs from an Audible HTML page (charts, series pages,
// search results). Only identifiers are returned; callers resolve them.
func (c *Client) ScrapeList(ctx context.Context, pageURL string) (string, []string, error) {
	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := c.req.Get(ctx, pageURL, nil, header)
	if err != nil {
		return "", nil, wrapError("list", "", err)
	}

	title, asins, err := parseListPage(body)
	if err != nil {
		return "", nil, wrapError("list", "", err)
	}

	c.logger.Debug("scraped audible list",
		"url", pageURL,
		"asins", len(asins),
	)
	return title, asins, nil
}

func parseListPage(body []byte) (string, []string, error) {
	doc, err := scrape.Parse(body)
	if err != nil {
		return "", nil, err
	}

	title := defaultListTitle
	if h1 := scrape.Text(scrape.Find(doc, scrape.Tag("h1"))); h1 != "" {
		title = h1
	} else if t := scrape.Text(scrape.Find(doc, scrape.Tag("title"))); t != "" {
		title = strings.TrimSpace(strings.ReplaceAll(t, "| Audible.com", ""))
	}

	seen := make(map[string]bool)
	var asins []string
	add := func(asin string) {
		if !seen[asin] {
			seen[asin] = true
			asins = append(asins, asin)
		}
	}

	for _, n := range scrape.FindAll(doc, scrape.HasAttr("", "data-asin")) {
		if asin := scrape.Attr(n, "data-asin"); len(asin) == 10 {
			add(asin)
		}
	}

	// Fallback to product links when the page carries no data-asin markers.
	if len(asins) == 0 {
		for _, a := range scrape.FindAll(doc, scrape.HasAttr("a", "href")) {
			if m := pdLinkRegex.FindStringSubmatch(scrape.Attr(a, "href")); m != nil {
				add(m[1])
			}
		}
	}

	return title, asins, nil
}
