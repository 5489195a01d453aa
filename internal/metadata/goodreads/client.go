// Package goodreads scrapes Goodreads search, book and list pages into
// canonical Books. Goodreads has no public API.
package goodreads

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/metadata/scrape"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourceGoodreads

const (
	defaultBaseURL = "https://www.goodreads.com"
	idPrefix       = "GR-"
)

var digitsRegex = regexp.MustCompile(`^\d+$`)

// Client is the Goodreads adapter.
type Client struct {
	req     *metadata.Requester
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Goodreads client. An empty baseURL uses production.
func NewClient(req *metadata.Requester, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		req:     req,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Name implements metadata.Adapter.
func (c *Client) Name() string { return Name }

// Search implements metadata.Adapter by scraping the search results page.
func (c *Client) Search(ctx context.Context, crit metadata.Criteria) (metadata.Result, error) {
	term := searchTerm(crit)
	if term == "" {
		return metadata.Result{}, nil
	}

	body, err := c.req.Get(ctx, c.baseURL+"/search", url.Values{
		"q":           {term},
		"search_type": {"books"},
	}, htmlHeader())
	if err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	doc, err := scrape.Parse(body)
	if err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	books := parseRows(doc)
	raw := len(books)
	if limit := crit.EffectiveLimit(); len(books) > limit {
		books = books[:limit]
	}
	return metadata.Result{Items: metadata.Finish(books), RawCount: raw}, nil
}

// FetchDetails implements metadata.Adapter. Accepts "GR-123" or "123".
func (c *Client) FetchDetails(ctx context.Context, id string) (*domain.Book, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(id), idPrefix)
	if !digitsRegex.MatchString(digits) {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrInvalidID)
	}

	body, err := c.req.Get(ctx, c.baseURL+"/book/show/"+digits, nil, htmlHeader())
	if err != nil {
		return nil, metadata.WrapError(Name, "details", id, err)
	}

	doc, err := scrape.Parse(body)
	if err != nil {
		return nil, metadata.WrapError(Name, "details", id, err)
	}

	items := metadata.Finish([]domain.Book{parseBookPage(doc, idPrefix+digits)})
	if len(items) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	return &items[0], nil
}

// ListPage is one scraped page of a Goodreads list.
type ListPage struct {
	Title string
	Books []domain.Book
	Next  string // absolute URL of the next page, "" on the last page
}

// FetchListPage scrapes one page of a list. Next is empty on the last page.
func (c *Client) FetchListPage(ctx context.Context, pageURL string) (*ListPage, error) {
	body, err := c.req.Get(ctx, pageURL, nil, htmlHeader())
	if err != nil {
		return nil, metadata.WrapError(Name, "list", "", err)
	}

	doc, err := scrape.Parse(body)
	if err != nil {
		return nil, metadata.WrapError(Name, "list", "", err)
	}

	page := parseListPage(doc, pageURL, c.baseURL)
	page.Books = metadata.Finish(page.Books)
	return page, nil
}

// searchTerm prefers the identifier, then joins title and author.
func searchTerm(c metadata.Criteria) string {
	switch {
	case c.ISBN != "":
		return c.ISBN
	case c.Query != "" && c.Author != "":
		return c.Query + " " + c.Author
	case c.Query != "":
		return c.Query
	default:
		return c.Author
	}
}

func htmlHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}
