// Package hardcover queries the Hardcover GraphQL API. Search finds books
// first, then expands each book to its editions and keeps only audiobooks.
package hardcover

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
	"github.com/listenupapp/listenup-metadata/internal/util"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourceHardcover

const (
	defaultEndpoint = "https://api.hardcover.app/v1/graphql"
	idPrefix        = "hc:"
	resolveLimit    = 4
)

// AudioFormats is the reading-format allow-list for editions.
var AudioFormats = map[string]bool{
	"Audiobook": true,
}

// ErrGraphQL reports errors returned in the GraphQL response body.
var ErrGraphQL = errors.New("hardcover: graphql error")

const bookFields = `
    id
    slug
    title
    subtitle
    description
    release_date
    rating
    users_count
    contributions { contribution author { name } }
    images { url }
    book_series { position series { name } }`

var (
	searchQuery = `query SearchBooks($title: String!, $slug: String!, $limit: Int!) {
  books(
    where: {_or: [{title: {_eq: $title}}, {slug: {_eq: $slug}}]}
    limit: $limit
    order_by: {users_count: desc}
  ) {` + bookFields + `
  }
}`

	isbnQuery = `query BooksByISBN($isbn: String!, $limit: Int!) {
  books(
    where: {editions: {isbn_13: {_eq: $isbn}}}
    limit: $limit
    order_by: {users_count: desc}
  ) {` + bookFields + `
  }
}`

	authorQuery = `query BooksByAuthor($author: String!, $limit: Int!) {
  books(
    where: {contributions: {author: {name: {_eq: $author}}}}
    limit: $limit
    order_by: {users_count: desc}
  ) {` + bookFields + `
  }
}`

	slugQuery = `query BookBySlug($slug: String!) {
  books(where: {slug: {_eq: $slug}}, limit: 1) {` + bookFields + `
  }
}`

	editionsQuery = `query BookEditions($bookId: Int!) {
  editions(where: {book_id: {_eq: $bookId}}, order_by: {users_count: desc}) {
    id
    isbn_13
    asin
    audio_seconds
    release_date
    contributions { contribution author { name } }
    publisher { name }
    language { code2 }
    reading_format { format }
  }
}`
)

// Client is the Hardcover adapter.
type Client struct {
	req      *metadata.Requester
	endpoint string
	key      string
	logger   *slog.Logger
}

// NewClient creates a Hardcover client. An empty endpoint uses production.
func NewClient(req *metadata.Requester, endpoint, key string, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		req:      req,
		endpoint: endpoint,
		key:      key,
		logger:   logger,
	}
}

// Name implements metadata.Adapter.
func (c *Client) Name() string { return Name }

// Search implements metadata.Adapter.
func (c *Client) Search(ctx context.Context, crit metadata.Criteria) (metadata.Result, error) {
	token := bearer(metadata.FirstKey(crit.Keys.Hardcover, metadata.KeysFrom(ctx).Hardcover, c.key))
	if token == "" {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", metadata.ErrMissingKey)
	}

	limit := crit.EffectiveLimit()
	var query string
	vars := map[string]any{"limit": limit}
	switch {
	case crit.ISBN != "":
		query = isbnQuery
		vars["isbn"] = crit.ISBN
	case crit.Query != "":
		query = searchQuery
		vars["title"] = strings.TrimSpace(crit.Query)
		vars["slug"] = util.Slug(crit.Query)
	case crit.Author != "":
		query = authorQuery
		vars["author"] = strings.TrimSpace(crit.Author)
	default:
		return metadata.Result{}, nil
	}

	var data booksData
	if err := c.query(ctx, token, query, vars, &data); err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	editions := c.resolve(ctx, token, data.Books)

	items := make([]domain.Book, 0, len(data.Books))
	for i := range data.Books {
		if len(editions[i]) == 0 {
			continue
		}
		items = append(items, toBook(&data.Books[i], editions[i]))
	}

	c.logger.Debug("Hardcover search results",
		"books", len(data.Books),
		"audiobooks", len(items),
	)
	return metadata.Result{Items: metadata.Finish(items), RawCount: len(data.Books)}, nil
}

// resolve fetches each book's audiobook editions concurrently. A failed
// lookup leaves that book with no editions.
func (c *Client) resolve(ctx context.Context, token string, books []rawBook) [][]rawEdition {
	out := make([][]rawEdition, len(books))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)
	for i := range books {
		g.Go(func() error {
			eds, err := c.audioEditions(gctx, token, books[i].ID)
			if err != nil {
				c.logger.Debug("Hardcover editions lookup failed", "book_id", books[i].ID, "error", err)
				return nil
			}
			out[i] = eds
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) audioEditions(ctx context.Context, token string, bookID int64) ([]rawEdition, error) {
	var data editionsData
	if err := c.query(ctx, token, editionsQuery, map[string]any{"bookId": bookID}, &data); err != nil {
		return nil, err
	}
	var out []rawEdition
	for _, e := range data.Editions {
		if e.ReadingFormat != nil && AudioFormats[e.ReadingFormat.Format] {
			out = append(out, e)
		}
	}
	return out, nil
}

// FetchDetails implements metadata.Adapter. id is "hc:<slug>" or a bare slug.
func (c *Client) FetchDetails(ctx context.Context, id string) (*domain.Book, error) {
	slug := strings.TrimPrefix(strings.TrimSpace(id), idPrefix)
	if slug == "" {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrInvalidID)
	}
	token := bearer(metadata.FirstKey(metadata.KeysFrom(ctx).Hardcover, c.key))
	if token == "" {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrMissingKey)
	}

	var data booksData
	if err := c.query(ctx, token, slugQuery, map[string]any{"slug": slug}, &data); err != nil {
		return nil, metadata.WrapError(Name, "details", id, err)
	}
	if len(data.Books) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}

	// Details still answer for books without an audiobook edition.
	eds, err := c.audioEditions(ctx, token, data.Books[0].ID)
	if err != nil {
		c.logger.Debug("Hardcover editions lookup failed", "slug", slug, "error", err)
	}

	items := metadata.Finish([]domain.Book{toBook(&data.Books[0], eds)})
	if len(items) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	return &items[0], nil
}

func (c *Client) query(ctx context.Context, token, query string, vars map[string]any, v any) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	body, err := c.req.PostJSON(ctx, c.endpoint, gqlRequest{Query: query, Variables: vars}, header)
	if err != nil {
		return err
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrGraphQL, resp.Errors[0].Message)
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("%w: empty data", ErrGraphQL)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return nil
}

// bearer strips any "Bearer" prefix the user pasted along with the token.
func bearer(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 6 && strings.EqualFold(key[:6], "bearer") {
		key = strings.TrimSpace(key[6:])
	}
	return key
}

func toBook(b *rawBook, editions []rawEdition) domain.Book {
	id := b.Slug
	if id == "" && b.ID != 0 {
		id = strconv.FormatInt(b.ID, 10)
	}
	if id != "" {
		id = idPrefix + id
	}

	book := domain.Book{
		ProviderID:    id,
		Provider:      domain.ProviderHardcover,
		Title:         b.Title,
		Subtitle:      b.Subtitle,
		Authors:       names(b.Contributions, false),
		PublishedDate: normalize.Date(b.ReleaseDate),
		Language:      domain.DefaultLanguage,
		Description:   normalize.Description(b.Description),
		Rating:        b.Rating,
		RatingCount:   domain.Ptr(b.UsersCount),
	}
	for _, img := range b.Images {
		if img.URL != "" {
			book.CoverImage = img.URL
			break
		}
	}
	for _, s := range b.BookSeries {
		if s.Series.Name == "" {
			continue
		}
		entry := domain.SeriesEntry{Name: s.Series.Name}
		if s.Position != nil {
			entry.Sequence = strconv.FormatFloat(*s.Position, 'f', -1, 64)
		}
		book.Series = append(book.Series, entry)
	}

	if len(editions) > 0 {
		e := editions[0]
		book.ISBN = e.ISBN13
		book.Narrators = names(e.Contributions, true)
		book.RuntimeMinutes = normalize.MinutesFromSeconds(e.AudioSeconds)
		if e.Publisher != nil {
			book.Publisher = e.Publisher.Name
		}
		if e.Language != nil && e.Language.Code2 != "" {
			book.Language = normalize.LanguageCode(e.Language.Code2)
		}
		if book.PublishedDate == "" {
			book.PublishedDate = normalize.Date(e.ReleaseDate)
		}
	}
	return book
}

// names collects contributor names. Hardcover leaves contribution empty for
// authors and sets it to "Narrator" for narrators.
func names(cs []contribution, narrators bool) []string {
	var out []string
	for _, c := range cs {
		if c.Author == nil || c.Author.Name == "" {
			continue
		}
		isNarrator := strings.EqualFold(c.Contribution, "Narrator")
		if isNarrator != narrators {
			continue
		}
		if !narrators && c.Contribution != "" && !strings.EqualFold(c.Contribution, "Author") {
			continue
		}
		out = append(out, c.Author.Name)
	}
	return out
}
