// Package googlebooks queries the Google Books volumes API.
package googlebooks

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourceGoogleBooks

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	maxResults     = 40
)

var (
	isbn13Regex   = regexp.MustCompile(`^\d{13}$`)
	volumeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// Client is the Google Books adapter.
type Client struct {
	req     *metadata.Requester
	baseURL string
	key     string
	logger  *slog.Logger
}

// NewClient creates a Google Books client. An empty baseURL uses production.
func NewClient(req *metadata.Requester, baseURL, key string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		req:     req,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		logger:  logger,
	}
}

// Name implements metadata.Adapter.
func (c *Client) Name() string { return Name }

// Search implements metadata.Adapter.
func (c *Client) Search(ctx context.Context, crit metadata.Criteria) (metadata.Result, error) {
	key := metadata.FirstKey(crit.Keys.GoogleBooks, metadata.KeysFrom(ctx).GoogleBooks, c.key)
	if key == "" {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", metadata.ErrMissingKey)
	}
	q := searchTerm(crit)
	if q == "" {
		return metadata.Result{}, nil
	}

	resp, err := c.volumes(ctx, key, q, min(crit.EffectiveLimit(), maxResults))
	if err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	items := make([]domain.Book, 0, len(resp.Items))
	for i := range resp.Items {
		items = append(items, toBook(&resp.Items[i]))
	}
	return metadata.Result{Items: metadata.Finish(items), RawCount: len(resp.Items)}, nil
}

// FetchDetails implements metadata.Adapter. A 13-digit id is looked up as
// an ISBN, anything else as a volume id.
func (c *Client) FetchDetails(ctx context.Context, id string) (*domain.Book, error) {
	id = strings.TrimSpace(id)
	key := metadata.FirstKey(metadata.KeysFrom(ctx).GoogleBooks, c.key)
	if key == "" {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrMissingKey)
	}

	var v volume
	switch {
	case isbn13Regex.MatchString(id):
		resp, err := c.volumes(ctx, key, "isbn:"+id, 1)
		if err != nil {
			return nil, metadata.WrapError(Name, "details", id, err)
		}
		if len(resp.Items) == 0 {
			return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
		}
		v = resp.Items[0]
	case volumeIDRegex.MatchString(id):
		if err := c.req.GetJSON(ctx, c.baseURL+"/volumes/"+id, url.Values{"key": {key}}, &v); err != nil {
			return nil, metadata.WrapError(Name, "details", id, err)
		}
	default:
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrInvalidID)
	}

	items := metadata.Finish([]domain.Book{toBook(&v)})
	if len(items) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	return &items[0], nil
}

func (c *Client) volumes(ctx context.Context, key, q string, limit int) (*volumesResponse, error) {
	var resp volumesResponse
	err := c.req.GetJSON(ctx, c.baseURL+"/volumes", url.Values{
		"q":          {q},
		"maxResults": {strconv.Itoa(limit)},
		"key":        {key},
		"printType":  {"books"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// searchTerm builds a volumes query using Google's field qualifiers.
func searchTerm(c metadata.Criteria) string {
	switch {
	case c.ISBN != "":
		return "isbn:" + strings.TrimSpace(c.ISBN)
	case c.Query != "" && c.Author != "":
		return strings.TrimSpace(c.Query) + " inauthor:" + strings.TrimSpace(c.Author)
	case c.Author != "":
		return "inauthor:" + strings.TrimSpace(c.Author)
	default:
		return strings.TrimSpace(c.Query)
	}
}

func toBook(v *volume) domain.Book {
	info := &v.VolumeInfo

	var isbn string
	for _, ident := range info.IndustryIdentifiers {
		if ident.Type == "ISBN_13" {
			isbn = ident.Identifier
			break
		}
	}
	id := isbn
	if id == "" {
		id = v.ID
	}

	return domain.Book{
		ProviderID:    id,
		Provider:      domain.ProviderGoogleBooks,
		Title:         info.Title,
		Subtitle:      info.Subtitle,
		Authors:       info.Authors,
		Publisher:     info.Publisher,
		PublishedDate: normalize.Date(info.PublishedDate),
		Language:      normalize.LanguageCode(info.Language),
		Genres:        normalize.Genres(info.Categories),
		Description:   normalize.Description(info.Description),
		Rating:        info.AverageRating,
		RatingCount:   domain.Ptr(max(info.RatingsCount, 0)),
		CoverImage:    CoverURL(info.ImageLinks.best()),
		ISBN:          isbn,
	}
}
