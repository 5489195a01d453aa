// Package prh queries the Penguin Random House title API. Search is
// resolve-then-filter: search hits name works, and each work is expanded to
// its audio releases.
package prh

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourcePRH

const (
	defaultBaseURL = "https://api.penguinrandomhouse.com/resources/v2/title/domains/PRH.US"
	coverBaseURL   = "https://images.randomhouse.com/cover/"
	resolveLimit   = 4
)

// AudioFormats is the release allow-list: digital download, CD, cassette.
var AudioFormats = map[string]bool{
	"DN": true,
	"CD": true,
	"AC": true,
}

var isbn13Regex = regexp.MustCompile(`^\d{13}$`)

// Client is the PRH adapter.
type Client struct {
	req     *metadata.Requester
	baseURL string
	key     string
	logger  *slog.Logger
}

// NewClient creates a PRH client. key is the fallback used when neither
// Criteria nor the context carries one.
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
	key := metadata.FirstKey(crit.Keys.PRH, metadata.KeysFrom(ctx).PRH, c.key)
	if key == "" {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", metadata.ErrMissingKey)
	}

	term := crit.ISBN
	if term == "" {
		term = strings.TrimSpace(crit.Query + " " + crit.Author)
	}
	if term == "" {
		return metadata.Result{}, nil
	}

	limit := crit.EffectiveLimit()
	var resp envelope
	err := c.req.GetJSON(ctx, c.baseURL+"/search/views/search-display", url.Values{
		"api_key": {key},
		"q":       {term},
		"rows":    {strconv.Itoa(limit)},
		"docType": {"audiobook"},
		"sort":    {"relevancy"},
	}, &resp)
	if err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	hits := resp.items()
	releases := c.resolve(ctx, key, hits)

	seen := make(map[string]bool, len(releases))
	items := make([]domain.Book, 0, limit)
	for i := range releases {
		isbn := scalar(releases[i].ISBN)
		if isbn == "" || seen[isbn] {
			continue
		}
		seen[isbn] = true
		items = append(items, toBook(&releases[i]))
	}
	items = metadata.Finish(items)
	if len(items) > limit {
		items = items[:limit]
	}

	c.logger.Debug("PRH search results",
		"term", term,
		"hits", len(hits),
		"releases", len(items),
	)
	return metadata.Result{Items: items, RawCount: len(hits)}, nil
}

// resolve expands each hit into audio releases. A hit naming a work is
// replaced by that work's allowed titles; a hit that is itself a title is
// kept when its format is allowed. Output preserves hit order.
func (c *Client) resolve(ctx context.Context, key string, hits []title) []title {
	expanded := make([][]title, len(hits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveLimit)
	for i := range hits {
		workID := scalar(hits[i].WorkID)
		if workID == "" {
			if AudioFormats[hits[i].Format.Code] {
				expanded[i] = []title{hits[i]}
			}
			continue
		}
		g.Go(func() error {
			titles, err := c.workTitles(gctx, key, workID)
			if err != nil {
				c.logger.Debug("PRH work resolve failed", "work_id", workID, "error", err)
				return nil
			}
			expanded[i] = titles
			return nil
		})
	}
	_ = g.Wait()

	var out []title
	for _, ts := range expanded {
		out = append(out, ts...)
	}
	return out
}

func (c *Client) workTitles(ctx context.Context, key, workID string) ([]title, error) {
	var resp envelope
	if err := c.req.GetJSON(ctx, c.baseURL+"/works/"+url.PathEscape(workID)+"/titles", url.Values{"api_key": {key}}, &resp); err != nil {
		return nil, err
	}
	var out []title
	for _, t := range resp.items() {
		if AudioFormats[t.Format.Code] {
			out = append(out, t)
		}
	}
	return out, nil
}

// FetchDetails implements metadata.Adapter. Only 13-digit ISBNs are accepted.
func (c *Client) FetchDetails(ctx context.Context, id string) (*domain.Book, error) {
	id = strings.TrimSpace(id)
	if !isbn13Regex.MatchString(id) {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrInvalidID)
	}
	key := metadata.FirstKey(metadata.KeysFrom(ctx).PRH, c.key)
	if key == "" {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrMissingKey)
	}

	params := url.Values{"api_key": {key}}
	var resp envelope
	err := c.req.GetJSON(ctx, c.baseURL+"/titles/"+id+"/views/product-display", params, &resp)
	if errors.Is(err, metadata.ErrNotFound) {
		resp = envelope{}
		err = c.req.GetJSON(ctx, c.baseURL+"/titles/"+id, params, &resp)
	}
	if err != nil {
		return nil, metadata.WrapError(Name, "details", id, err)
	}

	titles := resp.items()
	if len(titles) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	items := metadata.Finish([]domain.Book{toBook(&titles[0])})
	if len(items) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	return &items[0], nil
}

func toBook(t *title) domain.Book {
	isbn := scalar(t.ISBN)

	var authors []string
	if t.AuthorWeb != "" {
		authors = []string{t.AuthorWeb}
	}

	var series []domain.SeriesEntry
	if t.Series != "" {
		series = []domain.SeriesEntry{{Name: t.Series, Sequence: scalar(t.SeriesNumber)}}
	}

	b := domain.Book{
		ProviderID:     isbn,
		Provider:       domain.ProviderPRH,
		Title:          t.TitleWeb,
		Subtitle:       t.Subtitle,
		Authors:        authors,
		Series:         series,
		Publisher:      t.Imprint,
		PublishedDate:  normalize.Date(t.OnSaleDate),
		Language:       domain.DefaultLanguage,
		Description:    normalize.Description(t.FlapCopy),
		RatingCount:    domain.Ptr(0),
		RuntimeMinutes: normalize.Minutes(scalarInt(t.Pages)),
		ISBN:           isbn,
	}
	if isbn != "" {
		b.CoverImage = coverBaseURL + isbn
	}
	return b
}
