package itunes

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourceITunes

const defaultBaseURL = "https://itunes.apple.com"

// Client provides access to the iTunes Search API.
type Client struct {
	req     *metadata.Requester
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a new iTunes client. An empty baseURL uses production.
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

// Search implements metadata.Adapter. iTunes has no identifier search, so an
// ISBN is sent as a plain term.
func (c *Client) Search(ctx context.Context, crit metadata.Criteria) (metadata.Result, error) {
	params := url.Values{}
	params.Set("media", "audiobook")
	params.Set("entity", "audiobook")
	params.Set("limit", strconv.Itoa(crit.EffectiveLimit()))

	switch {
	case crit.ISBN != "":
		params.Set("term", crit.ISBN)
	case crit.Author != "" && crit.Query != "":
		params.Set("term", crit.Query+" "+crit.Author)
	case crit.Author != "":
		params.Set("term", crit.Author)
		params.Set("attribute", "authorTerm")
	case crit.Query != "":
		params.Set("term", crit.Query)
	default:
		return metadata.Result{}, nil
	}

	var resp searchResponse
	if err := c.req.GetJSON(ctx, c.baseURL+"/search", params, &resp); err != nil {
		return metadata.Result{}, metadata.WrapError(Name, "search", "", err)
	}

	c.logger.Debug("iTunes search results",
		"term", params.Get("term"),
		"count", resp.ResultCount,
	)

	items := make([]domain.Book, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, toBook(&resp.Results[i]))
	}
	return metadata.Result{Items: metadata.Finish(items), RawCount: len(resp.Results)}, nil
}

// FetchDetails implements metadata.Adapter using the lookup endpoint.
func (c *Client) FetchDetails(ctx context.Context, id string) (*domain.Book, error) {
	id = strings.TrimSpace(id)
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrInvalidID)
	}

	var resp searchResponse
	if err := c.req.GetJSON(ctx, c.baseURL+"/lookup", url.Values{"id": {id}}, &resp); err != nil {
		return nil, metadata.WrapError(Name, "details", id, err)
	}

	items := metadata.Finish([]domain.Book{firstOrZero(resp.Results)})
	if len(items) == 0 {
		return nil, metadata.WrapError(Name, "details", id, metadata.ErrNotFound)
	}
	return &items[0], nil
}

func firstOrZero(results []searchResult) domain.Book {
	if len(results) == 0 {
		return domain.Book{}
	}
	return toBook(&results[0])
}

func toBook(r *searchResult) domain.Book {
	artwork := r.ArtworkURL100
	if artwork == "" {
		artwork = r.ArtworkURL60
	}

	var authors, genres []string
	if r.ArtistName != "" {
		authors = []string{r.ArtistName}
	}
	if r.PrimaryGenreName != "" {
		genres = []string{r.PrimaryGenreName}
	}

	var id string
	if r.CollectionID != 0 {
		id = strconv.FormatInt(r.CollectionID, 10)
	}

	return domain.Book{
		ProviderID:     id,
		Provider:       domain.ProviderITunes,
		Title:          r.CollectionName,
		Authors:        authors,
		Publisher:      r.Copyright,
		PublishedDate:  normalize.Date(r.ReleaseDate),
		Language:       normalize.LanguageCode(r.Language),
		Genres:         genres,
		Description:    normalize.Description(r.Description),
		RatingCount:    domain.Ptr(0),
		RuntimeMinutes: normalize.MinutesFromMillis(r.TrackTimeMillis),
		CoverImage:     CoverURL(artwork),
		SampleURL:      r.PreviewURL,
	}
}
