package audible

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
)

// Name is the adapter name used for selection and stats.
const Name = domain.SourceAudible

const (
	defaultAudnexusURL = "https://api.audnex.us"
	chaptersTimeout    = 2 * time.Second
	maxNumResults      = 50
)

// ASIN format: 10 alphanumeric characters, typically starting with B.
var asinRegex = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ValidateASIN checks if an ASIN has valid format.
func ValidateASIN(asin string) bool {
	return asinRegex.MatchString(asin)
}

// Options configures a Client. Zero values use production endpoints.
type Options struct {
	Region      Region
	BaseURL     string // overrides the region host, e.g. for tests
	AudnexusURL string
}

// Client is the Audible adapter.
type Client struct {
	req         *metadata.Requester
	baseURL     string
	audnexusURL string
	logger      *slog.Logger
}

// New creates a new Audible client.
func New(req *metadata.Requester, opts Options, logger *slog.Logger) *Client {
	region := opts.Region
	if !region.Valid() {
		region = RegionUS
	}
	base := opts.BaseURL
	if base == "" {
		base = "https://" + region.Host()
	}
	audnexus := opts.AudnexusURL
	if audnexus == "" {
		audnexus = defaultAudnexusURL
	}
	return &Client{
		req:         req,
		baseURL:     strings.TrimRight(base, "/"),
		audnexusURL: strings.TrimRight(audnexus, "/"),
		logger:      logger,
	}
}

// Name implements metadata.Adapter.
func (c *Client) Name() string { return Name }

// Blocking reports true: catalog calls are serialized through a bounded pool.
func (c *Client) Blocking() bool { return true }

// Search implements metadata.Adapter.
func (c *Client) Search(ctx context.Context, crit metadata.Criteria) (metadata.Result, error) {
	query := url.Values{}
	switch {
	case crit.ISBN != "":
		query.Set("keywords", crit.ISBN)
	case crit.Author != "" && crit.Query != "":
		query.Set("title", crit.Query)
		query.Set("author", crit.Author)
	case crit.Author != "":
		query.Set("author", crit.Author)
	case crit.Query != "":
		query.Set("keywords", crit.Query)
	default:
		return metadata.Result{}, nil
	}

	limit := min(crit.EffectiveLimit(), maxNumResults)
	query.Set("num_results", strconv.Itoa(limit))
	query.Set("response_groups", responseGroups())
	query.Set("image_sizes", imageSizes())
	query.Set("products_sort_by", "Relevance")

	var resp struct {
		Products []rawProduct `json:"products"`
	}
	if err := c.req.GetJSON(ctx, c.baseURL+"/1.0/catalog/products", query, &resp); err != nil {
		return metadata.Result{}, wrapError("search", "", err)
	}

	items := make([]domain.Book, 0, len(resp.Products))
	for i := range resp.Products {
		items = append(items, toBook(&resp.Products[i]))
	}

	return metadata.Result{Items: metadata.Finish(items), RawCount: len(resp.Products)}, nil
}

// FetchDetails implements metadata.Adapter. Chapters come from Audnexus and
// are left empty when that service is unavailable.
func (c *Client) FetchDetails(ctx context.Context, asin string) (*domain.Book, error) {
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if !ValidateASIN(asin) {
		return nil, wrapError("details", asin, ErrInvalidASIN)
	}

	query := url.Values{}
	query.Set("response_groups", responseGroups())
	query.Set("image_sizes", imageSizes())

	var resp struct {
		Product *rawProduct `json:"product"`
	}
	if err := c.req.GetJSON(ctx, c.baseURL+"/1.0/catalog/products/"+asin, query, &resp); err != nil {
		return nil, wrapError("details", asin, err)
	}
	if resp.Product == nil || resp.Product.Title == "" {
		return nil, wrapError("details", asin, ErrNotFound)
	}

	book := toBook(resp.Product)
	if book.ProviderID == "" {
		book.ProviderID = asin
	}
	book.Chapters = c.chapters(ctx, asin)
	book.Normalize()

	return &book, nil
}

// chapters fetches the chapter list, returning nil on any failure.
func (c *Client) chapters(ctx context.Context, asin string) []domain.Chapter {
	ctx, cancel := context.WithTimeout(ctx, chaptersTimeout)
	defer cancel()

	body, err := c.req.Get(ctx, fmt.Sprintf("%s/books/%s/chapters", c.audnexusURL, asin), nil, nil)
	if err != nil {
		c.logger.Debug("chapters unavailable", "asin", asin, "error", err)
		return nil
	}

	var resp rawAudnexusChapters
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Debug("chapters unparseable", "asin", asin, "error", err)
		return nil
	}

	chapters := make([]domain.Chapter, 0, len(resp.Chapters))
	for _, ch := range resp.Chapters {
		chapters = append(chapters, domain.Chapter{
			Title:         ch.Title,
			StartOffsetMs: ch.StartOffsetMs,
			LengthMs:      ch.LengthMs,
		})
	}
	return chapters
}

// responseGroups returns the standard response_groups parameter value.
func responseGroups() string {
	return "contributors,product_desc,product_attrs,product_extended_attrs,media,rating,series,category_ladders,sample"
}

// imageSizes returns the standard image_sizes parameter value.
func imageSizes() string {
	return "500,1024"
}

func toBook(p *rawProduct) domain.Book {
	b := domain.Book{
		ProviderID:     p.ASIN,
		Provider:       domain.ProviderAudible,
		Title:          p.Title,
		Subtitle:       p.Subtitle,
		Authors:        names(p.Authors),
		Narrators:      names(p.Narrators),
		Series:         parseSeries(p.Series),
		Publisher:      p.PublisherName,
		PublishedDate:  normalize.Date(p.ReleaseDate),
		Language:       normalize.LanguageCode(p.Language),
		Genres:         extractGenres(p.CategoryLadders),
		Description:    normalize.Description(firstNonEmpty(p.PublisherSummary, p.MerchSummary)),
		RuntimeMinutes: normalize.Minutes(p.RuntimeLengthMin),
		CoverImage:     selectCoverURL(p.ProductImages),
		SampleURL:      p.SampleURL,
		ISBN:           p.ISBN,
	}
	if p.Rating != nil {
		if avg := p.Rating.OverallDistribution.AverageRating; avg > 0 {
			b.Rating = domain.Ptr(avg)
		}
		count := p.Rating.OverallDistribution.NumRatings
		if count == 0 {
			count = p.Rating.NumReviews
		}
		b.RatingCount = domain.Ptr(count)
	}
	return b
}

func names(raw []rawContributor) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if name := strings.TrimSpace(c.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// parseSeries extracts series information from the API response.
func parseSeries(raw []rawSeries) []domain.SeriesEntry {
	series := make([]domain.SeriesEntry, 0, len(raw))
	for _, s := range raw {
		if s.Title == "" {
			continue
		}
		series = append(series, domain.SeriesEntry{
			Name:     s.Title,
			Sequence: s.Sequence,
		})
	}
	return series
}

// extractGenres takes the most specific category of each ladder.
func extractGenres(ladders []rawCategoryLadder) []string {
	var names []string
	for _, ladder := range ladders {
		if len(ladder.Ladder) == 0 {
			continue
		}
		names = append(names, ladder.Ladder[len(ladder.Ladder)-1].Name)
	}
	return normalize.Genres(names)
}

// selectCoverURL picks the 500px cover, falling back to larger sizes.
func selectCoverURL(images map[string]string) string {
	for _, size := range []string{"500", "1024", "image_url"} {
		if url, ok := images[size]; ok && url != "" {
			return url
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
