// Package importer turns external list pages into stored lists. Goodreads
// lists are scraped page by page as full records; Audible pages only yield
// identifiers, which are resolved in paced chunks.
package importer

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/id"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/metadata/goodreads"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// Defaults for Options.
const (
	DefaultChunkSize   = 10
	DefaultChunkPause  = 200 * time.Millisecond
	DefaultCustomPause = 100 * time.Millisecond
	DefaultPageLimit   = 100

	resolveConcurrency = 10
)

// ListScraper fetches one page of a paginated list of full records.
type ListScraper interface {
	FetchListPage(ctx context.Context, pageURL string) (*goodreads.ListPage, error)
}

// IDScraper harvests identifiers and a title from a list page.
type IDScraper interface {
	ScrapeList(ctx context.Context, pageURL string) (string, []string, error)
}

// Resolver turns an identifier into a stored Book. A nil Book means the
// id could not be resolved. Provider calls are recorded under requestID.
type Resolver interface {
	Resolve(ctx context.Context, requestID, id string) (*domain.Book, error)
}

// Options tunes pacing. Zero values take the defaults.
type Options struct {
	ChunkSize   int
	ChunkPause  time.Duration
	CustomPause time.Duration

	// Sleep waits d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// PageDelay picks the wait between list pages.
	PageDelay func() time.Duration
	// Bench times and records list scrapes. Nil leaves them unrecorded.
	Bench *fanout.Benchmarker
}

// ImportResult summarizes one import.
type ImportResult struct {
	ListID    string `json:"list_id"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Imported  int    `json:"imported"`
}

// CustomListResult summarizes a custom list creation.
type CustomListResult struct {
	ListID    string `json:"list_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Resolved  int    `json:"resolved"`
}

// Importer scrapes, resolves and stores lists.
type Importer struct {
	goodreads ListScraper
	audible   IDScraper
	resolver  Resolver
	gateway   *gateway.Gateway
	lists     *sqlite.Store
	opts      Options
	logger    *slog.Logger
}

// New creates an importer.
func New(gr ListScraper, audible IDScraper, resolver Resolver, gw *gateway.Gateway, lists *sqlite.Store, opts Options, logger *slog.Logger) *Importer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkPause <= 0 {
		opts.ChunkPause = DefaultChunkPause
	}
	if opts.CustomPause <= 0 {
		opts.CustomPause = DefaultCustomPause
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.PageDelay == nil {
		opts.PageDelay = pageDelay
	}
	if opts.Bench == nil {
		opts.Bench = &fanout.Benchmarker{}
	}
	return &Importer{
		goodreads: gr,
		audible:   audible,
		resolver:  resolver,
		gateway:   gw,
		lists:     lists,
		opts:      opts,
		logger:    logger,
	}
}

type source int

const (
	sourceUnknown source = iota
	sourceGoodreads
	sourceAudible
)

// route picks the scraper for rawURL by host.
func route(rawURL string) source {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return sourceUnknown
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "goodreads.com" || strings.HasSuffix(host, ".goodreads.com"):
		return sourceGoodreads
	case strings.HasPrefix(host, "audible.") || strings.Contains(host, ".audible."):
		return sourceAudible
	}
	return sourceUnknown
}

// Supported reports a validation error when no scraper handles rawURL.
func Supported(rawURL string) error {
	if route(rawURL) == sourceUnknown {
		return domainerrors.Validationf("unsupported list source: %s", strings.TrimSpace(rawURL))
	}
	return nil
}

// Import scrapes rawURL and saves it as an imported list keyed by the URL.
// The list keeps every id found; Imported counts those now in the library.
// Provider calls are recorded under requestID. Re-importing the same URL
// replaces the list. Unsupported hosts and pages without items are
// validation errors.
func (im *Importer) Import(ctx context.Context, requestID, rawURL string, pageLimit int) (*ImportResult, error) {
	rawURL = strings.TrimSpace(rawURL)

	var (
		title string
		ids   []string
		res   = &ImportResult{}
		err   error
	)
	switch route(rawURL) {
	case sourceGoodreads:
		title, ids, res.Imported, err = im.importPaged(ctx, requestID, rawURL, pageLimit)
	case sourceAudible:
		title, ids, res.Imported, err = im.importIDs(ctx, requestID, rawURL)
	default:
		return nil, Supported(rawURL)
	}
	if err != nil {
		return nil, err
	}

	listID, err := id.Generate(id.Imported)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate list id")
	}
	list, err := im.lists.SaveImportedList(ctx, &domain.List{
		ID:        listID,
		Name:      title,
		SourceURL: rawURL,
		Items:     ids,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save list")
	}

	res.ListID = list.ID
	res.Title = list.Name
	res.Requested = len(ids)

	im.logger.Info("list imported",
		"url", rawURL,
		"request_id", requestID,
		"list_id", res.ListID,
		"requested", res.Requested,
		"imported", res.Imported,
	)
	return res, nil
}

// importPaged follows next-page links, deduplicating by id, and upserts
// every record found. A failure after the first page keeps what was read.
// It returns the title, every id read and the number upserted.
func (im *Importer) importPaged(ctx context.Context, requestID, rawURL string, pageLimit int) (string, []string, int, error) {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}

	var (
		title string
		books []domain.Book
		seen  = map[string]bool{}
		next  = rawURL
	)
	for page := 0; page < pageLimit && next != ""; page++ {
		if page > 0 {
			if err := im.opts.Sleep(ctx, im.opts.PageDelay()); err != nil {
				break
			}
		}
		p, err := im.fetchPage(ctx, requestID, next)
		if err != nil {
			if page == 0 {
				return "", nil, 0, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "fetch list")
			}
			im.logger.Warn("list page failed, keeping earlier pages",
				"url", next,
				"page", page+1,
				"error", err,
			)
			break
		}
		if page == 0 {
			title = p.Title
		}
		for _, b := range p.Books {
			if !seen[b.ProviderID] {
				seen[b.ProviderID] = true
				books = append(books, b)
			}
		}
		next = p.Next
	}
	if len(books) == 0 {
		return "", nil, 0, domainerrors.Validation("no items found")
	}

	ids := make([]string, len(books))
	stored := 0
	for i := range books {
		ids[i] = books[i].ProviderID
		if _, err := im.gateway.Upsert(ctx, &books[i], 0); err != nil {
			im.logger.Warn("import upsert failed", "id", books[i].ProviderID, "error", err)
			continue
		}
		stored++
	}
	return title, ids, stored, nil
}

// fetchPage reads one Goodreads list page as a benchmarked call.
func (im *Importer) fetchPage(ctx context.Context, requestID, pageURL string) (*goodreads.ListPage, error) {
	var page *goodreads.ListPage
	r := im.opts.Bench.Run(ctx, requestID, domain.SourceGoodreads, func(ctx context.Context) (metadata.Result, error) {
		p, err := im.goodreads.FetchListPage(ctx, pageURL)
		if err != nil {
			return metadata.Result{}, err
		}
		page = p
		return metadata.Result{Items: p.Books}, nil
	})
	if r.Err != nil {
		return nil, r.Err
	}
	return page, nil
}

// importIDs harvests ids from an Audible page and resolves them. It returns
// the title, every harvested id and the number resolved.
func (im *Importer) importIDs(ctx context.Context, requestID, rawURL string) (string, []string, int, error) {
	var (
		title string
		asins []string
	)
	r := im.opts.Bench.Run(ctx, requestID, domain.SourceAudible, func(ctx context.Context) (metadata.Result, error) {
		t, found, err := im.audible.ScrapeList(ctx, rawURL)
		if err != nil {
			return metadata.Result{}, err
		}
		title, asins = t, found
		return metadata.Result{RawCount: len(found)}, nil
	})
	if r.Err != nil {
		return "", nil, 0, domainerrors.Wrap(r.Err, domainerrors.CodeUnavailable, "fetch list")
	}
	if len(asins) == 0 {
		return "", nil, 0, domainerrors.Validation("no items found")
	}
	return title, asins, im.resolveAll(ctx, requestID, asins, im.opts.ChunkPause), nil
}

// resolveAll resolves ids in chunks, concurrently within a chunk, pausing
// after each chunk, and returns how many resolved.
func (im *Importer) resolveAll(ctx context.Context, requestID string, ids []string, pause time.Duration) int {
	var resolved atomic.Int32

	for start := 0; start < len(ids); start += im.opts.ChunkSize {
		chunk := ids[start:min(start+im.opts.ChunkSize, len(ids))]

		var g errgroup.Group
		g.SetLimit(resolveConcurrency)
		for _, rid := range chunk {
			g.Go(func() error {
				b, err := im.resolver.Resolve(ctx, requestID, rid)
				if err != nil {
					im.logger.Debug("resolve failed", "request_id", requestID, "id", rid, "error", err)
					return nil
				}
				if b != nil {
					resolved.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if err := im.opts.Sleep(ctx, pause); err != nil {
			break
		}
	}

	return int(resolved.Load())
}

// CreateCustomList stores the cleaned ids as a new custom list and resolves
// them into the library. Ids that fail to resolve stay on the list.
func (im *Importer) CreateCustomList(ctx context.Context, name string, ids []string) (*CustomListResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}
	cleaned := CleanIDs(ids)
	if len(cleaned) == 0 {
		return nil, domainerrors.Validation("no valid ids")
	}

	resolved := im.resolveAll(ctx, uuid.NewString(), cleaned, im.opts.CustomPause)

	listID, err := id.Generate(id.Custom)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate list id")
	}
	err = im.lists.CreateList(ctx, &domain.List{
		ID:    listID,
		Name:  name,
		Kind:  domain.ListCustom,
		Items: cleaned,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "save list")
	}

	return &CustomListResult{
		ListID:    listID,
		Name:      name,
		Requested: len(cleaned),
		Resolved:  resolved,
	}, nil
}

// CleanIDs trims and uppercases ids, dropping empties and duplicates.
func CleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		v := strings.ToUpper(strings.TrimSpace(raw))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pageDelay waits 1–3s between list pages.
func pageDelay() time.Duration {
	return time.Second + rand.N(2*time.Second)
}
