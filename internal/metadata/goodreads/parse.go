package goodreads

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata/scrape"
	"github.com/listenupapp/listenup-metadata/internal/normalize"
)

const maxGenres = 5

var (
	showIDRegex    = regexp.MustCompile(`/show/(\d+)`)
	avgRegex       = regexp.MustCompile(`(\d+\.\d+)\s+avg`)
	countRegex     = regexp.MustCompile(`([\d,]+)\s+ratings?`)
	publishedRegex = regexp.MustCompile(`published\s+(\d{4})`)
	seriesRegex    = regexp.MustCompile(`^(.*?)\s+#([\d.]+)`)
	listSlugRegex  = regexp.MustCompile(`/list/show/\d+\.([^?#]+)`)

	// Thumbnail size tokens: ._SY75_, ._SX98_, ._SX50_ ...
	sizeTokenRegex = regexp.MustCompile(`\._S[XY]\d+_`)
	// Old style "s" size suffix: 12345s.jpg -> 12345.jpg
	sizeSuffixRegex = regexp.MustCompile(`(\d)s\.jpg`)
)

// CleanCoverURL converts a Goodreads thumbnail URL to the full-size image.
func CleanCoverURL(src string) string {
	if src == "" {
		return ""
	}
	cover := sizeTokenRegex.ReplaceAllString(src, "")
	cover = sizeSuffixRegex.ReplaceAllString(cover, "$1.jpg")
	return strings.ReplaceAll(cover, "..", ".")
}

// providerIDFromHref builds the GR-<digits> identifier from a book href.
func providerIDFromHref(href string) string {
	m := showIDRegex.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return idPrefix + m[1]
}

// parseRows maps every tr[itemscope] of a search or list page.
func parseRows(doc *html.Node) []domain.Book {
	rows := scrape.FindAll(doc, scrape.HasAttr("tr", "itemscope"))
	books := make([]domain.Book, 0, len(rows))
	for _, row := range rows {
		if b, ok := parseRow(row); ok {
			books = append(books, b)
		}
	}
	return books
}

func parseRow(row *html.Node) (domain.Book, bool) {
	titleTag := scrape.Find(row, scrape.Class("a", "bookTitle"))
	if titleTag == nil {
		return domain.Book{}, false
	}
	id := providerIDFromHref(scrape.Attr(titleTag, "href"))
	if id == "" {
		return domain.Book{}, false
	}

	author := scrape.Text(scrape.Find(row, scrape.Class("a", "authorName")))
	if author == "" {
		author = "Unknown"
	}

	b := domain.Book{
		ProviderID:  id,
		Provider:    domain.ProviderGoodreads,
		Title:       scrape.Text(titleTag),
		Authors:     []string{author},
		Language:    domain.DefaultLanguage,
		CoverImage:  CleanCoverURL(scrape.Attr(scrape.Find(row, scrape.Class("img", "bookCover")), "src")),
		RatingCount: domain.Ptr(0),
	}

	if mini := scrape.Find(row, scrape.Class("span", "minirating")); mini != nil {
		text := scrape.Text(mini)
		if m := avgRegex.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				b.Rating = domain.Ptr(v)
			}
		}
		if m := countRegex.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				b.RatingCount = domain.Ptr(v)
			}
		}
	}
	// Search rows carry "published YYYY" outside the minirating span.
	if m := publishedRegex.FindStringSubmatch(scrape.Text(row)); m != nil {
		b.PublishedDate = m[1]
	}

	return b, true
}

func parseListPage(doc *html.Node, pageURL, baseURL string) *ListPage {
	page := &ListPage{Books: parseRows(doc)}

	h1 := scrape.Find(doc, scrape.Class("h1", "gr-h1--serif"))
	if h1 == nil {
		h1 = scrape.Find(doc, scrape.Tag("h1"))
	}
	if text := scrape.Text(h1); text != "" && !strings.EqualFold(text, "score") {
		page.Title = text
	} else if m := listSlugRegex.FindStringSubmatch(pageURL); m != nil {
		page.Title = strings.ReplaceAll(m[1], "_", " ")
	}

	if next := scrape.Find(doc, scrape.Class("a", "next_page")); next != nil {
		if href := scrape.Attr(next, "href"); href != "" {
			if strings.HasPrefix(href, "http") {
				page.Next = href
			} else {
				page.Next = baseURL + href
			}
		}
	}
	return page
}

// ldBook is the schema.org Book embedded as JSON-LD on book pages.
type ldBook struct {
	Name            string         `json:"name"`
	Image           string         `json:"image"`
	InLanguage      string         `json:"inLanguage"`
	ISBN            string         `json:"isbn"`
	Author          jsontext.Value `json:"author"`
	AggregateRating *ldRating      `json:"aggregateRating"`
	Publisher       jsontext.Value `json:"publisher"`
}

type ldRating struct {
	RatingValue jsontext.Value `json:"ratingValue"`
	RatingCount jsontext.Value `json:"ratingCount"`
}

type ldNamed struct {
	Name string `json:"name"`
}

// parseBookPage reads a book page, new and old designs alike.
func parseBookPage(doc *html.Node, id string) domain.Book {
	var ld ldBook
	if script := scrape.Find(doc, scrape.AttrEquals("script", "type", "application/ld+json")); script != nil && script.FirstChild != nil {
		_ = json.Unmarshal([]byte(script.FirstChild.Data), &ld)
	}

	b := domain.Book{
		ProviderID:  id,
		Provider:    domain.ProviderGoodreads,
		Title:       ld.Name,
		Authors:     ldNames(ld.Author),
		Language:    normalize.LanguageCode(ld.InLanguage),
		CoverImage:  ld.Image,
		ISBN:        ld.ISBN,
		Genres:      parseGenres(doc),
		RatingCount: domain.Ptr(0),
	}
	if pubs := ldNames(ld.Publisher); len(pubs) > 0 {
		b.Publisher = pubs[0]
	}

	if b.Title == "" {
		b.Title = scrape.Text(scrape.Find(doc, scrape.AttrEquals("h1", "data-testid", "bookTitle")))
	}
	if len(b.Authors) == 0 {
		for _, n := range scrape.FindAll(doc, scrape.Class("", "ContributorLink__name")) {
			b.Authors = append(b.Authors, scrape.Text(n))
		}
	}

	desc := scrape.Find(doc, scrape.AttrEquals("div", "data-testid", "description"))
	if desc == nil {
		if container := scrape.Find(doc, scrape.AttrEquals("div", "id", "descriptionContainer")); container != nil {
			desc = scrape.Find(container, scrape.HasAttr("span", "style"))
		}
	}
	b.Description = scrape.Text(desc)

	if ld.AggregateRating != nil {
		if v := flexFloat(ld.AggregateRating.RatingValue); v > 0 {
			b.Rating = domain.Ptr(v)
		}
		b.RatingCount = domain.Ptr(int(flexFloat(ld.AggregateRating.RatingCount)))
	}

	if link := scrape.Find(doc, scrape.AttrContains("a", "href", "/series/")); link != nil {
		text := scrape.Text(link)
		if m := seriesRegex.FindStringSubmatch(text); m != nil {
			b.Series = []domain.SeriesEntry{{Name: m[1], Sequence: m[2]}}
		} else if text != "" {
			b.Series = []domain.SeriesEntry{{Name: text}}
		}
	}

	return b
}

func parseGenres(doc *html.Node) []string {
	var raw []string
	if list := scrape.Find(doc, scrape.AttrEquals("div", "data-testid", "genresList")); list != nil {
		for _, a := range scrape.FindAll(list, scrape.Tag("a")) {
			raw = append(raw, scrape.Text(a))
		}
	}
	if len(raw) == 0 {
		for _, a := range scrape.FindAll(doc, scrape.Class("", "bookPageGenreLink")) {
			raw = append(raw, scrape.Text(a))
		}
	}

	raw = slices.DeleteFunc(raw, func(g string) bool { return strings.Contains(g, "...") })
	genres := normalize.Genres(raw)
	if len(genres) > maxGenres {
		genres = genres[:maxGenres]
	}
	return genres
}

// ldNames accepts a JSON-LD value that is a list of named things, a single
// named thing, or a bare string.
func ldNames(v jsontext.Value) []string {
	if len(v) == 0 {
		return nil
	}
	var many []ldNamed
	if err := json.Unmarshal(v, &many); err == nil {
		out := make([]string, 0, len(many))
		for _, n := range many {
			if n.Name != "" {
				out = append(out, n.Name)
			}
		}
		return out
	}
	var one ldNamed
	if err := json.Unmarshal(v, &one); err == nil && one.Name != "" {
		return []string{one.Name}
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}

// flexFloat reads a JSON number or a numeric string.
func flexFloat(v jsontext.Value) float64 {
	if len(v) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		f, _ = strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	}
	return f
}
