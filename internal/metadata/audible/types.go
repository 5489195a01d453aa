// Package audible adapts the Audible catalog API, the Audnexus chapter
// service and Audible list pages to canonical Books.
package audible

// Region represents an Audible marketplace.
type Region string

const (
	RegionUS Region = "us"
	RegionUK Region = "uk"
	RegionDE Region = "de"
	RegionFR Region = "fr"
	RegionAU Region = "au"
	RegionCA Region = "ca"
	RegionJP Region = "jp"
	RegionIT Region = "it"
	RegionIN Region = "in"
	RegionES Region = "es"
)

// Host returns the API host for this region.
func (r Region) Host() string {
	hosts := map[Region]string{
		RegionUS: "api.audible.com",
		RegionUK: "api.audible.co.uk",
		RegionDE: "api.audible.de",
		RegionFR: "api.audible.fr",
		RegionAU: "api.audible.com.au",
		RegionCA: "api.audible.ca",
		RegionJP: "api.audible.co.jp",
		RegionIT: "api.audible.it",
		RegionIN: "api.audible.in",
		RegionES: "api.audible.es",
	}
	if host, ok := hosts[r]; ok {
		return host
	}
	return hosts[RegionUS] // Default to US
}

// Valid returns true if this is a recognized region.
func (r Region) Valid() bool {
	switch r {
	case RegionUS, RegionUK, RegionDE, RegionFR, RegionAU,
		RegionCA, RegionJP, RegionIT, RegionIN, RegionES:
		return true
	}
	return false
}

// Raw API response types (internal)

type rawProduct struct {
	ASIN             string              `json:"asin"`
	Title            string              `json:"title"`
	Subtitle         string              `json:"subtitle"`
	PublisherName    string              `json:"publisher_name"`
	ReleaseDate      string              `json:"release_date"`
	RuntimeLengthMin int                 `json:"runtime_length_min"`
	PublisherSummary string              `json:"publisher_summary"`
	MerchSummary     string              `json:"merchandising_summary"`
	ProductImages    map[string]string   `json:"product_images"`
	Authors          []rawContributor    `json:"authors"`
	Narrators        []rawContributor    `json:"narrators"`
	Series           []rawSeries         `json:"series"`
	CategoryLadders  []rawCategoryLadder `json:"category_ladders"`
	Language         string              `json:"language"`
	Rating           *rawRating          `json:"rating"`
	SampleURL        string              `json:"sample_url"`
	ISBN             string              `json:"isbn"`
}

type rawContributor struct {
	ASIN string `json:"asin"`
	Name string `json:"name"`
}

type rawSeries struct {
	ASIN     string `json:"asin"`
	Title    string `json:"title"`
	Sequence string `json:"sequence"`
}

type rawCategoryLadder struct {
	Ladder []rawCategory `json:"ladder"`
}

type rawCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawRating struct {
	NumReviews          int             `json:"num_reviews"`
	OverallDistribution rawDistribution `json:"overall_distribution"`
}

type rawDistribution struct {
	AverageRating float64 `json:"average_rating"`
	NumRatings    int     `json:"num_ratings"`
}

type rawAudnexusChapters struct {
	Chapters []rawAudnexusChapter `json:"chapters"`
}

type rawAudnexusChapter struct {
	Title         string `json:"title"`
	StartOffsetMs int64  `json:"startOffsetMs"`
	LengthMs      int64  `json:"lengthMs"`
}
