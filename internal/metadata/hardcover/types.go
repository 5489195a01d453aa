package hardcover

import "encoding/json/jsontext"

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   jsontext.Value `json:"data"`
	Errors []gqlError     `json:"errors"`
}

type booksData struct {
	Books []rawBook `json:"books"`
}

type editionsData struct {
	Editions []rawEdition `json:"editions"`
}

type rawBook struct {
	ID            int64          `json:"id"`
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle"`
	Description   string         `json:"description"`
	ReleaseDate   string         `json:"release_date"`
	Rating        *float64       `json:"rating"`
	UsersCount    int            `json:"users_count"`
	Contributions []contribution `json:"contributions"`
	Images        []struct {
		URL string `json:"url"`
	} `json:"images"`
	BookSeries []struct {
		Position *float64 `json:"position"`
		Series   struct {
			Name string `json:"name"`
		} `json:"series"`
	} `json:"book_series"`
}

type rawEdition struct {
	ID            int64          `json:"id"`
	ISBN13        string         `json:"isbn_13"`
	ASIN          string         `json:"asin"`
	AudioSeconds  int64          `json:"audio_seconds"`
	ReleaseDate   string         `json:"release_date"`
	Contributions []contribution `json:"contributions"`
	Publisher     *struct {
		Name string `json:"name"`
	} `json:"publisher"`
	Language *struct {
		Code2 string `json:"code2"`
	} `json:"language"`
	ReadingFormat *struct {
		Format string `json:"format"`
	} `json:"reading_format"`
}

type contribution struct {
	Contribution string `json:"contribution"`
	Author       *struct {
		Name string `json:"name"`
	} `json:"author"`
}
