package googlebooks

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string       `json:"title"`
	Subtitle            string       `json:"subtitle"`
	Authors             []string     `json:"authors"`
	Publisher           string       `json:"publisher"`
	PublishedDate       string       `json:"publishedDate"`
	Description         string       `json:"description"`
	Categories          []string     `json:"categories"`
	Language            string       `json:"language"`
	AverageRating       *float64     `json:"averageRating"`
	RatingsCount        int          `json:"ratingsCount"`
	IndustryIdentifiers []identifier `json:"industryIdentifiers"`
	ImageLinks          imageLinks   `json:"imageLinks"`
	PreviewLink         string       `json:"previewLink"`
}

type identifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type imageLinks struct {
	ExtraLarge     string `json:"extraLarge"`
	Large          string `json:"large"`
	Medium         string `json:"medium"`
	Small          string `json:"small"`
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// best returns the largest image available.
func (l imageLinks) best() string {
	for _, u := range []string{l.ExtraLarge, l.Large, l.Medium, l.Small, l.Thumbnail, l.SmallThumbnail} {
		if u != "" {
			return u
		}
	}
	return ""
}
