// Package itunes adapts the iTunes Search API to canonical Books.
package itunes

// searchResponse is the raw iTunes API response for both /search and /lookup.
type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []searchResult `json:"results"`
}

// searchResult is a single audiobook entry.
type searchResult struct {
	WrapperType      string `json:"wrapperType"`
	CollectionID     int64  `json:"collectionId"`
	CollectionName   string `json:"collectionName"`
	ArtistName       string `json:"artistName"`
	ArtworkURL60     string `json:"artworkUrl60"`
	ArtworkURL100    string `json:"artworkUrl100"`
	ReleaseDate      string `json:"releaseDate"`
	PrimaryGenreName string `json:"primaryGenreName"`
	Description      string `json:"description"`
	Copyright        string `json:"copyright"`
	PreviewURL       string `json:"previewUrl"`
	TrackTimeMillis  int64  `json:"trackTimeMillis"`
	Language         string `json:"language"`
}
