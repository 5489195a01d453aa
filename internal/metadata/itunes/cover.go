package itunes

import "regexp"

// CoverSize is the artwork size requested from iTunes.
const CoverSize = "600x600bb.jpg"

// sizePattern matches iTunes artwork size patterns like "100x100bb.jpg"
var sizePattern = regexp.MustCompile(`/\d+x\d+bb\.jpg$`)

// CoverURL rewrites an iTunes artwork thumbnail URL to the 600px rendition.
func CoverURL(url string) string {
	if url == "" {
		return ""
	}
	return sizePattern.ReplaceAllString(url, "/"+CoverSize)
}
