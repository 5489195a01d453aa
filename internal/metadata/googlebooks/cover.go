package googlebooks

import (
	"net/url"
	"strings"
)

// CoverURL drops the zoom and edge-curl parameters Google adds to
// thumbnails and forces https.
func CoverURL(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "&edge=curl", "")
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = "https"
	q := u.Query()
	q.Del("zoom")
	q.Del("edge")
	u.RawQuery = q.Encode()
	return u.String()
}
