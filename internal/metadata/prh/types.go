package prh

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"strconv"
	"strings"
)

// envelope is the PRH response wrapper. Search views use data.results,
// title resources use data.titles.
type envelope struct {
	Data struct {
		Titles  []title `json:"titles"`
		Results []title `json:"results"`
	} `json:"data"`
}

func (e *envelope) items() []title {
	if len(e.Data.Titles) > 0 {
		return e.Data.Titles
	}
	return e.Data.Results
}

type title struct {
	ISBN         jsontext.Value `json:"isbn"`
	WorkID       jsontext.Value `json:"workId"`
	TitleWeb     string         `json:"titleweb"`
	Subtitle     string         `json:"subtitle"`
	AuthorWeb    string         `json:"authorweb"`
	FlapCopy     string         `json:"flapcopy"`
	Series       string         `json:"series"`
	SeriesNumber jsontext.Value `json:"seriesnumber"`
	OnSaleDate   string         `json:"onsaledate"`
	Imprint      string         `json:"imprint"`
	Pages        jsontext.Value `json:"pages"`
	Format       struct {
		Code string `json:"code"`
	} `json:"format"`
}

// scalar reads a JSON string or number as text. PRH is inconsistent about
// which it sends for identifiers.
func scalar(v jsontext.Value) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	if v.Kind() == '0' {
		return string(v)
	}
	return ""
}

func scalarInt(v jsontext.Value) int {
	n, _ := strconv.Atoi(scalar(v))
	return n
}
