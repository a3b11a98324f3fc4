package query

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is the results page the segment URLs point at
const DefaultBaseURL = "https://www.google.com/travel/flights"

// URLBuilder maps segments to results-page URLs
type URLBuilder struct {
	BaseURL  string
	Language string
	Currency string
}

// DefaultURLBuilder returns a builder for the default results page in English
func DefaultURLBuilder() URLBuilder {
	return URLBuilder{
		BaseURL:  DefaultBaseURL,
		Language: "en",
	}
}

// SegmentURL returns the canonical URL for one segment. The mapping is pure:
// identical segments always produce byte-identical URLs.
func (b URLBuilder) SegmentURL(seg Segment) string {
	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	lang := b.Language
	if lang == "" {
		lang = "en"
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("?hl=")
	sb.WriteString(url.QueryEscape(lang))
	if b.Currency != "" {
		sb.WriteString("&curr=")
		sb.WriteString(url.QueryEscape(strings.ToUpper(b.Currency)))
	}
	sb.WriteString("&q=Flights%20to%20")
	sb.WriteString(seg.Destination)
	sb.WriteString("%20from%20")
	sb.WriteString(seg.Origin)
	sb.WriteString("%20on%20")
	sb.WriteString(seg.DateString())
	sb.WriteString("%20oneway")
	return sb.String()
}
