package models

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// PageKind classifies a page once, up front, so the pipeline does not
// scatter ad hoc substring checks across strategies.
type PageKind string

const (
	PageKindListing    PageKind = "listing"
	PageKindIndividual PageKind = "individual"
	PageKindUnknown    PageKind = "unknown"
)

// CapturedPayload is a network-response body intercepted by the fetch
// collaborator while rendering a page.
type CapturedPayload struct {
	OriginURL string          `json:"origin_url"`
	Body      json.RawMessage `json:"body"`
}

// PageSnapshot is the core input contract: everything the fetch layer
// captured for one page. HTML is required; DOM may be pre-parsed by
// the caller to avoid a second parse.
type PageSnapshot struct {
	URL              string
	HTML             string
	DOM              *goquery.Document
	CapturedPayloads []CapturedPayload
}

// Link is an anchor with its visible text, URL resolved absolute.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Image is an img element with the alt text that often carries a
// business name on listing pages.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// Section is one titled region of a rendered page: the content between
// a heading and the next heading of equal-or-higher level.
type Section struct {
	Title string     `json:"title"`
	Text  string     `json:"text,omitempty"`
	Lists [][]string `json:"lists,omitempty"`
	Links []Link     `json:"links,omitempty"`
}

// PageData is the rendered-page substrate consumed by the text-pattern
// strategy and returned raw when no strategy matches.
type PageData struct {
	URL          string              `json:"url"`
	Title        string              `json:"title,omitempty"`
	TextContent  string              `json:"text_content,omitempty"`
	MainContent  string              `json:"main_content,omitempty"`
	Links        []Link              `json:"links,omitempty"`
	Images       []Image             `json:"images,omitempty"`
	MetaTags     map[string]string   `json:"meta_tags,omitempty"`
	Headings     map[string][]string `json:"headings,omitempty"`
	Sections     map[string]Section  `json:"sections,omitempty"`
	SectionOrder []string            `json:"section_order,omitempty"`
	Lists        [][]string          `json:"lists,omitempty"`
	Tables       [][][]string        `json:"tables,omitempty"`
	WordCount    int                 `json:"word_count"`
	Kind         PageKind            `json:"page_kind"`
}

// StrategyCandidates keeps every strategy's raw output for debugging
// and for the raw fallback display.
type StrategyCandidates struct {
	StructuredBlock []Business `json:"structured_block"`
	SiteSpecific    []Business `json:"site_specific"`
	NestedWalk      []Business `json:"nested_walk"`
	TextPattern     []Business `json:"text_pattern"`
}

// Empty reports whether no strategy produced anything.
func (s StrategyCandidates) Empty() bool {
	return len(s.StructuredBlock) == 0 && len(s.SiteSpecific) == 0 &&
		len(s.NestedWalk) == 0 && len(s.TextPattern) == 0
}

// ExtractionResult is the core output contract. When Businesses is
// empty the raw page data is attached so callers can fall back to
// displaying it (or hand it to a secondary AI pass) instead of
// treating "no match" as an error.
type ExtractionResult struct {
	Businesses    []Business         `json:"businesses"`
	RawCandidates StrategyCandidates `json:"raw_candidates_by_strategy"`
	RawPage       *PageData          `json:"raw_page,omitempty"`
	Note          string             `json:"note,omitempty"`
}
