package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
)

// Rendered-page extraction caps, roughly one screenful of each kind of
// structure. The substrate feeds a text strategy, not an archive.
const (
	maxPageText     = 10000
	maxMainContent  = 5000
	maxPageLinks    = 100
	maxPageImages   = 50
	maxHeadings     = 20
	maxPageLists    = 10
	maxPageTables   = 5
	maxTableRows    = 50
	maxListItems    = 50
)

// mainContentSelectors are probed in order; the first hit becomes
// MainContent, which the text-pattern strategy prefers over full body
// text because it skips nav and footer chrome.
var mainContentSelectors = []string{
	"article", "main", `[role="main"]`, ".content", "#content", ".main-content",
}

// listingURLPatterns mark search/browse pages on known listing sites
// plus the generic search-page shapes.
var listingURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`yelp\.com/search`),
	regexp.MustCompile(`tripadvisor\.com/search`),
	regexp.MustCompile(`google\.com/search.*restaurant`),
	regexp.MustCompile(`google\.com/maps/search`),
	regexp.MustCompile(`/search.*restaurant`),
	regexp.MustCompile(`/search.*food`),
	regexp.MustCompile(`/search.*dining`),
}

var opentableListingMarkers = []string{"/metro/", "/region/", "/neighborhood/", "/s?"}

var opentableExcluded = []string{
	"/restaurant/", "/profile/", "/about", "/help", "/contact", "/terms", "/privacy", "/gift-cards",
}

// PageExtractor builds the PageData substrate from a document: the
// flattened text, link, image, heading, and section structure that the
// text-pattern strategy and the raw fallback consume.
type PageExtractor struct {
	segmenter *PageSectionSegmenter
}

func NewPageExtractor() *PageExtractor {
	return &PageExtractor{segmenter: NewPageSectionSegmenter()}
}

// Extract flattens the document. The document is required; the page
// URL is used to resolve relative links and classify the page kind.
func (e *PageExtractor) Extract(pageURL string, doc *goquery.Document) (*models.PageData, error) {
	if doc == nil {
		return nil, fmt.Errorf("extract page %s: nil document", pageURL)
	}
	base, _ := url.Parse(pageURL)

	page := &models.PageData{
		URL:      pageURL,
		MetaTags: make(map[string]string),
		Headings: make(map[string][]string),
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if page.Title == "" {
		page.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	body := doc.Find("body")
	page.TextContent = truncate(collapseWhitespace(body.Text()), maxPageText)
	for _, sel := range mainContentSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			page.MainContent = truncate(collapseWhitespace(el.Text()), maxMainContent)
			break
		}
	}
	if page.MainContent == "" {
		page.MainContent = truncate(page.TextContent, maxMainContent)
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(page.Links) >= maxPageLinks {
			return false
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		page.Links = append(page.Links, models.Link{
			Text: collapseWhitespace(a.Text()),
			URL:  resolveURL(base, href),
		})
		return true
	})

	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if len(page.Images) >= maxPageImages {
			return false
		}
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			return true
		}
		alt := strings.TrimSpace(img.AttrOr("alt", ""))
		if alt == "" {
			alt = strings.TrimSpace(img.AttrOr("title", ""))
		}
		page.Images = append(page.Images, models.Image{Src: resolveURL(base, src), Alt: alt})
		return true
	})

	doc.Find("meta").Each(func(_ int, meta *goquery.Selection) {
		name := meta.AttrOr("name", "")
		if name == "" {
			name = meta.AttrOr("property", "")
		}
		if name == "" {
			name = meta.AttrOr("itemprop", "")
		}
		content := meta.AttrOr("content", "")
		if name != "" && content != "" {
			page.MetaTags[name] = content
		}
	})

	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		var texts []string
		doc.Find(tag).EachWithBreak(func(_ int, h *goquery.Selection) bool {
			if len(texts) >= maxHeadings {
				return false
			}
			if t := collapseWhitespace(h.Text()); t != "" {
				texts = append(texts, t)
			}
			return true
		})
		if len(texts) > 0 {
			page.Headings[tag] = texts
		}
	}

	page.Sections, page.SectionOrder = e.segmenter.Segment(doc)

	doc.Find("ul, ol").EachWithBreak(func(_ int, list *goquery.Selection) bool {
		if len(page.Lists) >= maxPageLists {
			return false
		}
		var items []string
		list.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if len(items) >= maxListItems {
				return false
			}
			if t := collapseWhitespace(li.Text()); t != "" {
				items = append(items, t)
			}
			return true
		})
		if len(items) > 0 {
			page.Lists = append(page.Lists, items)
		}
		return true
	})

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if len(page.Tables) >= maxPageTables {
			return false
		}
		var rows [][]string
		table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			if len(rows) >= maxTableRows {
				return false
			}
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, collapseWhitespace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return true
		})
		if len(rows) > 0 {
			page.Tables = append(page.Tables, rows)
		}
		return true
	})

	page.WordCount = len(strings.Fields(page.TextContent))
	page.Kind = ClassifyPage(pageURL, page)
	return page, nil
}

// ClassifyPage decides once whether a page is a listing (many
// businesses), an individual business page, or unknown. URL patterns
// for known sites are checked first, then content heuristics.
func ClassifyPage(pageURL string, page *models.PageData) models.PageKind {
	lower := strings.ToLower(pageURL)

	// OpenTable: /r/ paths are individual restaurants, metro/region/
	// search paths are listings, everything not excluded defaults to
	// listing.
	if strings.Contains(lower, "opentable.com") {
		if strings.Contains(lower, "/r/") {
			return models.PageKindIndividual
		}
		for _, marker := range opentableListingMarkers {
			if strings.Contains(lower, marker) {
				return models.PageKindListing
			}
		}
		for _, excl := range opentableExcluded {
			if strings.Contains(lower, excl) {
				return models.PageKindIndividual
			}
		}
		return models.PageKindListing
	}

	for _, pattern := range listingURLPatterns {
		if pattern.MatchString(lower) {
			return models.PageKindListing
		}
	}
	if strings.Contains(lower, "yelp.com/biz/") || strings.Contains(lower, "tripadvisor.com/restaurant_review") {
		return models.PageKindIndividual
	}

	if page == nil {
		return models.PageKindUnknown
	}

	// Content heuristic: listing pages stack many h3 name headings and
	// repeat the rating pattern; individual pages have one og:type
	// restaurant or a single dominant name.
	if t := strings.ToLower(page.MetaTags["og:type"]); t == "restaurant" || t == "restaurant.restaurant" {
		return models.PageKindIndividual
	}
	content := page.MainContent
	if content == "" {
		content = page.TextContent
	}
	ratingRuns := len(ratingRunRegex.FindAllString(content, 6))
	if len(page.Headings["h3"]) >= 5 && ratingRuns >= 3 {
		return models.PageKindListing
	}
	return models.PageKindUnknown
}

var ratingRunRegex = regexp.MustCompile(`\d+\.?\d*\s*\(\d+\.?\d*[kK]?\s*[Rr]eviews?\)`)

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
