package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
)

// boundarySelectors maps a heading level to the selector that ends its
// section: the next heading of equal or higher level. A section under
// an h3 runs through any h4s inside it but stops at the next h3, h2,
// or h1.
var boundarySelectors = map[string]string{
	"h2": "h1, h2",
	"h3": "h1, h2, h3",
	"h4": "h1, h2, h3, h4",
}

const (
	maxSections        = 50
	maxSectionText     = 2000
	maxSectionLists    = 10
	maxSectionLinks    = 25
	maxSectionListSize = 50
)

// PageSectionSegmenter slices a page into titled regions keyed by
// heading text. Listing articles ("Best BBQ in Houston") put one
// business per heading, so the segment map is the substrate the
// text-pattern strategy and amenity scans work from.
type PageSectionSegmenter struct{}

func NewPageSectionSegmenter() *PageSectionSegmenter {
	return &PageSectionSegmenter{}
}

// Segment returns the sections in document order plus the ordered list
// of titles. Duplicate heading texts keep the first occurrence.
func (s *PageSectionSegmenter) Segment(doc *goquery.Document) (map[string]models.Section, []string) {
	sections := make(map[string]models.Section)
	var order []string
	if doc == nil {
		return sections, order
	}
	doc.Find("h2, h3, h4").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if len(order) >= maxSections {
			return false
		}
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return true
		}
		if _, seen := sections[title]; seen {
			return true
		}
		level := goquery.NodeName(heading)
		boundary, ok := boundarySelectors[level]
		if !ok {
			return true
		}
		sections[title] = buildSection(title, heading.NextUntil(boundary))
		order = append(order, title)
		return true
	})
	return sections, order
}

// buildSection flattens the sibling run after a heading into text,
// lists, and links.
func buildSection(title string, content *goquery.Selection) models.Section {
	section := models.Section{Title: title}

	var textParts []string
	content.Each(func(_ int, el *goquery.Selection) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			textParts = append(textParts, collapseWhitespace(t))
		}
	})
	section.Text = strings.Join(textParts, "\n")
	if len(section.Text) > maxSectionText {
		section.Text = section.Text[:maxSectionText]
	}

	// Matching nodes can be the siblings themselves or nested under
	// them, so Filter and Find are combined.
	lists := content.Filter("ul, ol").AddSelection(content.Find("ul, ol"))
	lists.Each(func(_ int, list *goquery.Selection) {
		if len(section.Lists) >= maxSectionLists {
			return
		}
		var items []string
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if len(items) >= maxSectionListSize {
				return
			}
			if t := strings.TrimSpace(li.Text()); t != "" {
				items = append(items, collapseWhitespace(t))
			}
		})
		if len(items) > 0 {
			section.Lists = append(section.Lists, items)
		}
	})

	anchors := content.Filter("a[href]").AddSelection(content.Find("a[href]"))
	anchors.Each(func(_ int, a *goquery.Selection) {
		if len(section.Links) >= maxSectionLinks {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		section.Links = append(section.Links, models.Link{
			Text: collapseWhitespace(strings.TrimSpace(a.Text())),
			URL:  href,
		})
	})

	return section
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
