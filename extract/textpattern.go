package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/normalize"
)

const (
	maxScalarFacts   = 20
	maxNameCandidate = 100
	minAssocNameLen  = 3
)

var (
	// Listing pages render one business per line in the shape
	// "Taste of Texas 4.5 (4.9k reviews) Memorial $$$".
	listItemRegex = regexp.MustCompile(`^(\d+\.)?([A-Za-z\s&'\-]+?)(\d+\.?\d*)\s*\((\d+\.?\d*[kK]?)\s*[Rr]eviews?\)\s*([A-Za-z\s/]+?)?\s*(\${1,4})?\s*$`)

	simpleRatingRegex = regexp.MustCompile(`(\d+\.?\d*)\s*\(`)

	priceFactRegex = regexp.MustCompile(`(?i)\$[\d,]+\.?\d*|[\d,]+\.?\d*\s*(?:USD|dollars?)|€[\d,]+\.?\d*|£[\d,]+\.?\d*`)
	emailFactRegex = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneFactRegex = regexp.MustCompile(`\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	altSuffixRegex = regexp.MustCompile(`(?i)\s+(on Yelp|- TripAdvisor)$`)
)

var categoryKeywords = []string{
	"steakhouse", "seafood", "american", "italian", "mexican",
	"japanese", "chinese", "thai", "indian", "french", "wine bar",
	"sushi", "brazilian", "mediterranean", "middle eastern", "korean",
}

// TextPatternExtractor recovers businesses from rendered listing text
// when no machine-readable source exists: h3 headings carry names, the
// surrounding text carries the rating/review/neighborhood/price run,
// and images and links are associated back to names by substring
// containment. It is the lowest-trust strategy and only runs on pages
// classified as listings.
type TextPatternExtractor struct {
	log *slog.Logger
}

func NewTextPatternExtractor(log *slog.Logger) *TextPatternExtractor {
	return &TextPatternExtractor{log: log}
}

// ScalarFacts are page-level fact pools with no entity association:
// useful on individual pages where the single business claims them.
type ScalarFacts struct {
	Prices []string
	Emails []string
	Phones []string
}

// Parse extracts listing candidates from the rendered-page substrate.
func (e *TextPatternExtractor) Parse(page *models.PageData) []models.Business {
	if page == nil {
		return nil
	}
	var businesses []models.Business

	content := page.MainContent
	if content == "" {
		content = page.TextContent
	}

	imageByName := e.imageMap(page.Images)
	linkByName := e.linkMap(page.Links)

	// Headings first: h3 is where listing templates put names.
	for _, heading := range page.Headings["h3"] {
		name := normalize.StripOrdinal(heading)
		if name == "" || normalize.IsNoiseName(name) {
			continue
		}
		b := models.Business{Name: name, Source: models.SourceTextPattern}
		nameLower := strings.ToLower(name)
		for alt, src := range imageByName {
			if strings.Contains(alt, nameLower) || strings.Contains(nameLower, alt) {
				b.ImageURL = src
				break
			}
		}
		for text, href := range linkByName {
			if strings.Contains(text, nameLower) || strings.Contains(nameLower, text) {
				b.URL = href
				break
			}
		}
		e.attachDetails(&b, content)
		businesses = append(businesses, b)
	}

	// List items carry the whole pattern on one line.
	for _, list := range page.Lists {
		for _, item := range list {
			if len(item) <= 10 {
				continue
			}
			if b, ok := e.parseListItem(item); ok {
				businesses = append(businesses, b)
			}
		}
	}

	businesses = e.attachCategories(businesses, page.Links)
	return dedupeByName(businesses)
}

// attachDetails finds the rating/review run that follows the name in
// the page text and pulls neighborhood and price off its tail.
func (e *TextPatternExtractor) attachDetails(b *models.Business, content string) {
	if content == "" {
		return
	}
	detail := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(b.Name) +
		`\s*(\d+\.?\d*)\s*\((\d+\.?\d*[kK]?)\s*reviews?\)\s*([A-Za-z\s/]+?)?\s*(\${1,4})?(\s|$)`)
	m := detail.FindStringSubmatch(content)
	if m == nil {
		// Fallback: a bare "4.5 (" shortly after the name.
		idx := strings.Index(strings.ToLower(content), strings.ToLower(b.Name))
		if idx == -1 {
			return
		}
		window := content[idx:]
		if len(window) > 200 {
			window = window[:200]
		}
		if sm := simpleRatingRegex.FindStringSubmatch(window); sm != nil {
			if r, ok := normalize.ParseRating(sm[1]); ok && r >= 1 {
				b.Rating = &r
			}
		}
		return
	}
	if r, ok := normalize.ParseRating(m[1]); ok {
		b.Rating = &r
	} else {
		e.log.Debug("rejecting out-of-range listing rating", "name", b.Name, "value", m[1])
	}
	if n, ok := normalize.ParseReviewCount(m[2]); ok {
		b.ReviewCount = &n
	}
	if hood := normalize.Neighborhood(m[3]); hood != "" {
		b.Neighborhood = hood
	}
	if m[4] != "" {
		b.PriceRange = m[4]
	}
}

func (e *TextPatternExtractor) parseListItem(item string) (models.Business, bool) {
	m := listItemRegex.FindStringSubmatch(item)
	if m == nil {
		return models.Business{}, false
	}
	name := strings.TrimSpace(m[2])
	if name == "" || normalize.IsNoiseName(name) {
		return models.Business{}, false
	}
	b := models.Business{Name: name, Source: models.SourceTextPattern}
	if r, ok := normalize.ParseRating(m[3]); ok {
		b.Rating = &r
	}
	if n, ok := normalize.ParseReviewCount(m[4]); ok {
		b.ReviewCount = &n
	}
	if hood := normalize.Neighborhood(m[5]); hood != "" {
		b.Neighborhood = hood
	}
	if m[6] != "" {
		b.PriceRange = m[6]
	}
	return b, true
}

func (e *TextPatternExtractor) imageMap(images []models.Image) map[string]string {
	out := make(map[string]string, len(images))
	for _, img := range images {
		alt := strings.TrimSpace(altSuffixRegex.ReplaceAllString(img.Alt, ""))
		if len(alt) > minAssocNameLen {
			out[strings.ToLower(alt)] = img.Src
		}
	}
	return out
}

func (e *TextPatternExtractor) linkMap(links []models.Link) map[string]string {
	out := make(map[string]string, len(links))
	for _, link := range links {
		text := strings.TrimSpace(link.Text)
		if len(text) > minAssocNameLen && len(text) < maxNameCandidate {
			out[strings.ToLower(text)] = link.URL
		}
	}
	return out
}

// attachCategories assigns cuisine-keyword link texts found on the
// page. The association is page-level, the best the format allows.
func (e *TextPatternExtractor) attachCategories(businesses []models.Business, links []models.Link) []models.Business {
	var cats []string
	seen := make(map[string]bool)
	for _, link := range links {
		text := strings.ToLower(strings.TrimSpace(link.Text))
		for _, kw := range categoryKeywords {
			if text == kw && !seen[kw] {
				seen[kw] = true
				cats = append(cats, titleCase(kw))
			}
		}
	}
	if len(cats) == 0 {
		return businesses
	}
	if len(cats) > 5 {
		cats = cats[:5]
	}
	for i := range businesses {
		businesses[i].Categories = append([]string(nil), cats...)
	}
	return businesses
}

// Facts pulls the unassociated scalar pools from page text, each class
// deduped and capped.
func (e *TextPatternExtractor) Facts(page *models.PageData) ScalarFacts {
	if page == nil {
		return ScalarFacts{}
	}
	text := page.TextContent + " " + page.MainContent
	var linkText strings.Builder
	for _, l := range page.Links {
		linkText.WriteByte(' ')
		linkText.WriteString(l.URL)
	}
	return ScalarFacts{
		Prices: dedupeCap(priceFactRegex.FindAllString(text, -1), maxScalarFacts),
		Emails: dedupeCap(emailFactRegex.FindAllString(text+linkText.String(), -1), maxScalarFacts),
		Phones: dedupeCap(phoneFactRegex.FindAllString(text, -1), maxScalarFacts),
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func dedupeCap(values []string, limit int) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func dedupeByName(businesses []models.Business) []models.Business {
	seen := make(map[string]bool, len(businesses))
	var out []models.Business
	for _, b := range businesses {
		key := b.IdentityKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}
