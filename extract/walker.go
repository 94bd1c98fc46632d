package extract

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/normalize"
)

// Walker traversal caps. The caps exist because hydration payloads can
// be enormous; hitting one is an expected event logged at debug, not
// an error.
const (
	walkerMaxDepth    = 5
	walkerMaxArray    = 20
	walkerMaxKeys     = 50
	walkerMaxMatches  = 50
	walkerDefaultMins = 1
)

// walkerIndicators are the sibling keys that, next to a name, mark an
// object as business-shaped rather than a user, review, or nav item.
var walkerIndicators = []string{"address", "location", "rating"}

// NestedStructureWalker recovers business-shaped objects from JSON of
// unknown layout. It is the fallback strategy: the pipeline runs it
// only when the schema-aware parsers found nothing.
type NestedStructureWalker struct {
	log *slog.Logger

	// MinIndicators is how many of address/location/rating an object
	// must carry beside a name to match. Default 1; set 2 to trade
	// recall for precision on noisy payloads.
	MinIndicators int
}

func NewNestedStructureWalker(log *slog.Logger) *NestedStructureWalker {
	return &NestedStructureWalker{log: log, MinIndicators: walkerDefaultMins}
}

// Parse decodes every JSON source on the page (inline script blobs and
// captured payloads) and walks each for business-shaped objects.
func (w *NestedStructureWalker) Parse(snap *models.PageSnapshot) []models.Business {
	var out []models.Business
	for _, raw := range decodeJSONSources(snap) {
		out = append(out, w.Walk(raw)...)
		if len(out) >= walkerMaxMatches {
			out = out[:walkerMaxMatches]
			break
		}
	}
	return out
}

// Walk traverses one decoded JSON value breadth-limited and
// depth-limited, collecting every object that satisfies the
// business-shape predicate.
func (w *NestedStructureWalker) Walk(raw any) []models.Business {
	var matches []map[string]any
	w.walk(raw, 0, &matches)
	out := make([]models.Business, 0, len(matches))
	for _, m := range matches {
		if b, ok := w.mapMatch(m); ok {
			out = append(out, b)
		}
	}
	return out
}

func (w *NestedStructureWalker) walk(value any, depth int, matches *[]map[string]any) {
	if len(*matches) >= walkerMaxMatches {
		return
	}
	if depth > walkerMaxDepth {
		w.log.Debug("walker depth cap reached", "depth", depth)
		return
	}
	switch v := value.(type) {
	case map[string]any:
		if IsBusinessShaped(v, w.MinIndicators) {
			*matches = append(*matches, v)
			// A match's own subtree is not re-walked: its nested
			// objects (hours, location) belong to this record.
			return
		}
		visited := 0
		for _, child := range v {
			if visited >= walkerMaxKeys {
				w.log.Debug("walker key fan-out cap reached")
				break
			}
			visited++
			w.walk(child, depth+1, matches)
		}
	case []any:
		limit := len(v)
		if limit > walkerMaxArray {
			w.log.Debug("walker array fan-out cap reached", "len", len(v))
			limit = walkerMaxArray
		}
		for _, item := range v[:limit] {
			w.walk(item, depth+1, matches)
		}
	}
}

// IsBusinessShaped reports whether an object looks like a business: a
// non-empty string under a name key plus at least minIndicators of
// address/location/rating. Exported so callers can pre-filter
// candidate payloads with the same rule the walker applies.
func IsBusinessShaped(obj map[string]any, minIndicators int) bool {
	if minIndicators < 1 {
		minIndicators = walkerDefaultMins
	}
	name, ok := obj["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	found := 0
	for _, key := range walkerIndicators {
		if v, ok := obj[key]; ok && v != nil {
			found++
		}
	}
	return found >= minIndicators
}

// mapMatch runs the same normalization pass the schema-aware parsers
// apply, so walker output obeys the rating bounds and phone format
// invariants despite the unknown source layout.
func (w *NestedStructureWalker) mapMatch(obj map[string]any) (models.Business, bool) {
	b := models.Business{
		Name:        normalize.String(obj["name"]),
		URL:         normalize.String(obj["url"]),
		Website:     normalize.WebsiteURL(normalize.String(obj["website"])),
		Description: normalize.String(obj["description"]),
		Source:      models.SourceNestedWalk,
	}
	if !b.HasIdentity() {
		return models.Business{}, false
	}

	if r, ok := normalize.ParseRating(obj["rating"]); ok {
		b.Rating = &r
	} else if ratingObj, isMap := obj["rating"].(map[string]any); isMap {
		if r, ok := normalize.ParseRating(ratingObj["value"]); ok {
			b.Rating = &r
		}
	}
	count := obj["review_count"]
	if count == nil {
		count = obj["reviewCount"]
	}
	if n, ok := normalize.ParseReviewCount(count); ok {
		b.ReviewCount = &n
	}

	b.Phone = normalize.Phone(normalize.String(obj["phone"]))
	b.PriceRange = normalize.PriceRange(normalize.String(obj["price"]))

	switch addr := obj["address"].(type) {
	case string:
		b.Address = strings.TrimSpace(addr)
	case map[string]any:
		parts := &models.AddressParts{
			Street:     firstString(addr, "street", "streetAddress", "address1"),
			City:       firstString(addr, "city", "addressLocality"),
			State:      firstString(addr, "state", "addressRegion"),
			PostalCode: firstString(addr, "postal_code", "postalCode", "zip_code"),
			Country:    firstString(addr, "country", "addressCountry"),
		}
		if !parts.Empty() {
			b.AddressParts = parts
			b.Address = parts.Formatted()
		}
	}
	if b.Address == "" {
		switch loc := obj["location"].(type) {
		case string:
			b.Address = strings.TrimSpace(loc)
		case map[string]any:
			if display, ok := loc["display_address"].([]any); ok {
				b.Address = strings.Join(normalize.StringList(display), ", ")
			} else if s := firstString(loc, "address", "formatted_address"); s != "" {
				b.Address = s
			}
		}
	}

	for key, value := range obj {
		switch key {
		case "name", "url", "website", "description", "rating", "review_count",
			"reviewCount", "phone", "price", "address", "location":
		default:
			if value != nil {
				b.SetRawTag(key, value)
			}
		}
	}
	return b, true
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := normalize.String(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

// decodeJSONSources gathers every decodable JSON value a snapshot
// carries: captured network payloads, scripts that are pure JSON, and
// hydration blobs behind the known anchors.
func decodeJSONSources(snap *models.PageSnapshot) []any {
	var sources []any
	for _, payload := range snap.CapturedPayloads {
		var raw any
		if err := json.Unmarshal(payload.Body, &raw); err == nil {
			sources = append(sources, raw)
		}
	}
	if snap.DOM == nil {
		return sources
	}
	snap.DOM.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 2 {
			return
		}
		if text[0] == '{' || text[0] == '[' {
			var raw any
			if err := json.Unmarshal([]byte(text), &raw); err == nil {
				sources = append(sources, raw)
				return
			}
		}
		for _, anchor := range payloadAnchors {
			idx := strings.Index(text, anchor)
			if idx == -1 {
				continue
			}
			blob, ok := extractBalancedJSON(text[idx+len(anchor):])
			if !ok {
				continue
			}
			var raw any
			if err := json.Unmarshal([]byte(blob), &raw); err == nil {
				sources = append(sources, raw)
				return
			}
		}
	})
	return sources
}
