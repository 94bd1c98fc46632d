package extract

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/normalize"
)

// payloadAnchors are the hydration markers large listing sites embed
// in inline scripts. Each names the key (or assignment) that precedes
// a JSON object or array worth decoding.
var payloadAnchors = []string{
	`"searchPageProps":`,
	`"bizDetailsPageProps":`,
	`"legacyProps":`,
	`window.__PRELOADED_STATE__=`,
	`window.__PRELOADED_STATE__ =`,
	`window.pageData=`,
	`window.pageData =`,
	`"businesses":`,
	`"searchResults":`,
	`"restaurants":`,
}

// listKeys are the payload paths that hold business lists, probed in
// trust order.
var listKeys = []string{"searchResults", "businesses", "restaurants", "results", "bizDetails", "business"}

const maxVendorRecords = 50

// SiteSpecificPayloadParser extracts businesses from vendor hydration
// JSON: the state blobs listing sites ship inline for their front-end
// code. It understands the field vocabulary those payloads use
// (display_phone, zip_code, categories-with-title) and maps it onto
// the canonical record.
type SiteSpecificPayloadParser struct {
	log *slog.Logger
}

func NewSiteSpecificPayloadParser(log *slog.Logger) *SiteSpecificPayloadParser {
	return &SiteSpecificPayloadParser{log: log}
}

// Parse scans inline scripts and any captured network payloads for
// hydration data and maps the business lists found inside. Payloads
// that fail to decode are skipped.
func (p *SiteSpecificPayloadParser) Parse(snap *models.PageSnapshot) []models.Business {
	var out []models.Business
	if snap.DOM != nil {
		snap.DOM.Find("script").Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			if len(text) < 100 {
				return
			}
			out = append(out, p.parseScript(text)...)
		})
	}
	for _, payload := range snap.CapturedPayloads {
		var raw any
		if err := json.Unmarshal(payload.Body, &raw); err != nil {
			p.log.Debug("skipping undecodable captured payload",
				"origin", payload.OriginURL, "error", err)
			continue
		}
		out = append(out, p.mapPayload(raw)...)
	}
	if len(out) > maxVendorRecords {
		out = out[:maxVendorRecords]
	}
	return out
}

// parseScript probes the anchors in order and stops at the first one
// that yields businesses: later anchors usually point inside the same
// payload and would duplicate the records.
func (p *SiteSpecificPayloadParser) parseScript(text string) []models.Business {
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
		if err := json.Unmarshal([]byte(blob), &raw); err != nil {
			p.log.Debug("hydration blob did not decode", "anchor", anchor, "error", err)
			continue
		}
		if found := p.mapPayload(raw); len(found) > 0 {
			return found
		}
	}
	return nil
}

// extractBalancedJSON returns the first complete JSON object or array
// at the start of s (after leading whitespace), found by tracking
// brace depth outside string literals. Regexes cannot do this: the
// payloads nest arbitrarily deep.
func extractBalancedJSON(s string) (string, bool) {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	if start >= len(s) {
		return "", false
	}
	open := s[start]
	var closing byte
	switch open {
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// mapPayload locates the business list inside a decoded payload and
// maps each entry. The list may sit at the top level, one level down
// under a known key, or be the payload itself.
func (p *SiteSpecificPayloadParser) mapPayload(raw any) []models.Business {
	list := findBusinessList(raw, 0)
	var out []models.Business
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if b, ok := p.mapVendorBusiness(entry); ok {
			out = append(out, b)
		}
	}
	return out
}

func findBusinessList(raw any, depth int) []any {
	if depth > 2 {
		return nil
	}
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range listKeys {
			child, ok := v[key]
			if !ok {
				continue
			}
			switch c := child.(type) {
			case []any:
				return c
			case map[string]any:
				// bizDetails pages carry a single business object.
				if _, hasName := c["name"]; hasName {
					return []any{child}
				}
				if found := findBusinessList(c, depth+1); found != nil {
					return found
				}
			}
		}
		for _, key := range []string{"searchPageProps", "bizDetailsPageProps", "legacyProps", "props", "data"} {
			if child, ok := v[key]; ok {
				if found := findBusinessList(child, depth+1); found != nil {
					return found
				}
			}
		}
	}
	return nil
}

// canonicalVendorKeys are the payload fields with a canonical slot;
// everything else on the entry is preserved via RawTags.
var canonicalVendorKeys = map[string]bool{
	"name": true, "url": true, "website": true, "image_url": true,
	"photos": true, "rating": true, "review_count": true, "reviewCount": true,
	"location": true, "coordinates": true, "phone": true, "display_phone": true,
	"price": true, "priceRange": true, "categories": true,
	"formattedAddress": true, "address": true,
	"servesCuisine": true, "ratingValue": true,
}

func (p *SiteSpecificPayloadParser) mapVendorBusiness(entry map[string]any) (models.Business, bool) {
	b := models.Business{
		Name:     normalize.String(entry["name"]),
		URL:      normalize.String(entry["url"]),
		Website:  normalize.WebsiteURL(normalize.String(entry["website"])),
		ImageURL: normalize.String(entry["image_url"]),
		Source:   models.SourceSiteSpecific,
	}
	if !b.HasIdentity() {
		return models.Business{}, false
	}

	if r, ok := normalize.ParseRating(entry["rating"]); ok {
		b.Rating = &r
	} else if r, ok := normalize.ParseRating(entry["ratingValue"]); ok {
		b.Rating = &r
	}
	count := entry["review_count"]
	if count == nil {
		count = entry["reviewCount"]
	}
	if n, ok := normalize.ParseReviewCount(count); ok {
		b.ReviewCount = &n
	}

	phone := normalize.String(entry["display_phone"])
	if phone == "" {
		phone = normalize.String(entry["phone"])
	}
	b.Phone = normalize.Phone(phone)

	price := normalize.String(entry["price"])
	if price == "" {
		price = normalize.String(entry["priceRange"])
	}
	b.PriceRange = normalize.PriceRange(price)

	if loc, ok := entry["location"].(map[string]any); ok {
		if display, ok := loc["display_address"].([]any); ok {
			b.Address = strings.Join(normalize.StringList(display), ", ")
		}
		parts := &models.AddressParts{
			Street:     normalize.String(loc["address1"]),
			City:       normalize.String(loc["city"]),
			State:      normalize.String(loc["state"]),
			PostalCode: normalize.String(loc["zip_code"]),
			Country:    normalize.String(loc["country"]),
		}
		if !parts.Empty() {
			b.AddressParts = parts
			if b.Address == "" {
				b.Address = parts.Formatted()
			}
		}
		if hood, ok := loc["neighborhoods"].([]any); ok {
			hoods := normalize.StringList(hood)
			if len(hoods) > 0 {
				b.Neighborhood = hoods[0]
			}
		}
	}
	if b.Address == "" {
		b.Address = normalize.String(entry["formattedAddress"])
		if b.Address == "" {
			if addr, ok := entry["address"].(string); ok {
				b.Address = strings.TrimSpace(addr)
			}
		}
	}

	if coords, ok := entry["coordinates"].(map[string]any); ok {
		lat, latOK := normalize.ParseFloat(coords["latitude"])
		lon, lonOK := normalize.ParseFloat(coords["longitude"])
		if latOK && lonOK {
			b.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	// Categories arrive as [{"title": "Szechuan"}, ...] or plain strings.
	if cats, ok := entry["categories"].([]any); ok {
		for _, cat := range cats {
			switch c := cat.(type) {
			case map[string]any:
				if title := normalize.String(c["title"]); title != "" {
					b.Categories = append(b.Categories, title)
				}
			case string:
				if s := strings.TrimSpace(c); s != "" {
					b.Categories = append(b.Categories, s)
				}
			}
		}
	}
	b.Cuisine = normalize.StringList(entry["servesCuisine"])

	if photos, ok := entry["photos"].([]any); ok {
		list := normalize.StringList(photos)
		if len(list) > 5 {
			list = list[:5]
		}
		b.Photos = list
	}

	for key, value := range entry {
		if canonicalVendorKeys[key] || value == nil {
			continue
		}
		b.SetRawTag(key, value)
	}
	return b, true
}
