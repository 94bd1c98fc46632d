// Package extract holds the extraction strategies that turn a captured
// page into candidate business records, plus the page-level transforms
// they share. Each strategy is independent: it receives a parsed
// document and returns zero or more candidates, never an error for
// data-quality problems.
package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/normalize"
)

// businessTypes are the schema.org @type values that mark a block as a
// business rather than an article, breadcrumb list, or website card.
var businessTypes = map[string]bool{
	"Restaurant":        true,
	"LocalBusiness":     true,
	"FoodEstablishment": true,
	"CafeOrCoffeeShop":  true,
	"BarOrPub":          true,
	"Bakery":            true,
}

// StructuredBlockParser extracts businesses from machine-readable
// annotation blocks: ld+json script tags and itemscope/itemprop
// microdata. These are the highest-trust source on a page, so the
// pipeline runs this strategy first.
type StructuredBlockParser struct {
	log *slog.Logger
}

func NewStructuredBlockParser(log *slog.Logger) *StructuredBlockParser {
	return &StructuredBlockParser{log: log}
}

// Parse collects candidates from every annotation block in the
// document. Malformed blocks are skipped; a page with no blocks yields
// an empty slice, not an error.
func (p *StructuredBlockParser) Parse(doc *goquery.Document) []models.Business {
	if doc == nil {
		return nil
	}
	out := p.parseJSONLD(doc)
	out = append(out, p.parseMicrodata(doc)...)
	return out
}

func (p *StructuredBlockParser) parseJSONLD(doc *goquery.Document) []models.Business {
	var out []models.Business
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			p.log.Debug("skipping malformed ld+json block", "index", i, "error", err)
			return
		}
		for _, node := range flattenLDNodes(raw) {
			if b, ok := p.mapBusinessNode(node); ok {
				out = append(out, b)
			}
		}
	})
	return out
}

// flattenLDNodes unwraps the shapes ld+json blocks come in: a single
// object, a top-level array, an @graph container, or an ItemList whose
// itemListElement entries wrap businesses under "item".
func flattenLDNodes(raw any) []map[string]any {
	var nodes []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			nodes = append(nodes, flattenLDNodes(item)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				nodes = append(nodes, flattenLDNodes(item)...)
			}
			return nodes
		}
		if typeName(v) == "ItemList" {
			if elems, ok := v["itemListElement"].([]any); ok {
				for _, elem := range elems {
					entry, ok := elem.(map[string]any)
					if !ok {
						continue
					}
					if item, ok := entry["item"].(map[string]any); ok {
						nodes = append(nodes, item)
					} else {
						nodes = append(nodes, entry)
					}
				}
			}
			return nodes
		}
		nodes = append(nodes, v)
	}
	return nodes
}

func typeName(node map[string]any) string {
	switch t := node["@type"].(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && businessTypes[strings.TrimSpace(s)] {
				return strings.TrimSpace(s)
			}
		}
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// isBusinessType also tolerates full schema.org itemtype URLs from
// microdata ("https://schema.org/Restaurant").
func isBusinessType(t string) bool {
	if businessTypes[t] {
		return true
	}
	if idx := strings.LastIndex(t, "/"); idx != -1 {
		return businessTypes[t[idx+1:]]
	}
	return false
}

// mapBusinessNode converts one schema.org node into a Business. Only
// nodes of a business type with a non-empty name qualify. Recognized
// fields map onto canonical fields; everything informative that has no
// canonical slot is preserved in RawTags.
func (p *StructuredBlockParser) mapBusinessNode(node map[string]any) (models.Business, bool) {
	if !isBusinessType(typeName(node)) {
		return models.Business{}, false
	}
	b := models.Business{
		Name:        normalize.String(node["name"]),
		Description: normalize.String(node["description"]),
		URL:         normalize.String(node["url"]),
		Website:     normalize.WebsiteURL(normalize.String(node["url"])),
		Phone:       normalize.Phone(normalize.String(node["telephone"])),
		Email:       normalize.Email(normalize.String(node["email"])),
		PriceRange:  normalize.PriceRange(normalize.String(node["priceRange"])),
		Cuisine:     normalize.StringList(node["servesCuisine"]),
		Source:      models.SourceStructuredBlock,
	}
	if !b.HasIdentity() {
		return models.Business{}, false
	}
	if b.Website == "" {
		b.Website = normalize.String(node["sameAs"])
	}

	switch img := node["image"].(type) {
	case string:
		b.ImageURL = strings.TrimSpace(img)
	case map[string]any:
		b.ImageURL = normalize.String(img["url"])
	case []any:
		if len(img) > 0 {
			b.ImageURL = normalize.String(img[0])
		}
	}

	// Address and its parts come from the same node. A string address
	// stays formatted-only; a PostalAddress object yields both forms.
	switch addr := node["address"].(type) {
	case string:
		b.Address = strings.TrimSpace(addr)
	case map[string]any:
		parts := &models.AddressParts{
			Street:     normalize.String(addr["streetAddress"]),
			City:       normalize.String(addr["addressLocality"]),
			State:      normalize.String(addr["addressRegion"]),
			PostalCode: normalize.String(addr["postalCode"]),
			Country:    normalize.String(addr["addressCountry"]),
		}
		if c, ok := addr["addressCountry"].(map[string]any); ok {
			parts.Country = normalize.String(c["name"])
		}
		if !parts.Empty() {
			b.AddressParts = parts
			b.Address = parts.Formatted()
		}
	}

	if geo, ok := node["geo"].(map[string]any); ok {
		lat, latOK := normalize.ParseFloat(geo["latitude"])
		lon, lonOK := normalize.ParseFloat(geo["longitude"])
		if latOK && lonOK {
			b.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lon}
		}
	}

	if agg, ok := node["aggregateRating"].(map[string]any); ok {
		if r, ok := normalize.ParseRating(agg["ratingValue"]); ok {
			b.Rating = &r
		} else if agg["ratingValue"] != nil {
			p.log.Debug("rejecting out-of-range rating",
				"name", b.Name, "value", fmt.Sprint(agg["ratingValue"]))
		}
		count := agg["reviewCount"]
		if count == nil {
			count = agg["ratingCount"]
		}
		if n, ok := normalize.ParseReviewCount(count); ok {
			b.ReviewCount = &n
		}
	}

	if hours, ok := node["openingHoursSpecification"].([]any); ok {
		for _, h := range hours {
			spec, ok := h.(map[string]any)
			if !ok {
				continue
			}
			entry := models.OpeningHours{
				Opens:  normalize.String(spec["opens"]),
				Closes: normalize.String(spec["closes"]),
			}
			switch day := spec["dayOfWeek"].(type) {
			case string:
				entry.Day = strings.TrimSpace(day)
			case []any:
				entry.Day = strings.Join(normalize.StringList(day), ", ")
			}
			if entry.Day != "" || entry.Opens != "" {
				b.Hours = append(b.Hours, entry)
			}
		}
	}

	if menu, ok := node["hasMenu"].(map[string]any); ok {
		b.MenuURL = normalize.String(menu["url"])
	}
	if b.MenuURL == "" {
		b.MenuURL = normalize.String(node["menu"])
	}

	// Pass-throughs: informative schema.org fields with no canonical slot.
	for _, key := range []string{"acceptsReservations", "paymentAccepted", "currenciesAccepted", "foundingDate", "openingHours"} {
		if v := node[key]; v != nil {
			b.SetRawTag(key, v)
		}
	}
	if agg, ok := node["aggregateRating"].(map[string]any); ok {
		if best := normalize.String(agg["bestRating"]); best != "" && best != "5" {
			b.SetRawTag("bestRating", best)
		}
	}

	return b, true
}

// parseMicrodata handles itemscope/itemprop markup. Property values
// follow the element kind: meta content, anchor href, img src, else
// text. Repeated properties collapse into lists.
func (p *StructuredBlockParser) parseMicrodata(doc *goquery.Document) []models.Business {
	var out []models.Business
	doc.Find("[itemscope]").Each(func(_ int, item *goquery.Selection) {
		itemtype, _ := item.Attr("itemtype")
		if !isBusinessType(strings.TrimSpace(itemtype)) {
			return
		}
		node := map[string]any{"@type": strings.TrimSpace(itemtype)}
		item.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
			name := strings.TrimSpace(prop.AttrOr("itemprop", ""))
			if name == "" {
				return
			}
			var value string
			switch goquery.NodeName(prop) {
			case "meta":
				value = prop.AttrOr("content", "")
			case "a", "link":
				value = prop.AttrOr("href", "")
			case "img":
				value = prop.AttrOr("src", "")
			case "time":
				value = prop.AttrOr("datetime", "")
				if value == "" {
					value = prop.Text()
				}
			default:
				value = prop.Text()
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return
			}
			switch existing := node[name].(type) {
			case nil:
				node[name] = value
			case string:
				node[name] = []any{existing, value}
			case []any:
				node[name] = append(existing, value)
			}
		})
		// Microdata nests address props flat under the business scope;
		// regroup them so the shared mapper sees a PostalAddress shape.
		addr := map[string]any{}
		for prop, key := range map[string]string{
			"streetAddress":   "streetAddress",
			"addressLocality": "addressLocality",
			"addressRegion":   "addressRegion",
			"postalCode":      "postalCode",
			"addressCountry":  "addressCountry",
		} {
			if v, ok := node[prop].(string); ok {
				addr[key] = v
				delete(node, prop)
			}
		}
		if len(addr) > 0 {
			node["address"] = addr
		}
		if rating, ok := node["ratingValue"]; ok {
			agg := map[string]any{"ratingValue": firstScalar(rating)}
			if count, ok := node["reviewCount"]; ok {
				agg["reviewCount"] = firstScalar(count)
			}
			node["aggregateRating"] = agg
			delete(node, "ratingValue")
			delete(node, "reviewCount")
		}
		if b, ok := p.mapBusinessNode(node); ok {
			out = append(out, b)
		}
	})
	return out
}

func firstScalar(v any) any {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return list[0]
	}
	return v
}
