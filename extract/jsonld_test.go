package extract

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const restaurantJSONLD = `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Restaurant",
  "name": "Taste of Texas",
  "telephone": "(713) 932-6901",
  "priceRange": "$$$",
  "servesCuisine": ["Steakhouse", "American"],
  "url": "https://tasteoftexas.com",
  "address": {
    "@type": "PostalAddress",
    "streetAddress": "10505 Katy Fwy",
    "addressLocality": "Houston",
    "addressRegion": "TX",
    "postalCode": "77024"
  },
  "geo": {"@type": "GeoCoordinates", "latitude": 29.782, "longitude": -95.561},
  "aggregateRating": {"@type": "AggregateRating", "ratingValue": "4.7", "reviewCount": "5123"},
  "openingHoursSpecification": [
    {"@type": "OpeningHoursSpecification", "dayOfWeek": "Monday", "opens": "11:00", "closes": "21:00"}
  ],
  "acceptsReservations": "True"
}
</script>
</head><body></body></html>`

func TestStructuredBlockParserRestaurant(t *testing.T) {
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, restaurantJSONLD))
	require.Len(t, businesses, 1)

	b := businesses[0]
	assert.Equal(t, "Taste of Texas", b.Name)
	assert.Equal(t, "(713) 932-6901", b.Phone)
	assert.Equal(t, "$$$", b.PriceRange)
	assert.Equal(t, []string{"Steakhouse", "American"}, b.Cuisine)

	require.NotNil(t, b.AddressParts)
	assert.Equal(t, "10505 Katy Fwy", b.AddressParts.Street)
	assert.Equal(t, "Houston", b.AddressParts.City)
	assert.Equal(t, "10505 Katy Fwy, Houston, TX, 77024", b.Address)

	require.NotNil(t, b.Rating)
	assert.InDelta(t, 4.7, *b.Rating, 1e-9)
	require.NotNil(t, b.ReviewCount)
	assert.Equal(t, 5123, *b.ReviewCount)

	require.NotNil(t, b.Coordinates)
	assert.InDelta(t, 29.782, b.Coordinates.Latitude, 1e-9)

	require.Len(t, b.Hours, 1)
	assert.Equal(t, "Monday", b.Hours[0].Day)

	assert.Equal(t, "True", b.RawTags["acceptsReservations"])
}

func TestStructuredBlockParserIdempotent(t *testing.T) {
	p := NewStructuredBlockParser(discardLogger())
	doc := docFromHTML(t, restaurantJSONLD)
	first := p.Parse(doc)
	second := p.Parse(doc)
	assert.Equal(t, first, second)
}

func TestStructuredBlockParserRejectsOutOfRangeRating(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type": "Restaurant", "name": "Broken Stars",
	 "aggregateRating": {"ratingValue": 9.3, "reviewCount": 12}}
	</script>`
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, html))
	require.Len(t, businesses, 1)
	assert.Nil(t, businesses[0].Rating, "out-of-range rating must be absent, not clamped")
	require.NotNil(t, businesses[0].ReviewCount)
	assert.Equal(t, 12, *businesses[0].ReviewCount)
}

func TestStructuredBlockParserItemList(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@type": "ItemList", "itemListElement": [
	  {"@type": "ListItem", "position": 1, "item": {"@type": "Restaurant", "name": "First Place"}},
	  {"@type": "ListItem", "position": 2, "item": {"@type": "Restaurant", "name": "Second Place"}},
	  {"@type": "ListItem", "position": 3, "item": {"@type": "Article", "name": "Not a restaurant"}}
	]}
	</script>`
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, html))
	require.Len(t, businesses, 2)
	assert.Equal(t, "First Place", businesses[0].Name)
	assert.Equal(t, "Second Place", businesses[1].Name)
}

func TestStructuredBlockParserSkipsMalformedAndNonBusiness(t *testing.T) {
	html := `
	<script type="application/ld+json">{not json at all</script>
	<script type="application/ld+json">{"@type": "WebSite", "name": "Some Site"}</script>
	<script type="application/ld+json">{"@type": "Restaurant", "name": "Survivor"}</script>
	<script type="application/ld+json">{"@type": "Restaurant"}</script>`
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, html))
	require.Len(t, businesses, 1)
	assert.Equal(t, "Survivor", businesses[0].Name)
}

func TestStructuredBlockParserMicrodata(t *testing.T) {
	html := `<div itemscope itemtype="https://schema.org/Restaurant">
	  <h1 itemprop="name">Mala Sichuan Bistro</h1>
	  <span itemprop="telephone">713-995-1889</span>
	  <span itemprop="streetAddress">9348 Bellaire Blvd</span>
	  <span itemprop="addressLocality">Houston</span>
	  <meta itemprop="ratingValue" content="4.5">
	  <meta itemprop="reviewCount" content="2100">
	  <a itemprop="url" href="https://malasichuan.com">site</a>
	</div>`
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, html))
	require.Len(t, businesses, 1)

	b := businesses[0]
	assert.Equal(t, "Mala Sichuan Bistro", b.Name)
	assert.Equal(t, "(713) 995-1889", b.Phone)
	assert.Equal(t, "https://malasichuan.com", b.URL)
	require.NotNil(t, b.AddressParts)
	assert.Equal(t, "Houston", b.AddressParts.City)
	require.NotNil(t, b.Rating)
	assert.InDelta(t, 4.5, *b.Rating, 1e-9)
}

func TestStructuredBlockParserGraphContainer(t *testing.T) {
	html := `<script type="application/ld+json">
	{"@context": "https://schema.org", "@graph": [
	  {"@type": "WebPage", "name": "About"},
	  {"@type": "LocalBusiness", "name": "Corner Cafe", "telephone": "7135550101"}
	]}
	</script>`
	p := NewStructuredBlockParser(discardLogger())
	businesses := p.Parse(docFromHTML(t, html))
	require.Len(t, businesses, 1)
	assert.Equal(t, "Corner Cafe", businesses[0].Name)
	assert.Equal(t, "(713) 555-0101", businesses[0].Phone)
}
