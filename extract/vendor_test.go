package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerfdk/restaurant-scraper/models"
)

func TestExtractBalancedJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"flat object", `{"a":1},"next":2`, `{"a":1}`, true},
		{"nested object", `{"a":{"b":{"c":1}}} trailing`, `{"a":{"b":{"c":1}}}`, true},
		{"array", `[{"a":1},{"b":2}];`, `[{"a":1},{"b":2}]`, true},
		{"braces inside strings", `{"a":"}{","b":"\"}"} rest`, `{"a":"}{","b":"\"}"}`, true},
		{"leading whitespace", "  \n {\"a\":1}", `{"a":1}`, true},
		{"unterminated", `{"a":{"b":1}`, "", false},
		{"not json", `var x = 5;`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractBalancedJSON(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
				assert.True(t, json.Valid([]byte(got)))
			}
		})
	}
}

const hydrationHTML = `<html><body>
<script>
window.__UNRELATED__ = {"nothing": "here"};
</script>
<script>
{"props": {"searchPageProps": {"searchResults": [
  {"name": "Mala Sichuan Bistro",
   "rating": 4.5, "review_count": 2100,
   "display_phone": "(713) 995-1889",
   "price": "$$",
   "location": {"address1": "9348 Bellaire Blvd", "city": "Houston",
                "state": "TX", "zip_code": "77036",
                "display_address": ["9348 Bellaire Blvd", "Houston, TX 77036"]},
   "coordinates": {"latitude": 29.705, "longitude": -95.545},
   "categories": [{"title": "Szechuan"}, {"title": "Chinese"}],
   "transactions": ["delivery", "pickup"],
   "photos": ["https://img.example/1.jpg", "https://img.example/2.jpg"]},
  {"name": "", "rating": 4.0},
  {"name": "Himalaya", "rating": 4.8, "review_count": "1.2k"}
]}}, "footer": {}}
</script>
</body></html>`

func TestSiteSpecificPayloadParser(t *testing.T) {
	snap := &models.PageSnapshot{
		URL:  "https://www.yelp.com/search?find_desc=Restaurants",
		HTML: hydrationHTML,
		DOM:  docFromHTML(t, hydrationHTML),
	}
	p := NewSiteSpecificPayloadParser(discardLogger())
	businesses := p.Parse(snap)
	require.Len(t, businesses, 2, "nameless entries are dropped")

	b := businesses[0]
	assert.Equal(t, "Mala Sichuan Bistro", b.Name)
	assert.Equal(t, "(713) 995-1889", b.Phone)
	assert.Equal(t, "$$", b.PriceRange)
	assert.Equal(t, "9348 Bellaire Blvd, Houston, TX 77036", b.Address)
	require.NotNil(t, b.AddressParts)
	assert.Equal(t, "77036", b.AddressParts.PostalCode)
	require.NotNil(t, b.Rating)
	assert.InDelta(t, 4.5, *b.Rating, 1e-9)
	require.NotNil(t, b.ReviewCount)
	assert.Equal(t, 2100, *b.ReviewCount)
	require.NotNil(t, b.Coordinates)
	assert.InDelta(t, -95.545, b.Coordinates.Longitude, 1e-9)
	assert.Equal(t, []string{"Szechuan", "Chinese"}, b.Categories)
	assert.Len(t, b.Photos, 2)
	assert.Equal(t, []any{"delivery", "pickup"}, b.RawTags["transactions"])
	assert.Equal(t, models.SourceSiteSpecific, b.Source)

	second := businesses[1]
	assert.Equal(t, "Himalaya", second.Name)
	require.NotNil(t, second.ReviewCount)
	assert.Equal(t, 1200, *second.ReviewCount)
}

func TestSiteSpecificPayloadParserCapturedPayload(t *testing.T) {
	body := `{"businesses": [
	  {"name": "Crawfish Cafe", "rating": 4.2},
	  {"name": "Crawfish Cafe Annex", "rating": 6.7}
	]}`
	snap := &models.PageSnapshot{
		URL: "https://example.com",
		CapturedPayloads: []models.CapturedPayload{
			{OriginURL: "https://example.com/api/search", Body: json.RawMessage(body)},
			{OriginURL: "https://example.com/api/bad", Body: json.RawMessage(`{broken`)},
		},
	}
	p := NewSiteSpecificPayloadParser(discardLogger())
	businesses := p.Parse(snap)
	require.Len(t, businesses, 2)
	require.NotNil(t, businesses[0].Rating)
	assert.InDelta(t, 4.2, *businesses[0].Rating, 1e-9)
	assert.Nil(t, businesses[1].Rating, "rating above 5 is rejected")
}

func TestSiteSpecificPayloadParserNoPayloads(t *testing.T) {
	html := `<html><body><p>Just a page</p><script>console.log("hi")</script></body></html>`
	snap := &models.PageSnapshot{URL: "https://example.com", HTML: html, DOM: docFromHTML(t, html)}
	p := NewSiteSpecificPayloadParser(discardLogger())
	assert.Empty(t, p.Parse(snap))
}
