package services

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerfdk/restaurant-scraper/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func ratingPtr(v float64) *float64 { return &v }
func countPtr(v int) *int          { return &v }

func TestReconcileMergesSameEntity(t *testing.T) {
	withAddress := models.Business{
		Name:    "Joe's Grill",
		Address: "100 Main St, Houston, TX",
		Source:  models.SourceStructuredBlock,
	}
	withRating := models.Business{
		Name:   "Joe's Grill",
		Rating: ratingPtr(4.5),
		Source: models.SourceStructuredBlock,
	}
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{withAddress, withRating})
	require.Len(t, out, 1, "same name merges into a single record")
	assert.Equal(t, "100 Main St, Houston, TX", out[0].Address)
	require.NotNil(t, out[0].Rating)
	assert.InDelta(t, 4.5, *out[0].Rating, 1e-9)
}

func TestReconcileCommutative(t *testing.T) {
	a := models.Business{Name: "Joe's Grill", Phone: "(713) 555-0100", Source: models.SourceSiteSpecific}
	b := models.Business{Name: "joe's grill", Email: "joe@grill.com", Source: models.SourceSiteSpecific}
	r := NewBusinessReconciler(discardLogger())
	ab := r.Reconcile([]models.Business{a, b})
	ba := r.Reconcile([]models.Business{b, a})
	require.Len(t, ab, 1)
	require.Len(t, ba, 1)
	assert.Equal(t, ab[0].Phone, ba[0].Phone)
	assert.Equal(t, ab[0].Email, ba[0].Email)
}

func TestReconcileEmptyNeverBeatsPresent(t *testing.T) {
	full := models.Business{Name: "Xochi", Phone: "(713) 400-2680", Source: models.SourceStructuredBlock}
	empty := models.Business{Name: "Xochi", Phone: "", Source: models.SourceStructuredBlock}
	r := NewBusinessReconciler(discardLogger())

	out := r.Reconcile([]models.Business{empty, full})
	require.Len(t, out, 1)
	assert.Equal(t, "(713) 400-2680", out[0].Phone)

	out = r.Reconcile([]models.Business{full, empty})
	require.Len(t, out, 1)
	assert.Equal(t, "(713) 400-2680", out[0].Phone)
}

func TestReconcileTrustOrder(t *testing.T) {
	// The structured block wins the phone even though the text-pattern
	// record appears first in the input.
	textual := models.Business{Name: "Uchi", Phone: "(713) 000-0000", Source: models.SourceTextPattern}
	structured := models.Business{Name: "Uchi", Phone: "(713) 522-4808", Source: models.SourceStructuredBlock}
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{textual, structured})
	require.Len(t, out, 1)
	assert.Equal(t, "(713) 522-4808", out[0].Phone)
	assert.Equal(t, models.SourceStructuredBlock, out[0].Source)
}

func TestReconcileDropsNameless(t *testing.T) {
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{
		{Name: "", Phone: "(713) 555-0100"},
		{Name: "   "},
		{Name: "Valid Spot"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "Valid Spot", out[0].Name)
}

func TestReconcileListUnionCapped(t *testing.T) {
	a := models.Business{
		Name:       "Cafe",
		Categories: []string{"One", "Two", "Three"},
		Source:     models.SourceSiteSpecific,
	}
	b := models.Business{
		Name:       "Cafe",
		Categories: []string{"Two", "Four", "Five", "Six", "Seven"},
		Source:     models.SourceSiteSpecific,
	}
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"One", "Two", "Three", "Four", "Five"}, out[0].Categories,
		"union dedupes and caps at five")
}

func TestReconcileAddressPartsTravelTogether(t *testing.T) {
	parts := &models.AddressParts{Street: "1777 Walker St", City: "Houston"}
	withParts := models.Business{
		Name: "Xochi", Address: "1777 Walker St, Houston",
		AddressParts: parts, Source: models.SourceSiteSpecific,
	}
	stringOnly := models.Business{
		Name: "Xochi", Address: "somewhere else entirely",
		Source: models.SourceNestedWalk,
	}
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{stringOnly, withParts})
	require.Len(t, out, 1)
	// Higher-trust record supplies both the string and the parts.
	assert.Equal(t, "1777 Walker St, Houston", out[0].Address)
	require.NotNil(t, out[0].AddressParts)
	assert.Equal(t, "Houston", out[0].AddressParts.City)
}

func TestReconcileDoesNotAliasInputs(t *testing.T) {
	a := models.Business{Name: "Cafe", Categories: []string{"One"}, Source: models.SourceSiteSpecific}
	r := NewBusinessReconciler(discardLogger())
	out := r.Reconcile([]models.Business{a})
	out[0].Categories[0] = "mutated"
	assert.Equal(t, "One", a.Categories[0])
}

func TestEnrichMergesByName(t *testing.T) {
	originals := []models.Business{
		{Name: "Taste of Texas", URL: "https://example.com/taste", Source: models.SourceTextPattern},
		{Name: "Steak 48", Source: models.SourceTextPattern},
	}
	enrichments := []models.Business{
		{Name: "taste of texas", Phone: "(713) 932-6901", Rating: ratingPtr(4.7),
			ReviewCount: countPtr(5123), Source: models.SourceStructuredBlock},
		{Name: "Unrelated Place", Phone: "(713) 111-1111", Source: models.SourceStructuredBlock},
	}
	r := NewBusinessReconciler(discardLogger())
	out := r.Enrich(originals, enrichments)
	require.Len(t, out, 2, "enrichment merges in, never appends")

	taste := out[0]
	assert.Equal(t, "Taste of Texas", taste.Name)
	assert.Equal(t, "https://example.com/taste", taste.URL)
	assert.Equal(t, "(713) 932-6901", taste.Phone)
	require.NotNil(t, taste.Rating)
	assert.InDelta(t, 4.7, *taste.Rating, 1e-9)

	assert.Empty(t, out[1].Phone)
}
