package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omerfdk/restaurant-scraper/models"
)

func TestFilterCleanDropsNameless(t *testing.T) {
	f := NewFilter()
	out := f.Clean([]models.Business{
		{Name: "  Xochi  ", Phone: " (713) 555-1234 "},
		{Name: "   "},
		{Name: ""},
	})

	assert.Len(t, out, 1)
	assert.Equal(t, "Xochi", out[0].Name)
	assert.Equal(t, "(713) 555-1234", out[0].Phone)
}

func TestFilterByRatingExcludesUnrated(t *testing.T) {
	f := NewFilter()
	out := f.FilterByRating([]models.Business{
		{Name: "A", Rating: ratingPtr(4.5)},
		{Name: "B", Rating: ratingPtr(3.9)},
		{Name: "C"},
	}, 4.0)

	assert.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Name)
}

func TestFilterByPriceRange(t *testing.T) {
	f := NewFilter()
	out := f.FilterByPriceRange([]models.Business{
		{Name: "Cheap", PriceRange: "$"},
		{Name: "Mid", PriceRange: "$$"},
		{Name: "Fancy", PriceRange: "$$$$"},
		{Name: "Unpriced"},
	}, 2)

	assert.Len(t, out, 2)
	assert.Equal(t, "Cheap", out[0].Name)
	assert.Equal(t, "Mid", out[1].Name)
}

func TestFilterByNeighborhood(t *testing.T) {
	f := NewFilter()
	out := f.FilterByNeighborhood([]models.Business{
		{Name: "A", Neighborhood: "Montrose"},
		{Name: "B", Neighborhood: "montrose "},
		{Name: "C", Neighborhood: "Midtown"},
	}, "MONTROSE")

	assert.Len(t, out, 2)
}
