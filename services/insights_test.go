package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omerfdk/restaurant-scraper/models"
)

func TestInsightsGenerate(t *testing.T) {
	ig := NewInsightGenerator()

	insights := ig.Generate([]models.Business{
		{Name: "A", Rating: ratingPtr(4.0), PriceRange: "$$", Phone: "x", Source: models.SourceStructuredBlock},
		{Name: "B", Rating: ratingPtr(5.0), Address: "1 Main St", Source: models.SourceStructuredBlock},
		{Name: "C", Source: models.SourceTextPattern},
	})

	assert.Equal(t, 3, insights.TotalBusinesses)
	assert.InDelta(t, 4.5, insights.AverageRating, 0.001)
	assert.Equal(t, 4.0, insights.MinRating)
	assert.Equal(t, 5.0, insights.MaxRating)
	assert.Equal(t, 1, insights.WithPhone)
	assert.Equal(t, 1, insights.WithAddress)
	assert.Equal(t, 2, insights.BusinessesBySource[models.SourceStructuredBlock])
	assert.Equal(t, 1, insights.BusinessesByPriceRange["$$"])

	// Unrated records never make the leaderboard.
	assert.Len(t, insights.TopRated, 2)
	assert.Equal(t, "B", insights.TopRated[0].Name)
}

func TestInsightsTopRatedTiebreak(t *testing.T) {
	ig := NewInsightGenerator()

	insights := ig.Generate([]models.Business{
		{Name: "Few", Rating: ratingPtr(4.5), ReviewCount: countPtr(12)},
		{Name: "Many", Rating: ratingPtr(4.5), ReviewCount: countPtr(4900)},
	})

	assert.Equal(t, "Many", insights.TopRated[0].Name)
	assert.Equal(t, "Few", insights.TopRated[1].Name)
}

func TestInsightsEmpty(t *testing.T) {
	ig := NewInsightGenerator()
	insights := ig.Generate(nil)
	assert.Equal(t, 0, insights.TotalBusinesses)
	assert.Empty(t, insights.TopRated)
}
