package services

import (
	"strings"

	"github.com/omerfdk/restaurant-scraper/models"
)

type Filter struct{}

func NewFilter() *Filter {
	return &Filter{}
}

// Clean trims stray whitespace off every string field and drops
// records that lost their name to trimming. Dedup is the reconciler's
// job; this pass only sanitizes.
func (f *Filter) Clean(businesses []models.Business) []models.Business {
	cleaned := make([]models.Business, 0, len(businesses))
	for _, b := range businesses {
		b = f.cleanBusiness(b)
		if !b.HasIdentity() {
			continue
		}
		cleaned = append(cleaned, b)
	}
	return cleaned
}

func (f *Filter) cleanBusiness(b models.Business) models.Business {
	b.Name = strings.TrimSpace(b.Name)
	b.Phone = strings.TrimSpace(b.Phone)
	b.Email = strings.TrimSpace(b.Email)
	b.Address = strings.TrimSpace(b.Address)
	b.Neighborhood = strings.TrimSpace(b.Neighborhood)
	b.PriceRange = strings.TrimSpace(b.PriceRange)
	b.Description = strings.TrimSpace(b.Description)
	return b
}

// FilterByRating returns businesses rated at or above the minimum.
// Unrated records are excluded; absence is not zero.
func (f *Filter) FilterByRating(businesses []models.Business, minRating float64) []models.Business {
	filtered := make([]models.Business, 0)
	for _, b := range businesses {
		if b.Rating != nil && *b.Rating >= minRating {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// FilterByPriceRange returns businesses whose price band is at most
// maxBand ($ count).
func (f *Filter) FilterByPriceRange(businesses []models.Business, maxBand int) []models.Business {
	filtered := make([]models.Business, 0)
	for _, b := range businesses {
		if b.PriceRange == "" {
			continue
		}
		if n := strings.Count(b.PriceRange, "$"); n > 0 && n <= maxBand {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// FilterByNeighborhood returns businesses in the given neighborhood,
// compared case-insensitively.
func (f *Filter) FilterByNeighborhood(businesses []models.Business, neighborhood string) []models.Business {
	filtered := make([]models.Business, 0)
	want := strings.ToLower(strings.TrimSpace(neighborhood))
	for _, b := range businesses {
		if strings.ToLower(strings.TrimSpace(b.Neighborhood)) == want {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
