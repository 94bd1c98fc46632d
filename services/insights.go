package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/omerfdk/restaurant-scraper/models"
)

type Insights struct {
	TotalBusinesses        int
	AverageRating          float64
	MinRating              float64
	MaxRating              float64
	TopRated               []models.Business
	BusinessesBySource     map[models.Source]int
	BusinessesByPriceRange map[string]int
	WithPhone              int
	WithAddress            int
}

type InsightGenerator struct{}

func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{}
}

func (ig *InsightGenerator) Generate(businesses []models.Business) Insights {
	insights := Insights{
		TotalBusinesses:        len(businesses),
		BusinessesBySource:     make(map[models.Source]int),
		BusinessesByPriceRange: make(map[string]int),
		TopRated:               make([]models.Business, 0),
	}

	if len(businesses) == 0 {
		return insights
	}

	var totalRating float64
	var ratedCount int

	for i := range businesses {
		b := &businesses[i]

		if b.Rating != nil {
			r := *b.Rating
			totalRating += r
			ratedCount++
			if insights.MinRating == 0 || r < insights.MinRating {
				insights.MinRating = r
			}
			if r > insights.MaxRating {
				insights.MaxRating = r
			}
		}

		insights.BusinessesBySource[b.Source]++
		if b.PriceRange != "" {
			insights.BusinessesByPriceRange[b.PriceRange]++
		}
		if b.Phone != "" {
			insights.WithPhone++
		}
		if b.Address != "" {
			insights.WithAddress++
		}
	}

	if ratedCount > 0 {
		insights.AverageRating = totalRating / float64(ratedCount)
	}

	insights.TopRated = ig.getTopRated(businesses, 5)

	return insights
}

func (ig *InsightGenerator) getTopRated(businesses []models.Business, count int) []models.Business {
	rated := make([]models.Business, 0)
	for _, b := range businesses {
		if b.Rating != nil {
			rated = append(rated, b)
		}
	}

	// Ties break toward the larger review count.
	sort.SliceStable(rated, func(i, j int) bool {
		ri, rj := *rated[i].Rating, *rated[j].Rating
		if ri != rj {
			return ri > rj
		}
		ci, cj := 0, 0
		if rated[i].ReviewCount != nil {
			ci = *rated[i].ReviewCount
		}
		if rated[j].ReviewCount != nil {
			cj = *rated[j].ReviewCount
		}
		return ci > cj
	})

	if len(rated) > count {
		return rated[:count]
	}
	return rated
}

func (ig *InsightGenerator) PrintReport(insights Insights) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("BUSINESS EXTRACTION INSIGHTS")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\nTotal Businesses Extracted: %d\n", insights.TotalBusinesses)

	fmt.Printf("\nAverage Rating: %.2f\n", insights.AverageRating)
	fmt.Printf("Minimum Rating: %.2f\n", insights.MinRating)
	fmt.Printf("Maximum Rating: %.2f\n", insights.MaxRating)

	fmt.Printf("\nWith Phone: %d\n", insights.WithPhone)
	fmt.Printf("With Address: %d\n", insights.WithAddress)

	fmt.Println("\nBusinesses per Source:")
	for source, count := range insights.BusinessesBySource {
		fmt.Printf("  %s: %d\n", source, count)
	}

	if len(insights.BusinessesByPriceRange) > 0 {
		fmt.Println("\nBusinesses per Price Range:")
		for band, count := range insights.BusinessesByPriceRange {
			fmt.Printf("  %s: %d\n", band, count)
		}
	}

	if len(insights.TopRated) > 0 {
		fmt.Println("\nTop 5 Highest Rated:")
		for i, b := range insights.TopRated {
			fmt.Printf("  %d. %s (%.1f)\n", i+1, b.Name, *b.Rating)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}
