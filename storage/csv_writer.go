package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/omerfdk/restaurant-scraper/models"
)

type CSVWriter struct {
	filename string
}

func NewCSVWriter(filename string) *CSVWriter {
	return &CSVWriter{filename: filename}
}

// csvHeader fixes the column order; readers downstream depend on it.
var csvHeader = []string{
	"Name", "Rating", "ReviewCount", "PriceRange", "Phone", "Email",
	"Address", "Neighborhood", "Cuisine", "Categories", "URL", "Website",
	"MenuURL", "Source",
}

func (w *CSVWriter) WriteBusinesses(businesses []models.Business) error {
	file, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, b := range businesses {
		record := []string{
			b.Name,
			formatRating(b.Rating),
			formatCount(b.ReviewCount),
			b.PriceRange,
			b.Phone,
			b.Email,
			b.Address,
			b.Neighborhood,
			strings.Join(b.Cuisine, "; "),
			strings.Join(b.Categories, "; "),
			b.URL,
			b.Website,
			b.MenuURL,
			string(b.Source),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func formatRating(r *float64) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *r)
}

func formatCount(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}
