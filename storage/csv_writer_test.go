package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerfdk/restaurant-scraper/models"
)

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "businesses.csv")
	rating := 4.5
	count := 4900

	w := NewCSVWriter(path)
	err := w.WriteBusinesses([]models.Business{
		{
			Name:         "Taste of Texas",
			Rating:       &rating,
			ReviewCount:  &count,
			PriceRange:   "$$$",
			Neighborhood: "Memorial",
			Cuisine:      []string{"Steakhouse", "American"},
			Source:       models.SourceTextPattern,
		},
		{Name: "Bare Minimum"},
	})
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Taste of Texas", rows[1][0])
	assert.Equal(t, "4.5", rows[1][1])
	assert.Equal(t, "4900", rows[1][2])
	assert.Equal(t, "Steakhouse; American", rows[1][8])
	assert.Equal(t, "text_pattern", rows[1][13])

	assert.Equal(t, "Bare Minimum", rows[2][0])
	assert.Equal(t, "", rows[2][1], "absent rating stays empty, not zero")
}
