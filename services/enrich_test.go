package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omerfdk/restaurant-scraper/models"
)

type stubFetcher struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*models.PageSnapshot, error) {
	f.calls.Add(1)
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: not found", url)
	}
	return &models.PageSnapshot{URL: url, HTML: html}, nil
}

func TestEnrichAllMergesIndividualPages(t *testing.T) {
	detailHTML := `<script type="application/ld+json">
	{"@type": "Restaurant", "name": "Taste of Texas",
	 "telephone": "7139326901",
	 "aggregateRating": {"ratingValue": 4.7, "reviewCount": 5123}}
	</script>`

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/taste": detailHTML,
	}}
	pipeline := NewPipeline(discardLogger())
	enricher := NewEnricher(pipeline, fetcher, 2, discardLogger())

	originals := []models.Business{
		{Name: "Taste of Texas", URL: "https://example.com/taste", Source: models.SourceTextPattern},
		{Name: "No Link Cafe", Source: models.SourceTextPattern},
	}
	out := enricher.EnrichAll(context.Background(), originals)
	require.Len(t, out, 2)

	taste := out[0]
	assert.Equal(t, "(713) 932-6901", taste.Phone)
	require.NotNil(t, taste.Rating)
	assert.InDelta(t, 4.7, *taste.Rating, 1e-9)
	assert.Equal(t, "https://example.com/taste", taste.URL, "original fields survive")

	assert.Equal(t, "No Link Cafe", out[1].Name)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestEnrichAllFetchFailureLeavesOriginal(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	enricher := NewEnricher(NewPipeline(discardLogger()), fetcher, 2, discardLogger())

	originals := []models.Business{
		{Name: "Ghost Kitchen", URL: "https://example.com/gone", Phone: "(713) 555-0100"},
	}
	out := enricher.EnrichAll(context.Background(), originals)
	require.Len(t, out, 1)
	assert.Equal(t, "(713) 555-0100", out[0].Phone)
}

func TestEnrichAllNoTargets(t *testing.T) {
	fetcher := &stubFetcher{}
	enricher := NewEnricher(NewPipeline(discardLogger()), fetcher, 2, discardLogger())
	originals := []models.Business{{Name: "Local Only"}}
	out := enricher.EnrichAll(context.Background(), originals)
	assert.Equal(t, originals, out)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}
