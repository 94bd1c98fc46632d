package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/omerfdk/restaurant-scraper/models"
)

// Fetcher is the collaborator that captures a page. Both the static
// HTTP fetcher and the browser fetcher satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.PageSnapshot, error)
}

// Enricher visits the individual page behind each listing-page record
// and folds what it finds back into the original, keyed by normalized
// name. Pages are fetched concurrently under a semaphore.
type Enricher struct {
	pipeline      *Pipeline
	reconciler    *BusinessReconciler
	fetcher       Fetcher
	maxConcurrent int
	log           *slog.Logger
}

func NewEnricher(pipeline *Pipeline, fetcher Fetcher, maxConcurrent int, log *slog.Logger) *Enricher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Enricher{
		pipeline:      pipeline,
		reconciler:    NewBusinessReconciler(log),
		fetcher:       fetcher,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// EnrichAll visits every record that carries a URL and merges the
// per-page extraction back in. A page that fails to fetch or yields
// nothing leaves its original untouched; enrichment never subtracts.
func (e *Enricher) EnrichAll(ctx context.Context, originals []models.Business) []models.Business {
	var targets []string
	seen := make(map[string]bool)
	for _, b := range originals {
		if b.URL == "" || seen[b.URL] {
			continue
		}
		seen[b.URL] = true
		targets = append(targets, b.URL)
	}
	if len(targets) == 0 {
		return originals
	}

	resultsChan := make(chan []models.Business, len(targets))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.maxConcurrent)

	for _, target := range targets {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- nil
				return
			}
			snap, err := e.fetcher.Fetch(ctx, url)
			if err != nil {
				e.log.Warn("enrichment fetch failed", "url", url, "error", err)
				resultsChan <- nil
				return
			}
			result, err := e.pipeline.Extract(snap)
			if err != nil {
				e.log.Warn("enrichment extraction failed", "url", url, "error", err)
				resultsChan <- nil
				return
			}
			resultsChan <- result.Businesses
		}(target)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var enrichments []models.Business
	for businesses := range resultsChan {
		enrichments = append(enrichments, businesses...)
	}

	e.log.Info("enrichment pass complete",
		"targets", len(targets), "records_found", len(enrichments))
	return e.reconciler.Enrich(originals, enrichments)
}
