package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/omerfdk/restaurant-scraper/config"
	"github.com/omerfdk/restaurant-scraper/models"
)

// ExtractionService runs the pipeline over a batch of URLs
// concurrently and flattens the per-page output into one cleaned,
// reconciled record list.
type ExtractionService struct {
	cfg      *config.Config
	pipeline *Pipeline
	fetcher  Fetcher
	log      *slog.Logger
}

func NewExtractionService(cfg *config.Config, pipeline *Pipeline, fetcher Fetcher, log *slog.Logger) *ExtractionService {
	return &ExtractionService{cfg: cfg, pipeline: pipeline, fetcher: fetcher, log: log}
}

// ExtractAll fetches and extracts every URL under a concurrency
// semaphore. A failed page is logged and skipped; the batch proceeds.
// The reconciler then merges records across pages, so the same
// business seen on two pages comes out once.
func (s *ExtractionService) ExtractAll(ctx context.Context, urls []string) ([]models.Business, []*models.ExtractionResult, error) {
	if len(urls) == 0 {
		return nil, nil, fmt.Errorf("extract all: no urls given")
	}

	type pageOutcome struct {
		index  int
		result *models.ExtractionResult
	}

	outcomes := make(chan pageOutcome, len(urls))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.cfg.MaxConcurrent)

	for i, url := range urls {
		wg.Add(1)
		go func(index int, target string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				return
			}

			s.log.Info("processing page", "url", target, "position", index+1, "total", len(urls))

			snap, err := s.fetcher.Fetch(ctx, target)
			if err != nil {
				s.log.Warn("page fetch failed", "url", target, "error", err)
				return
			}
			result, err := s.pipeline.Extract(snap)
			if err != nil {
				s.log.Warn("page extraction failed", "url", target, "error", err)
				return
			}
			outcomes <- pageOutcome{index: index, result: result}
		}(i, url)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]*models.ExtractionResult, len(urls))
	var all []models.Business
	for outcome := range outcomes {
		results[outcome.index] = outcome.result
		all = append(all, outcome.result.Businesses...)
	}

	filter := NewFilter()
	cleaned := filter.Clean(all)

	reconciler := NewBusinessReconciler(s.log)
	merged := reconciler.Reconcile(cleaned)

	s.log.Info("batch extraction complete",
		"pages", len(urls), "raw_records", len(all), "merged_records", len(merged))
	return merged, results, nil
}
