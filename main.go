package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/omerfdk/restaurant-scraper/config"
	"github.com/omerfdk/restaurant-scraper/fetch"
	"github.com/omerfdk/restaurant-scraper/jobs"
	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/services"
	"github.com/omerfdk/restaurant-scraper/storage"
	"github.com/omerfdk/restaurant-scraper/utils"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := utils.NewLogger(cfg.LogLevel, cfg.LogJSON)

	urls := os.Args[1:]
	if len(urls) == 0 {
		urls = cfg.TargetURLs
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: restaurant-scraper <url> [url...]  (or set TARGET_URLS)")
		os.Exit(1)
	}

	var fetcher services.Fetcher
	if cfg.UseBrowser {
		browser := fetch.NewBrowserFetcher(
			cfg.Headless,
			time.Duration(cfg.SettleDelay)*time.Second,
			time.Duration(cfg.PageTimeout)*time.Second,
		)
		defer browser.Close()
		fetcher = browser
	} else {
		fetcher = fetch.NewStaticFetcher(time.Duration(cfg.FetchTimeout) * time.Second)
	}

	pipeline := services.NewPipeline(log)
	pipeline.SetWalkerMinIndicators(cfg.WalkerMinIndicators)
	service := services.NewExtractionService(cfg, pipeline, fetcher, log)

	store := jobs.NewStore()
	job := store.Create(urls)
	log.Info("job created", "job_id", job.ID, "urls", len(urls))

	if err := store.MarkRunning(job.ID); err != nil {
		log.Error("job transition failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	businesses, results, err := service.ExtractAll(ctx, urls)
	if err != nil {
		_ = store.MarkFailed(job.ID, err)
		log.Error("extraction failed", "job_id", job.ID, "error", err)
		os.Exit(1)
	}

	if cfg.EnrichPages {
		enricher := services.NewEnricher(pipeline, fetcher, cfg.MaxConcurrent, log)
		businesses = enricher.EnrichAll(ctx, businesses)
	}

	if err := store.MarkCompleted(job.ID, results); err != nil {
		log.Error("job transition failed", "error", err)
	}

	if len(businesses) == 0 {
		log.Warn("no businesses extracted from any page; inspect the raw page data in the results")
	}

	csvWriter := storage.NewCSVWriter(cfg.CSVPath)
	if err := csvWriter.WriteBusinesses(businesses); err != nil {
		log.Error("csv save failed", "path", cfg.CSVPath, "error", err)
		os.Exit(1)
	}
	log.Info("csv written", "path", cfg.CSVPath, "records", len(businesses))

	if cfg.SaveToDB {
		if err := saveToDatabase(cfg, businesses); err != nil {
			log.Error("database save failed", "error", err)
			os.Exit(1)
		}
		log.Info("database save complete", "records", len(businesses))
	}

	insightGen := services.NewInsightGenerator()
	insightGen.PrintReport(insightGen.Generate(businesses))
}

func saveToDatabase(cfg *config.Config, businesses []models.Business) error {
	writer, err := storage.NewPostgresWriter(
		cfg.DBConfig.Host,
		cfg.DBConfig.Port,
		cfg.DBConfig.User,
		cfg.DBConfig.Password,
		cfg.DBConfig.DBName,
	)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer writer.Close()

	if err := writer.CreateTable(); err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}
	if err := writer.InsertBusinesses(businesses); err != nil {
		return fmt.Errorf("insert businesses: %w", err)
	}
	return nil
}
