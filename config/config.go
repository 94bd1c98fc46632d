package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	// Comma-separated URLs to process when none are given on the
	// command line.
	TargetURLs []string `env:"TARGET_URLS" env-separator:","`

	UseBrowser    bool `env:"USE_BROWSER" env-default:"false"`
	Headless      bool `env:"HEADLESS" env-default:"true"`
	FetchTimeout  int  `env:"FETCH_TIMEOUT_SECONDS" env-default:"30"`
	PageTimeout   int  `env:"PAGE_TIMEOUT_SECONDS" env-default:"60"`
	SettleDelay   int  `env:"SETTLE_DELAY_SECONDS" env-default:"5"`
	MaxConcurrent int  `env:"MAX_CONCURRENT" env-default:"3"`

	// EnrichPages controls the second pass that visits each extracted
	// record's own page and merges the result in.
	EnrichPages bool `env:"ENRICH_PAGES" env-default:"true"`

	// Walker precision knob: indicators required beside a name before
	// an unknown JSON object counts as a business.
	WalkerMinIndicators int `env:"WALKER_MIN_INDICATORS" env-default:"1"`

	CSVPath  string `env:"CSV_PATH" env-default:"businesses.csv"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	LogJSON  bool   `env:"LOG_JSON" env-default:"false"`

	SaveToDB bool `env:"SAVE_TO_DB" env-default:"false"`
	DBConfig DatabaseConfig
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME" env-default:"restaurant_scraper"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}
