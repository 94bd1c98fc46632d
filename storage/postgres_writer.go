package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/omerfdk/restaurant-scraper/models"
)

type PostgresWriter struct {
	db *sql.DB
}

func NewPostgresWriter(host string, port int, user, password, dbname string) (*PostgresWriter, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresWriter{db: db}, nil
}

func (w *PostgresWriter) Close() error {
	return w.db.Close()
}

func (w *PostgresWriter) CreateTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS businesses (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		name_key TEXT UNIQUE NOT NULL,
		rating NUMERIC(3, 2),
		review_count INTEGER,
		price_range VARCHAR(16),
		phone VARCHAR(32),
		email VARCHAR(255),
		address TEXT,
		neighborhood VARCHAR(255),
		cuisine TEXT,
		categories TEXT,
		url TEXT,
		website TEXT,
		menu_url TEXT,
		source VARCHAR(32),
		raw_tags JSONB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_rating ON businesses(rating);
	CREATE INDEX IF NOT EXISTS idx_businesses_neighborhood ON businesses(neighborhood);
	CREATE INDEX IF NOT EXISTS idx_businesses_price_range ON businesses(price_range);
	CREATE INDEX IF NOT EXISTS idx_businesses_source ON businesses(source);
	`

	_, err := w.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// InsertBusinesses upserts by normalized name, so a re-run of the same
// scope refreshes records instead of duplicating them.
func (w *PostgresWriter) InsertBusinesses(businesses []models.Business) error {
	if len(businesses) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO businesses (
			name, name_key, rating, review_count, price_range, phone, email,
			address, neighborhood, cuisine, categories, url, website, menu_url,
			source, raw_tags
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (name_key) DO UPDATE SET
			rating = COALESCE(EXCLUDED.rating, businesses.rating),
			review_count = COALESCE(EXCLUDED.review_count, businesses.review_count),
			price_range = COALESCE(NULLIF(EXCLUDED.price_range, ''), businesses.price_range),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), businesses.phone),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), businesses.email),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), businesses.address),
			neighborhood = COALESCE(NULLIF(EXCLUDED.neighborhood, ''), businesses.neighborhood),
			cuisine = COALESCE(NULLIF(EXCLUDED.cuisine, ''), businesses.cuisine),
			categories = COALESCE(NULLIF(EXCLUDED.categories, ''), businesses.categories),
			url = COALESCE(NULLIF(EXCLUDED.url, ''), businesses.url),
			website = COALESCE(NULLIF(EXCLUDED.website, ''), businesses.website),
			menu_url = COALESCE(NULLIF(EXCLUDED.menu_url, ''), businesses.menu_url),
			raw_tags = COALESCE(EXCLUDED.raw_tags, businesses.raw_tags),
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range businesses {
		var rawTags []byte
		if len(b.RawTags) > 0 {
			rawTags, err = json.Marshal(b.RawTags)
			if err != nil {
				return fmt.Errorf("failed to encode raw tags for %q: %w", b.Name, err)
			}
		}

		_, err := stmt.Exec(
			b.Name,
			b.IdentityKey(),
			b.Rating,
			b.ReviewCount,
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
			nullableBytes(rawTags),
		)
		if err != nil {
			return fmt.Errorf("failed to insert business %q: %w", b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetAllBusinesses retrieves every stored record, newest first.
func (w *PostgresWriter) GetAllBusinesses() ([]models.Business, error) {
	query := `
		SELECT name, rating, review_count, price_range, phone, email,
		       address, neighborhood, cuisine, categories, url, website,
		       menu_url, source
		FROM businesses
		ORDER BY created_at DESC
	`

	rows, err := w.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	businesses := make([]models.Business, 0)

	for rows.Next() {
		var b models.Business
		var rating sql.NullFloat64
		var reviewCount sql.NullInt64
		var cuisine, categories, source string

		err := rows.Scan(
			&b.Name,
			&rating,
			&reviewCount,
			&b.PriceRange,
			&b.Phone,
			&b.Email,
			&b.Address,
			&b.Neighborhood,
			&cuisine,
			&categories,
			&b.URL,
			&b.Website,
			&b.MenuURL,
			&source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if rating.Valid {
			r := rating.Float64
			b.Rating = &r
		}
		if reviewCount.Valid {
			n := int(reviewCount.Int64)
			b.ReviewCount = &n
		}
		b.Cuisine = splitJoined(cuisine)
		b.Categories = splitJoined(categories)
		b.Source = models.Source(source)

		businesses = append(businesses, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return businesses, nil
}

func splitJoined(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "; ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
