// Package fetch captures pages for the extraction pipeline: a plain
// HTTP fetcher for static pages, a headless-browser fetcher for
// JavaScript-rendered ones, and email deliverability verification.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/models"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 5 << 20

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// StaticFetcher captures pages over plain HTTP. Suitable for
// server-rendered pages; hydration-heavy sites need the browser
// fetcher.
type StaticFetcher struct {
	client *http.Client
}

func NewStaticFetcher(timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &StaticFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the page and returns a snapshot with the DOM already
// parsed. The body read is size-limited; a truncated page still parses.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (*models.PageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: build request: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}

	html := string(body)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: parse html: %w", url, err)
	}

	return &models.PageSnapshot{URL: url, HTML: html, DOM: doc}, nil
}
