package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/omerfdk/restaurant-scraper/models"
)

// BrowserFetcher captures pages with headless Chrome, for sites that
// render their listings client-side. Each Fetch runs in its own tab
// off the shared allocator.
type BrowserFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	settleDelay time.Duration
	pageTimeout time.Duration
}

// NewBrowserFetcher starts a browser allocator. settleDelay is how
// long to wait after navigation for client-side rendering to finish.
func NewBrowserFetcher(headless bool, settleDelay, pageTimeout time.Duration) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	if settleDelay <= 0 {
		settleDelay = 5 * time.Second
	}
	if pageTimeout <= 0 {
		pageTimeout = 60 * time.Second
	}
	return &BrowserFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		settleDelay: settleDelay,
		pageTimeout: pageTimeout,
	}
}

// Fetch navigates, waits for rendering to settle, and captures the
// rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*models.PageSnapshot, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, f.pageTimeout)
	defer cancelTimeout()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-done:
		}
	}()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser fetch %s: parse html: %w", url, err)
	}

	return &models.PageSnapshot{URL: url, HTML: html, DOM: doc}, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.cancelAlloc()
}
