package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// BrowserFetcher renders pages in a headless browser. It is only used as a
// fallback for pages that need JavaScript to show their contact details.
type BrowserFetcher struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
	timeout  time.Duration
}

// NewBrowserFetcher connects to a browser; controlURL may be empty to let
// rod launch or find one.
func NewBrowserFetcher(controlURL string, maxPages int, timeout time.Duration) (*BrowserFetcher, error) {
	browser := rod.New()
	if controlURL != "" {
		browser = browser.ControlURL(controlURL)
	}
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}
	if maxPages < 1 {
		maxPages = 1
	}
	return &BrowserFetcher{
		browser:  browser,
		pagePool: rod.NewPagePool(maxPages),
		timeout:  timeout,
	}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	page, err := f.pagePool.Get(func() (*rod.Page, error) {
		return f.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer f.pagePool.Put(page)

	p := page.Context(ctx)
	if f.timeout > 0 {
		p = p.Timeout(f.timeout)
	}
	if err := p.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to load %s: %w", pageURL, err)
	}
	return p.HTML()
}

func (f *BrowserFetcher) Close() error {
	f.pagePool.Cleanup(func(p *rod.Page) {
		if err := p.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing browser page")
		}
	})
	return f.browser.Close()
}
