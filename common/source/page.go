package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/work"
	gq "github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Page is a fetched search hit reduced to text.
type Page struct {
	URL     string
	Title   string
	Text    string
	Mailtos []string
}

// PageText turns an HTML document into markdown-ish text for email
// extraction and returns the addresses of its mailto links separately.
func PageText(html string) (title, text string, mailtos []string) {
	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", html, nil
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(`a[href^="mailto:"], a[href^="MAILTO:"]`).Each(func(_ int, s *gq.Selection) {
		href, _ := s.Attr("href")
		addr := href[len("mailto:"):]
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if decoded, err := url.QueryUnescape(addr); err == nil {
			addr = decoded
		}
		if addr = strings.TrimSpace(addr); addr != "" {
			mailtos = append(mailtos, addr)
		}
	})

	doc.Find("script, style, noscript, svg, iframe").Remove()

	converter := md.NewConverter("", true, nil)
	text = converter.Convert(doc.Selection)
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return title, text, lo.Uniq(mailtos)
}

// HTTPFetcher fetches pages with plain GET requests through a BaseAdapter,
// so page loads share the adapter's rate limit and user agent.
type HTTPFetcher struct {
	base *BaseAdapter
}

func NewHTTPFetcher(base *BaseAdapter) *HTTPFetcher {
	return &HTTPFetcher{base: base}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := f.base.limiter.Wait(ctx); err != nil {
		return "", err
	}
	body, err := f.base.Do(ctx, "GET", pageURL, nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Harvester loads result pages in parallel on a small worker pool and
// falls back to a headless browser for pages that come back empty.
type Harvester struct {
	fetcher  PageFetcher
	fallback PageFetcher
	pool     work.PoolConfig
	maxPages int
}

func NewHarvester(fetcher, fallback PageFetcher, workers, maxPages int, timeout time.Duration) *Harvester {
	cfg := work.DefaultPoolConfig()
	if workers > 0 {
		cfg.NumWorkers = workers
	}
	if timeout > 0 {
		cfg.TaskTimeout = timeout
	}
	return &Harvester{fetcher: fetcher, fallback: fallback, pool: cfg, maxPages: maxPages}
}

// Harvest fetches up to maxPages of urls, skipping low-value hosts. Pages
// that fail to load are left out.
func (h *Harvester) Harvest(ctx context.Context, urls []string) []Page {
	urls = lo.Uniq(lo.Filter(urls, func(u string, _ int) bool {
		return u != "" && !IsLowValueURL(u)
	}))
	if h.maxPages > 0 && len(urls) > h.maxPages {
		urls = urls[:h.maxPages]
	}

	results := work.Map(ctx, h.pool, "page-harvest", urls, h.load)

	pages := make([]Page, 0, len(results))
	for i, res := range results {
		if res.Error != nil {
			log.Debug().Err(res.Error).Str("url", urls[i]).Msg("Skipping page")
			continue
		}
		pages = append(pages, res.Result)
	}
	return pages
}

func (h *Harvester) load(ctx context.Context, pageURL string) (Page, error) {
	html, err := h.fetcher.Fetch(ctx, pageURL)
	if err != nil && h.fallback == nil {
		return Page{}, err
	}

	title, text, mailtos := PageText(html)
	if (err != nil || strings.TrimSpace(text) == "") && h.fallback != nil {
		rendered, ferr := h.fallback.Fetch(ctx, pageURL)
		if ferr != nil {
			if err != nil {
				return Page{}, err
			}
			return Page{}, ferr
		}
		title, text, mailtos = PageText(rendered)
	}

	return Page{URL: pageURL, Title: title, Text: text, Mailtos: mailtos}, nil
}
