// Package sources holds what the search backends share. Every backend lives
// in its own package and registers itself with the source registry from its
// init function, so importing the package is enough to make it buildable by
// source.Build.
package sources

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/enrich"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/extractor"
)

// Confidence given to addresses by where they were found
const (
	SnippetConfidence = 80
	PageConfidence    = 90
)

// Discovery methods recorded in prospect metadata
const (
	MethodSnippet = "search_preview"
	MethodPage    = "website_crawling"
	MethodMailto  = "mailto_link"
)

// Hit is one organic search result
type Hit struct {
	Title   string
	URL     string
	Snippet string
}

// EmailQuery steers a keyword towards pages that publish addresses, unless
// the query already asks for them.
func EmailQuery(query string) string {
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)
	if strings.Contains(lower, "email") || strings.Contains(lower, "@") {
		return q
	}
	return q + " email contact"
}

// BaseConfig derives the adapter policies from the search configuration
func BaseConfig(cfg config.SearchConfig) source.BaseConfig {
	base := source.DefaultBaseConfig()
	if cfg.HTTPTimeout > 0 {
		base.Timeout = cfg.HTTPTimeout
	}
	if cfg.RequestsPerSecond > 0 {
		base.RequestsPerSecond = cfg.RequestsPerSecond
	}
	if cfg.CacheTTL > 0 {
		base.CacheTTL = cfg.CacheTTL
	}
	if cfg.UserAgent != "" {
		base.UserAgent = cfg.UserAgent
	}
	return base
}

// NewHarvester builds the page harvester of an adapter. Page loads go
// through the adapter's own client and limiter; the browser, when the
// deployment has one, is only used as a fallback.
func NewHarvester(base *source.BaseAdapter, cfg config.SearchConfig, deps source.Dependencies) *source.Harvester {
	var fallback source.PageFetcher
	if cfg.BrowserFallback {
		fallback = deps.Browser
	}
	return source.NewHarvester(
		source.NewHTTPFetcher(base),
		fallback,
		int(cfg.PageFetchWorkers),
		int(cfg.MaxPagesPerQuery),
		cfg.HTTPTimeout,
	)
}

type collector struct {
	seen      map[string]struct{}
	prospects []models.Prospect
	max       int
}

func (c *collector) full() bool {
	return c.max > 0 && len(c.prospects) >= c.max
}

func (c *collector) add(email string, confidence int, method, pageURL, pageTitle string) {
	email = models.NormalizeEmail(email)
	if c.full() || !extractor.IsValid(email) {
		return
	}
	if _, dup := c.seen[email]; dup {
		return
	}
	c.seen[email] = struct{}{}

	c.prospects = append(c.prospects, models.Prospect{
		Email:      email,
		Company:    companyFor(email, pageURL, pageTitle),
		Confidence: confidence,
		Metadata: models.Metadata{
			DiscoveryMethod: method,
			SourceURL:       pageURL,
			SourceTitle:     pageTitle,
		},
	})
}

// companyFor names the company after the page only when the address lives
// on the page's own domain; anything else is left to enrichment.
func companyFor(email, pageURL, pageTitle string) string {
	if pageURL == "" {
		return ""
	}
	if dedup.RegistrableDomain(models.EmailDomain(email)) != dedup.RegistrableDomain(pageURL) {
		return ""
	}
	return enrich.CompanyFromTitle(pageTitle, pageURL)
}

// Collect turns search hits into prospects: addresses in the result
// snippets first, then addresses on the result pages themselves when
// harvester is not nil and maxResults is not reached yet. Snippet and page
// text is also reported to the text sink of ctx.
func Collect(ctx context.Context, harvester *source.Harvester, hits []Hit, maxResults int) []models.Prospect {
	c := &collector{seen: make(map[string]struct{}), max: maxResults}

	urls := make([]string, 0, len(hits))
	for _, hit := range hits {
		text := hit.Title + " " + hit.Snippet
		source.ReportText(ctx, text)
		for _, email := range extractor.Extract(text) {
			c.add(email, SnippetConfidence, MethodSnippet, hit.URL, hit.Title)
		}
		urls = append(urls, hit.URL)
	}

	if harvester == nil || c.full() || ctx.Err() != nil {
		return c.prospects
	}

	titles := make(map[string]string, len(hits))
	for _, hit := range hits {
		titles[hit.URL] = hit.Title
	}

	for _, page := range harvester.Harvest(ctx, urls) {
		pageTitle := page.Title
		if strings.TrimSpace(pageTitle) == "" {
			pageTitle = titles[page.URL]
		}
		for _, email := range page.Mailtos {
			c.add(email, PageConfidence, MethodMailto, page.URL, pageTitle)
		}
		source.ReportText(ctx, page.Text)
		for _, email := range extractor.Extract(page.Text) {
			c.add(email, PageConfidence, MethodPage, page.URL, pageTitle)
		}
	}

	log.Debug().Int("hits", len(hits)).Int("prospects", len(c.prospects)).Msg("Collected prospects from search hits")
	return c.prospects
}

// PageScraper collects prospects from pages named directly by the caller
// instead of pages found through a search backend.
type PageScraper struct {
	harvester *source.Harvester
}

func NewPageScraper(cfg config.SearchConfig, deps source.Dependencies) *PageScraper {
	base := source.NewBaseAdapter("page-scraper", BaseConfig(cfg), deps.HTTPClient, nil)
	return &PageScraper{harvester: NewHarvester(base, cfg, deps)}
}

func (s *PageScraper) Scrape(ctx context.Context, urls []string, maxResults int) []models.Prospect {
	hits := make([]Hit, 0, len(urls))
	for _, u := range urls {
		hits = append(hits, Hit{URL: u})
	}
	prospects := Collect(ctx, s.harvester, hits, maxResults)
	if prospects == nil {
		prospects = []models.Prospect{}
	}
	return prospects
}
