package duckduckgo

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gq "github.com/PuerkitoBio/goquery"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"
)

// Name is the registry name of the adapter
const Name = "duckduckgo"

// Adapter scrapes the HTML edition of DuckDuckGo, which needs no key
type Adapter struct {
	*source.BaseAdapter
	endpoint  string
	harvester *source.Harvester
}

// Create builds the adapter
func Create(cfg config.SearchConfig, deps source.Dependencies) (source.Adapter, error) {
	if cfg.DuckDuckGoURL == "" {
		return nil, fmt.Errorf("duckduckgo: endpoint not configured: %w", common.ErrAdapterUnavailable)
	}
	base := source.NewBaseAdapter(Name, sources.BaseConfig(cfg), deps.HTTPClient, deps.Cache)
	return &Adapter{
		BaseAdapter: base,
		endpoint:    cfg.DuckDuckGoURL,
		harvester:   sources.NewHarvester(base, cfg, deps),
	}, nil
}

func (a *Adapter) Discover(ctx context.Context, query string, maxResults int) source.Result {
	return a.Run(ctx, query, maxResults, a.search)
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]models.Prospect, error) {
	params := url.Values{}
	params.Set("q", sources.EmailQuery(query))

	body, err := a.Do(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}

	hits, err := ParseResults(body)
	if err != nil {
		return nil, err
	}
	return sources.Collect(ctx, a.harvester, hits, maxResults), nil
}

// ParseResults reads the organic results of a result page, skipping ads
func ParseResults(body []byte) ([]sources.Hit, error) {
	doc, err := gq.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo returned unreadable HTML: %v: %w", err, common.ErrMalformedResponse)
	}

	var hits []sources.Hit
	doc.Find(".result").Each(func(_ int, s *gq.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		target := resolveLink(href)
		if target == "" {
			return
		}
		hits = append(hits, sources.Hit{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
	})
	return hits, nil
}

// resolveLink unwraps the /l/?uddg= redirect DuckDuckGo puts on result links
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
