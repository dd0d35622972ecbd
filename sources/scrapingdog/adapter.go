package scrapingdog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"
)

// Name is the registry name of the adapter
const Name = "scrapingdog"

// placeholderKey is the value shipped in sample environment files
const placeholderKey = "your_scrapingdog_api_key"

// resultsPerQuery is the number of organic results requested per call
const resultsPerQuery = 10

type googleResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Adapter runs Google searches through the Scrapingdog API. Each call
// consumes API credits; a 402 is backed off like a 429.
type Adapter struct {
	*source.BaseAdapter
	endpoint  string
	apiKey    string
	harvester *source.Harvester
}

// Create builds the adapter; it fails without an API key
func Create(cfg config.SearchConfig, deps source.Dependencies) (source.Adapter, error) {
	key := strings.TrimSpace(cfg.ScrapingdogKey)
	if key == "" || key == placeholderKey {
		return nil, fmt.Errorf("scrapingdog: API key not configured: %w", common.ErrAdapterUnavailable)
	}
	if cfg.ScrapingdogURL == "" {
		return nil, fmt.Errorf("scrapingdog: endpoint not configured: %w", common.ErrAdapterUnavailable)
	}

	base := source.NewBaseAdapter(Name, sources.BaseConfig(cfg), deps.HTTPClient, deps.Cache)
	return &Adapter{
		BaseAdapter: base,
		endpoint:    cfg.ScrapingdogURL,
		apiKey:      key,
		harvester:   sources.NewHarvester(base, cfg, deps),
	}, nil
}

func (a *Adapter) Discover(ctx context.Context, query string, maxResults int) source.Result {
	return a.Run(ctx, query, maxResults, a.search)
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]models.Prospect, error) {
	params := url.Values{}
	params.Set("api_key", a.apiKey)
	params.Set("query", sources.EmailQuery(query))
	params.Set("results", strconv.Itoa(resultsPerQuery))
	params.Set("country", "us")

	var resp googleResponse
	if err := a.GetJSON(ctx, a.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	hits := make([]sources.Hit, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		hits = append(hits, sources.Hit{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return sources.Collect(ctx, a.harvester, hits, maxResults), nil
}
