package searxng

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"
)

// Name is the registry name of the adapter
const Name = "searxng"

// maxHits caps the organic results read from one answer
const maxHits = 20

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
	} `json:"results"`
}

// Client queries a set of SearxNG instances in rotation
type Client struct {
	base      *source.BaseAdapter
	instances []string
	next      atomic.Uint64
}

// NewClient returns a client issuing its requests through base. Instances
// are tried round robin, so a retry lands on the next instance.
func NewClient(base *source.BaseAdapter, instances []string) (*Client, error) {
	cleaned := lo.Uniq(lo.Compact(lo.Map(instances, func(s string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(s), "/")
	})))
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("searxng: no instances configured: %w", common.ErrAdapterUnavailable)
	}
	return &Client{base: base, instances: cleaned}, nil
}

func (c *Client) instance() string {
	n := c.next.Add(1) - 1
	return c.instances[n%uint64(len(c.instances))]
}

// Search returns the organic hits for query
func (c *Client) Search(ctx context.Context, query string) ([]sources.Hit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")
	params.Set("pageno", "1")

	endpoint := c.instance() + "/search?" + params.Encode()

	var resp searchResponse
	if err := c.base.GetJSON(ctx, endpoint, map[string]string{"Accept": "application/json"}, &resp); err != nil {
		return nil, err
	}

	hits := make([]sources.Hit, 0, min(len(resp.Results), maxHits))
	for _, r := range resp.Results {
		if len(hits) == maxHits {
			break
		}
		hits = append(hits, sources.Hit{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return hits, nil
}

// Adapter searches SearxNG and reads the addresses out of the result
// snippets and the result pages.
type Adapter struct {
	*source.BaseAdapter
	client    *Client
	harvester *source.Harvester
}

// Create builds the adapter; it fails when no instance is configured
func Create(cfg config.SearchConfig, deps source.Dependencies) (source.Adapter, error) {
	base := source.NewBaseAdapter(Name, sources.BaseConfig(cfg), deps.HTTPClient, deps.Cache)
	client, err := NewClient(base, cfg.SearxNGInstances)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		BaseAdapter: base,
		client:      client,
		harvester:   sources.NewHarvester(base, cfg, deps),
	}, nil
}

func (a *Adapter) Discover(ctx context.Context, query string, maxResults int) source.Result {
	return a.Run(ctx, query, maxResults, a.search)
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]models.Prospect, error) {
	hits, err := a.client.Search(ctx, sources.EmailQuery(query))
	if err != nil {
		return nil, err
	}
	return sources.Collect(ctx, a.harvester, hits, maxResults), nil
}
