package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const maxBodySize = 5 << 20

// BaseConfig represents the shared configuration of an adapter
type BaseConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Retry             retry.Policy
	CacheTTL          time.Duration
	UserAgent         string
}

// DefaultBaseConfig returns the default configuration for an adapter
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Timeout:           15 * time.Second,
		RequestsPerSecond: 1,
		Retry:             retry.DefaultPolicy(),
		CacheTTL:          30 * time.Minute,
		UserAgent:         "Mozilla/5.0 (compatible; ProspectBot/1.0)",
	}
}

// BaseAdapter provides what every adapter needs around the backend call:
// caching, a request rate limit, retries with backoff, a per call timeout
// and panic containment.
type BaseAdapter struct {
	name    string
	Config  BaseConfig
	Client  *http.Client
	cache   Cache
	limiter *rate.Limiter
}

func NewBaseAdapter(name string, cfg BaseConfig, client *http.Client, cache Cache) *BaseAdapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &BaseAdapter{
		name:    name,
		Config:  cfg,
		Client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (b *BaseAdapter) Name() string {
	return b.name
}

// SearchFunc performs one backend call for query
type SearchFunc func(ctx context.Context, query string, maxResults int) ([]models.Prospect, error)

// Run executes fn under the adapter policies and folds the outcome into a
// Result. Nothing escapes: errors and panics become Success=false.
func (b *BaseAdapter) Run(ctx context.Context, query string, maxResults int, fn SearchFunc) (result Result) {
	logger := log.With().Str("adapter", b.name).Str("query", query).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Search adapter panicked")
			result = Failed(fmt.Errorf("%s: %v: %w", b.name, r, common.ErrAdapterUnavailable))
		}
	}()

	key := CacheKey(b.name, query, maxResults)
	if b.cache != nil {
		if cached, ok := b.cache.Get(ctx, key); ok {
			logger.Debug().Int("count", len(cached)).Msg("Serving cached results")
			res := Succeeded(cached)
			res.Cached = true
			return res
		}
	}

	var prospects []models.Prospect
	err := retry.Do(ctx, b.Config.Retry, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx := ctx
		if b.Config.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.Config.Timeout)
			defer cancel()
		}

		var err error
		prospects, err = fn(callCtx, query, maxResults)
		if err != nil {
			logger.Debug().Err(err).Msg("Search attempt failed")
		}
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Search adapter failed")
		return Failed(err)
	}

	now := time.Now()
	for i := range prospects {
		prospects[i].Email = models.NormalizeEmail(prospects[i].Email)
		if prospects[i].Source == "" {
			prospects[i].Source = b.name
		}
		if prospects[i].Metadata.Query == "" {
			prospects[i].Metadata.Query = query
		}
		if prospects[i].Metadata.FoundAt.IsZero() {
			prospects[i].Metadata.FoundAt = now
		}
	}
	if maxResults > 0 && len(prospects) > maxResults {
		prospects = prospects[:maxResults]
	}

	if b.cache != nil && len(prospects) > 0 {
		b.cache.Set(ctx, key, prospects, b.Config.CacheTTL)
	}

	logger.Info().Int("count", len(prospects)).Msg("Search adapter finished")
	return Succeeded(prospects)
}

// GetJSON issues a GET and decodes a JSON body into out
func (b *BaseAdapter) GetJSON(ctx context.Context, endpoint string, headers map[string]string, out any) error {
	body, err := b.Do(ctx, http.MethodGet, endpoint, nil, headers)
	if err != nil {
		return err
	}
	return decodeJSON(b.name, body, out)
}

// PostJSON posts payload as JSON and decodes the answer into out
func (b *BaseAdapter) PostJSON(ctx context.Context, endpoint string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", b.name, err)
	}
	body, err := b.Do(ctx, http.MethodPost, endpoint, bytes.NewReader(data), map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	return decodeJSON(b.name, body, out)
}

// Do sends one request and returns the body of a 2xx answer. Other statuses
// come back as *StatusError.
func (b *BaseAdapter) Do(ctx context.Context, method, endpoint string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", b.name, err)
	}
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", b.name, redactQuery(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", b.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Backend: b.name, Code: resp.StatusCode, Body: snippet}
	}
	return data, nil
}

// redactQuery drops the query string from the URL of a transport error so
// API keys passed as parameters do not end up in logs.
func redactQuery(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil && u.RawQuery != "" {
			u.RawQuery = ""
			urlErr.URL = u.String()
		}
	}
	return err
}

func decodeJSON(backend string, body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%s returned an empty body: %w", backend, common.ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s returned invalid JSON: %v: %w", backend, err, common.ErrMalformedResponse)
	}
	return nil
}
