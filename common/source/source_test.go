package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RequestsPerSecond = 0
	cfg.Retry = retry.Policy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 2}
	return cfg
}

func TestRunNormalizesAndCaches(t *testing.T) {
	cache := NewMemoryCache()
	base := NewBaseAdapter("stub", fastConfig(), nil, cache)

	var calls atomic.Int32
	fn := func(ctx context.Context, query string, maxResults int) ([]models.Prospect, error) {
		calls.Add(1)
		return []models.Prospect{
			{Email: "Sales@Acme.com"},
			{Email: "ceo@acme.com", Source: "custom"},
			{Email: "extra@acme.com"},
		}, nil
	}

	res := base.Run(context.Background(), "fintech", 2, fn)

	require.True(t, res.Success)
	require.Len(t, res.Prospects, 2)
	assert.Equal(t, "sales@acme.com", res.Prospects[0].Email)
	assert.Equal(t, "stub", res.Prospects[0].Source)
	assert.Equal(t, "custom", res.Prospects[1].Source)
	assert.Equal(t, "fintech", res.Prospects[0].Metadata.Query)
	assert.False(t, res.Cached)

	again := base.Run(context.Background(), "Fintech ", 2, fn)
	assert.True(t, again.Cached)
	assert.Len(t, again.Prospects, 2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunRetriesRateLimits(t *testing.T) {
	base := NewBaseAdapter("stub", fastConfig(), nil, nil)

	var calls atomic.Int32
	res := base.Run(context.Background(), "q", 10, func(context.Context, string, int) ([]models.Prospect, error) {
		if calls.Add(1) < 3 {
			return nil, &StatusError{Backend: "stub", Code: http.StatusTooManyRequests}
		}
		return []models.Prospect{{Email: "a@b.co"}}, nil
	})

	assert.True(t, res.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunDoesNotRetryAuthFailures(t *testing.T) {
	base := NewBaseAdapter("stub", fastConfig(), nil, nil)

	var calls atomic.Int32
	res := base.Run(context.Background(), "q", 10, func(context.Context, string, int) ([]models.Prospect, error) {
		calls.Add(1)
		return nil, &StatusError{Backend: "stub", Code: http.StatusUnauthorized}
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "401")
	assert.Empty(t, res.Prospects)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunContainsPanics(t *testing.T) {
	base := NewBaseAdapter("stub", fastConfig(), nil, nil)

	res := base.Run(context.Background(), "q", 10, func(context.Context, string, int) ([]models.Prospect, error) {
		panic("boom")
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
}

func TestRunAppliesTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.Retry.MaxRetries = 0
	base := NewBaseAdapter("slow", cfg, nil, nil)

	start := time.Now()
	res := base.Run(context.Background(), "q", 10, func(ctx context.Context, _ string, _ int) ([]models.Prospect, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	assert.False(t, res.Success)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStatusError(t *testing.T) {
	assert.True(t, errors.Is(&StatusError{Code: 429}, common.ErrRateLimited))
	assert.True(t, errors.Is(&StatusError{Code: 402}, common.ErrRateLimited))
	assert.True(t, errors.Is(&StatusError{Code: 503}, common.ErrAdapterUnavailable))
	assert.True(t, errors.Is(&StatusError{Code: 403}, common.ErrAdapterUnavailable))
	assert.False(t, IsUnavailable(&StatusError{Code: 404}))
	assert.True(t, retry.IsRetriable(&StatusError{Code: 502}))
	assert.False(t, retry.IsRetriable(&StatusError{Code: 400}))
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "k", r.Header.Get("X-Key"))
			_, _ = w.Write([]byte(`{"value": 42}`))
		case "/empty":
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	base := NewBaseAdapter("stub", fastConfig(), srv.Client(), nil)

	var out struct{ Value int }
	require.NoError(t, base.GetJSON(context.Background(), srv.URL+"/ok", map[string]string{"X-Key": "k"}, &out))
	assert.Equal(t, 42, out.Value)

	err := base.GetJSON(context.Background(), srv.URL+"/empty", nil, &out)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)

	err = base.GetJSON(context.Background(), srv.URL+"/down", nil, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "k", []models.Prospect{{Email: "a@b.co"}}, time.Minute)
	got, ok := c.Get(context.Background(), "k")
	require.True(t, ok)
	assert.Len(t, got, 1)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestPageText(t *testing.T) {
	html := `<html><head><title>Northwind Traders | Contact</title><script>var a = "x@y.com";</script></head>
	<body><h1>Contact</h1><p>Write to hello@northwind.io</p>
	<a href="mailto:sales%40northwind.io?subject=hi">Sales</a></body></html>`

	title, text, mailtos := PageText(html)

	assert.Equal(t, "Northwind Traders | Contact", title)
	assert.Contains(t, text, "hello@northwind.io")
	assert.NotContains(t, text, "x@y.com")
	assert.Equal(t, []string{"sales@northwind.io"}, mailtos)
}

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, u string) (string, error) {
	html, ok := s[u]
	if !ok {
		return "", &StatusError{Backend: "stub", Code: 404}
	}
	return html, nil
}

func TestHarvester(t *testing.T) {
	plain := stubFetcher{
		"https://acme.com/contact": `<p>ceo@acme.com</p>`,
		"https://js.io/team":       `<div id="app"></div>`,
	}
	rendered := stubFetcher{
		"https://js.io/team": `<p>founder@js.io</p>`,
	}

	h := NewHarvester(plain, rendered, 2, 10, time.Second)
	pages := h.Harvest(context.Background(), []string{
		"https://acme.com/contact",
		"https://en.wikipedia.org/wiki/Acme",
		"https://js.io/team",
		"https://missing.org/",
		"https://acme.com/contact",
	})

	require.Len(t, pages, 2)
	assert.Equal(t, "https://acme.com/contact", pages[0].URL)
	assert.Contains(t, pages[0].Text, "ceo@acme.com")
	assert.Contains(t, pages[1].Text, "founder@js.io")
}

func TestIsLowValueURL(t *testing.T) {
	assert.True(t, IsLowValueURL("https://en.wikipedia.org/wiki/X"))
	assert.True(t, IsLowValueURL("https://www.reddit.com/r/x"))
	assert.True(t, IsLowValueURL("not a url"))
	assert.False(t, IsLowValueURL("https://acme.com/about"))
}

type namedStub struct{ name string }

func (n namedStub) Name() string { return n.name }
func (n namedStub) Discover(context.Context, string, int) Result {
	return Succeeded(nil)
}

func TestBuildFollowsPriority(t *testing.T) {
	Register("test-a", func(config.SearchConfig, Dependencies) (Adapter, error) { return namedStub{"test-a"}, nil })
	Register("test-b", func(config.SearchConfig, Dependencies) (Adapter, error) { return namedStub{"test-b"}, nil })
	Register("test-broken", func(config.SearchConfig, Dependencies) (Adapter, error) {
		return nil, errors.New("no key")
	})

	adapters, err := Build(config.SearchConfig{Priority: []string{"test-b", "test-broken", "nope", "test-a"}}, Dependencies{})
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, "test-b", adapters[0].Name())
	assert.Equal(t, "test-a", adapters[1].Name())

	_, err = Build(config.SearchConfig{Priority: []string{"nope"}}, Dependencies{})
	assert.ErrorIs(t, err, common.ErrNoSources)
}
