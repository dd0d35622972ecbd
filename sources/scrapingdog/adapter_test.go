package scrapingdog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
)

func testConfig(endpoint, key string) config.SearchConfig {
	cfg := config.DefaultConfig().Search
	cfg.ScrapingdogURL = endpoint
	cfg.ScrapingdogKey = key
	cfg.RequestsPerSecond = 1000
	cfg.HTTPTimeout = 5 * time.Second
	return cfg
}

func TestCreateRequiresKey(t *testing.T) {
	for _, key := range []string{"", "  ", placeholderKey} {
		_, err := Create(testConfig("https://api.scrapingdog.com/google", key), source.Dependencies{})
		require.Error(t, err, key)
		assert.ErrorIs(t, err, common.ErrAdapterUnavailable)
	}
}

func TestDiscover(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/google" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "saas founders email contact", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("results"))
		_, _ = w.Write([]byte(`{"organic_results":[
			{"title":"Globex - About","link":"` + srv.URL + `/missing","snippet":"Contact founder@globex.io for partnerships"},
			{"title":"List","link":"` + srv.URL + `/missing","snippet":"no address"}
		]}`))
	}))
	defer srv.Close()

	adapter, err := Create(testConfig(srv.URL+"/google", "secret"), source.Dependencies{})
	require.NoError(t, err)

	res := adapter.Discover(context.Background(), "saas founders", 10)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Prospects, 1)
	assert.Equal(t, "founder@globex.io", res.Prospects[0].Email)
	assert.Equal(t, Name, res.Prospects[0].Source)
}

func TestDiscoverOutOfCredits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"message":"credits exhausted"}`))
	}))
	defer srv.Close()

	adapter, err := Create(testConfig(srv.URL, "secret"), source.Dependencies{})
	require.NoError(t, err)
	adapter.(*Adapter).Config.Retry = retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	res := adapter.Discover(context.Background(), "saas", 10)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "402")
	assert.Equal(t, int32(4), calls.Load(), "a 402 is backed off like a 429")
}
