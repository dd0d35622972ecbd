package searxng

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"
)

func testConfig(instances ...string) config.SearchConfig {
	cfg := config.DefaultConfig().Search
	cfg.SearxNGInstances = instances
	cfg.RequestsPerSecond = 1000
	cfg.HTTPTimeout = 5 * time.Second
	return cfg
}

func newSearxServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "fintech email contact", r.URL.Query().Get("q"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]string{
					{"title": "Acme | Team", "url": srv.URL + "/team", "content": "Reach sales@acme.com today"},
					{"title": "Wiki", "url": "https://en.wikipedia.org/wiki/Fintech", "content": "nothing here"},
				},
			})
		case "/team":
			_, _ = w.Write([]byte(`<html><head><title>Team</title></head><body>
				<p>Jane Doe, jane.doe@acme.com</p>
				<a href="mailto:ceo@acme.com?subject=Hi">Mail the CEO</a>
			</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func emails(prospects []models.Prospect) []string {
	out := make([]string, 0, len(prospects))
	for _, p := range prospects {
		out = append(out, p.Email)
	}
	return out
}

func TestDiscover(t *testing.T) {
	srv := newSearxServer(t)

	adapter, err := Create(testConfig(srv.URL), source.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, Name, adapter.Name())

	res := adapter.Discover(context.Background(), "fintech", 10)
	require.True(t, res.Success, res.Error)
	assert.ElementsMatch(t, []string{"sales@acme.com", "ceo@acme.com", "jane.doe@acme.com"}, emails(res.Prospects))

	for _, p := range res.Prospects {
		assert.Equal(t, Name, p.Source)
		assert.Equal(t, "fintech", p.Metadata.Query)
		assert.False(t, p.Metadata.FoundAt.IsZero())
		if p.Email == "sales@acme.com" {
			assert.Equal(t, sources.SnippetConfidence, p.Confidence)
		} else {
			assert.Equal(t, sources.PageConfidence, p.Confidence)
		}
	}
}

func TestSearchRotatesInstances(t *testing.T) {
	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"x","url":"","content":"hello@globex.io"}]}`))
	}))
	defer good.Close()

	adapter, err := Create(testConfig(bad.URL, good.URL+"/"), source.Dependencies{})
	require.NoError(t, err)
	adapter.(*Adapter).Config.Retry = retry.Policy{MaxRetries: 1, BaseDelay: time.Millisecond, Multiplier: 1}

	res := adapter.Discover(context.Background(), "fintech", 5)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"hello@globex.io"}, emails(res.Prospects))
	assert.Equal(t, int32(1), badHits.Load())
}

func TestCreateWithoutInstances(t *testing.T) {
	_, err := Create(testConfig(" ", ""), source.Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAdapterUnavailable)
}

func TestDiscoverMalformedAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	adapter, err := Create(testConfig(srv.URL), source.Dependencies{})
	require.NoError(t, err)

	res := adapter.Discover(context.Background(), "fintech", 5)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid JSON")
	assert.Empty(t, res.Prospects)
}
