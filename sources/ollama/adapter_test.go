package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
)

const fencedProfile = "```json\n{\"estimated_role\":\"CEO\",\"company_size\":\"Startup\",\"decision_level\":\"High\",\"confidence_score\":0.9,}\n```"

func newServer(t *testing.T, generate http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`{"results":[{"title":"Hooli","url":"","content":"ceo@hooli.xyz and gavin.belson@hooli.xyz"}]}`))
		case "/api/generate":
			generate(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srvURL string) config.SearchConfig {
	cfg := config.DefaultConfig().Search
	cfg.SearxNGInstances = []string{srvURL}
	cfg.OllamaURL = srvURL + "/"
	cfg.RequestsPerSecond = 1000
	cfg.HTTPTimeout = 5 * time.Second
	cfg.LLMTimeout = 5 * time.Second
	return cfg
}

func TestDiscoverAddsProfiles(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5:0.5b", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "@hooli.xyz")
		_ = json.NewEncoder(w).Encode(generateResponse{Response: fencedProfile, Done: true})
	})

	adapter, err := Create(testConfig(srv.URL), source.Dependencies{})
	require.NoError(t, err)
	assert.Equal(t, Name, adapter.Name())

	res := adapter.Discover(context.Background(), "video compression", 10)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Prospects, 2)

	for _, p := range res.Prospects {
		assert.Equal(t, "CEO", p.Role)
		assert.Equal(t, "Startup", p.CompanySize)
		assert.Equal(t, MethodProfiled, p.Metadata.DiscoveryMethod)
		assert.Equal(t, "High", p.Metadata.Extra["decisionLevel"])
		assert.Equal(t, "professional", p.Metadata.Extra["communicationStyle"])
	}
}

func TestDiscoverSurvivesModelFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	adapter, err := Create(testConfig(srv.URL), source.Dependencies{})
	require.NoError(t, err)

	res := adapter.Discover(context.Background(), "video compression", 10)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Prospects, 2)
	for _, p := range res.Prospects {
		assert.Empty(t, p.Role)
		assert.NotEqual(t, MethodProfiled, p.Metadata.DiscoveryMethod)
	}
}

func TestDiscoverGarbageAnswerUsesDefaultProfile(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "I am not able to help with that.", Done: true})
	})

	adapter, err := Create(testConfig(srv.URL), source.Dependencies{})
	require.NoError(t, err)

	res := adapter.Discover(context.Background(), "video compression", 1)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Prospects, 1)
	assert.Equal(t, "Business Professional", res.Prospects[0].Role)
	assert.Empty(t, res.Prospects[0].CompanySize)
}

func TestCreateRequiresModel(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.OllamaURL = ""
	_, err := Create(cfg, source.Dependencies{})
	assert.ErrorIs(t, err, common.ErrAdapterUnavailable)
}
