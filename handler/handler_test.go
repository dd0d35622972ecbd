package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/continuous"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
)

type fakeDiscoverer struct {
	got  orchestrator.Request
	resp models.DiscoveryResponse
}

func (f *fakeDiscoverer) Discover(_ context.Context, req orchestrator.Request) orchestrator.Report {
	f.got = req
	return orchestrator.Report{Response: f.resp, State: orchestrator.StateDone, Rounds: 1}
}

type fakeContacts struct {
	saved    []models.Prospect
	campaign string
	user     string
	stored   []models.Prospect
}

func (f *fakeContacts) SaveBatch(_ context.Context, userID, campaignID string, prospects []models.Prospect) (int, error) {
	f.user, f.campaign = userID, campaignID
	f.saved = append(f.saved, prospects...)
	return len(prospects), nil
}

func (f *fakeContacts) ListByCampaign(_ context.Context, _ string, limit, offset int) ([]models.Prospect, error) {
	end := min(offset+limit, len(f.stored))
	if offset >= end {
		return []models.Prospect{}, nil
	}
	return f.stored[offset:end], nil
}

func (f *fakeContacts) CountByCampaign(context.Context, string) (int64, error) {
	return int64(len(f.stored)), nil
}

type fakeEvents struct {
	method string
	found  int
}

func (f *fakeEvents) DiscoveryCompleted(_ context.Context, _ string, method string, found int) error {
	f.method, f.found = method, found
	return nil
}

func decodeData(t *testing.T, body *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDiscoverHandler(t *testing.T) {
	discoverer := &fakeDiscoverer{resp: models.DiscoveryResponse{
		Success:      true,
		Prospects:    []models.Prospect{{Email: "sales@acme.com"}},
		IsRealData:   true,
		SearchMethod: "searxng",
	}}
	contacts := &fakeContacts{}
	events := &fakeEvents{}
	h := NewDiscoveryHandler(discoverer, contacts, events, config.DefaultDiscoveryConfig())

	rec := post(h.Router(), "/", `{"query":"fintech","campaign_id":"c1","user_id":"u1","audience":"b2b"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.DiscoveryResponse
	decodeData(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.True(t, resp.IsRealData)
	assert.Equal(t, "searxng", resp.SearchMethod)

	assert.Equal(t, "fintech", discoverer.got.Query)
	assert.Equal(t, 50, discoverer.got.MaxResults)
	assert.Equal(t, common.AudienceBusiness, discoverer.got.Audience)

	assert.Equal(t, "c1", contacts.campaign)
	assert.Equal(t, "u1", contacts.user)
	assert.Len(t, contacts.saved, 1)
	assert.Equal(t, "searxng", events.method)
	assert.Equal(t, 1, events.found)
}

func TestDiscoverHandlerWithoutCampaignDoesNotPersist(t *testing.T) {
	contacts := &fakeContacts{}
	discoverer := &fakeDiscoverer{resp: models.DiscoveryResponse{Success: true, Prospects: []models.Prospect{{Email: "a@b.com"}}}}
	h := NewDiscoveryHandler(discoverer, contacts, nil, config.DefaultDiscoveryConfig())

	rec := post(h.Router(), "/", `{"industry":"logistics","limit":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, discoverer.got.MaxResults)
	assert.Empty(t, contacts.saved)
}

func TestDiscoverHandlerValidation(t *testing.T) {
	h := NewDiscoveryHandler(&fakeDiscoverer{}, nil, nil, config.DefaultDiscoveryConfig())

	tests := []struct {
		name string
		body string
	}{
		{"not json", `query=fintech`},
		{"nothing to search for", `{"limit":5}`},
		{"limit too large", `{"query":"fintech","limit":5000}`},
		{"bad own domain", `{"query":"fintech","own_domain":"not a domain"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Router(), "/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

type fakePlanner struct{}

func (fakePlanner) Plan(s *models.Strategy, industry string) []string {
	if s != nil {
		return s.TargetAudience.SearchKeywords.Primary
	}
	return []string{industry}
}

func (fakePlanner) PlanCreativeVariations(industry string) []string {
	return []string{industry + " solutions"}
}

func TestKeywordPlanHandler(t *testing.T) {
	h := NewKeywordHandler(fakePlanner{})

	rec := post(h.Router(), "/plan", `{"industry":"fintech","strategy":{"target_audience":{"search_keywords":["neobank","payments"]}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PlanResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, []string{"neobank", "payments"}, resp.Keywords)
	assert.Equal(t, []string{"fintech solutions"}, resp.CreativeVariations)

	rec = post(h.Router(), "/plan", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeSearches struct {
	started  continuous.Campaign
	running  map[string]bool
	prospect []models.Prospect
	cleared  string
	limit    int
}

func (f *fakeSearches) Start(_ context.Context, c continuous.Campaign) error {
	if f.running[c.ID] {
		return fmt.Errorf("campaign %s: %w", c.ID, common.ErrSearchAlreadyRunning)
	}
	f.running[c.ID] = true
	f.started = c
	return nil
}

func (f *fakeSearches) Stop(_ context.Context, id string) error {
	if !f.running[id] {
		return fmt.Errorf("campaign %s: %w", id, common.ErrSearchNotRunning)
	}
	f.running[id] = false
	return nil
}

func (f *fakeSearches) Stats(id string) (continuous.Stats, error) {
	if _, ok := f.running[id]; !ok {
		return continuous.Stats{}, common.ErrSearchNotRunning
	}
	return continuous.Stats{CampaignID: id, Running: f.running[id], MaxPerHour: 100}, nil
}

func (f *fakeSearches) Pool(_ string, n int) ([]models.Prospect, error) {
	f.limit = n
	return f.prospect, nil
}

func (f *fakeSearches) Clear(_ context.Context, id string) error {
	f.cleared = id
	return nil
}

type fakeSigner struct{}

func (fakeSigner) SignedURL(_ context.Context, campaignID string, n int, ttl time.Duration) (string, error) {
	if n > 10 {
		return "", errors.New("object not found")
	}
	return fmt.Sprintf("https://storage.example/%s/%d?ttl=%d", campaignID, n, int(ttl.Seconds())), nil
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCampaignSearchLifecycle(t *testing.T) {
	searches := &fakeSearches{running: map[string]bool{}}
	h := NewCampaignHandler(searches, nil, nil).Router()

	rec := do(h, http.MethodPost, "/c1/search", `{"industry":"fintech","audience":"consumer","user_id":"u1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "c1", searches.started.ID)
	assert.Equal(t, common.AudienceConsumer, searches.started.Audience)

	var stats continuous.Stats
	decodeData(t, rec, &stats)
	assert.True(t, stats.Running)

	rec = do(h, http.MethodPost, "/c1/search", `{"industry":"fintech"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodGet, "/c1/search", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/c1/search", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/c1/search", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/unknown/search", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/c2/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampaignPool(t *testing.T) {
	searches := &fakeSearches{running: map[string]bool{}, prospect: []models.Prospect{{Email: "b@x.com"}, {Email: "a@x.com"}}}
	h := NewCampaignHandler(searches, nil, nil).Router()

	rec := do(h, http.MethodGet, "/c1/prospects?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prospects []models.Prospect
	decodeData(t, rec, &prospects)
	assert.Len(t, prospects, 2)
	assert.Equal(t, 2, searches.limit)

	do(h, http.MethodGet, "/c1/prospects", "")
	assert.Equal(t, defaultPoolLimit, searches.limit)

	rec = do(h, http.MethodDelete, "/c1/prospects", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", searches.cleared)
}

func TestCampaignContacts(t *testing.T) {
	stored := make([]models.Prospect, 0, 25)
	for i := range 25 {
		stored = append(stored, models.Prospect{Email: fmt.Sprintf("p%d@acme.com", i)})
	}
	h := NewCampaignHandler(&fakeSearches{running: map[string]bool{}}, &fakeContacts{stored: stored}, nil).Router()

	rec := do(h, http.MethodGet, "/c1/contacts?page=2&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.BasePaginationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Meta.LastPage)
	assert.Equal(t, int64(25), resp.Meta.Total)
	assert.Len(t, resp.Data, 10)

	noStore := NewCampaignHandler(&fakeSearches{running: map[string]bool{}}, nil, nil).Router()
	rec = do(noStore, http.MethodGet, "/c1/contacts", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCampaignBatchURL(t *testing.T) {
	h := NewCampaignHandler(&fakeSearches{running: map[string]bool{}}, nil, fakeSigner{}).Router()

	rec := do(h, http.MethodGet, "/c1/batches/3/url", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	decodeData(t, rec, &resp)
	assert.Equal(t, "https://storage.example/c1/3?ttl=900", resp["url"])

	rec = do(h, http.MethodGet, "/c1/batches/zero/url", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/c1/batches/11/url", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestHealthHandler(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthHandler(map[string]Pinger{"postgres": healthy, "redis": healthy}, []string{"searxng", "duckduckgo"}).Router()
	rec := do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "searxng")

	rec = do(h, http.MethodGet, "/dependencies", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(map[string]Pinger{"postgres": healthy, "redis": down}, nil).Router()
	rec = do(h, http.MethodGet, "/dependencies", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
