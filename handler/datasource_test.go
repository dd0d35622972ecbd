package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

func TestDataSourceHandler(t *testing.T) {
	h := NewDataSourceHandler(
		[]string{"searxng", "duckduckgo", "scrapingdog", "ollama-searxng"},
		[]string{"duckduckgo", "searxng"},
	)

	rec := do(h.Router(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var all []models.SearchSource
	decodeData(t, rec, &all)
	assert.Equal(t, []models.SearchSource{
		{Name: "duckduckgo", Enabled: true, Primary: true, Priority: 1},
		{Name: "ollama-searxng"},
		{Name: "scrapingdog"},
		{Name: "searxng", Enabled: true, Priority: 2},
	}, all)

	rec = do(h.Router(), http.MethodGet, "/searxng", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one models.SearchSource
	decodeData(t, rec, &one)
	assert.Equal(t, 2, one.Priority)

	rec = do(h.Router(), http.MethodGet, "/bing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
