package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
)

type DataSourceHandler struct {
	sources []models.SearchSource
	router  *chi.Mux
}

// NewDataSourceHandler lists every registered backend. enabled holds the
// names of the built adapters in priority order.
func NewDataSourceHandler(registered, enabled []string) *DataSourceHandler {
	h := &DataSourceHandler{
		sources: searchSources(registered, enabled),
	}

	r := chi.NewRouter()
	r.Get("/", h.handleListDataSources)
	r.Get("/{name}", h.handleGetDataSource)

	h.router = r
	return h
}

func (h *DataSourceHandler) Router() *chi.Mux {
	return h.router
}

func searchSources(registered, enabled []string) []models.SearchSource {
	names := slices.Clone(registered)
	for _, name := range enabled {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	out := make([]models.SearchSource, 0, len(names))
	for _, name := range names {
		pos := slices.Index(enabled, name)
		out = append(out, models.SearchSource{
			Name:     name,
			Enabled:  pos >= 0,
			Primary:  pos == 0,
			Priority: pos + 1,
		})
	}
	return out
}

// handleListDataSources godoc
// @Summary      Search backends
// @Tags         sources
// @Produce      json
// @Success      200 {array} models.SearchSource
// @Security     ApiKeyAuth
// @Router       /sources [get]
func (h *DataSourceHandler) handleListDataSources(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.sources)
}

// handleGetDataSource godoc
// @Summary      One search backend
// @Tags         sources
// @Produce      json
// @Param        name path string true "Backend name"
// @Success      200 {object} models.SearchSource
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /sources/{name} [get]
func (h *DataSourceHandler) handleGetDataSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, s := range h.sources {
		if s.Name == name {
			utils.WriteJSON(w, http.StatusOK, s)
			return
		}
	}
	utils.WriteError(w, http.StatusNotFound, "Data source not found")
}
