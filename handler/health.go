package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
)

// Pinger is a dependency the service can check on
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps     map[string]Pinger
	adapters []string
	router   *chi.Mux
}

// NewHealthHandler reports on the named dependencies and lists the search
// adapters in priority order.
func NewHealthHandler(deps map[string]Pinger, adapters []string) *HealthHandler {
	h := &HealthHandler{
		deps:     deps,
		adapters: adapters,
	}

	r := chi.NewRouter()
	r.Get("/", h.handleHealthCheck)
	r.Get("/dependencies", h.handleDependencies)

	h.router = r
	return h
}

func (h *HealthHandler) Router() *chi.Mux {
	return h.router
}

func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   common.AppName,
		"adapters":  h.adapters,
	}

	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *HealthHandler) handleDependencies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]interface{}, len(h.deps))

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		dep := map[string]interface{}{"status": "healthy"}
		if err := h.deps[name].Ping(ctx); err != nil {
			dep["status"] = "unhealthy"
			dep["error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		deps[name] = dep
	}

	response := map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"dependencies": deps,
	}
	if status != http.StatusOK {
		response["status"] = "unhealthy"
	}

	utils.WriteJSON(w, status, response)
}
