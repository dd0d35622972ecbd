package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/enrich"
)

// PageScraper pulls addresses out of the given pages
type PageScraper interface {
	Scrape(ctx context.Context, urls []string, maxResults int) []models.Prospect
}

type ScraperHandler struct {
	scraper  PageScraper
	enricher *enrich.Enricher
	validate *validator.Validate
	router   *chi.Mux
}

func NewScraperHandler(scraper PageScraper) *ScraperHandler {
	router := chi.NewRouter()

	h := &ScraperHandler{
		scraper:  scraper,
		enricher: enrich.New(),
		validate: validator.New(),
		router:   router,
	}

	router.Post("/", h.handleRunScraper)
	return h
}

func (h *ScraperHandler) Router() *chi.Mux {
	return h.router
}

type ScraperRunParams struct {
	URLs     []string `json:"urls" validate:"required,min=1,max=10,dive,http_url"`
	Limit    int      `json:"limit" validate:"omitempty,min=1,max=200"`
	Industry string   `json:"industry" validate:"max=100"`
}

// handleRunScraper godoc
// @Summary      Extract prospects from known pages
// @Tags         scrape
// @Accept       json
// @Produce      json
// @Param        request body ScraperRunParams true "Pages to read"
// @Success      200 {array} models.Prospect
// @Failure      400 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /scrape [post]
func (h *ScraperHandler) handleRunScraper(w http.ResponseWriter, r *http.Request) {
	var p ScraperRunParams

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(p); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	if p.Limit == 0 {
		p.Limit = defaultPoolLimit
	}

	out := h.enricher.Enrich(h.scraper.Scrape(r.Context(), p.URLs, p.Limit), p.Industry)

	log.Info().Int("pages", len(p.URLs)).Int("found", len(out)).Msg("Scraped pages")
	utils.WriteJSON(w, http.StatusOK, out)
}
