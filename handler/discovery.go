package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
)

// Discoverer runs one discovery request
type Discoverer interface {
	Discover(ctx context.Context, req orchestrator.Request) orchestrator.Report
}

// ContactSaver persists the prospects found for a campaign
type ContactSaver interface {
	SaveBatch(ctx context.Context, userID, campaignID string, prospects []models.Prospect) (int, error)
}

// DiscoveryLogger records finished discoveries
type DiscoveryLogger interface {
	DiscoveryCompleted(ctx context.Context, campaignID, method string, found int) error
}

type DiscoveryHandler struct {
	discoverer Discoverer
	contacts   ContactSaver
	events     DiscoveryLogger
	cfg        config.DiscoveryConfig
	validate   *validator.Validate
	router     *chi.Mux
}

// NewDiscoveryHandler serves one-shot discovery. contacts and events may be
// nil.
func NewDiscoveryHandler(discoverer Discoverer, contacts ContactSaver, events DiscoveryLogger, cfg config.DiscoveryConfig) *DiscoveryHandler {
	router := chi.NewRouter()

	h := &DiscoveryHandler{
		discoverer: discoverer,
		contacts:   contacts,
		events:     events,
		cfg:        cfg,
		validate:   validator.New(),
		router:     router,
	}

	router.Post("/", h.handleDiscover)
	return h
}

func (h *DiscoveryHandler) Router() *chi.Mux {
	return h.router
}

type DiscoverParams struct {
	Query      string           `json:"query" validate:"required_without_all=Industry Strategy,max=200"`
	Limit      int              `json:"limit" validate:"omitempty,min=1,max=200"`
	CampaignID string           `json:"campaign_id" validate:"max=100"`
	UserID     string           `json:"user_id" validate:"max=100"`
	Industry   string           `json:"industry" validate:"max=100"`
	Audience   string           `json:"audience"`
	OwnDomain  string           `json:"own_domain" validate:"omitempty,fqdn"`
	Strategy   *models.Strategy `json:"strategy"`
}

// handleDiscover godoc
// @Summary      Discover prospects
// @Description  Searches the configured backends for contact addresses matching a query or industry
// @Tags         discovery
// @Accept       json
// @Produce      json
// @Param        request body DiscoverParams true "Discovery request"
// @Success      200 {object} models.DiscoveryResponse
// @Failure      400 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /discover [post]
func (h *DiscoveryHandler) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var p DiscoverParams

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(p); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	limit := p.Limit
	if limit == 0 {
		limit = int(h.cfg.DefaultMaxResults)
	}

	report := h.discoverer.Discover(r.Context(), orchestrator.Request{
		Query:      p.Query,
		Industry:   p.Industry,
		Strategy:   p.Strategy,
		MaxResults: limit,
		Audience:   common.ParseAudience(p.Audience),
		OwnDomain:  p.OwnDomain,
		CampaignID: p.CampaignID,
	})
	resp := report.Response

	log.Info().
		Str("campaignID", p.CampaignID).
		Str("state", string(report.State)).
		Str("searchMethod", resp.SearchMethod).
		Int("rounds", report.Rounds).
		Int("found", len(resp.Prospects)).
		Msg("Discovery finished")

	if p.CampaignID != "" {
		h.persist(r.Context(), p.UserID, p.CampaignID, resp)
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *DiscoveryHandler) persist(ctx context.Context, userID, campaignID string, resp models.DiscoveryResponse) {
	if h.contacts != nil && len(resp.Prospects) > 0 {
		saved, err := h.contacts.SaveBatch(ctx, userID, campaignID, resp.Prospects)
		if err != nil {
			log.Error().Err(err).Str("campaignID", campaignID).Msg("Failed to save discovered contacts")
		} else {
			log.Debug().Str("campaignID", campaignID).Int("saved", saved).Msg("Discovered contacts saved")
		}
	}
	if h.events != nil {
		_ = h.events.DiscoveryCompleted(ctx, campaignID, resp.SearchMethod, len(resp.Prospects))
	}
}
