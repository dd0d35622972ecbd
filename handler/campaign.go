package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/continuous"
)

const (
	defaultPoolLimit  = 50
	defaultPageSize   = 20
	signedURLLifetime = 15 * time.Minute
)

// SearchManager controls the continuous searches of campaigns
type SearchManager interface {
	Start(ctx context.Context, c continuous.Campaign) error
	Stop(ctx context.Context, campaignID string) error
	Stats(campaignID string) (continuous.Stats, error)
	Pool(campaignID string, n int) ([]models.Prospect, error)
	Clear(ctx context.Context, campaignID string) error
}

// ContactLister reads the persisted contacts of a campaign
type ContactLister interface {
	ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]models.Prospect, error)
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
}

// BatchURLSigner hands out download links of archived batches
type BatchURLSigner interface {
	SignedURL(ctx context.Context, campaignID string, batchNumber int, ttl time.Duration) (string, error)
}

type CampaignHandler struct {
	searches SearchManager
	contacts ContactLister
	batches  BatchURLSigner
	validate *validator.Validate
	router   *chi.Mux
}

// NewCampaignHandler serves the per-campaign endpoints. contacts and
// batches may be nil when no database or archive is configured.
func NewCampaignHandler(searches SearchManager, contacts ContactLister, batches BatchURLSigner) *CampaignHandler {
	router := chi.NewRouter()

	h := &CampaignHandler{
		searches: searches,
		contacts: contacts,
		batches:  batches,
		validate: validator.New(),
		router:   router,
	}

	router.Route("/{campaignID}", func(r chi.Router) {
		r.Post("/search", h.handleStartSearch)
		r.Get("/search", h.handleSearchStats)
		r.Delete("/search", h.handleStopSearch)
		r.Get("/prospects", h.handleGetPool)
		r.Delete("/prospects", h.handleClearPool)
		r.Get("/contacts", h.handleListContacts)
		r.Get("/batches/{batchNumber}/url", h.handleBatchURL)
	})
	return h
}

func (h *CampaignHandler) Router() *chi.Mux {
	return h.router
}

type StartSearchParams struct {
	UserID    string           `json:"user_id" validate:"max=100"`
	Industry  string           `json:"industry" validate:"required_without=Strategy,max=100"`
	Audience  string           `json:"audience"`
	OwnDomain string           `json:"own_domain" validate:"omitempty,fqdn"`
	Strategy  *models.Strategy `json:"strategy"`
}

// writeSearchError maps continuous search errors to status codes
func writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrSearchAlreadyRunning):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrSearchNotRunning):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidStrategy):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleStartSearch godoc
// @Summary      Start a continuous search
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Param        request body StartSearchParams true "What to search for"
// @Success      202 {object} continuous.Stats
// @Failure      400 {object} models.ErrorResponse
// @Failure      409 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/search [post]
func (h *CampaignHandler) handleStartSearch(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	var p StartSearchParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := h.validate.Struct(p); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	err := h.searches.Start(r.Context(), continuous.Campaign{
		ID:        campaignID,
		UserID:    p.UserID,
		Industry:  p.Industry,
		Audience:  common.ParseAudience(p.Audience),
		OwnDomain: p.OwnDomain,
		Strategy:  p.Strategy,
	})
	if err != nil {
		log.Warn().Err(err).Str("campaignID", campaignID).Msg("Failed to start continuous search")
		writeSearchError(w, err)
		return
	}

	stats, err := h.searches.Stats(campaignID)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusAccepted, stats)
}

// handleSearchStats godoc
// @Summary      Continuous search status
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Success      200 {object} continuous.Stats
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/search [get]
func (h *CampaignHandler) handleSearchStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.searches.Stats(chi.URLParam(r, "campaignID"))
	if err != nil {
		writeSearchError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// handleStopSearch godoc
// @Summary      Stop a continuous search
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Success      200 {object} models.BaseResponse
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/search [delete]
func (h *CampaignHandler) handleStopSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.searches.Stop(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		writeSearchError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "stopping")
}

// handleGetPool godoc
// @Summary      Prospects found so far
// @Description  Most recent first
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Param        limit query int false "Maximum number of prospects"
// @Success      200 {array} models.Prospect
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/prospects [get]
func (h *CampaignHandler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPoolLimit
	}

	prospects, err := h.searches.Pool(chi.URLParam(r, "campaignID"), limit)
	if err != nil {
		writeSearchError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, prospects)
}

// handleClearPool godoc
// @Summary      Clear the prospect pool
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Success      200 {object} models.BaseResponse
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/prospects [delete]
func (h *CampaignHandler) handleClearPool(w http.ResponseWriter, r *http.Request) {
	if err := h.searches.Clear(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		writeSearchError(w, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "cleared")
}

// handleListContacts godoc
// @Summary      Saved contacts of a campaign
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size"
// @Success      200 {object} models.BasePaginationResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/contacts [get]
func (h *CampaignHandler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	if h.contacts == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "contact storage is not configured")
		return
	}
	campaignID := chi.URLParam(r, "campaignID")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}

	offset := (page - 1) * limit

	contacts, err := h.contacts.ListByCampaign(r.Context(), campaignID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("campaignID", campaignID).Msg("Failed to list contacts")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get contacts")
		return
	}

	total, err := h.contacts.CountByCampaign(r.Context(), campaignID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to count contacts")
		return
	}
	utils.WritePagination(w, http.StatusOK, contacts, page, limit, total)
}

// handleBatchURL godoc
// @Summary      Download link of an archived batch
// @Tags         campaigns
// @Produce      json
// @Param        campaignID path string true "Campaign ID"
// @Param        batchNumber path int true "Batch number"
// @Success      200 {object} models.BaseResponse
// @Failure      400 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /campaigns/{campaignID}/batches/{batchNumber}/url [get]
func (h *CampaignHandler) handleBatchURL(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "batch archive is not configured")
		return
	}

	batchNumber, err := strconv.Atoi(chi.URLParam(r, "batchNumber"))
	if err != nil || batchNumber < 1 {
		utils.WriteError(w, http.StatusBadRequest, "invalid batch number")
		return
	}

	url, err := h.batches.SignedURL(r.Context(), chi.URLParam(r, "campaignID"), batchNumber, signedURLLifetime)
	if err != nil {
		log.Error().Err(err).Int("batchNumber", batchNumber).Msg("Failed to sign batch URL")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to sign batch URL")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_at": time.Now().Add(signedURLLifetime).UTC(),
	})
}
