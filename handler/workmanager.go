package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
)

const defaultEventLimit = 50

// JobStore reads the persisted history of continuous searches
type JobStore interface {
	List(ctx context.Context, status string, limit, offset int) ([]models.SearchJob, error)
	Count(ctx context.Context, status string) (int64, error)
	GetStatus(ctx context.Context, id string) (string, time.Time, error)
	Events(ctx context.Context, campaignID string, limit int) ([]models.DiscoveryEvent, error)
}

// WorkLock is the distributed running flag of a search
type WorkLock interface {
	IsRunning(ctx context.Context, workID string) (bool, error)
	Cancel(ctx context.Context, workID string) error
}

// SearchStopper stops a search running in this process
type SearchStopper interface {
	Stop(ctx context.Context, campaignID string) error
}

type WorkManagerHandler struct {
	jobs     JobStore
	locks    WorkLock
	searches SearchStopper
	router   *chi.Mux
}

func NewWorkManagerHandler(jobs JobStore, locks WorkLock, searches SearchStopper) *WorkManagerHandler {
	router := chi.NewRouter()

	h := &WorkManagerHandler{
		jobs:     jobs,
		locks:    locks,
		searches: searches,
		router:   router,
	}

	router.Get("/", h.handleListWorks)
	router.Get("/{jobID}", h.handleGetWork)
	router.Post("/{jobID}/cancel", h.handleCancelWork)

	return h
}

func (h *WorkManagerHandler) Router() *chi.Mux {
	return h.router
}

// handleListWorks godoc
// @Summary      Search jobs
// @Description  Most recently updated first
// @Tags         works
// @Produce      json
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size"
// @Param        status query string false "started, on_progress, finished or cancelled"
// @Success      200 {object} models.BasePaginationResponse
// @Security     ApiKeyAuth
// @Router       /works [get]
func (h *WorkManagerHandler) handleListWorks(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	offset := (page - 1) * limit
	status := r.URL.Query().Get("status")

	jobs, err := h.jobs.List(r.Context(), status, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list search jobs")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get jobs")
		return
	}

	total, err := h.jobs.Count(r.Context(), status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to count jobs")
		return
	}
	if jobs == nil {
		jobs = []models.SearchJob{}
	}
	utils.WritePagination(w, http.StatusOK, jobs, page, limit, total)
}

// handleGetWork godoc
// @Summary      Search job detail with its latest events
// @Tags         works
// @Produce      json
// @Param        jobID path string true "Campaign ID"
// @Success      200 {object} models.WorkDetailResponse
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /works/{jobID} [get]
func (h *WorkManagerHandler) handleGetWork(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	status, updatedAt, err := h.jobs.GetStatus(r.Context(), jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		utils.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	events, err := h.jobs.Events(r.Context(), jobID, defaultEventLimit)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to get job events")
		return
	}
	if events == nil {
		events = []models.DiscoveryEvent{}
	}

	running, err := h.locks.IsRunning(r.Context(), jobID)
	if err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("Failed to read running flag")
	}

	utils.WriteJSON(w, http.StatusOK, models.WorkDetailResponse{
		Job:     models.SearchJob{ID: jobID, Status: status, UpdatedAt: updatedAt},
		Running: running,
		Events:  events,
	})
}

// handleCancelWork godoc
// @Summary      Cancel a search job
// @Description  Stops the search when it runs here, otherwise releases its running flag
// @Tags         works
// @Produce      json
// @Param        jobID path string true "Campaign ID"
// @Success      200 {object} models.BaseResponse
// @Failure      404 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /works/{jobID}/cancel [post]
func (h *WorkManagerHandler) handleCancelWork(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	err := h.searches.Stop(r.Context(), jobID)
	if err == nil {
		utils.WriteMessage(w, http.StatusOK, "success")
		return
	}
	if !errors.Is(err, common.ErrSearchNotRunning) {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	running, err := h.locks.IsRunning(r.Context(), jobID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !running {
		utils.WriteError(w, http.StatusNotFound, "Job is not running")
		return
	}
	if err := h.locks.Cancel(r.Context(), jobID); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Info().Str("jobID", jobID).Msg("Released running flag of a search owned by no process")
	utils.WriteMessage(w, http.StatusOK, "success")
}
