package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/utils"
)

// KeywordPlanner turns a strategy into search keywords
type KeywordPlanner interface {
	Plan(strategy *models.Strategy, targetIndustry string) []string
	PlanCreativeVariations(targetIndustry string) []string
}

type KeywordHandler struct {
	planner  KeywordPlanner
	validate *validator.Validate
	router   *chi.Mux
}

func NewKeywordHandler(planner KeywordPlanner) *KeywordHandler {
	router := chi.NewRouter()

	h := &KeywordHandler{
		planner:  planner,
		validate: validator.New(),
		router:   router,
	}

	router.Post("/plan", h.handlePlan)
	return h
}

func (h *KeywordHandler) Router() *chi.Mux {
	return h.router
}

type PlanParams struct {
	Industry string           `json:"industry" validate:"required_without=Strategy,max=100"`
	Strategy *models.Strategy `json:"strategy"`
}

type PlanResponse struct {
	Keywords           []string `json:"keywords"`
	CreativeVariations []string `json:"creative_variations"`
}

// handlePlan godoc
// @Summary      Plan search keywords
// @Description  Turns a marketing strategy and target industry into short search keywords
// @Tags         keywords
// @Accept       json
// @Produce      json
// @Param        request body PlanParams true "Strategy and industry"
// @Success      200 {object} PlanResponse
// @Failure      400 {object} models.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /keywords/plan [post]
func (h *KeywordHandler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var p PlanParams

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(p); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, PlanResponse{
		Keywords:           h.planner.Plan(p.Strategy, p.Industry),
		CreativeVariations: h.planner.PlanCreativeVariations(p.Industry),
	})
}
