package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/smarthr/internal/app"
)

// GenAIDependencies are the narrative actions. They never fail because of the
// generator; only lookups and validation surface as errors.
type GenAIDependencies interface {
	ExplainAttritionRisk(ctx context.Context, employeeID string) (service.ExplainResult, error)
	SummarizeFeedback(ctx context.Context, employeeID, timeframe string) (service.FeedbackSummary, error)
	SuggestTraining(ctx context.Context, employeeID, gaps string) (service.TrainingPlan, error)
}

// GenAIHandler serves the /genai endpoints.
type GenAIHandler struct {
	deps GenAIDependencies
}

// NewGenAIHandler creates a new narrative handler.
func NewGenAIHandler(deps GenAIDependencies) *GenAIHandler {
	return &GenAIHandler{deps: deps}
}

// HandleExplainAttritionRisk handles POST /genai/explainAttritionRisk.
func (h *GenAIHandler) HandleExplainAttritionRisk(w http.ResponseWriter, r *http.Request) {
	id, err := readEmployeeID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.ExplainAttritionRisk(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type summarizeRequest struct {
	EmployeeID string `json:"employeeId"`
	Timeframe  string `json:"timeframe"`
}

// HandleSummarizeFeedback handles POST /genai/summarizeFeedback.
func (h *GenAIHandler) HandleSummarizeFeedback(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.SummarizeFeedback(r.Context(), strings.TrimSpace(req.EmployeeID), req.Timeframe)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type suggestTrainingRequest struct {
	EmployeeID string `json:"employeeId"`
	Gaps       string `json:"gaps"`
}

// HandleSuggestTraining handles POST /genai/suggestTraining.
func (h *GenAIHandler) HandleSuggestTraining(w http.ResponseWriter, r *http.Request) {
	var req suggestTrainingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.SuggestTraining(r.Context(), strings.TrimSpace(req.EmployeeID), req.Gaps)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
