package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/smarthr/internal/app"
)

// ActionDependencies are the rule-engine actions.
type ActionDependencies interface {
	GenerateAttritionRisk(ctx context.Context, employeeID string) (service.RiskResult, error)
	GenerateTrainingRecommendations(ctx context.Context, employeeID string) (string, error)
	AnalyzeTeamPerformance(ctx context.Context, department string) (service.TeamAnalysisResult, error)
	GenerateEngagementIdeas(ctx context.Context, department string) (string, error)
	AnalyzePolicyGaps(ctx context.Context) (string, error)
}

// ActionsHandler serves the /hr action endpoints.
type ActionsHandler struct {
	deps ActionDependencies
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(deps ActionDependencies) *ActionsHandler {
	return &ActionsHandler{deps: deps}
}

type employeeIDRequest struct {
	EmployeeID string `json:"employeeId"`
}

type departmentRequest struct {
	Department string `json:"department"`
}

func readEmployeeID(r *http.Request) (string, error) {
	var req employeeIDRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.EmployeeID), nil
}

func readDepartment(r *http.Request) (string, error) {
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.Department), nil
}

// HandleGenerateAttritionRisk handles POST /hr/generateAttritionRisk.
// A computation failure answers 500 with the failure result body.
func (h *ActionsHandler) HandleGenerateAttritionRisk(w http.ResponseWriter, r *http.Request) {
	id, err := readEmployeeID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.GenerateAttritionRisk(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case isComputation(err):
		writeJSON(w, http.StatusInternalServerError, res)
	default:
		writeServiceError(w, err)
	}
}

// HandleGenerateTrainingRecommendations handles POST /hr/generateTrainingRecommendations.
func (h *ActionsHandler) HandleGenerateTrainingRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := readEmployeeID(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.GenerateTrainingRecommendations(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: out})
}

// HandleAnalyzeTeamPerformance handles POST /hr/analyzeTeamPerformance.
func (h *ActionsHandler) HandleAnalyzeTeamPerformance(w http.ResponseWriter, r *http.Request) {
	dept, err := readDepartment(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.AnalyzeTeamPerformance(r.Context(), dept)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case isComputation(err):
		writeJSON(w, http.StatusInternalServerError, res)
	default:
		writeServiceError(w, err)
	}
}

// HandleGenerateEngagementIdeas handles POST /hr/generateEngagementIdeas.
func (h *ActionsHandler) HandleGenerateEngagementIdeas(w http.ResponseWriter, r *http.Request) {
	dept, err := readDepartment(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.GenerateEngagementIdeas(r.Context(), dept)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: out})
}

// HandleAnalyzePolicyGaps handles POST /hr/analyzePolicyGaps.
func (h *ActionsHandler) HandleAnalyzePolicyGaps(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.AnalyzePolicyGaps(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Value: out})
}
