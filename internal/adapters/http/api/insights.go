package api

import (
	"context"
	"net/http"

	service "github.com/okian/smarthr/internal/app"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
)

// InsightDependencies expose stored risks, generated content and rescoring.
type InsightDependencies interface {
	GetRisk(ctx context.Context, employeeID string) (model.AttritionRisk, error)
	ListRisks(ctx context.Context, f types.RiskFilter) ([]types.RiskEntry, error)
	RiskSummary(ctx context.Context) ([]types.RiskSummary, error)
	EnqueueRescore(ctx context.Context, department string) (service.RescoreReport, error)

	ListRecommendations(ctx context.Context, employeeID string) ([]model.TrainingRecommendation, error)
	ListEngagementIdeas(ctx context.Context, department string) ([]model.EngagementIdea, error)
	ListPolicyEnhancements(ctx context.Context) ([]model.PolicyEnhancement, error)
	TransitionSuggestion(ctx context.Context, kind, id, action string) (model.Status, error)
}

// InsightsHandler serves risk listings, generated content and the
// suggestion workflow.
type InsightsHandler struct {
	deps InsightDependencies
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(deps InsightDependencies) *InsightsHandler {
	return &InsightsHandler{deps: deps}
}

// HandleGetRisk handles GET /hr/employees/{id}/risk.
func (h *InsightsHandler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	risk, err := h.deps.GetRisk(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

// HandleListRisks handles GET /hr/attrition?department=&urgency=&limit=.
func (h *InsightsHandler) HandleListRisks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	out, err := h.deps.ListRisks(r.Context(), types.RiskFilter{
		Department: q.Get("department"),
		Urgency:    q.Get("urgency"),
		Limit:      limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRiskSummary handles GET /hr/attrition/summary.
func (h *InsightsHandler) HandleRiskSummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.RiskSummary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRescore handles POST /hr/attrition/rescore. The body's department is
// optional; without it every employee is queued.
func (h *InsightsHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	dept, err := readDepartment(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := h.deps.EnqueueRescore(r.Context(), dept)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, report)
}

// HandleListRecommendations handles GET /hr/recommendations?employeeId=.
func (h *InsightsHandler) HandleListRecommendations(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListRecommendations(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListEngagementIdeas handles GET /hr/engagement-ideas?department=.
func (h *InsightsHandler) HandleListEngagementIdeas(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListEngagementIdeas(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListPolicyEnhancements handles GET /hr/policy-enhancements.
func (h *InsightsHandler) HandleListPolicyEnhancements(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ListPolicyEnhancements(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type transitionResponse struct {
	ID     string       `json:"id"`
	Kind   string       `json:"kind"`
	Status model.Status `json:"status"`
}

// HandleTransition handles POST /hr/suggestions/{kind}/{id}/{action}.
func (h *InsightsHandler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	status, err := h.deps.TransitionSuggestion(r.Context(), kind, id, r.PathValue("action"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{ID: id, Kind: kind, Status: status})
}
