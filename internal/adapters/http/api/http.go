// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ActionDependencies
	GenAIDependencies
	EmployeeDependencies
	InsightDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	actionsHandler   *ActionsHandler
	genaiHandler     *GenAIHandler
	employeesHandler *EmployeesHandler
	insightsHandler  *InsightsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		actionsHandler:   NewActionsHandler(deps),
		genaiHandler:     NewGenAIHandler(deps),
		employeesHandler: NewEmployeesHandler(deps),
		insightsHandler:  NewInsightsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	a := s.actionsHandler
	mux.HandleFunc("POST /hr/generateAttritionRisk", MetricsMiddleware(a.HandleGenerateAttritionRisk, "generate_attrition_risk"))
	mux.HandleFunc("POST /hr/generateTrainingRecommendations", MetricsMiddleware(a.HandleGenerateTrainingRecommendations, "generate_training_recommendations"))
	mux.HandleFunc("POST /hr/analyzeTeamPerformance", MetricsMiddleware(a.HandleAnalyzeTeamPerformance, "analyze_team_performance"))
	mux.HandleFunc("POST /hr/generateEngagementIdeas", MetricsMiddleware(a.HandleGenerateEngagementIdeas, "generate_engagement_ideas"))
	mux.HandleFunc("POST /hr/analyzePolicyGaps", MetricsMiddleware(a.HandleAnalyzePolicyGaps, "analyze_policy_gaps"))

	g := s.genaiHandler
	mux.HandleFunc("POST /genai/explainAttritionRisk", MetricsMiddleware(g.HandleExplainAttritionRisk, "explain_attrition_risk"))
	mux.HandleFunc("POST /genai/summarizeFeedback", MetricsMiddleware(g.HandleSummarizeFeedback, "summarize_feedback"))
	mux.HandleFunc("POST /genai/suggestTraining", MetricsMiddleware(g.HandleSuggestTraining, "suggest_training"))

	e := s.employeesHandler
	mux.HandleFunc("GET /hr/employees", MetricsMiddleware(e.HandleList, "employees"))
	mux.HandleFunc("POST /hr/employees", MetricsMiddleware(e.HandleCreate, "employees"))
	mux.HandleFunc("GET /hr/employees/search", MetricsMiddleware(e.HandleSearch, "employees_search"))
	mux.HandleFunc("GET /hr/employees/{id}", MetricsMiddleware(e.HandleGet, "employee"))
	mux.HandleFunc("PUT /hr/employees/{id}", MetricsMiddleware(e.HandleUpdate, "employee"))
	mux.HandleFunc("DELETE /hr/employees/{id}", MetricsMiddleware(e.HandleDelete, "employee"))
	mux.HandleFunc("GET /hr/employees/{id}/surveys", MetricsMiddleware(e.HandleListSurveys, "surveys"))
	mux.HandleFunc("POST /hr/employees/{id}/surveys", MetricsMiddleware(e.HandleAddSurvey, "surveys"))
	mux.HandleFunc("GET /hr/employees/{id}/performance", MetricsMiddleware(e.HandleListPerformance, "performance"))
	mux.HandleFunc("POST /hr/employees/{id}/performance", MetricsMiddleware(e.HandleAddPerformance, "performance"))
	mux.HandleFunc("GET /hr/employees/{id}/feedback", MetricsMiddleware(e.HandleListFeedback, "feedback"))
	mux.HandleFunc("POST /hr/employees/{id}/feedback", MetricsMiddleware(e.HandleAddFeedback, "feedback"))
	mux.HandleFunc("GET /hr/departments", MetricsMiddleware(e.HandleDepartments, "departments"))

	i := s.insightsHandler
	mux.HandleFunc("GET /hr/employees/{id}/risk", MetricsMiddleware(i.HandleGetRisk, "employee_risk"))
	mux.HandleFunc("GET /hr/attrition", MetricsMiddleware(i.HandleListRisks, "attrition"))
	mux.HandleFunc("GET /hr/attrition/summary", MetricsMiddleware(i.HandleRiskSummary, "attrition_summary"))
	mux.HandleFunc("POST /hr/attrition/rescore", MetricsMiddleware(i.HandleRescore, "attrition_rescore"))
	mux.HandleFunc("GET /hr/recommendations", MetricsMiddleware(i.HandleListRecommendations, "recommendations"))
	mux.HandleFunc("GET /hr/engagement-ideas", MetricsMiddleware(i.HandleListEngagementIdeas, "engagement_ideas"))
	mux.HandleFunc("GET /hr/policy-enhancements", MetricsMiddleware(i.HandleListPolicyEnhancements, "policy_enhancements"))
	mux.HandleFunc("POST /hr/suggestions/{kind}/{id}/{action}", MetricsMiddleware(i.HandleTransition, "suggestions"))
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// valueResponse wraps string results.
type valueResponse struct {
	Value string `json:"value"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error onto its status code.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError && !isComputation(err) {
		// Unclassified failures carry no detail to the client.
		err = nil
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return nil
}

// queryLimit parses ?limit=; absent means zero.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", ErrBadRequest)
	}
	return n, nil
}

// flexTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
type flexTime struct{ time.Time }

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
}
