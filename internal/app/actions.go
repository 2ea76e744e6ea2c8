package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/smarthr/internal/domain/analysis"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/scoring"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

// Action names used in metrics and logs.
const (
	ActionAttritionRisk     = "generate_attrition_risk"
	ActionTraining          = "generate_training_recommendations"
	ActionTeamPerformance   = "analyze_team_performance"
	ActionEngagementIdeas   = "generate_engagement_ideas"
	ActionPolicyGaps        = "analyze_policy_gaps"
	ActionExplainRisk       = "explain_attrition_risk"
	ActionSummarizeFeedback = "summarize_feedback"
	ActionSuggestTraining   = "suggest_training"
)

// RiskResult is the outcome of GenerateAttritionRisk.
type RiskResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	RiskScore    float64       `json:"riskScore"`
	UrgencyLevel model.Urgency `json:"urgencyLevel,omitempty"`
	Explanation  string        `json:"explanation,omitempty"`
}

// TeamAnalysisResult is the outcome of AnalyzeTeamPerformance.
type TeamAnalysisResult struct {
	Success  bool                      `json:"success"`
	Message  string                    `json:"message,omitempty"`
	Analysis *analysis.TeamPerformance `json:"analysis,omitempty"`
}

// GenerateAttritionRisk scores one employee and upserts the result. A
// computation failure returns the failure result together with an error
// wrapping model.ErrComputation.
func (s *Service) GenerateAttritionRisk(ctx context.Context, employeeID string) (RiskResult, error) {
	start := time.Now()
	res, err := s.generateAttritionRisk(ctx, employeeID)
	s.observeAction(ActionAttritionRisk, start, err)
	if err != nil && errors.Is(err, model.ErrComputation) {
		return RiskResult{Success: false, Message: "Error calculating attrition risk"}, err
	}
	return res, err
}

func (s *Service) generateAttritionRisk(ctx context.Context, employeeID string) (RiskResult, error) {
	b, err := s.loadSignals(ctx, employeeID, 0)
	if err != nil {
		return RiskResult{}, s.classify(ctx, "attrition risk", err)
	}
	a, err := s.assess(b)
	if err != nil {
		return RiskResult{}, s.computationFailure(ctx, "attrition risk", err)
	}

	risk := model.AttritionRisk{
		EmployeeID:   employeeID,
		RiskScore:    a.Score,
		UrgencyLevel: a.Urgency,
		Explanation:  a.Explanation,
		LastUpdated:  s.now(),
	}
	if err := s.upsertRisk(ctx, risk); err != nil {
		return RiskResult{}, s.classify(ctx, "attrition risk", err)
	}
	metrics.RecordRiskScore(a.Score, string(a.Urgency))
	s.logger.Debug(ctx, "attrition risk calculated",
		logger.String("employee_id", employeeID),
		logger.Float64("score", a.Score),
		logger.String("urgency", string(a.Urgency)))

	return RiskResult{
		Success:      true,
		Message:      fmt.Sprintf("Attrition risk calculated: %.1f%%", a.Score*100),
		RiskScore:    a.Score,
		UrgencyLevel: a.Urgency,
		Explanation:  a.Explanation,
	}, nil
}

// upsertRisk skips the write when the stored record already carries the same
// score, tier and explanation, so recomputation over unchanged signals leaves
// the record untouched.
func (s *Service) upsertRisk(ctx context.Context, r model.AttritionRisk) error {
	prev, err := s.store.GetRisk(ctx, r.EmployeeID)
	switch {
	case err == nil:
		if prev.RiskScore == r.RiskScore && prev.UrgencyLevel == r.UrgencyLevel && prev.Explanation == r.Explanation {
			return nil
		}
	case !errors.Is(err, model.ErrNotFound):
		return err
	}
	return s.store.UpsertRisk(ctx, r)
}

// Rescore recomputes one employee's risk. It backs the worker pool.
func (s *Service) Rescore(ctx context.Context, employeeID string) error {
	_, err := s.GenerateAttritionRisk(ctx, employeeID)
	return err
}

// GenerateTrainingRecommendations runs the recommendation rules for one
// employee and appends a Pending recommendation.
func (s *Service) GenerateTrainingRecommendations(ctx context.Context, employeeID string) (string, error) {
	start := time.Now()
	out, err := s.generateTrainingRecommendations(ctx, employeeID)
	s.observeAction(ActionTraining, start, err)
	return out, err
}

func (s *Service) generateTrainingRecommendations(ctx context.Context, employeeID string) (string, error) {
	e, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	latest, err := s.latestPerformance(ctx, employeeID)
	if err != nil {
		return "", s.classify(ctx, "training recommendations", err)
	}
	rec := scoring.Recommend(e.Role, latest)

	text := rec.Text()
	if err := s.store.AddRecommendation(ctx, model.TrainingRecommendation{
		ID:                 s.newID(),
		EmployeeID:         employeeID,
		GeneratedDate:      s.now(),
		RecommendationText: text,
		ConfidenceScore:    rec.Confidence,
		Status:             model.StatusPending,
	}); err != nil {
		return "", s.classify(ctx, "training recommendations", err)
	}
	return "Training recommendations generated: " + text, nil
}

func (s *Service) latestPerformance(ctx context.Context, employeeID string) (*model.PerformanceMetric, error) {
	perf, err := s.store.Performance(ctx, employeeID, 1)
	if err != nil || len(perf) == 0 {
		return nil, err
	}
	return &perf[0], nil
}

// AnalyzeTeamPerformance aggregates performance for one department.
func (s *Service) AnalyzeTeamPerformance(ctx context.Context, department string) (TeamAnalysisResult, error) {
	start := time.Now()
	res, err := s.analyzeTeamPerformance(ctx, department)
	s.observeAction(ActionTeamPerformance, start, err)
	if err != nil && errors.Is(err, model.ErrComputation) {
		return TeamAnalysisResult{Success: false, Message: "Error calculating team performance"}, err
	}
	return res, err
}

func (s *Service) analyzeTeamPerformance(ctx context.Context, department string) (TeamAnalysisResult, error) {
	members, err := s.departmentMembers(ctx, department)
	if err != nil {
		return TeamAnalysisResult{}, err
	}
	metricsList, err := s.store.PerformanceFor(ctx, employeeIDs(members))
	if err != nil {
		return TeamAnalysisResult{}, s.classify(ctx, "team performance", err)
	}
	byEmployee := make(map[string][]model.PerformanceMetric, len(members))
	for _, m := range metricsList {
		byEmployee[m.EmployeeID] = append(byEmployee[m.EmployeeID], m)
	}
	team := analysis.AnalyzeTeam(department, members, byEmployee)
	return TeamAnalysisResult{Success: true, Message: team.Summary, Analysis: &team}, nil
}

// GenerateEngagementIdeas proposes ideas from the department's satisfaction
// and appends a Pending engagement idea.
func (s *Service) GenerateEngagementIdeas(ctx context.Context, department string) (string, error) {
	start := time.Now()
	out, err := s.generateEngagementIdeas(ctx, department)
	s.observeAction(ActionEngagementIdeas, start, err)
	return out, err
}

func (s *Service) generateEngagementIdeas(ctx context.Context, department string) (string, error) {
	members, err := s.departmentMembers(ctx, department)
	if err != nil {
		return "", err
	}
	surveys, err := s.store.SurveysFor(ctx, employeeIDs(members))
	if err != nil {
		return "", s.classify(ctx, "engagement ideas", err)
	}
	plan := analysis.PlanEngagement(department, surveys)
	if err := s.store.AddEngagementIdea(ctx, model.EngagementIdea{
		ID:             s.newID(),
		Department:     department,
		GeneratedDate:  s.now(),
		IdeaText:       plan.Text(),
		ImpactEstimate: plan.Impact,
		Status:         model.StatusPending,
	}); err != nil {
		return "", s.classify(ctx, "engagement ideas", err)
	}
	return plan.Message(), nil
}

// AnalyzePolicyGaps reads recent surveys and feedback across the company and
// appends a Pending policy enhancement.
func (s *Service) AnalyzePolicyGaps(ctx context.Context) (string, error) {
	start := time.Now()
	out, err := s.analyzePolicyGaps(ctx)
	s.observeAction(ActionPolicyGaps, start, err)
	return out, err
}

func (s *Service) analyzePolicyGaps(ctx context.Context) (string, error) {
	var (
		surveys  []model.SatisfactionSurvey
		feedback []model.Feedback
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		surveys, err = s.store.RecentSurveys(gctx, analysis.PolicySurveyWindow)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = s.store.RecentFeedback(gctx, analysis.PolicyFeedbackWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", s.classify(ctx, "policy gaps", err)
	}

	gap := analysis.AnalyzePolicyGaps(surveys, feedback)
	if err := s.store.AddPolicyEnhancement(ctx, model.PolicyEnhancement{
		ID:             s.newID(),
		GeneratedDate:  s.now(),
		Theme:          gap.Theme,
		SuggestionText: gap.Text(),
		Rationale:      gap.Rationale,
		Status:         model.StatusPending,
	}); err != nil {
		return "", s.classify(ctx, "policy gaps", err)
	}
	return gap.Message(), nil
}

// departmentMembers lists every employee of department. An empty department
// is a not-found condition.
func (s *Service) departmentMembers(ctx context.Context, department string) ([]model.Employee, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, model.Invalidf("department is required")
	}
	members, err := s.store.ListEmployees(ctx, types.EmployeeFilter{Department: department})
	if err != nil {
		return nil, s.classify(ctx, "department", err)
	}
	if len(members) == 0 {
		return nil, model.NotFoundf("No employees found in department: %s", department)
	}
	return members, nil
}

func employeeIDs(employees []model.Employee) []string {
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	return ids
}
