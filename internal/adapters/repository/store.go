// Package repository defines the HR store interfaces and their memory and
// SQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/metrics"
)

// EmployeeStore manages employee records.
type EmployeeStore interface {
	// CreateEmployee inserts e. Returns ErrConflict if the id exists.
	CreateEmployee(ctx context.Context, e model.Employee) error
	// GetEmployee returns ErrNotFound for unknown ids.
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
	// UpdateEmployee replaces the mutable fields of an existing employee.
	UpdateEmployee(ctx context.Context, e model.Employee) error
	// DeleteEmployee removes the employee with every signal and insight about them.
	DeleteEmployee(ctx context.Context, id string) error
	// ListEmployees returns employees ordered by last then first name.
	ListEmployees(ctx context.Context, f types.EmployeeFilter) ([]model.Employee, error)
	// CountEmployees returns the number of employees.
	CountEmployees(ctx context.Context) (int, error)
}

// SignalStore holds the append-only inputs of the engines. Every read returns
// newest first; a limit of zero means no limit.
type SignalStore interface {
	AddSurvey(ctx context.Context, s model.SatisfactionSurvey) error
	AddPerformance(ctx context.Context, p model.PerformanceMetric) error
	AddFeedback(ctx context.Context, f model.Feedback) error

	Surveys(ctx context.Context, employeeID string, limit int) ([]model.SatisfactionSurvey, error)
	Performance(ctx context.Context, employeeID string, limit int) ([]model.PerformanceMetric, error)
	Feedback(ctx context.Context, employeeID string, limit int) ([]model.Feedback, error)

	// SurveysFor and PerformanceFor read signals of several employees at once.
	SurveysFor(ctx context.Context, employeeIDs []string) ([]model.SatisfactionSurvey, error)
	PerformanceFor(ctx context.Context, employeeIDs []string) ([]model.PerformanceMetric, error)

	// RecentSurveys and RecentFeedback read across all employees.
	RecentSurveys(ctx context.Context, limit int) ([]model.SatisfactionSurvey, error)
	RecentFeedback(ctx context.Context, limit int) ([]model.Feedback, error)
}

// StatusTransition computes the next status from the current one.
type StatusTransition func(current model.Status) (model.Status, error)

// InsightStore holds computed and generated records.
type InsightStore interface {
	// UpsertRisk keeps at most one risk record per employee; the last write wins.
	UpsertRisk(ctx context.Context, r model.AttritionRisk) error
	GetRisk(ctx context.Context, employeeID string) (model.AttritionRisk, error)
	// ListRisks returns risk rows by score desc, employee id asc. Equal
	// scores share a rank.
	ListRisks(ctx context.Context, f types.RiskFilter) ([]types.RiskEntry, error)
	AllRisks(ctx context.Context) ([]model.AttritionRisk, error)

	AddRecommendation(ctx context.Context, r model.TrainingRecommendation) error
	AddEngagementIdea(ctx context.Context, i model.EngagementIdea) error
	AddPolicyEnhancement(ctx context.Context, p model.PolicyEnhancement) error

	// Listings are newest first. Empty filters match everything.
	ListRecommendations(ctx context.Context, employeeID string) ([]model.TrainingRecommendation, error)
	ListEngagementIdeas(ctx context.Context, department string) ([]model.EngagementIdea, error)
	ListPolicyEnhancements(ctx context.Context) ([]model.PolicyEnhancement, error)

	// TransitionSuggestion applies next to the suggestion's status atomically
	// and returns the new status.
	TransitionSuggestion(ctx context.Context, kind model.SuggestionKind, id string, next StatusTransition) (model.Status, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	EmployeeStore
	SignalStore
	InsightStore
	Close() error
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func checkLimit(limit int) error {
	if limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// assignRanksWithTies numbers entries in order; equal scores share a rank
// and the next distinct score takes the following rank.
func assignRanksWithTies(entries []types.RiskEntry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].RiskScore != entries[i-1].RiskScore {
			rank++
		}
		entries[i].Rank = rank
	}
}

func riskEntry(r model.AttritionRisk, e model.Employee) types.RiskEntry {
	return types.RiskEntry{
		EmployeeID:   r.EmployeeID,
		Name:         e.FullName(),
		Role:         e.Role,
		Department:   e.Department,
		RiskScore:    r.RiskScore,
		UrgencyLevel: string(r.UrgencyLevel),
		Explanation:  r.Explanation,
		LastUpdated:  r.LastUpdated,
	}
}
