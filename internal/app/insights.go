package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/okian/smarthr/internal/adapters/repository"
	"github.com/okian/smarthr/internal/domain/analysis"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/logger"
)

// ListRisks returns the ranked attrition risk list.
func (s *Service) ListRisks(ctx context.Context, f types.RiskFilter) ([]types.RiskEntry, error) {
	limit, err := s.clampLimit(f.Limit)
	if err != nil {
		return nil, err
	}
	f.Limit = limit
	if f.Urgency != "" {
		switch model.Urgency(f.Urgency) {
		case model.UrgencyLow, model.UrgencyMedium, model.UrgencyHigh:
		default:
			return nil, model.Invalidf("urgency must be Low, Medium or High, got %q", f.Urgency)
		}
	}
	out, err := s.store.ListRisks(ctx, f)
	return out, s.classify(ctx, "risk list", err)
}

// GetRisk returns the stored risk record of one employee.
func (s *Service) GetRisk(ctx context.Context, employeeID string) (model.AttritionRisk, error) {
	if _, err := s.getEmployee(ctx, employeeID); err != nil {
		return model.AttritionRisk{}, err
	}
	r, err := s.store.GetRisk(ctx, employeeID)
	if errors.Is(err, model.ErrNotFound) {
		return model.AttritionRisk{}, model.NotFoundf("no attrition risk computed for employee %s", employeeID)
	}
	return r, s.classify(ctx, "risk", err)
}

// RiskSummary aggregates stored risks per department.
func (s *Service) RiskSummary(ctx context.Context) ([]types.RiskSummary, error) {
	var (
		risks     []model.AttritionRisk
		employees []model.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		risks, err = s.store.AllRisks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		employees, err = s.store.ListEmployees(gctx, types.EmployeeFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.classify(ctx, "risk summary", err)
	}
	return analysis.SummarizeRisk(risks, employees), nil
}

// ListRecommendations lists training recommendations, optionally for one employee.
func (s *Service) ListRecommendations(ctx context.Context, employeeID string) ([]model.TrainingRecommendation, error) {
	if employeeID != "" {
		if err := s.requireEmployee(ctx, employeeID); err != nil {
			return nil, err
		}
	}
	out, err := s.store.ListRecommendations(ctx, employeeID)
	return out, s.classify(ctx, "recommendation list", err)
}

// ListEngagementIdeas lists engagement ideas, optionally for one department.
func (s *Service) ListEngagementIdeas(ctx context.Context, department string) ([]model.EngagementIdea, error) {
	out, err := s.store.ListEngagementIdeas(ctx, department)
	return out, s.classify(ctx, "engagement idea list", err)
}

// ListPolicyEnhancements lists policy enhancements.
func (s *Service) ListPolicyEnhancements(ctx context.Context) ([]model.PolicyEnhancement, error) {
	out, err := s.store.ListPolicyEnhancements(ctx)
	return out, s.classify(ctx, "policy enhancement list", err)
}

// TransitionSuggestion applies or dismisses a Pending suggestion and returns
// its new status.
func (s *Service) TransitionSuggestion(ctx context.Context, kind, id, action string) (model.Status, error) {
	k, err := model.ParseSuggestionKind(kind)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", model.Invalidf("suggestion id is required")
	}
	if action != model.ActionApply && action != model.ActionDismiss {
		return "", model.Invalidf("action must be %q or %q, got %q", model.ActionApply, model.ActionDismiss, action)
	}

	to, err := s.store.TransitionSuggestion(ctx, k, id, func(current model.Status) (model.Status, error) {
		return model.NextStatus(k, current, action)
	})
	switch {
	case err == nil:
		s.logger.Info(ctx, "suggestion transitioned",
			logger.String("kind", string(k)),
			logger.String("id", id),
			logger.String("status", string(to)))
		return to, nil
	case errors.Is(err, model.ErrNotFound):
		return "", model.NotFoundf("%s suggestion with id %s not found", k, id)
	case errors.Is(err, repository.ErrStaleStatus):
		return "", err
	}
	return "", s.classify(ctx, "suggestion transition", err)
}
