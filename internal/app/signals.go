package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/scoring"
)

// explainFeedbackWindow bounds the feedback quoted in risk narratives.
const explainFeedbackWindow = 5

// signalBundle is everything the risk engine and its narrative read for one employee.
type signalBundle struct {
	employee    model.Employee
	surveys     []model.SatisfactionSurvey
	performance []model.PerformanceMetric
	feedback    []model.Feedback
}

// loadSignals resolves the employee, then fetches its signals concurrently.
// feedbackLimit of zero skips the feedback read.
func (s *Service) loadSignals(ctx context.Context, employeeID string, feedbackLimit int) (signalBundle, error) {
	e, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return signalBundle{}, err
	}
	b := signalBundle{employee: e}
	rules := s.engine.Rules()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b.surveys, err = s.store.Surveys(gctx, employeeID, rules.SatisfactionWindow)
		return err
	})
	g.Go(func() error {
		var err error
		b.performance, err = s.store.Performance(gctx, employeeID, 2)
		return err
	})
	if feedbackLimit > 0 {
		g.Go(func() error {
			var err error
			b.feedback, err = s.store.Feedback(gctx, employeeID, feedbackLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return signalBundle{}, err
	}
	return b, nil
}

// assess scores the bundle with tenure computed as of now.
func (s *Service) assess(b signalBundle) (a scoring.Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", model.ErrComputation, r)
		}
	}()
	return s.engine.Assess(scoring.Signals{
		TenureMonths: model.TenureMonths(b.employee.HireDate, s.now()),
		Surveys:      b.surveys,
		Performance:  b.performance,
	}), nil
}

func (b signalBundle) latestSurvey() *model.SatisfactionSurvey {
	if latest := scoring.RecentSurveys(b.surveys, 1); len(latest) > 0 {
		return &latest[0]
	}
	return nil
}

// trend returns the latest and prior metric, either of which may be nil.
func (b signalBundle) trend() (latest, prior *model.PerformanceMetric) {
	ordered := scoring.LatestPerformance(b.performance, 2)
	if len(ordered) > 0 {
		latest = &ordered[0]
	}
	if len(ordered) > 1 {
		prior = &ordered[1]
	}
	return latest, prior
}
