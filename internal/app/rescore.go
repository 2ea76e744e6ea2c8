package service

import (
	"context"
	"errors"

	rescorequeue "github.com/okian/smarthr/internal/adapters/mq/queue"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

// RescoreReport counts what happened to a batch rescore request.
type RescoreReport struct {
	Requested  int `json:"requested"`
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// EnqueueRescore queues an attrition recomputation for every employee of
// department, or everyone when department is empty. Employees with a rescore
// already pending are counted as duplicates. A full queue rejects the rest.
func (s *Service) EnqueueRescore(ctx context.Context, department string) (RescoreReport, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return RescoreReport{}, ErrNotStarted
	}

	employees, err := s.store.ListEmployees(ctx, types.EmployeeFilter{Department: department})
	if err != nil {
		return RescoreReport{}, s.classify(ctx, "rescore", err)
	}
	if department != "" && len(employees) == 0 {
		return RescoreReport{}, model.NotFoundf("No employees found in department: %s", department)
	}

	report := RescoreReport{Requested: len(employees)}
	for _, e := range employees {
		if s.tracker.Claim(ctx, e.ID) {
			report.Duplicates++
			metrics.RecordRescoreDuplicate()
			continue
		}
		err := s.queue.TryEnqueue(ctx, model.RescoreJob{JobID: s.newID(), EmployeeID: e.ID, Requested: s.now()})
		if err == nil {
			report.Accepted++
			continue
		}
		s.tracker.Release(ctx, e.ID)
		if errors.Is(err, rescorequeue.ErrFull) {
			report.Rejected++
			continue
		}
		// Closed queue or cancelled request: count the remainder as rejected.
		report.Rejected += report.Requested - report.Accepted - report.Duplicates - report.Rejected
		s.logger.Warn(ctx, "rescore enqueue stopped", logger.Error(err))
		return report, err
	}

	s.logger.Info(ctx, "rescore requested",
		logger.String("department", department),
		logger.Int("accepted", report.Accepted),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("rejected", report.Rejected))
	return report, nil
}
