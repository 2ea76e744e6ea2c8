package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/okian/smarthr/internal/adapters/repository"
	"github.com/okian/smarthr/internal/domain/analysis"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/metrics"
)

// CreateEmployee stores a new employee. The id is generated when empty and
// tenure is derived from the hire date.
func (s *Service) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
	start := time.Now()
	var err error
	defer func() { s.observeAction("create_employee", start, err) }()

	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.HireType == "" {
		e.HireType = model.DefaultHireType
	}
	now := s.now().UTC()
	e.HireDate = e.HireDate.UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	e.TenureMonths = model.TenureMonths(e.HireDate, now)

	if err = s.validateEmployee(ctx, e); err != nil {
		return model.Employee{}, err
	}
	if err = s.store.CreateEmployee(ctx, e); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			err = s.classify(ctx, "employee", err)
		}
		return model.Employee{}, err
	}
	return e, nil
}

// UpdateEmployee replaces the mutable fields of employee id.
func (s *Service) UpdateEmployee(ctx context.Context, id string, e model.Employee) (model.Employee, error) {
	start := time.Now()
	var err error
	defer func() { s.observeAction("update_employee", start, err) }()

	var current model.Employee
	if current, err = s.store.GetEmployee(ctx, id); err != nil {
		err = s.classify(ctx, "employee", err)
		return model.Employee{}, err
	}
	e.ID = current.ID
	e.CreatedAt = current.CreatedAt
	if e.HireType == "" {
		e.HireType = current.HireType
	}
	e.HireDate = e.HireDate.UTC()
	e.UpdatedAt = s.now().UTC()
	e.TenureMonths = model.TenureMonths(e.HireDate, e.UpdatedAt)

	if err = s.validateEmployee(ctx, e); err != nil {
		return model.Employee{}, err
	}
	if err = s.store.UpdateEmployee(ctx, e); err != nil {
		err = s.classify(ctx, "employee", err)
		return model.Employee{}, err
	}
	return e, nil
}

func (s *Service) validateEmployee(ctx context.Context, e model.Employee) error {
	if err := e.Validate(); err != nil {
		metrics.RecordValidationReject("employee")
		return err
	}
	if e.ManagerID == "" {
		return nil
	}
	if _, err := s.store.GetEmployee(ctx, e.ManagerID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.RecordValidationReject("employee")
			return model.Invalidf("manager with id %s does not exist", e.ManagerID)
		}
		return s.classify(ctx, "employee", err)
	}
	return nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id string) (model.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return model.Employee{}, s.classify(ctx, "employee", err)
	}
	return e, nil
}

// DeleteEmployee removes an employee with all signals and insights about them.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	start := time.Now()
	err := s.classify(ctx, "employee", s.store.DeleteEmployee(ctx, id))
	s.observeAction("delete_employee", start, err)
	return err
}

// ListEmployees returns employees matching f, capped at the list limit.
func (s *Service) ListEmployees(ctx context.Context, f types.EmployeeFilter) ([]model.Employee, error) {
	limit, err := s.clampLimit(f.Limit)
	if err != nil {
		return nil, err
	}
	f.Limit = limit
	out, err := s.store.ListEmployees(ctx, f)
	if err != nil {
		return nil, s.classify(ctx, "employees", err)
	}
	return out, nil
}

// SearchEmployees matches q against name, code, role, department, team and location.
func (s *Service) SearchEmployees(ctx context.Context, q string, limit int) ([]model.Employee, error) {
	return s.ListEmployees(ctx, types.EmployeeFilter{Query: q, Limit: limit})
}

// Departments summarizes headcount and key talent per department.
func (s *Service) Departments(ctx context.Context) ([]types.DepartmentSummary, error) {
	all, err := s.store.ListEmployees(ctx, types.EmployeeFilter{})
	if err != nil {
		return nil, s.classify(ctx, "department summary", err)
	}
	return analysis.Departments(all), nil
}

// AddSurvey validates and appends a satisfaction survey.
func (s *Service) AddSurvey(ctx context.Context, v model.SatisfactionSurvey) (model.SatisfactionSurvey, error) {
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.SurveyDate.IsZero() {
		v.SurveyDate = s.now()
	}
	v.SurveyDate = v.SurveyDate.UTC()
	if err := v.Validate(); err != nil {
		metrics.RecordValidationReject("survey")
		return model.SatisfactionSurvey{}, err
	}
	if err := s.store.AddSurvey(ctx, v); err != nil {
		return model.SatisfactionSurvey{}, s.signalError(ctx, "survey", v.EmployeeID, err)
	}
	return v, nil
}

// AddPerformance validates and appends a performance metric.
func (s *Service) AddPerformance(ctx context.Context, v model.PerformanceMetric) (model.PerformanceMetric, error) {
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.RecordedAt.IsZero() {
		v.RecordedAt = s.now()
	}
	v.RecordedAt = v.RecordedAt.UTC()
	v.Period = strings.TrimSpace(v.Period)
	if err := v.Validate(); err != nil {
		metrics.RecordValidationReject("performance")
		return model.PerformanceMetric{}, err
	}
	if err := s.store.AddPerformance(ctx, v); err != nil {
		return model.PerformanceMetric{}, s.signalError(ctx, "performance", v.EmployeeID, err)
	}
	return v, nil
}

// AddFeedback validates and appends feedback. The author must differ from the subject.
func (s *Service) AddFeedback(ctx context.Context, v model.Feedback) (model.Feedback, error) {
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.Date.IsZero() {
		v.Date = s.now()
	}
	v.Date = v.Date.UTC()
	v.Type = strings.ToLower(strings.TrimSpace(v.Type))
	if err := v.Validate(); err != nil {
		metrics.RecordValidationReject("feedback")
		return model.Feedback{}, err
	}
	if err := s.store.AddFeedback(ctx, v); err != nil {
		return model.Feedback{}, s.signalError(ctx, "feedback", v.EmployeeID, err)
	}
	return v, nil
}

func (s *Service) signalError(ctx context.Context, what, employeeID string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.NotFoundf("employee with id %s not found", employeeID)
	}
	return s.classify(ctx, what, err)
}

// Surveys lists an employee's surveys, newest first.
func (s *Service) Surveys(ctx context.Context, employeeID string, limit int) ([]model.SatisfactionSurvey, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Surveys(ctx, employeeID, limit)
	return out, s.classify(ctx, "surveys", err)
}

// Performance lists an employee's performance metrics, latest period first.
func (s *Service) Performance(ctx context.Context, employeeID string, limit int) ([]model.PerformanceMetric, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Performance(ctx, employeeID, limit)
	return out, s.classify(ctx, "performance", err)
}

// Feedback lists feedback about an employee, newest first.
func (s *Service) Feedback(ctx context.Context, employeeID string, limit int) ([]model.Feedback, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Feedback(ctx, employeeID, limit)
	return out, s.classify(ctx, "feedback", err)
}

func (s *Service) requireEmployee(ctx context.Context, id string) error {
	_, err := s.getEmployee(ctx, id)
	return err
}

// getEmployee resolves id or returns a not-found error naming it.
func (s *Service) getEmployee(ctx context.Context, id string) (model.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return model.Employee{}, model.Invalidf("employee id is required")
	}
	e, err := s.store.GetEmployee(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Employee{}, model.NotFoundf("employee with id %s not found", id)
	}
	if err != nil {
		return model.Employee{}, s.classify(ctx, "employee", err)
	}
	return e, nil
}
