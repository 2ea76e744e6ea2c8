package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/scoring"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/metrics"
)

// MemStore is an in-process Store. Records are copied in and out so callers
// never share memory with the store.
type MemStore struct {
	mu sync.RWMutex

	employees   map[string]model.Employee
	surveys     map[string][]model.SatisfactionSurvey
	performance map[string][]model.PerformanceMetric
	feedback    map[string][]model.Feedback

	risks   map[string]model.AttritionRisk
	ranking *riskIndex

	recommendations []model.TrainingRecommendation
	ideas           []model.EngagementIdea
	policies        []model.PolicyEnhancement

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemStore constructs an empty store and starts its metrics updater,
// which stops on ctx cancellation or Close.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		employees:             make(map[string]model.Employee),
		surveys:               make(map[string][]model.SatisfactionSurvey),
		performance:           make(map[string][]model.PerformanceMetric),
		feedback:              make(map[string][]model.Feedback),
		risks:                 make(map[string]model.AttritionRisk),
		ranking:               newRiskIndex(),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.employees)
				s.mu.RUnlock()
				metrics.UpdateEmployeeCount(n)
			}
		}
	}()
}

// Close stops the background goroutine.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// CreateEmployee implements EmployeeStore.
func (s *MemStore) CreateEmployee(_ context.Context, e model.Employee) error {
	defer observe("create_employee", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; ok {
		return ErrConflict
	}
	s.employees[e.ID] = e
	return nil
}

// GetEmployee implements EmployeeStore.
func (s *MemStore) GetEmployee(_ context.Context, id string) (model.Employee, error) {
	defer observe("get_employee", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return model.Employee{}, ErrNotFound
	}
	return e, nil
}

// UpdateEmployee implements EmployeeStore.
func (s *MemStore) UpdateEmployee(_ context.Context, e model.Employee) error {
	defer observe("update_employee", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return ErrNotFound
	}
	s.employees[e.ID] = e
	return nil
}

// DeleteEmployee implements EmployeeStore.
func (s *MemStore) DeleteEmployee(_ context.Context, id string) error {
	defer observe("delete_employee", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return ErrNotFound
	}
	delete(s.employees, id)
	delete(s.surveys, id)
	delete(s.performance, id)
	delete(s.feedback, id)
	delete(s.risks, id)
	s.ranking.remove(id)
	s.recommendations = filter(s.recommendations, func(r model.TrainingRecommendation) bool { return r.EmployeeID != id })
	return nil
}

// ListEmployees implements EmployeeStore.
func (s *MemStore) ListEmployees(_ context.Context, f types.EmployeeFilter) ([]model.Employee, error) {
	defer observe("list_employees", time.Now())
	if err := checkLimit(f.Limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if !e.Matches(f.Query) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return head(out, f.Limit), nil
}

// CountEmployees implements EmployeeStore.
func (s *MemStore) CountEmployees(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.employees), nil
}

// AddSurvey implements SignalStore.
func (s *MemStore) AddSurvey(_ context.Context, v model.SatisfactionSurvey) error {
	defer observe("add_survey", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[v.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.surveys[v.EmployeeID] = append(s.surveys[v.EmployeeID], v)
	return nil
}

// AddPerformance implements SignalStore.
func (s *MemStore) AddPerformance(_ context.Context, v model.PerformanceMetric) error {
	defer observe("add_performance", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[v.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.performance[v.EmployeeID] = append(s.performance[v.EmployeeID], v)
	return nil
}

// AddFeedback implements SignalStore.
func (s *MemStore) AddFeedback(_ context.Context, v model.Feedback) error {
	defer observe("add_feedback", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[v.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.feedback[v.EmployeeID] = append(s.feedback[v.EmployeeID], v)
	return nil
}

// Surveys implements SignalStore.
func (s *MemStore) Surveys(_ context.Context, employeeID string, limit int) ([]model.SatisfactionSurvey, error) {
	defer observe("surveys", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoring.RecentSurveys(s.surveys[employeeID], limit), nil
}

// Performance implements SignalStore.
func (s *MemStore) Performance(_ context.Context, employeeID string, limit int) ([]model.PerformanceMetric, error) {
	defer observe("performance", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoring.LatestPerformance(s.performance[employeeID], limit), nil
}

// Feedback implements SignalStore.
func (s *MemStore) Feedback(_ context.Context, employeeID string, limit int) ([]model.Feedback, error) {
	defer observe("feedback", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFeedback(s.feedback[employeeID], limit), nil
}

// SurveysFor implements SignalStore.
func (s *MemStore) SurveysFor(_ context.Context, employeeIDs []string) ([]model.SatisfactionSurvey, error) {
	defer observe("surveys_for", time.Now())
	s.mu.RLock()
	var out []model.SatisfactionSurvey
	for _, id := range employeeIDs {
		out = append(out, s.surveys[id]...)
	}
	s.mu.RUnlock()
	return scoring.RecentSurveys(out, 0), nil
}

// PerformanceFor implements SignalStore.
func (s *MemStore) PerformanceFor(_ context.Context, employeeIDs []string) ([]model.PerformanceMetric, error) {
	defer observe("performance_for", time.Now())
	s.mu.RLock()
	var out []model.PerformanceMetric
	for _, id := range employeeIDs {
		out = append(out, s.performance[id]...)
	}
	s.mu.RUnlock()
	return scoring.LatestPerformance(out, 0), nil
}

// RecentSurveys implements SignalStore.
func (s *MemStore) RecentSurveys(_ context.Context, limit int) ([]model.SatisfactionSurvey, error) {
	defer observe("recent_surveys", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var all []model.SatisfactionSurvey
	for _, v := range s.surveys {
		all = append(all, v...)
	}
	s.mu.RUnlock()
	return scoring.RecentSurveys(all, limit), nil
}

// RecentFeedback implements SignalStore.
func (s *MemStore) RecentFeedback(_ context.Context, limit int) ([]model.Feedback, error) {
	defer observe("recent_feedback", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var all []model.Feedback
	for _, v := range s.feedback {
		all = append(all, v...)
	}
	s.mu.RUnlock()
	return newestFeedback(all, limit), nil
}

// UpsertRisk implements InsightStore.
func (s *MemStore) UpsertRisk(_ context.Context, r model.AttritionRisk) error {
	defer observe("upsert_risk", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[r.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.risks[r.EmployeeID] = r
	s.ranking.set(r.EmployeeID, r.RiskScore)
	return nil
}

// GetRisk implements InsightStore.
func (s *MemStore) GetRisk(_ context.Context, employeeID string) (model.AttritionRisk, error) {
	defer observe("get_risk", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.risks[employeeID]
	if !ok {
		return model.AttritionRisk{}, ErrNotFound
	}
	return r, nil
}

// ListRisks implements InsightStore.
func (s *MemStore) ListRisks(_ context.Context, f types.RiskFilter) ([]types.RiskEntry, error) {
	defer observe("list_risks", time.Now())
	if err := checkLimit(f.Limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]types.RiskEntry, 0, min(s.ranking.len(), max(f.Limit, 16)))
	s.ranking.each(func(id string) bool {
		r, e := s.risks[id], s.employees[id]
		if f.Department != "" && e.Department != f.Department {
			return true
		}
		if f.Urgency != "" && string(r.UrgencyLevel) != f.Urgency {
			return true
		}
		out = append(out, riskEntry(r, e))
		return f.Limit == 0 || len(out) < f.Limit
	})
	s.mu.RUnlock()
	assignRanksWithTies(out)
	return out, nil
}

// AllRisks implements InsightStore.
func (s *MemStore) AllRisks(context.Context) ([]model.AttritionRisk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AttritionRisk, 0, len(s.risks))
	s.ranking.each(func(id string) bool {
		out = append(out, s.risks[id])
		return true
	})
	return out, nil
}

// AddRecommendation implements InsightStore.
func (s *MemStore) AddRecommendation(_ context.Context, r model.TrainingRecommendation) error {
	defer observe("add_recommendation", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[r.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.recommendations = append(s.recommendations, r)
	return nil
}

// AddEngagementIdea implements InsightStore.
func (s *MemStore) AddEngagementIdea(_ context.Context, i model.EngagementIdea) error {
	defer observe("add_engagement_idea", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ideas = append(s.ideas, i)
	return nil
}

// AddPolicyEnhancement implements InsightStore.
func (s *MemStore) AddPolicyEnhancement(_ context.Context, p model.PolicyEnhancement) error {
	defer observe("add_policy_enhancement", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
	return nil
}

// ListRecommendations implements InsightStore.
func (s *MemStore) ListRecommendations(_ context.Context, employeeID string) ([]model.TrainingRecommendation, error) {
	s.mu.RLock()
	out := filter(s.recommendations, func(r model.TrainingRecommendation) bool {
		return employeeID == "" || r.EmployeeID == employeeID
	})
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedDate.After(out[j].GeneratedDate) })
	return out, nil
}

// ListEngagementIdeas implements InsightStore.
func (s *MemStore) ListEngagementIdeas(_ context.Context, department string) ([]model.EngagementIdea, error) {
	s.mu.RLock()
	out := filter(s.ideas, func(i model.EngagementIdea) bool {
		return department == "" || i.Department == department
	})
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedDate.After(out[j].GeneratedDate) })
	return out, nil
}

// ListPolicyEnhancements implements InsightStore.
func (s *MemStore) ListPolicyEnhancements(context.Context) ([]model.PolicyEnhancement, error) {
	s.mu.RLock()
	out := filter(s.policies, func(model.PolicyEnhancement) bool { return true })
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedDate.After(out[j].GeneratedDate) })
	return out, nil
}

// TransitionSuggestion implements InsightStore.
func (s *MemStore) TransitionSuggestion(_ context.Context, kind model.SuggestionKind, id string, next StatusTransition) (model.Status, error) {
	defer observe("transition_suggestion", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	var status *model.Status
	switch kind {
	case model.KindTraining:
		for i := range s.recommendations {
			if s.recommendations[i].ID == id {
				status = &s.recommendations[i].Status
			}
		}
	case model.KindEngagement:
		for i := range s.ideas {
			if s.ideas[i].ID == id {
				status = &s.ideas[i].Status
			}
		}
	case model.KindPolicy:
		for i := range s.policies {
			if s.policies[i].ID == id {
				status = &s.policies[i].Status
			}
		}
	default:
		return "", ErrUnknownKind
	}
	if status == nil {
		return "", ErrNotFound
	}
	to, err := next(*status)
	if err != nil {
		return "", err
	}
	*status = to
	return to, nil
}

func newestFeedback(in []model.Feedback, limit int) []model.Feedback {
	out := append([]model.Feedback(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return head(out, limit)
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func head[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
