package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/smarthr/pkg/logger"
)

// ErrVerification reports a response that was accepted but wrong.
var ErrVerification = errors.New("verification failed")

// Run executes the complete smoke scenario.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Employees < 1 {
		cfg.Employees = 1
	}
	if cfg.Department == "" {
		cfg.Department = "Smoke-" + uuid.NewString()[:8]
	}
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)
	log := logger.Get().Named("smoke")

	log.Info(ctx, "starting smarthr smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("department", cfg.Department),
		logger.Int("employees", cfg.Employees),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	// Step 1: service health
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: seed the department
	ids, err := seed(ctx, c, cfg, stats)
	if len(ids) > 0 && !cfg.Keep {
		defer cleanup(context.WithoutCancel(ctx), log, c, ids, stats)
	}
	if err != nil {
		return stats, fmt.Errorf("seeding failed: %w", err)
	}

	// Step 3: score everyone concurrently
	if err := scoreAll(ctx, c, cfg.Workers, ids, stats); err != nil {
		return stats, fmt.Errorf("scoring failed: %w", err)
	}

	// Step 4: department and company actions
	if err := runActions(ctx, c, cfg.Department, ids[1], stats); err != nil {
		return stats, fmt.Errorf("actions failed: %w", err)
	}

	// Step 5: narratives
	if err := runNarratives(ctx, c, ids[1], stats); err != nil {
		return stats, fmt.Errorf("narratives failed: %w", err)
	}

	// Step 6: ranked list
	var entries []Entry
	q := url.Values{"department": {cfg.Department}}
	if err := c.get(ctx, "/hr/attrition?"+q.Encode(), &entries); err != nil {
		return stats, fmt.Errorf("ranking retrieval failed: %w", err)
	}
	stats.RankedEntries = len(entries)
	if err := verifyRanking(entries, len(ids)); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	log.Info(ctx, "smoke run completed successfully")
	return stats, nil
}

// seed creates a manager followed by cfg.Employees reports, each with a
// survey, two performance periods and one piece of manager feedback. The
// manager's id is first in the returned slice.
func seed(ctx context.Context, c *client, cfg *Config, stats *Stats) ([]string, error) {
	now := time.Now().UTC()
	var mgr employee
	err := c.post(ctx, "/hr/employees", employee{
		FirstName:   "Morgan",
		LastName:    "Smoke",
		Role:        "Engineering Manager",
		Department:  cfg.Department,
		HireDate:    now.AddDate(-8, 0, 0).Format(time.DateOnly),
		IsKeyTalent: true,
	}, http.StatusCreated, &mgr)
	if err != nil {
		return nil, err
	}
	ids := make([]string, cfg.Employees+1)
	ids[0] = mgr.ID
	stats.EmployeesCreated = 1

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 1; i <= cfg.Employees; i++ {
		g.Go(func() error {
			id, signals, err := seedOne(gctx, c, cfg.Department, mgr.ID, i, now)
			mu.Lock()
			defer mu.Unlock()
			if id != "" {
				ids[i] = id
				stats.EmployeesCreated++
			}
			stats.SignalsRecorded += signals
			return err
		})
	}
	err = g.Wait()
	return compact(ids), err
}

func seedOne(ctx context.Context, c *client, dept, managerID string, i int, now time.Time) (string, int, error) {
	var e employee
	err := c.post(ctx, "/hr/employees", employee{
		FirstName:  "Report",
		LastName:   "Smoke" + strconv.Itoa(i),
		Role:       "Engineer",
		Department: dept,
		ManagerID:  managerID,
		HireDate:   now.AddDate(0, -(3 + (i*7)%80), 0).Format(time.DateOnly),
	}, http.StatusCreated, &e)
	if err != nil {
		return "", 0, err
	}

	base := "/hr/employees/" + e.ID
	steps := []struct {
		path string
		body any
	}{
		{"/surveys", survey{Score: float64(30 + (i*17)%70), Comments: "smoke survey"}},
		{"/performance", performance{Period: strconv.Itoa(now.Year()) + "-Q1", Score: 1 + float64(i%5)*0.9, GoalsMet: float64(60 + (i*13)%40), ManagerRating: float64(5 + i%5)}},
		{"/performance", performance{Period: strconv.Itoa(now.Year()) + "-Q2", Score: 1 + float64((i+2)%5)*0.9, GoalsMet: float64(40 + (i*29)%60), ManagerRating: float64(5 + (i+1)%5)}},
		{"/feedback", feedback{FromEmployeeID: managerID, Type: "manager", Text: "Steady progress on the smoke project"}},
	}
	recorded := 0
	for _, st := range steps {
		if err := c.post(ctx, base+st.path, st.body, http.StatusCreated, nil); err != nil {
			return e.ID, recorded, err
		}
		recorded++
	}
	return e.ID, recorded, nil
}

func scoreAll(ctx context.Context, c *client, workers int, ids []string, stats *Stats) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			var res riskResult
			if err := c.post(gctx, "/hr/generateAttritionRisk", map[string]string{"employeeId": id}, http.StatusOK, &res); err != nil {
				return err
			}
			if !res.Success || res.RiskScore < 0 || res.RiskScore > 1 || res.UrgencyLevel == "" {
				return fmt.Errorf("%w: employee %s: unexpected risk result %+v", ErrVerification, id, res)
			}
			mu.Lock()
			stats.RisksScored++
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func runActions(ctx context.Context, c *client, dept, employeeID string, stats *Stats) error {
	var v valueResult
	if err := c.post(ctx, "/hr/generateTrainingRecommendations", map[string]string{"employeeId": employeeID}, http.StatusOK, &v); err != nil {
		return err
	}
	if v.Value == "" {
		return fmt.Errorf("%w: empty training recommendations", ErrVerification)
	}
	stats.ActionsRun++

	var team teamResult
	if err := c.post(ctx, "/hr/analyzeTeamPerformance", map[string]string{"department": dept}, http.StatusOK, &team); err != nil {
		return err
	}
	if !team.Success || team.Analysis == nil || team.Analysis.TeamSize == 0 {
		return fmt.Errorf("%w: unexpected team analysis %+v", ErrVerification, team)
	}
	stats.ActionsRun++

	for _, a := range []struct {
		path string
		body any
	}{
		{"/hr/generateEngagementIdeas", map[string]string{"department": dept}},
		{"/hr/analyzePolicyGaps", struct{}{}},
	} {
		v = valueResult{}
		if err := c.post(ctx, a.path, a.body, http.StatusOK, &v); err != nil {
			return err
		}
		if v.Value == "" {
			return fmt.Errorf("%w: empty result from %s", ErrVerification, a.path)
		}
		stats.ActionsRun++
	}
	return nil
}

func runNarratives(ctx context.Context, c *client, employeeID string, stats *Stats) error {
	var ex explainResult
	if err := c.post(ctx, "/genai/explainAttritionRisk", map[string]string{"employeeId": employeeID}, http.StatusOK, &ex); err != nil {
		return err
	}
	if ex.Explanation == "" {
		return fmt.Errorf("%w: empty explanation", ErrVerification)
	}
	stats.NarrativesRun++
	if ex.Source == "fallback" {
		stats.FallbackNarrates++
	}

	var sum struct {
		Summary string `json:"summary"`
		Source  string `json:"source"`
		Count   int    `json:"count"`
	}
	if err := c.post(ctx, "/genai/summarizeFeedback", map[string]string{"employeeId": employeeID, "timeframe": "30d"}, http.StatusOK, &sum); err != nil {
		return err
	}
	if sum.Summary == "" || sum.Count != 1 {
		return fmt.Errorf("%w: unexpected feedback summary %+v", ErrVerification, sum)
	}
	stats.NarrativesRun++
	if sum.Source == "fallback" {
		stats.FallbackNarrates++
	}

	var plan struct {
		Plan   string `json:"plan"`
		Source string `json:"source"`
	}
	if err := c.post(ctx, "/genai/suggestTraining", map[string]string{"employeeId": employeeID, "gaps": "stakeholder communication"}, http.StatusOK, &plan); err != nil {
		return err
	}
	if plan.Plan == "" {
		return fmt.Errorf("%w: empty training plan", ErrVerification)
	}
	stats.NarrativesRun++
	if plan.Source == "fallback" {
		stats.FallbackNarrates++
	}
	return nil
}

// cleanup deletes seeded employees, reports first so the manager goes last.
func cleanup(ctx context.Context, log logger.Logger, c *client, ids []string, stats *Stats) {
	for i := len(ids) - 1; i >= 0; i-- {
		if err := c.do(ctx, http.MethodDelete, "/hr/employees/"+ids[i], nil, http.StatusNoContent, nil); err != nil {
			log.Warn(ctx, "failed to delete seeded employee", logger.String("employeeId", ids[i]), logger.Error(err))
			continue
		}
		stats.Deleted++
	}
	log.Info(ctx, "seeded employees removed", logger.Int("deleted", stats.Deleted))
}

func compact(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("employeesCreated", stats.EmployeesCreated),
		logger.Int("signalsRecorded", stats.SignalsRecorded),
		logger.Int("risksScored", stats.RisksScored),
		logger.Int("actionsRun", stats.ActionsRun),
		logger.Int("narrativesRun", stats.NarrativesRun),
		logger.Int("fallbackNarratives", stats.FallbackNarrates),
		logger.Int("rankedEntries", stats.RankedEntries),
		logger.String("duration", stats.Duration.String()))
}
