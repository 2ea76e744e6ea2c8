package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
)

var t0 = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func testEmployee(id, first, last, dept, role string) model.Employee {
	return model.Employee{
		ID: id, FirstName: first, LastName: last, Department: dept, Role: role,
		Email: first + "@example.com", HireDate: t0.AddDate(-2, 0, 0), HireType: model.DefaultHireType,
		TenureMonths: 24, CreatedAt: t0, UpdatedAt: t0,
	}
}

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("employee lifecycle", func(t *testing.T) {
		s := open(t)
		e := testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")
		require.NoError(t, s.CreateEmployee(ctx, e))
		assert.ErrorIs(t, s.CreateEmployee(ctx, e), ErrConflict)

		got, err := s.GetEmployee(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "Lovelace", got.LastName)
		assert.True(t, got.HireDate.Equal(e.HireDate))

		e.Role = "Engineering Manager"
		require.NoError(t, s.UpdateEmployee(ctx, e))
		got, _ = s.GetEmployee(ctx, "e1")
		assert.Equal(t, "Engineering Manager", got.Role)

		_, err = s.GetEmployee(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, errors.Is(err, model.ErrNotFound))
		assert.ErrorIs(t, s.UpdateEmployee(ctx, testEmployee("missing", "a", "b", "c", "d")), ErrNotFound)

		n, err := s.CountEmployees(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("list and search employees", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e2", "Grace", "Hopper", "Eng", "Manager")))
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e3", "Mary", "Parker", "Sales", "Account Executive")))

		all, err := s.ListEmployees(ctx, types.EmployeeFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Hopper", all[0].LastName)

		eng, _ := s.ListEmployees(ctx, types.EmployeeFilter{Department: "Eng"})
		assert.Len(t, eng, 2)

		found, _ := s.ListEmployees(ctx, types.EmployeeFilter{Query: "MANAG"})
		require.Len(t, found, 1)
		assert.Equal(t, "e2", found[0].ID)

		limited, _ := s.ListEmployees(ctx, types.EmployeeFilter{Limit: 1})
		assert.Len(t, limited, 1)

		_, err = s.ListEmployees(ctx, types.EmployeeFilter{Limit: -1})
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("signals are returned newest first", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		for i, score := range []float64{80, 60, 40, 20} {
			require.NoError(t, s.AddSurvey(ctx, model.SatisfactionSurvey{
				ID: fmt.Sprintf("s%d", i), EmployeeID: "e1", Score: score, SurveyDate: t0.AddDate(0, i, 0),
			}))
		}
		for i, period := range []string{"2024-Q1", "2024-Q3", "2024-Q2"} {
			require.NoError(t, s.AddPerformance(ctx, model.PerformanceMetric{
				ID: fmt.Sprintf("p%d", i), EmployeeID: "e1", Period: period, Score: 3, GoalsMet: float64(70 + i), RecordedAt: t0,
			}))
		}
		require.NoError(t, s.AddFeedback(ctx, model.Feedback{
			ID: "f1", EmployeeID: "e1", FromEmployeeID: "x", Type: model.FeedbackPeer, Text: "solid", Date: t0,
		}))

		surveys, err := s.Surveys(ctx, "e1", 3)
		require.NoError(t, err)
		require.Len(t, surveys, 3)
		assert.Equal(t, 20.0, surveys[0].Score)

		perf, err := s.Performance(ctx, "e1", 2)
		require.NoError(t, err)
		require.Len(t, perf, 2)
		assert.Equal(t, "2024-Q3", perf[0].Period)
		assert.Equal(t, "2024-Q2", perf[1].Period)

		fb, err := s.Feedback(ctx, "e1", 0)
		require.NoError(t, err)
		assert.Len(t, fb, 1)

		assert.ErrorIs(t, s.AddSurvey(ctx, model.SatisfactionSurvey{ID: "sx", EmployeeID: "ghost", Score: 1, SurveyDate: t0}), ErrNotFound)

		many, err := s.SurveysFor(ctx, []string{"e1", "ghost"})
		require.NoError(t, err)
		assert.Len(t, many, 4)
		none, err := s.PerformanceFor(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)

		recent, err := s.RecentSurveys(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
		recentFb, err := s.RecentFeedback(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, recentFb, 1)
	})

	t.Run("signals order by instant across time zones", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		kolkata := time.FixedZone("IST", 5*3600+1800)
		pacific := time.FixedZone("PST", -8*3600)
		older := time.Date(2024, 3, 10, 20, 0, 0, 0, kolkata)
		newer := time.Date(2024, 3, 10, 10, 0, 0, 0, pacific)
		require.True(t, newer.After(older))

		require.NoError(t, s.AddSurvey(ctx, model.SatisfactionSurvey{ID: "s-old", EmployeeID: "e1", Score: 30, SurveyDate: older}))
		require.NoError(t, s.AddSurvey(ctx, model.SatisfactionSurvey{ID: "s-new", EmployeeID: "e1", Score: 70, SurveyDate: newer}))
		require.NoError(t, s.AddFeedback(ctx, model.Feedback{
			ID: "f-old", EmployeeID: "e1", FromEmployeeID: "x", Type: model.FeedbackPeer, Text: "before", Date: older,
		}))
		require.NoError(t, s.AddFeedback(ctx, model.Feedback{
			ID: "f-new", EmployeeID: "e1", FromEmployeeID: "x", Type: model.FeedbackPeer, Text: "after", Date: newer,
		}))

		surveys, err := s.Surveys(ctx, "e1", 0)
		require.NoError(t, err)
		require.Len(t, surveys, 2)
		assert.Equal(t, "s-new", surveys[0].ID)
		assert.True(t, surveys[0].SurveyDate.Equal(newer))

		recent, err := s.RecentSurveys(ctx, 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "s-new", recent[0].ID)

		fb, err := s.Feedback(ctx, "e1", 0)
		require.NoError(t, err)
		require.Len(t, fb, 2)
		assert.Equal(t, "f-new", fb[0].ID)
	})

	t.Run("risk upsert keeps one record per employee", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e2", "Grace", "Hopper", "Ops", "Manager")))
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e3", "Mary", "Parker", "Eng", "Developer")))

		risk := model.AttritionRisk{EmployeeID: "e1", RiskScore: 0.3, UrgencyLevel: model.UrgencyLow, Explanation: "x", LastUpdated: t0}
		require.NoError(t, s.UpsertRisk(ctx, risk))
		require.NoError(t, s.UpsertRisk(ctx, risk))
		risk.RiskScore, risk.UrgencyLevel = 0.8, model.UrgencyHigh
		require.NoError(t, s.UpsertRisk(ctx, risk))
		require.NoError(t, s.UpsertRisk(ctx, model.AttritionRisk{EmployeeID: "e2", RiskScore: 0.8, UrgencyLevel: model.UrgencyHigh, LastUpdated: t0}))
		require.NoError(t, s.UpsertRisk(ctx, model.AttritionRisk{EmployeeID: "e3", RiskScore: 0.5, UrgencyLevel: model.UrgencyMedium, LastUpdated: t0}))
		assert.ErrorIs(t, s.UpsertRisk(ctx, model.AttritionRisk{EmployeeID: "ghost", LastUpdated: t0}), ErrNotFound)

		all, err := s.AllRisks(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		got, err := s.GetRisk(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, 0.8, got.RiskScore)
		assert.Equal(t, model.UrgencyHigh, got.UrgencyLevel)

		rows, err := s.ListRisks(ctx, types.RiskFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "e1", rows[0].EmployeeID)
		assert.Equal(t, 1, rows[0].Rank)
		assert.Equal(t, 1, rows[1].Rank)
		assert.Equal(t, 2, rows[2].Rank)
		assert.Equal(t, "Ada Lovelace", rows[0].Name)

		eng, _ := s.ListRisks(ctx, types.RiskFilter{Department: "Eng"})
		assert.Len(t, eng, 2)
		high, _ := s.ListRisks(ctx, types.RiskFilter{Urgency: "High", Limit: 1})
		assert.Len(t, high, 1)

		_, err = s.GetRisk(ctx, "e9")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("suggestion status transitions", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		require.NoError(t, s.AddRecommendation(ctx, model.TrainingRecommendation{
			ID: "r1", EmployeeID: "e1", GeneratedDate: t0, RecommendationText: "x", ConfidenceScore: 0.7, Status: model.StatusPending,
		}))
		require.NoError(t, s.AddEngagementIdea(ctx, model.EngagementIdea{
			ID: "i1", Department: "Eng", GeneratedDate: t0, IdeaText: "y", ImpactEstimate: "High", Status: model.StatusPending,
		}))
		require.NoError(t, s.AddPolicyEnhancement(ctx, model.PolicyEnhancement{
			ID: "p1", GeneratedDate: t0, Theme: "t", SuggestionText: "z", Rationale: "r", Status: model.StatusPending,
		}))

		apply := func(kind model.SuggestionKind) StatusTransition {
			return func(cur model.Status) (model.Status, error) { return model.NextStatus(kind, cur, model.ActionApply) }
		}

		st, err := s.TransitionSuggestion(ctx, model.KindTraining, "r1", apply(model.KindTraining))
		require.NoError(t, err)
		assert.Equal(t, model.StatusScheduled, st)

		_, err = s.TransitionSuggestion(ctx, model.KindTraining, "r1", apply(model.KindTraining))
		assert.ErrorIs(t, err, model.ErrValidation)

		st, err = s.TransitionSuggestion(ctx, model.KindPolicy, "p1", apply(model.KindPolicy))
		require.NoError(t, err)
		assert.Equal(t, model.StatusUnderReview, st)

		_, err = s.TransitionSuggestion(ctx, model.KindEngagement, "nope", apply(model.KindEngagement))
		assert.ErrorIs(t, err, ErrNotFound)

		recs, _ := s.ListRecommendations(ctx, "e1")
		require.Len(t, recs, 1)
		assert.Equal(t, model.StatusScheduled, recs[0].Status)
		ideas, _ := s.ListEngagementIdeas(ctx, "Eng")
		assert.Len(t, ideas, 1)
		policies, _ := s.ListPolicyEnhancements(ctx)
		assert.Len(t, policies, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.CreateEmployee(ctx, testEmployee("e1", "Ada", "Lovelace", "Eng", "Developer")))
		require.NoError(t, s.AddSurvey(ctx, model.SatisfactionSurvey{ID: "s1", EmployeeID: "e1", Score: 50, SurveyDate: t0}))
		require.NoError(t, s.UpsertRisk(ctx, model.AttritionRisk{EmployeeID: "e1", RiskScore: 0.5, UrgencyLevel: model.UrgencyMedium, LastUpdated: t0}))

		require.NoError(t, s.DeleteEmployee(ctx, "e1"))
		assert.ErrorIs(t, s.DeleteEmployee(ctx, "e1"), ErrNotFound)

		surveys, _ := s.Surveys(ctx, "e1", 0)
		assert.Empty(t, surveys)
		_, err := s.GetRisk(ctx, "e1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
