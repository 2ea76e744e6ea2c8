// Package scoring holds the attrition risk and training recommendation rule
// engines. Both are pure: callers fetch signals, call in, and persist results.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/smarthr/internal/domain/model"
)

// Factor labels recorded in the explanation.
const (
	FactorLowSatisfaction      = "low satisfaction scores"
	FactorModerateSatisfaction = "moderate satisfaction concerns"
	FactorDecliningPerformance = "declining performance"
	FactorNewEmployee          = "new employee adjustment period"
	FactorLongTenure           = "long tenure — potential stagnation"

	// NoRiskFactors is the explanation when nothing fired.
	NoRiskFactors = "No significant risk factors identified"
)

// RiskRules is the threshold table of the risk engine.
type RiskRules struct {
	BaseRisk float64

	SatisfactionWindow        int
	LowSatisfaction           float64
	LowSatisfactionDelta      float64
	ModerateSatisfaction      float64
	ModerateSatisfactionDelta float64

	// PerformanceDrop is in percentage points of goals met.
	PerformanceDrop      float64
	PerformanceDropDelta float64

	NewHireMonths    int
	NewHireDelta     float64
	LongTenureMonths int
	LongTenureDelta  float64

	// Tier boundaries are exclusive: a score equal to HighAbove is Medium.
	HighAbove   float64
	MediumAbove float64
}

// DefaultRiskRules returns the canonical rule table.
func DefaultRiskRules() RiskRules {
	return RiskRules{
		BaseRisk:                  0.1,
		SatisfactionWindow:        3,
		LowSatisfaction:           50,
		LowSatisfactionDelta:      0.4,
		ModerateSatisfaction:      70,
		ModerateSatisfactionDelta: 0.2,
		PerformanceDrop:           10,
		PerformanceDropDelta:      0.3,
		NewHireMonths:             6,
		NewHireDelta:              0.2,
		LongTenureMonths:          60,
		LongTenureDelta:           0.1,
		HighAbove:                 0.7,
		MediumAbove:               0.4,
	}
}

// Signals is the normalized input bundle for one employee.
type Signals struct {
	TenureMonths int
	Surveys      []model.SatisfactionSurvey
	Performance  []model.PerformanceMetric
}

// Assessment is the engine output. The satisfaction and trend fields carry
// the intermediate values so narratives can quote them.
type Assessment struct {
	Score       float64
	Urgency     model.Urgency
	Factors     []string
	Explanation string

	SatisfactionMean    float64
	SatisfactionSamples int
	LatestGoalsMet      float64
	PriorGoalsMet       float64
	HasTrend            bool
	TenureMonths        int
}

// RiskEngine scores attrition risk with a fixed rule table.
type RiskEngine struct {
	rules RiskRules
}

// NewRiskEngine creates an engine with the default rules and the given options.
func NewRiskEngine(opts ...Option) *RiskEngine {
	e := &RiskEngine{rules: DefaultRiskRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns a copy of the engine's rule table.
func (e *RiskEngine) Rules() RiskRules { return e.rules }

// Assess applies the rule table to sig.
func (e *RiskEngine) Assess(sig Signals) Assessment {
	r := e.rules
	a := Assessment{TenureMonths: sig.TenureMonths}
	score := r.BaseRisk

	if surveys := RecentSurveys(sig.Surveys, r.SatisfactionWindow); len(surveys) > 0 {
		var sum float64
		for _, s := range surveys {
			sum += s.Score
		}
		a.SatisfactionMean = sum / float64(len(surveys))
		a.SatisfactionSamples = len(surveys)
		switch {
		case a.SatisfactionMean < r.LowSatisfaction:
			score += r.LowSatisfactionDelta
			a.Factors = append(a.Factors, FactorLowSatisfaction)
		case a.SatisfactionMean < r.ModerateSatisfaction:
			score += r.ModerateSatisfactionDelta
			a.Factors = append(a.Factors, FactorModerateSatisfaction)
		}
	}

	if perf := LatestPerformance(sig.Performance, 2); len(perf) == 2 {
		a.HasTrend = true
		a.LatestGoalsMet = perf[0].GoalsMet
		a.PriorGoalsMet = perf[1].GoalsMet
		if a.LatestGoalsMet < a.PriorGoalsMet-r.PerformanceDrop {
			score += r.PerformanceDropDelta
			a.Factors = append(a.Factors, FactorDecliningPerformance)
		}
	}

	switch {
	case sig.TenureMonths < r.NewHireMonths:
		score += r.NewHireDelta
		a.Factors = append(a.Factors, FactorNewEmployee)
	case sig.TenureMonths > r.LongTenureMonths:
		score += r.LongTenureDelta
		a.Factors = append(a.Factors, FactorLongTenure)
	}

	a.Score = clamp(score)
	a.Urgency = e.Tier(a.Score)
	a.Explanation = Explain(a.Factors)
	return a
}

// Tier maps a score to its urgency tier.
func (e *RiskEngine) Tier(score float64) model.Urgency {
	switch {
	case score > e.rules.HighAbove:
		return model.UrgencyHigh
	case score > e.rules.MediumAbove:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

// Explain joins factors for display.
func Explain(factors []string) string {
	if len(factors) == 0 {
		return NoRiskFactors
	}
	return strings.Join(factors, "; ")
}

// clamp rounds away float accumulation noise (0.1+0.4+0.2 must be 0.7) and bounds to [0,1].
func clamp(score float64) float64 {
	score = math.Round(score*1e9) / 1e9
	return math.Max(0, math.Min(1, score))
}

// RecentSurveys returns up to n surveys, newest first. The input is not modified.
func RecentSurveys(surveys []model.SatisfactionSurvey, n int) []model.SatisfactionSurvey {
	out := append([]model.SatisfactionSurvey(nil), surveys...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SurveyDate.After(out[j].SurveyDate)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// LatestPerformance returns up to n metrics ordered by period descending,
// newest recording first within a period. The input is not modified.
func LatestPerformance(metrics []model.PerformanceMetric, n int) []model.PerformanceMetric {
	out := append([]model.PerformanceMetric(nil), metrics...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period > out[j].Period
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
