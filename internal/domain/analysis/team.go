// Package analysis aggregates signals across employees: team performance,
// engagement ideas, policy gaps and department/risk roll-ups. Everything here
// is pure; callers load the records and persist what they need.
package analysis

import (
	"fmt"
	"sort"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/scoring"
)

// Trend labels.
const (
	TrendStrong           = "Strong"
	TrendModerate         = "Moderate"
	TrendNeedsImprovement = "Needs Improvement"
)

const (
	strongAverage     = 3.5
	moderateAverage   = 2.5
	topPerformerScore = 4.0
	lowMemberScore    = 3.0
	lowCompletion     = 70.0
)

// TeamPerformance is the result of a department performance analysis.
type TeamPerformance struct {
	Department          string   `json:"department"`
	TeamSize            int      `json:"teamSize"`
	AvgScore            float64  `json:"avgScore"`
	AvgCompletion       float64  `json:"avgCompletion"`
	KeyTalentCount      int      `json:"keyTalentCount"`
	KeyTalentPercentage float64  `json:"keyTalentPercentage"`
	Trend               string   `json:"trend"`
	TopPerformers       []string `json:"topPerformers"`
	ImprovementAreas    []string `json:"improvementAreas"`
	Summary             string   `json:"summary"`
}

type memberScore struct {
	name  string
	score float64
}

// AnalyzeTeam aggregates performance for members of one department. perf maps
// employee id to that employee's metrics. Averages cover every metric on
// record; top performers and per-member areas use each member's latest metric.
func AnalyzeTeam(department string, members []model.Employee, perf map[string][]model.PerformanceMetric) TeamPerformance {
	tp := TeamPerformance{
		Department:       department,
		TeamSize:         len(members),
		TopPerformers:    []string{},
		ImprovementAreas: []string{},
	}
	if len(members) == 0 {
		tp.Trend = TrendNeedsImprovement
		tp.Summary = fmt.Sprintf("No employees found in department: %s", department)
		return tp
	}

	var (
		scoreSum, goalsSum float64
		samples            int
		top                []memberScore
		lagging, missing   []string
	)
	for _, m := range members {
		if m.IsKeyTalent {
			tp.KeyTalentCount++
		}
		metrics := perf[m.ID]
		for _, p := range metrics {
			scoreSum += p.Score
			goalsSum += p.GoalsMet
			samples++
		}
		latest := scoring.LatestPerformance(metrics, 1)
		if len(latest) == 0 {
			missing = append(missing, m.FullName())
			continue
		}
		switch s := latest[0].Score; {
		case s >= topPerformerScore:
			top = append(top, memberScore{name: m.FullName(), score: s})
		case s < lowMemberScore:
			lagging = append(lagging, m.FullName())
		}
	}

	if samples > 0 {
		tp.AvgScore = scoreSum / float64(samples)
		tp.AvgCompletion = goalsSum / float64(samples)
	}
	tp.KeyTalentPercentage = float64(tp.KeyTalentCount) / float64(len(members)) * 100
	tp.Trend = trendOf(tp.AvgScore)

	sort.Slice(top, func(i, j int) bool {
		if top[i].score != top[j].score {
			return top[i].score > top[j].score
		}
		return top[i].name < top[j].name
	})
	for _, t := range top {
		tp.TopPerformers = append(tp.TopPerformers, t.name)
	}

	if samples > 0 && tp.AvgCompletion < lowCompletion {
		tp.ImprovementAreas = append(tp.ImprovementAreas,
			fmt.Sprintf("Goal completion averages %.1f%%, below the %.0f%% target", tp.AvgCompletion, lowCompletion))
	}
	if samples > 0 && tp.AvgScore < moderateAverage {
		tp.ImprovementAreas = append(tp.ImprovementAreas,
			fmt.Sprintf("Average performance score %.2f/5.00 needs attention", tp.AvgScore))
	}
	sort.Strings(lagging)
	for _, name := range lagging {
		tp.ImprovementAreas = append(tp.ImprovementAreas, fmt.Sprintf("Coaching for %s (latest score below %.1f)", name, lowMemberScore))
	}
	if len(missing) > 0 {
		tp.ImprovementAreas = append(tp.ImprovementAreas,
			fmt.Sprintf("%d team member(s) have no performance data", len(missing)))
	}

	tp.Summary = fmt.Sprintf("Team Performance Analysis for %s: Team Size: %d employees; "+
		"Average Performance Score: %.2f/5.00; Average Goals Achievement: %.1f%%; "+
		"Key Talent: %d (%.1f%%); Performance Trend: %s",
		department, tp.TeamSize, tp.AvgScore, tp.AvgCompletion, tp.KeyTalentCount, tp.KeyTalentPercentage, tp.Trend)
	return tp
}

func trendOf(avg float64) string {
	switch {
	case avg >= strongAverage:
		return TrendStrong
	case avg >= moderateAverage:
		return TrendModerate
	default:
		return TrendNeedsImprovement
	}
}
