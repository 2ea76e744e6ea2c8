package narrative

import (
	"fmt"
	"sort"
	"strings"
)

const recommendedActions = "Recommended actions: one-on-one discussions, workload assessment, and career development planning."

// FallbackExplanation describes the risk from the engine's own factors. It
// never fails and never returns an empty string.
func FallbackExplanation(rc RiskContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on available data for %s", subject(rc.Employee.FullName(), rc.Employee.ID))
	if rc.Employee.Role != "" || rc.Employee.Department != "" {
		fmt.Fprintf(&b, " (%s)", joinNonEmpty(", ", rc.Employee.Role, rc.Employee.Department))
	}
	a := rc.Assessment
	if len(a.Factors) > 0 {
		fmt.Fprintf(&b, ", the following factors indicate %s attrition risk (score %.2f): %s.",
			strings.ToLower(string(a.Urgency)), a.Score, a.Explanation)
	} else {
		fmt.Fprintf(&b, ", no significant risk factors were identified (score %.2f).", a.Score)
	}
	if a.SatisfactionSamples > 0 {
		fmt.Fprintf(&b, " Recent satisfaction averages %.0f/100 over %d survey(s).", a.SatisfactionMean, a.SatisfactionSamples)
	}
	if a.HasTrend {
		fmt.Fprintf(&b, " Goal completion moved from %.0f%% to %.0f%%.", a.PriorGoalsMet, a.LatestGoalsMet)
	}
	if n := len(rc.Feedback); n > 0 {
		fmt.Fprintf(&b, " %d recent feedback entr%s on record.", n, plural(n, "y is", "ies are"))
	}
	b.WriteString(" ")
	b.WriteString(recommendedActions)
	return b.String()
}

// FallbackFeedbackSummary counts feedback by type and quotes the latest entry.
func FallbackFeedbackSummary(fc FeedbackContext) string {
	name := subject(fc.Employee.FullName(), fc.Employee.ID)
	if len(fc.Feedback) == 0 {
		return fmt.Sprintf("No feedback recorded for %s over %s.", name, fc.Timeframe)
	}
	types := make([]string, 0, len(fc.CountsByType))
	for t := range fc.CountsByType {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s: %d", t, fc.CountsByType[t]))
	}
	latest := fc.Feedback[0]
	for _, f := range fc.Feedback[1:] {
		if f.Date.After(latest.Date) {
			latest = f
		}
	}
	return fmt.Sprintf("Feedback summary for %s over %s: %d entr%s (%s). Most recent (%s): %q.",
		name, fc.Timeframe, len(fc.Feedback), plural(len(fc.Feedback), "y", "ies"),
		strings.Join(parts, ", "), latest.Type, latest.Text)
}

// FallbackTrainingPlan lists the rule-engine suggestions against the stated gaps.
func FallbackTrainingPlan(tc TrainingContext) string {
	name := subject(tc.Employee.FullName(), tc.Employee.ID)
	gaps := strings.TrimSpace(tc.Gaps)
	if gaps == "" {
		gaps = "general development"
	}
	return fmt.Sprintf("Training plan for %s (%s) addressing %s: %s.",
		name, joinNonEmpty(", ", tc.Employee.Role, tc.Employee.Department), gaps, tc.Recommendation.Text())
}

func subject(name, id string) string {
	if name != "" {
		return name
	}
	return "employee " + id
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
