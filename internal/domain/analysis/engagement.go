package analysis

import (
	"fmt"
	"strings"

	"github.com/okian/smarthr/internal/domain/model"
)

// NeutralSatisfaction stands in for the mean when no survey exists.
const NeutralSatisfaction = 50.0

const (
	lowSatisfaction      = 50.0
	moderateSatisfaction = 70.0

	// PolicySurveyWindow and PolicyFeedbackWindow bound the samples read by
	// the policy gap analysis.
	PolicySurveyWindow   = 100
	PolicyFeedbackWindow = 50
)

// Impact estimates.
const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

// EngagementPlan is a set of engagement ideas for one department.
type EngagementPlan struct {
	Department      string   `json:"department"`
	AvgSatisfaction float64  `json:"avgSatisfaction"`
	Samples         int      `json:"samples"`
	Ideas           []string `json:"ideas"`
	Impact          string   `json:"impact"`
}

// Text joins the ideas for storage.
func (p EngagementPlan) Text() string { return strings.Join(p.Ideas, "; ") }

// Message is the action result string.
func (p EngagementPlan) Message() string {
	return fmt.Sprintf("Engagement ideas generated for %s: %s", p.Department, p.Text())
}

// PlanEngagement picks an idea set from the department's mean satisfaction.
func PlanEngagement(department string, surveys []model.SatisfactionSurvey) EngagementPlan {
	avg := meanSatisfaction(surveys)
	p := EngagementPlan{Department: department, AvgSatisfaction: avg, Samples: len(surveys), Impact: ImpactMedium}
	switch {
	case avg < lowSatisfaction:
		p.Impact = ImpactHigh
		p.Ideas = []string{
			"Implement flexible working hours to improve work-life balance",
			"Organize team building activities and social events",
			"Establish mentorship programs for career development",
			"Create recognition and rewards program for achievements",
		}
	case avg < moderateSatisfaction:
		p.Ideas = []string{
			"Launch innovation challenges and hackathons",
			"Provide professional development workshops",
			"Create cross-functional collaboration opportunities",
			"Implement employee feedback and suggestion system",
		}
	default:
		p.Ideas = []string{
			"Establish employee-led interest groups and clubs",
			"Create knowledge sharing sessions and lunch-and-learns",
			"Implement peer recognition programs",
			"Organize volunteer and community service opportunities",
		}
	}
	return p
}

// Policy themes.
const (
	ThemeWellbeing   = "Employee Wellbeing and Retention"
	ThemeDevelopment = "Performance and Development"
	ThemeExcellence  = "Excellence and Innovation"
)

// PolicyGap is the outcome of an organisation-wide policy analysis.
type PolicyGap struct {
	AvgSatisfaction float64  `json:"avgSatisfaction"`
	Surveys         int      `json:"surveys"`
	FeedbackCount   int      `json:"feedbackCount"`
	Theme           string   `json:"theme"`
	Suggestions     []string `json:"suggestions"`
	Rationale       string   `json:"rationale"`
}

// Text joins the suggestions for storage.
func (g PolicyGap) Text() string { return strings.Join(g.Suggestions, "; ") }

// Message is the action result string.
func (g PolicyGap) Message() string {
	return fmt.Sprintf("Policy enhancement analysis completed. Theme: %s. Suggestions: %s", g.Theme, g.Text())
}

// AnalyzePolicyGaps derives a theme from recent surveys. Feedback only
// contributes its volume to the rationale.
func AnalyzePolicyGaps(surveys []model.SatisfactionSurvey, feedback []model.Feedback) PolicyGap {
	avg := meanSatisfaction(surveys)
	g := PolicyGap{AvgSatisfaction: avg, Surveys: len(surveys), FeedbackCount: len(feedback)}
	switch {
	case avg < lowSatisfaction:
		g.Theme = ThemeWellbeing
		g.Suggestions = []string{
			"Implement comprehensive mental health support programs",
			"Establish clear career progression pathways",
			"Create flexible work arrangement policies",
			"Develop conflict resolution and mediation procedures",
		}
		g.Rationale = "Low satisfaction scores indicate need for fundamental policy improvements in employee support and career development."
	case avg < moderateSatisfaction:
		g.Theme = ThemeDevelopment
		g.Suggestions = []string{
			"Enhance performance review and feedback processes",
			"Implement skills development and training policies",
			"Create innovation and idea submission frameworks",
			"Establish cross-departmental collaboration guidelines",
		}
		g.Rationale = "Moderate satisfaction suggests opportunities to enhance performance management and professional development policies."
	default:
		g.Theme = ThemeExcellence
		g.Suggestions = []string{
			"Develop leadership development and succession planning policies",
			"Create employee recognition and rewards frameworks",
			"Implement knowledge management and sharing policies",
			"Establish sustainability and social responsibility guidelines",
		}
		g.Rationale = "High satisfaction provides foundation for advanced policies focused on excellence and innovation."
	}
	if g.FeedbackCount > 0 {
		g.Rationale += fmt.Sprintf(" Informed by %d recent feedback entries.", g.FeedbackCount)
	}
	return g
}

func meanSatisfaction(surveys []model.SatisfactionSurvey) float64 {
	if len(surveys) == 0 {
		return NeutralSatisfaction
	}
	var sum float64
	for _, s := range surveys {
		sum += s.Score
	}
	return sum / float64(len(surveys))
}
