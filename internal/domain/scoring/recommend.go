package scoring

import (
	"strings"

	"github.com/okian/smarthr/internal/domain/model"
)

// Recommendation texts.
const (
	RecPerformanceWorkshop = "Performance improvement workshop"
	RecGoalSetting         = "Goal setting and time management training"
	RecProjectManagement   = "Project management certification"
	RecLeadership          = "Leadership development program"
	RecTeamBuilding        = "Team building workshop"
	RecTechnicalSkills     = "Technical skills advancement"
	RecCodeReview          = "Code review best practices"
	RecProfessionalDev     = "Professional development seminar"
	RecIndustryTrends      = "Industry trends and innovation workshop"
)

// Confidence values of the recommendation engine.
const (
	RuleConfidence    = 0.7
	GenericConfidence = 0.5

	lowPerformanceScore = 3.0
	lowGoalsMet         = 70.0
)

// Recommendation is an ordered list of training suggestions.
type Recommendation struct {
	Items      []string
	Confidence float64
}

// Text joins the items for display and storage.
func (r Recommendation) Text() string {
	return strings.Join(r.Items, "; ")
}

// Recommend derives training suggestions from the employee's role and most
// recent performance metric. latest may be nil when no metric exists.
func Recommend(role string, latest *model.PerformanceMetric) Recommendation {
	rec := Recommendation{Confidence: RuleConfidence}

	if latest != nil {
		if latest.Score < lowPerformanceScore {
			rec.Items = append(rec.Items, RecPerformanceWorkshop, RecGoalSetting)
		}
		if latest.GoalsMet < lowGoalsMet {
			rec.Items = append(rec.Items, RecProjectManagement)
		}
	}

	r := strings.ToLower(role)
	if strings.Contains(r, "manager") {
		rec.Items = append(rec.Items, RecLeadership, RecTeamBuilding)
	}
	if strings.Contains(r, "developer") {
		rec.Items = append(rec.Items, RecTechnicalSkills, RecCodeReview)
	}

	if len(rec.Items) == 0 {
		rec.Items = []string{RecProfessionalDev, RecIndustryTrends}
		rec.Confidence = GenericConfidence
	}
	return rec
}
