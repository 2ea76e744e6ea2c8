package narrative

import (
	"time"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/scoring"
)

// RiskContext is the signal bundle behind an attrition explanation. It is the
// same data the risk engine scored, so prompt and fallback agree.
type RiskContext struct {
	Employee     model.Employee
	Assessment   scoring.Assessment
	LatestSurvey *model.SatisfactionSurvey
	Latest       *model.PerformanceMetric
	Prior        *model.PerformanceMetric
	Feedback     []model.Feedback
}

// FeedbackContext is the input of a feedback summary.
type FeedbackContext struct {
	Employee     model.Employee
	Timeframe    string
	Since        time.Time
	Feedback     []model.Feedback
	CountsByType map[string]int
}

// TrainingContext is the input of a training plan.
type TrainingContext struct {
	Employee       model.Employee
	Gaps           string
	Latest         *model.PerformanceMetric
	Recommendation scoring.Recommendation
}
