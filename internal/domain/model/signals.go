package model

import (
	"math"
	"strings"
	"time"
)

// Score ranges enforced at the write boundary.
const (
	MinSatisfaction  = 0.0
	MaxSatisfaction  = 100.0
	MinPerformance   = 0.0
	MaxPerformance   = 5.0
	MinGoalsMet      = 0.0
	MaxGoalsMet      = 100.0
	MinManagerRating = 0.0
	MaxManagerRating = 10.0
)

// Feedback types.
const (
	FeedbackPeer    = "peer"
	FeedbackManager = "manager"
	FeedbackUpward  = "upward"
)

// SatisfactionSurvey is one engagement survey answer. Append-only.
type SatisfactionSurvey struct {
	ID         string    `json:"id" db:"id"`
	EmployeeID string    `json:"employeeId" db:"employee_id"`
	Score      float64   `json:"score" db:"score"`
	SurveyDate time.Time `json:"surveyDate" db:"survey_date"`
	Comments   string    `json:"comments,omitempty" db:"comments"`
}

// Validate rejects out-of-range scores instead of clamping them.
func (s SatisfactionSurvey) Validate() error {
	if strings.TrimSpace(s.EmployeeID) == "" {
		return Invalidf("employee id is required")
	}
	if !inRange(s.Score, MinSatisfaction, MaxSatisfaction) {
		return Invalidf("satisfaction score must be between 0 and 100, got %v", s.Score)
	}
	return nil
}

// PerformanceMetric is one review period. Score is on a 0-5 scale and
// GoalsMet is the completion-rate percentage.
type PerformanceMetric struct {
	ID            string    `json:"id" db:"id"`
	EmployeeID    string    `json:"employeeId" db:"employee_id"`
	Period        string    `json:"period" db:"period"`
	Score         float64   `json:"score" db:"score"`
	GoalsMet      float64   `json:"goalsMet" db:"goals_met"`
	ManagerRating float64   `json:"managerRating" db:"manager_rating"`
	RecordedAt    time.Time `json:"recordedAt" db:"recorded_at"`
}

// Validate rejects out-of-range values instead of clamping them.
func (p PerformanceMetric) Validate() error {
	switch {
	case strings.TrimSpace(p.EmployeeID) == "":
		return Invalidf("employee id is required")
	case strings.TrimSpace(p.Period) == "":
		return Invalidf("period is required")
	case !inRange(p.Score, MinPerformance, MaxPerformance):
		return Invalidf("performance score must be between 0.00 and 5.00, got %v", p.Score)
	case !inRange(p.GoalsMet, MinGoalsMet, MaxGoalsMet):
		return Invalidf("goals met must be between 0 and 100, got %v", p.GoalsMet)
	case !inRange(p.ManagerRating, MinManagerRating, MaxManagerRating):
		return Invalidf("manager rating must be between 0 and 10, got %v", p.ManagerRating)
	}
	return nil
}

// Feedback is free text about EmployeeID written by FromEmployeeID.
type Feedback struct {
	ID             string    `json:"id" db:"id"`
	EmployeeID     string    `json:"employeeId" db:"employee_id"`
	FromEmployeeID string    `json:"fromEmployeeId" db:"from_employee_id"`
	Type           string    `json:"type" db:"type"`
	Text           string    `json:"text" db:"text"`
	Date           time.Time `json:"date" db:"date"`
}

// Validate enforces author != subject.
func (f Feedback) Validate() error {
	switch {
	case strings.TrimSpace(f.EmployeeID) == "":
		return Invalidf("employee id is required")
	case strings.TrimSpace(f.FromEmployeeID) == "":
		return Invalidf("feedback author is required")
	case f.EmployeeID == f.FromEmployeeID:
		return Invalidf("employee cannot provide feedback to themselves")
	case strings.TrimSpace(f.Text) == "":
		return Invalidf("feedback text is required")
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
