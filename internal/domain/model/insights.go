package model

import (
	"strings"
	"time"
)

// Urgency buckets an attrition risk score for triage.
type Urgency string

// Urgency tiers.
const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// AttritionRisk is the single live computed risk record for an employee.
type AttritionRisk struct {
	EmployeeID   string    `json:"employeeId" db:"employee_id"`
	RiskScore    float64   `json:"riskScore" db:"risk_score"`
	UrgencyLevel Urgency   `json:"urgencyLevel" db:"urgency_level"`
	Explanation  string    `json:"explanation" db:"explanation"`
	LastUpdated  time.Time `json:"lastUpdated" db:"last_updated"`
}

// Status is the workflow tag carried by generated suggestions.
type Status string

// Suggestion statuses.
const (
	StatusPending     Status = "Pending"
	StatusApplied     Status = "Applied"
	StatusScheduled   Status = "Scheduled"
	StatusUnderReview Status = "Under Review"
	StatusDismissed   Status = "Dismissed"
)

// SuggestionKind names a family of generated content.
type SuggestionKind string

// Suggestion kinds.
const (
	KindTraining   SuggestionKind = "training"
	KindEngagement SuggestionKind = "engagement"
	KindPolicy     SuggestionKind = "policy"
)

// ParseSuggestionKind accepts the kind names used in routes.
func ParseSuggestionKind(s string) (SuggestionKind, error) {
	switch SuggestionKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindTraining:
		return KindTraining, nil
	case KindEngagement:
		return KindEngagement, nil
	case KindPolicy:
		return KindPolicy, nil
	}
	return "", Invalidf("unknown suggestion kind %q", s)
}

// Suggestion actions.
const (
	ActionApply   = "apply"
	ActionDismiss = "dismiss"
)

// NextStatus returns the status an action moves a Pending suggestion to.
// Only Pending suggestions may transition.
func NextStatus(kind SuggestionKind, current Status, action string) (Status, error) {
	if current != StatusPending {
		return "", Invalidf("suggestion is %s; only Pending suggestions can change", current)
	}
	switch action {
	case ActionDismiss:
		return StatusDismissed, nil
	case ActionApply:
		switch kind {
		case KindTraining:
			return StatusScheduled, nil
		case KindEngagement:
			return StatusApplied, nil
		case KindPolicy:
			return StatusUnderReview, nil
		}
		return "", Invalidf("unknown suggestion kind %q", kind)
	}
	return "", Invalidf("unknown action %q", action)
}

// TrainingRecommendation is an append-only generated recommendation.
type TrainingRecommendation struct {
	ID                 string    `json:"id" db:"id"`
	EmployeeID         string    `json:"employeeId" db:"employee_id"`
	GeneratedDate      time.Time `json:"generatedDate" db:"generated_date"`
	RecommendationText string    `json:"recommendationText" db:"recommendation_text"`
	ConfidenceScore    float64   `json:"confidenceScore" db:"confidence_score"`
	Status             Status    `json:"status" db:"status"`
}

// EngagementIdea is an append-only generated idea for a department.
type EngagementIdea struct {
	ID             string    `json:"id" db:"id"`
	Department     string    `json:"department" db:"department"`
	GeneratedDate  time.Time `json:"generatedDate" db:"generated_date"`
	IdeaText       string    `json:"ideaText" db:"idea_text"`
	ImpactEstimate string    `json:"impactEstimate" db:"impact_estimate"`
	Status         Status    `json:"status" db:"status"`
}

// PolicyEnhancement is an append-only generated policy suggestion.
type PolicyEnhancement struct {
	ID             string    `json:"id" db:"id"`
	GeneratedDate  time.Time `json:"generatedDate" db:"generated_date"`
	Theme          string    `json:"theme" db:"theme"`
	SuggestionText string    `json:"suggestionText" db:"suggestion_text"`
	Rationale      string    `json:"rationale" db:"rationale"`
	Status         Status    `json:"status" db:"status"`
}
