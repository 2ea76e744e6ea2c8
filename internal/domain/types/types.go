// Package types contains read-model shapes shared by the store, service and API.
package types

import "time"

// RiskEntry is one row of the attrition risk list, joined with employee data.
type RiskEntry struct {
	Rank         int       `json:"rank"`
	EmployeeID   string    `json:"employeeId"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	RiskScore    float64   `json:"riskScore"`
	UrgencyLevel string    `json:"urgencyLevel"`
	Explanation  string    `json:"explanation"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// RiskSummary aggregates risk tiers for one department.
type RiskSummary struct {
	Department   string  `json:"department"`
	Total        int     `json:"total"`
	High         int     `json:"high"`
	Medium       int     `json:"medium"`
	Low          int     `json:"low"`
	AverageScore float64 `json:"averageScore"`
}

// DepartmentSummary counts employees and key talent in a department.
type DepartmentSummary struct {
	Department     string `json:"department" db:"department"`
	EmployeeCount  int    `json:"employeeCount" db:"employee_count"`
	KeyTalentCount int    `json:"keyTalentCount" db:"key_talent_count"`
}

// EmployeeFilter narrows employee listings. Zero values match everything.
type EmployeeFilter struct {
	Department string
	Query      string
	Limit      int
}

// RiskFilter narrows the attrition risk list.
type RiskFilter struct {
	Department string
	Urgency    string
	Limit      int
}
