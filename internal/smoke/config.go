// Package smoke drives a scripted round trip against a running HR portal:
// it seeds a throwaway department, records signals, runs every action and
// checks the ranked attrition list that comes back.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Employees  int           // Number of employees to seed besides the manager
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Department string        // Department to seed; generated when empty
	Keep       bool          // Keep seeded employees after the run
}

// Stats holds run statistics.
type Stats struct {
	EmployeesCreated int
	SignalsRecorded  int
	RisksScored      int
	ActionsRun       int
	NarrativesRun    int
	FallbackNarrates int
	RankedEntries    int
	Deleted          int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

type employee struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	ManagerID   string `json:"managerId,omitempty"`
	HireDate    string `json:"hireDate"`
	IsKeyTalent bool   `json:"isKeyTalent"`
}

type survey struct {
	Score    float64 `json:"score"`
	Comments string  `json:"comments,omitempty"`
}

type performance struct {
	Period        string  `json:"period"`
	Score         float64 `json:"score"`
	GoalsMet      float64 `json:"goalsMet"`
	ManagerRating float64 `json:"managerRating"`
}

type feedback struct {
	FromEmployeeID string `json:"fromEmployeeId"`
	Type           string `json:"type"`
	Text           string `json:"text"`
}

type riskResult struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	RiskScore    float64 `json:"riskScore"`
	UrgencyLevel string  `json:"urgencyLevel"`
}

type teamResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Analysis *struct {
		TeamSize int `json:"teamSize"`
	} `json:"analysis"`
}

type valueResult struct {
	Value string `json:"value"`
}

type explainResult struct {
	Explanation string `json:"explanation"`
	Source      string `json:"source"`
}

// Entry is one row of the ranked attrition list.
type Entry struct {
	Rank         int     `json:"rank"`
	EmployeeID   string  `json:"employeeId"`
	RiskScore    float64 `json:"riskScore"`
	UrgencyLevel string  `json:"urgencyLevel"`
}
