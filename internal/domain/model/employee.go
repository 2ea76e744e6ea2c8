// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// DefaultHireType is applied when an employee is created without one.
const DefaultHireType = "Full-time"

// Employee is the subject of every signal and computed insight.
type Employee struct {
	ID           string    `json:"id" db:"id"`
	EmployeeCode string    `json:"employeeCode" db:"employee_code"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	Department   string    `json:"department" db:"department"`
	Team         string    `json:"team" db:"team"`
	Location     string    `json:"location" db:"location"`
	ManagerID    string    `json:"managerId,omitempty" db:"manager_id"`
	HireDate     time.Time `json:"hireDate" db:"hire_date"`
	HireType     string    `json:"hireType" db:"hire_type"`
	IsKeyTalent  bool      `json:"isKeyTalent" db:"is_key_talent"`
	TenureMonths int       `json:"tenureMonths" db:"tenure_months"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Validate checks the fields a client must supply. Tenure is derived and
// never validated here.
func (e Employee) Validate() error {
	switch {
	case strings.TrimSpace(e.FirstName) == "":
		return Invalidf("first name is required")
	case strings.TrimSpace(e.LastName) == "":
		return Invalidf("last name is required")
	case strings.TrimSpace(e.Department) == "":
		return Invalidf("department is required")
	case e.HireDate.IsZero():
		return Invalidf("hire date is required")
	case e.Email != "" && !strings.Contains(e.Email, "@"):
		return Invalidf("email %q is not a valid address", e.Email)
	case e.ManagerID != "" && e.ManagerID == e.ID:
		return Invalidf("employee cannot be their own manager")
	}
	return nil
}

// Matches reports whether q occurs (case-insensitively) in the employee's
// name, code, role, department, team or location.
func (e Employee) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range []string{e.FirstName, e.LastName, e.EmployeeCode, e.Role, e.Department, e.Team, e.Location} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// TenureMonths returns whole calendar months between hire and now, floored at zero.
func TenureMonths(hire, now time.Time) int {
	if hire.IsZero() || now.Before(hire) {
		return 0
	}
	months := (now.Year()-hire.Year())*12 + int(now.Month()) - int(hire.Month())
	if now.Day() < hire.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
