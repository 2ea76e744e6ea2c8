package analysis

import (
	"sort"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
)

// Departments counts employees and key talent per department, sorted by name.
func Departments(employees []model.Employee) []types.DepartmentSummary {
	idx := map[string]int{}
	var out []types.DepartmentSummary
	for _, e := range employees {
		i, ok := idx[e.Department]
		if !ok {
			i = len(out)
			idx[e.Department] = i
			out = append(out, types.DepartmentSummary{Department: e.Department})
		}
		out[i].EmployeeCount++
		if e.IsKeyTalent {
			out[i].KeyTalentCount++
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

// SummarizeRisk groups risk records by the owning employee's department.
// Records whose employee is unknown are skipped.
func SummarizeRisk(risks []model.AttritionRisk, employees []model.Employee) []types.RiskSummary {
	dept := make(map[string]string, len(employees))
	for _, e := range employees {
		dept[e.ID] = e.Department
	}
	idx := map[string]int{}
	var out []types.RiskSummary
	for _, r := range risks {
		d, ok := dept[r.EmployeeID]
		if !ok {
			continue
		}
		i, seen := idx[d]
		if !seen {
			i = len(out)
			idx[d] = i
			out = append(out, types.RiskSummary{Department: d})
		}
		s := &out[i]
		s.Total++
		s.AverageScore += r.RiskScore
		switch r.UrgencyLevel {
		case model.UrgencyHigh:
			s.High++
		case model.UrgencyMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	for i := range out {
		out[i].AverageScore /= float64(out[i].Total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}
