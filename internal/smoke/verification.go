package smoke

import "fmt"

// verifyRanking checks the ranked list covers every seeded employee, is
// ordered by descending score, and uses dense ranks where equal scores share
// a rank.
func verifyRanking(entries []Entry, want int) error {
	if len(entries) != want {
		return fmt.Errorf("%w: ranked list has %d entries, want %d", ErrVerification, len(entries), want)
	}
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if _, dup := seen[e.EmployeeID]; dup {
			return fmt.Errorf("%w: employee %s ranked twice", ErrVerification, e.EmployeeID)
		}
		seen[e.EmployeeID] = struct{}{}

		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first rank is %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.RiskScore > prev.RiskScore:
			return fmt.Errorf("%w: position %d scores %.4f above %.4f", ErrVerification, i+1, e.RiskScore, prev.RiskScore)
		case e.RiskScore == prev.RiskScore && e.Rank != prev.Rank:
			return fmt.Errorf("%w: equal scores at positions %d and %d have ranks %d and %d", ErrVerification, i, i+1, prev.Rank, e.Rank)
		case e.RiskScore < prev.RiskScore && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: rank %d follows %d", ErrVerification, e.Rank, prev.Rank)
		}
	}
	return nil
}
