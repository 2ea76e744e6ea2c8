package scoring

// Option applies a configuration option to the RiskEngine.
type Option func(*RiskEngine)

// WithRules replaces the whole rule table.
func WithRules(rules RiskRules) Option {
	return func(e *RiskEngine) {
		e.rules = rules
	}
}

// WithSatisfactionWindow sets how many recent surveys feed the mean.
func WithSatisfactionWindow(n int) Option {
	return func(e *RiskEngine) {
		if n > 0 {
			e.rules.SatisfactionWindow = n
		}
	}
}

// WithTenureBands overrides the new-hire and long-tenure month thresholds.
func WithTenureBands(newHireMonths, longTenureMonths int) Option {
	return func(e *RiskEngine) {
		if newHireMonths >= 0 && longTenureMonths > newHireMonths {
			e.rules.NewHireMonths = newHireMonths
			e.rules.LongTenureMonths = longTenureMonths
		}
	}
}
