package repository

import "strings"

// schema is written for SQLite and rewritten for Postgres by dialectSchema.
// Timestamps use TIMESTAMP so the sqlite driver scans them into time.Time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id            TEXT PRIMARY KEY,
		employee_code TEXT NOT NULL DEFAULT '',
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		email         TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT '',
		department    TEXT NOT NULL,
		team          TEXT NOT NULL DEFAULT '',
		location      TEXT NOT NULL DEFAULT '',
		manager_id    TEXT NOT NULL DEFAULT '',
		hire_date     TIMESTAMP NOT NULL,
		hire_type     TEXT NOT NULL DEFAULT 'Full-time',
		is_key_talent BOOLEAN NOT NULL DEFAULT FALSE,
		tenure_months INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees (department)`,
	`CREATE TABLE IF NOT EXISTS satisfaction_surveys (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		score       DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 100),
		survey_date TIMESTAMP NOT NULL,
		comments    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_surveys_employee_date ON satisfaction_surveys (employee_id, survey_date)`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
		id             TEXT PRIMARY KEY,
		employee_id    TEXT NOT NULL,
		period         TEXT NOT NULL,
		score          DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 5),
		goals_met      DOUBLE PRECISION NOT NULL CHECK (goals_met >= 0 AND goals_met <= 100),
		manager_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		recorded_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_performance_employee_period ON performance_metrics (employee_id, period)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id               TEXT PRIMARY KEY,
		employee_id      TEXT NOT NULL,
		from_employee_id TEXT NOT NULL,
		type             TEXT NOT NULL DEFAULT '',
		text             TEXT NOT NULL,
		date             TIMESTAMP NOT NULL,
		CHECK (employee_id <> from_employee_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_employee_date ON feedback (employee_id, date)`,
	`CREATE TABLE IF NOT EXISTS attrition_risks (
		employee_id   TEXT PRIMARY KEY,
		risk_score    DOUBLE PRECISION NOT NULL CHECK (risk_score >= 0 AND risk_score <= 1),
		urgency_level TEXT NOT NULL,
		explanation   TEXT NOT NULL,
		last_updated  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS training_recommendations (
		id                  TEXT PRIMARY KEY,
		employee_id         TEXT NOT NULL,
		generated_date      TIMESTAMP NOT NULL,
		recommendation_text TEXT NOT NULL,
		confidence_score    DOUBLE PRECISION NOT NULL,
		status              TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS engagement_ideas (
		id              TEXT PRIMARY KEY,
		department      TEXT NOT NULL,
		generated_date  TIMESTAMP NOT NULL,
		idea_text       TEXT NOT NULL,
		impact_estimate TEXT NOT NULL,
		status          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS policy_enhancements (
		id              TEXT PRIMARY KEY,
		generated_date  TIMESTAMP NOT NULL,
		theme           TEXT NOT NULL,
		suggestion_text TEXT NOT NULL,
		rationale       TEXT NOT NULL,
		status          TEXT NOT NULL
	)`,
}

func dialectSchema(driver string) []string {
	if driver != driverPgx {
		return schema
	}
	out := make([]string, len(schema))
	for i, stmt := range schema {
		out[i] = strings.ReplaceAll(stmt, "TIMESTAMP NOT NULL", "TIMESTAMPTZ NOT NULL")
	}
	return out
}
