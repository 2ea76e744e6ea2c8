package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
)

const (
	driverSQLite = "sqlite"
	driverPgx    = "pgx"

	uniqueViolation = "23505"
)

func init() { //nolint:gochecknoinits // sqlx does not know the modernc driver name
	sqlx.BindDriver(driverSQLite, sqlx.QUESTION)
}

// SQLStore is a Store on SQLite (modernc) or Postgres (pgx).
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// OpenSQLite opens a SQLite database at dsn (a path or ":memory:").
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &SQLStore{db: db, driver: driverSQLite}, nil
}

// OpenPostgres connects to Postgres through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driverPgx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &SQLStore{db: db, driver: driverPgx}, nil
}

// Migrate creates missing tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range dialectSchema(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLStore) in(query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return s.db.Rebind(q), a, nil
}

const employeeColumns = `id, employee_code, first_name, last_name, email, role, department, team,
	location, manager_id, hire_date, hire_type, is_key_talent, tenure_months, created_at, updated_at`

// CreateEmployee implements EmployeeStore.
func (s *SQLStore) CreateEmployee(ctx context.Context, e model.Employee) error {
	defer observe("create_employee", time.Now())
	e.HireDate, e.CreatedAt, e.UpdatedAt = e.HireDate.UTC(), e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO employees (`+employeeColumns+`) VALUES (
		:id, :employee_code, :first_name, :last_name, :email, :role, :department, :team,
		:location, :manager_id, :hire_date, :hire_type, :is_key_talent, :tenure_months, :created_at, :updated_at)`, e)
	if err != nil {
		if s.isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// GetEmployee implements EmployeeStore.
func (s *SQLStore) GetEmployee(ctx context.Context, id string) (model.Employee, error) {
	defer observe("get_employee", time.Now())
	var e model.Employee
	err := s.db.GetContext(ctx, &e, s.db.Rebind(`SELECT `+employeeColumns+` FROM employees WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, ErrNotFound
	}
	if err != nil {
		return model.Employee{}, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// UpdateEmployee implements EmployeeStore.
func (s *SQLStore) UpdateEmployee(ctx context.Context, e model.Employee) error {
	defer observe("update_employee", time.Now())
	e.HireDate, e.UpdatedAt = e.HireDate.UTC(), e.UpdatedAt.UTC()
	res, err := s.db.NamedExecContext(ctx, `UPDATE employees SET
		employee_code = :employee_code, first_name = :first_name, last_name = :last_name,
		email = :email, role = :role, department = :department, team = :team, location = :location,
		manager_id = :manager_id, hire_date = :hire_date, hire_type = :hire_type,
		is_key_talent = :is_key_talent, tenure_months = :tenure_months, updated_at = :updated_at
		WHERE id = :id`, e)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return mustAffect(res)
}

// DeleteEmployee implements EmployeeStore.
func (s *SQLStore) DeleteEmployee(ctx context.Context, id string) error {
	defer observe("delete_employee", time.Now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{
		"satisfaction_surveys", "performance_metrics", "feedback",
		"attrition_risks", "training_recommendations",
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE employee_id = ?`), id); err != nil {
			return fmt.Errorf("delete employee %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM employees WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ListEmployees implements EmployeeStore.
func (s *SQLStore) ListEmployees(ctx context.Context, f types.EmployeeFilter) ([]model.Employee, error) {
	defer observe("list_employees", time.Now())
	if err := checkLimit(f.Limit); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if f.Department != "" {
		where = append(where, "department = ?")
		args = append(args, f.Department)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + q + "%"
		var ors []string
		for _, col := range []string{"first_name", "last_name", "employee_code", "role", "department", "team", "location"} {
			ors = append(ors, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY last_name, first_name, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	out := []model.Employee{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// CountEmployees implements EmployeeStore.
func (s *SQLStore) CountEmployees(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM employees`); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

func (s *SQLStore) requireEmployee(ctx context.Context, id string) error {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM employees WHERE id = ?`), id); err != nil {
		return fmt.Errorf("lookup employee: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSurvey implements SignalStore.
func (s *SQLStore) AddSurvey(ctx context.Context, v model.SatisfactionSurvey) error {
	defer observe("add_survey", time.Now())
	if err := s.requireEmployee(ctx, v.EmployeeID); err != nil {
		return err
	}
	v.SurveyDate = v.SurveyDate.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO satisfaction_surveys (id, employee_id, score, survey_date, comments)
		VALUES (:id, :employee_id, :score, :survey_date, :comments)`, v)
	return wrap("add survey", err)
}

// AddPerformance implements SignalStore.
func (s *SQLStore) AddPerformance(ctx context.Context, v model.PerformanceMetric) error {
	defer observe("add_performance", time.Now())
	if err := s.requireEmployee(ctx, v.EmployeeID); err != nil {
		return err
	}
	v.RecordedAt = v.RecordedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO performance_metrics
		(id, employee_id, period, score, goals_met, manager_rating, recorded_at)
		VALUES (:id, :employee_id, :period, :score, :goals_met, :manager_rating, :recorded_at)`, v)
	return wrap("add performance", err)
}

// AddFeedback implements SignalStore.
func (s *SQLStore) AddFeedback(ctx context.Context, v model.Feedback) error {
	defer observe("add_feedback", time.Now())
	if err := s.requireEmployee(ctx, v.EmployeeID); err != nil {
		return err
	}
	v.Date = v.Date.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO feedback (id, employee_id, from_employee_id, type, text, date)
		VALUES (:id, :employee_id, :from_employee_id, :type, :text, :date)`, v)
	return wrap("add feedback", err)
}

const (
	surveyColumns      = `id, employee_id, score, survey_date, comments`
	performanceColumns = `id, employee_id, period, score, goals_met, manager_rating, recorded_at`
	feedbackColumns    = `id, employee_id, from_employee_id, type, text, date`
)

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

// Surveys implements SignalStore.
func (s *SQLStore) Surveys(ctx context.Context, employeeID string, limit int) ([]model.SatisfactionSurvey, error) {
	defer observe("surveys", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := []model.SatisfactionSurvey{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT `+surveyColumns+` FROM satisfaction_surveys
		WHERE employee_id = ? ORDER BY survey_date DESC, id`+limitClause(limit)), employeeID)
	return out, wrap("surveys", err)
}

// Performance implements SignalStore.
func (s *SQLStore) Performance(ctx context.Context, employeeID string, limit int) ([]model.PerformanceMetric, error) {
	defer observe("performance", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := []model.PerformanceMetric{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT `+performanceColumns+` FROM performance_metrics
		WHERE employee_id = ? ORDER BY period DESC, recorded_at DESC, id`+limitClause(limit)), employeeID)
	return out, wrap("performance", err)
}

// Feedback implements SignalStore.
func (s *SQLStore) Feedback(ctx context.Context, employeeID string, limit int) ([]model.Feedback, error) {
	defer observe("feedback", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := []model.Feedback{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`SELECT `+feedbackColumns+` FROM feedback
		WHERE employee_id = ? ORDER BY date DESC, id`+limitClause(limit)), employeeID)
	return out, wrap("feedback", err)
}

// SurveysFor implements SignalStore.
func (s *SQLStore) SurveysFor(ctx context.Context, employeeIDs []string) ([]model.SatisfactionSurvey, error) {
	defer observe("surveys_for", time.Now())
	out := []model.SatisfactionSurvey{}
	if len(employeeIDs) == 0 {
		return out, nil
	}
	q, args, err := s.in(`SELECT `+surveyColumns+` FROM satisfaction_surveys
		WHERE employee_id IN (?) ORDER BY survey_date DESC, id`, employeeIDs)
	if err != nil {
		return nil, wrap("surveys for", err)
	}
	return out, wrap("surveys for", s.db.SelectContext(ctx, &out, q, args...))
}

// PerformanceFor implements SignalStore.
func (s *SQLStore) PerformanceFor(ctx context.Context, employeeIDs []string) ([]model.PerformanceMetric, error) {
	defer observe("performance_for", time.Now())
	out := []model.PerformanceMetric{}
	if len(employeeIDs) == 0 {
		return out, nil
	}
	q, args, err := s.in(`SELECT `+performanceColumns+` FROM performance_metrics
		WHERE employee_id IN (?) ORDER BY period DESC, recorded_at DESC, id`, employeeIDs)
	if err != nil {
		return nil, wrap("performance for", err)
	}
	return out, wrap("performance for", s.db.SelectContext(ctx, &out, q, args...))
}

// RecentSurveys implements SignalStore.
func (s *SQLStore) RecentSurveys(ctx context.Context, limit int) ([]model.SatisfactionSurvey, error) {
	defer observe("recent_surveys", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := []model.SatisfactionSurvey{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+surveyColumns+` FROM satisfaction_surveys
		ORDER BY survey_date DESC, id`+limitClause(limit))
	return out, wrap("recent surveys", err)
}

// RecentFeedback implements SignalStore.
func (s *SQLStore) RecentFeedback(ctx context.Context, limit int) ([]model.Feedback, error) {
	defer observe("recent_feedback", time.Now())
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	out := []model.Feedback{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+feedbackColumns+` FROM feedback
		ORDER BY date DESC, id`+limitClause(limit))
	return out, wrap("recent feedback", err)
}

// UpsertRisk implements InsightStore.
func (s *SQLStore) UpsertRisk(ctx context.Context, r model.AttritionRisk) error {
	defer observe("upsert_risk", time.Now())
	if err := s.requireEmployee(ctx, r.EmployeeID); err != nil {
		return err
	}
	r.LastUpdated = r.LastUpdated.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO attrition_risks
		(employee_id, risk_score, urgency_level, explanation, last_updated)
		VALUES (:employee_id, :risk_score, :urgency_level, :explanation, :last_updated)
		ON CONFLICT (employee_id) DO UPDATE SET
			risk_score = excluded.risk_score,
			urgency_level = excluded.urgency_level,
			explanation = excluded.explanation,
			last_updated = excluded.last_updated`, r)
	return wrap("upsert risk", err)
}

// GetRisk implements InsightStore.
func (s *SQLStore) GetRisk(ctx context.Context, employeeID string) (model.AttritionRisk, error) {
	defer observe("get_risk", time.Now())
	var r model.AttritionRisk
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT employee_id, risk_score, urgency_level, explanation, last_updated
		FROM attrition_risks WHERE employee_id = ?`), employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttritionRisk{}, ErrNotFound
	}
	return r, wrap("get risk", err)
}

type riskRow struct {
	model.AttritionRisk
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Role       string `db:"role"`
	Department string `db:"department"`
}

// ListRisks implements InsightStore.
func (s *SQLStore) ListRisks(ctx context.Context, f types.RiskFilter) ([]types.RiskEntry, error) {
	defer observe("list_risks", time.Now())
	if err := checkLimit(f.Limit); err != nil {
		return nil, err
	}
	query := `SELECT r.employee_id, r.risk_score, r.urgency_level, r.explanation, r.last_updated,
		e.first_name, e.last_name, e.role, e.department
		FROM attrition_risks r JOIN employees e ON e.id = r.employee_id WHERE 1=1`
	var args []any
	if f.Department != "" {
		query += ` AND e.department = ?`
		args = append(args, f.Department)
	}
	if f.Urgency != "" {
		query += ` AND r.urgency_level = ?`
		args = append(args, f.Urgency)
	}
	query += ` ORDER BY r.risk_score DESC, r.employee_id` + limitClause(f.Limit)

	var rows []riskRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, wrap("list risks", err)
	}
	out := make([]types.RiskEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, riskEntry(row.AttritionRisk, model.Employee{
			FirstName: row.FirstName, LastName: row.LastName, Role: row.Role, Department: row.Department,
		}))
	}
	assignRanksWithTies(out)
	return out, nil
}

// AllRisks implements InsightStore.
func (s *SQLStore) AllRisks(ctx context.Context) ([]model.AttritionRisk, error) {
	out := []model.AttritionRisk{}
	err := s.db.SelectContext(ctx, &out, `SELECT employee_id, risk_score, urgency_level, explanation, last_updated
		FROM attrition_risks ORDER BY risk_score DESC, employee_id`)
	return out, wrap("all risks", err)
}

// AddRecommendation implements InsightStore.
func (s *SQLStore) AddRecommendation(ctx context.Context, r model.TrainingRecommendation) error {
	defer observe("add_recommendation", time.Now())
	if err := s.requireEmployee(ctx, r.EmployeeID); err != nil {
		return err
	}
	r.GeneratedDate = r.GeneratedDate.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO training_recommendations
		(id, employee_id, generated_date, recommendation_text, confidence_score, status)
		VALUES (:id, :employee_id, :generated_date, :recommendation_text, :confidence_score, :status)`, r)
	return wrap("add recommendation", err)
}

// AddEngagementIdea implements InsightStore.
func (s *SQLStore) AddEngagementIdea(ctx context.Context, i model.EngagementIdea) error {
	defer observe("add_engagement_idea", time.Now())
	i.GeneratedDate = i.GeneratedDate.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO engagement_ideas
		(id, department, generated_date, idea_text, impact_estimate, status)
		VALUES (:id, :department, :generated_date, :idea_text, :impact_estimate, :status)`, i)
	return wrap("add engagement idea", err)
}

// AddPolicyEnhancement implements InsightStore.
func (s *SQLStore) AddPolicyEnhancement(ctx context.Context, p model.PolicyEnhancement) error {
	defer observe("add_policy_enhancement", time.Now())
	p.GeneratedDate = p.GeneratedDate.UTC()
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO policy_enhancements
		(id, generated_date, theme, suggestion_text, rationale, status)
		VALUES (:id, :generated_date, :theme, :suggestion_text, :rationale, :status)`, p)
	return wrap("add policy enhancement", err)
}

// ListRecommendations implements InsightStore.
func (s *SQLStore) ListRecommendations(ctx context.Context, employeeID string) ([]model.TrainingRecommendation, error) {
	query := `SELECT id, employee_id, generated_date, recommendation_text, confidence_score, status
		FROM training_recommendations`
	var args []any
	if employeeID != "" {
		query += ` WHERE employee_id = ?`
		args = append(args, employeeID)
	}
	out := []model.TrainingRecommendation{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(query+` ORDER BY generated_date DESC, id`), args...)
	return out, wrap("list recommendations", err)
}

// ListEngagementIdeas implements InsightStore.
func (s *SQLStore) ListEngagementIdeas(ctx context.Context, department string) ([]model.EngagementIdea, error) {
	query := `SELECT id, department, generated_date, idea_text, impact_estimate, status FROM engagement_ideas`
	var args []any
	if department != "" {
		query += ` WHERE department = ?`
		args = append(args, department)
	}
	out := []model.EngagementIdea{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(query+` ORDER BY generated_date DESC, id`), args...)
	return out, wrap("list engagement ideas", err)
}

// ListPolicyEnhancements implements InsightStore.
func (s *SQLStore) ListPolicyEnhancements(ctx context.Context) ([]model.PolicyEnhancement, error) {
	out := []model.PolicyEnhancement{}
	err := s.db.SelectContext(ctx, &out, `SELECT id, generated_date, theme, suggestion_text, rationale, status
		FROM policy_enhancements ORDER BY generated_date DESC, id`)
	return out, wrap("list policy enhancements", err)
}

var suggestionTables = map[model.SuggestionKind]string{
	model.KindTraining:   "training_recommendations",
	model.KindEngagement: "engagement_ideas",
	model.KindPolicy:     "policy_enhancements",
}

// TransitionSuggestion implements InsightStore. The update is conditional on
// the status read inside the transaction, so a concurrent change surfaces as
// ErrStaleStatus instead of being overwritten.
func (s *SQLStore) TransitionSuggestion(ctx context.Context, kind model.SuggestionKind, id string, next StatusTransition) (model.Status, error) {
	defer observe("transition_suggestion", time.Now())
	table, ok := suggestionTables[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", wrap("transition suggestion", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current model.Status
	err = tx.GetContext(ctx, &current, tx.Rebind(`SELECT status FROM `+table+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", wrap("transition suggestion", err)
	}
	to, err := next(current)
	if err != nil {
		return "", err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE `+table+` SET status = ? WHERE id = ? AND status = ?`), string(to), id, string(current))
	if err != nil {
		return "", wrap("transition suggestion", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrStaleStatus
	}
	if err := tx.Commit(); err != nil {
		return "", wrap("transition suggestion", err)
	}
	return to, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
