package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
)

// EmployeeDependencies manage employees and their signals.
type EmployeeDependencies interface {
	CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error)
	GetEmployee(ctx context.Context, id string) (model.Employee, error)
	UpdateEmployee(ctx context.Context, id string, e model.Employee) (model.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	ListEmployees(ctx context.Context, f types.EmployeeFilter) ([]model.Employee, error)
	SearchEmployees(ctx context.Context, q string, limit int) ([]model.Employee, error)
	Departments(ctx context.Context) ([]types.DepartmentSummary, error)

	AddSurvey(ctx context.Context, s model.SatisfactionSurvey) (model.SatisfactionSurvey, error)
	AddPerformance(ctx context.Context, p model.PerformanceMetric) (model.PerformanceMetric, error)
	AddFeedback(ctx context.Context, f model.Feedback) (model.Feedback, error)
	Surveys(ctx context.Context, employeeID string, limit int) ([]model.SatisfactionSurvey, error)
	Performance(ctx context.Context, employeeID string, limit int) ([]model.PerformanceMetric, error)
	Feedback(ctx context.Context, employeeID string, limit int) ([]model.Feedback, error)
}

// EmployeesHandler serves employee CRUD and signal endpoints.
type EmployeesHandler struct {
	deps EmployeeDependencies
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(deps EmployeeDependencies) *EmployeesHandler {
	return &EmployeesHandler{deps: deps}
}

type employeeRequest struct {
	ID           string   `json:"id"`
	EmployeeCode string   `json:"employeeCode"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Department   string   `json:"department"`
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	ManagerID    string   `json:"managerId"`
	HireDate     flexTime `json:"hireDate"`
	HireType     string   `json:"hireType"`
	IsKeyTalent  bool     `json:"isKeyTalent"`
}

func (req employeeRequest) toModel() model.Employee {
	return model.Employee{
		ID:           strings.TrimSpace(req.ID),
		EmployeeCode: strings.TrimSpace(req.EmployeeCode),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		Role:         strings.TrimSpace(req.Role),
		Department:   strings.TrimSpace(req.Department),
		Team:         strings.TrimSpace(req.Team),
		Location:     strings.TrimSpace(req.Location),
		ManagerID:    strings.TrimSpace(req.ManagerID),
		HireDate:     req.HireDate.Time,
		HireType:     strings.TrimSpace(req.HireType),
		IsKeyTalent:  req.IsKeyTalent,
	}
}

// HandleList handles GET /hr/employees?department=&q=&limit=.
func (h *EmployeesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	out, err := h.deps.ListEmployees(r.Context(), types.EmployeeFilter{
		Department: q.Get("department"),
		Query:      q.Get("q"),
		Limit:      limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSearch handles GET /hr/employees/search?q=.
func (h *EmployeesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.SearchEmployees(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /hr/employees.
func (h *EmployeesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	e, err := h.deps.CreateEmployee(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleGet handles GET /hr/employees/{id}.
func (h *EmployeesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, err := h.deps.GetEmployee(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleUpdate handles PUT /hr/employees/{id}.
func (h *EmployeesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	e, err := h.deps.UpdateEmployee(r.Context(), r.PathValue("id"), req.toModel())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete handles DELETE /hr/employees/{id}.
func (h *EmployeesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteEmployee(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDepartments handles GET /hr/departments.
func (h *EmployeesHandler) HandleDepartments(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Departments(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type surveyRequest struct {
	Score      float64  `json:"score"`
	SurveyDate flexTime `json:"surveyDate"`
	Comments   string   `json:"comments"`
}

// HandleAddSurvey handles POST /hr/employees/{id}/surveys.
func (h *EmployeesHandler) HandleAddSurvey(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.AddSurvey(r.Context(), model.SatisfactionSurvey{
		EmployeeID: r.PathValue("id"),
		Score:      req.Score,
		SurveyDate: req.SurveyDate.Time,
		Comments:   req.Comments,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type performanceRequest struct {
	Period        string   `json:"period"`
	Score         float64  `json:"score"`
	GoalsMet      float64  `json:"goalsMet"`
	ManagerRating float64  `json:"managerRating"`
	RecordedAt    flexTime `json:"recordedAt"`
}

// HandleAddPerformance handles POST /hr/employees/{id}/performance.
func (h *EmployeesHandler) HandleAddPerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.AddPerformance(r.Context(), model.PerformanceMetric{
		EmployeeID:    r.PathValue("id"),
		Period:        req.Period,
		Score:         req.Score,
		GoalsMet:      req.GoalsMet,
		ManagerRating: req.ManagerRating,
		RecordedAt:    req.RecordedAt.Time,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type feedbackRequest struct {
	FromEmployeeID string   `json:"fromEmployeeId"`
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	Date           flexTime `json:"date"`
}

// HandleAddFeedback handles POST /hr/employees/{id}/feedback.
func (h *EmployeesHandler) HandleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.AddFeedback(r.Context(), model.Feedback{
		EmployeeID:     r.PathValue("id"),
		FromEmployeeID: strings.TrimSpace(req.FromEmployeeID),
		Type:           req.Type,
		Text:           req.Text,
		Date:           req.Date.Time,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleListSurveys handles GET /hr/employees/{id}/surveys.
func (h *EmployeesHandler) HandleListSurveys(w http.ResponseWriter, r *http.Request) {
	listSignals(w, r, h.deps.Surveys)
}

// HandleListPerformance handles GET /hr/employees/{id}/performance.
func (h *EmployeesHandler) HandleListPerformance(w http.ResponseWriter, r *http.Request) {
	listSignals(w, r, h.deps.Performance)
}

// HandleListFeedback handles GET /hr/employees/{id}/feedback.
func (h *EmployeesHandler) HandleListFeedback(w http.ResponseWriter, r *http.Request) {
	listSignals(w, r, h.deps.Feedback)
}

func listSignals[T any](w http.ResponseWriter, r *http.Request, list func(context.Context, string, int) ([]T, error)) {
	limit, err := queryLimit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := list(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
