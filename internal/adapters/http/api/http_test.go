package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/smarthr/internal/adapters/http/api"
	"github.com/okian/smarthr/internal/adapters/repository"
	service "github.com/okian/smarthr/internal/app"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/types"
	"github.com/okian/smarthr/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// brokenScoring fails every attrition computation.
type brokenScoring struct {
	*service.Service
}

func (brokenScoring) GenerateAttritionRisk(context.Context, string) (service.RiskResult, error) {
	return service.RiskResult{Success: false, Message: "Error calculating attrition risk"},
		fmt.Errorf("%w: error calculating attrition risk", model.ErrComputation)
}

func newTestServer(ctx context.Context) (*service.Service, *http.ServeMux) {
	svc := service.New(
		service.WithStore(repository.NewMemStore(ctx)),
		service.WithLogger(logger.Nop()),
		service.WithWorkerCount(1),
		service.WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	return svc, mux
}

func do(mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func seedEmployee(mux http.Handler, id, first, dept, manager string) {
	w := do(mux, http.MethodPost, "/hr/employees", map[string]any{
		"id":         id,
		"firstName":  first,
		"lastName":   "Tester",
		"email":      first + "@example.com",
		"role":       "Software Engineer",
		"department": dept,
		"managerId":  manager,
		"hireDate":   "2021-03-01",
	})
	So(w.Code, ShouldEqual, http.StatusCreated)
}

func TestServer_Ops(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		ctx := context.Background()
		_, mux := newTestServer(ctx)

		Convey("When requesting /healthz", func() {
			w := do(mux, http.MethodGet, "/healthz", nil)

			Convey("Then metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats", nil)

			Convey("Then the service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				stats := decode[map[string]any](w)
				So(stats["narrative"], ShouldEqual, "none")
			})
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/hr/generateAttritionRisk", nil)

			Convey("Then the mux rejects it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestServer_Employees(t *testing.T) {
	Convey("Given an API server", t, func() {
		ctx := context.Background()
		_, mux := newTestServer(ctx)

		Convey("When creating an employee with a date-only hire date", func() {
			seedEmployee(mux, "m1", "Mia", "Engineering", "")
			w := do(mux, http.MethodGet, "/hr/employees/m1", nil)

			Convey("Then it can be read back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				e := decode[model.Employee](w)
				So(e.FirstName, ShouldEqual, "Mia")
				So(e.HireDate.Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the manager does not exist", func() {
			w := do(mux, http.MethodPost, "/hr/employees", map[string]any{
				"firstName": "Bo", "lastName": "Li", "department": "Sales", "hireDate": "2022-01-01", "managerId": "ghost",
			})

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[map[string]string](w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the id is taken", func() {
			seedEmployee(mux, "m1", "Mia", "Engineering", "")
			w := do(mux, http.MethodPost, "/hr/employees", map[string]any{
				"id": "m1", "firstName": "Other", "lastName": "X", "department": "Sales", "hireDate": "2022-01-01",
			})

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/hr/employees", bytes.NewBufferString("{nope"))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an out-of-range survey is posted", func() {
			seedEmployee(mux, "m1", "Mia", "Engineering", "")
			w := do(mux, http.MethodPost, "/hr/employees/m1/surveys", map[string]any{"score": 150})
			list := do(mux, http.MethodGet, "/hr/employees/m1/surveys", nil)

			Convey("Then it is rejected before any write", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[[]model.SatisfactionSurvey](list), ShouldBeEmpty)
			})
		})

		Convey("When searching, updating and deleting", func() {
			seedEmployee(mux, "m1", "Mia", "Engineering", "")
			seedEmployee(mux, "e1", "Eve", "Research", "m1")

			search := do(mux, http.MethodGet, "/hr/employees/search?q=research", nil)
			update := do(mux, http.MethodPut, "/hr/employees/e1", map[string]any{
				"firstName": "Eve", "lastName": "Tester", "department": "Research", "role": "Lead", "hireDate": "2021-03-01",
			})
			departments := do(mux, http.MethodGet, "/hr/departments", nil)
			del := do(mux, http.MethodDelete, "/hr/employees/e1", nil)
			after := do(mux, http.MethodGet, "/hr/employees/e1", nil)

			Convey("Then each step answers as expected", func() {
				So(search.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]model.Employee](search)), ShouldEqual, 1)
				So(update.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Employee](update).Role, ShouldEqual, "Lead")
				So(len(decode[[]types.DepartmentSummary](departments)), ShouldEqual, 2)
				So(del.Code, ShouldEqual, http.StatusNoContent)
				So(after.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing with a bad limit", func() {
			w := do(mux, http.MethodGet, "/hr/employees?limit=abc", nil)
			neg := do(mux, http.MethodGet, "/hr/employees?limit=-2", nil)

			Convey("Then both are bad requests", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_Actions(t *testing.T) {
	Convey("Given an employee with signals", t, func() {
		ctx := context.Background()
		svc, mux := newTestServer(ctx)
		seedEmployee(mux, "m1", "Mia", "Engineering", "")
		seedEmployee(mux, "e1", "Eve", "Engineering", "m1")
		So(do(mux, http.MethodPost, "/hr/employees/e1/surveys", map[string]any{"score": 30, "surveyDate": "2024-05-01"}).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/hr/employees/e1/performance", map[string]any{"period": "2024-Q1", "score": 4, "goalsMet": 90, "managerRating": 8}).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/hr/employees/e1/performance", map[string]any{"period": "2024-Q2", "score": 3, "goalsMet": 60, "managerRating": 6}).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/hr/employees/e1/feedback", map[string]any{"fromEmployeeId": "m1", "type": "manager", "text": "Needs support"}).Code, ShouldEqual, http.StatusCreated)

		Convey("When generating attrition risk", func() {
			w := do(mux, http.MethodPost, "/hr/generateAttritionRisk", map[string]string{"employeeId": "e1"})
			list := do(mux, http.MethodGet, "/hr/attrition", nil)
			risk := do(mux, http.MethodGet, "/hr/employees/e1/risk", nil)

			Convey("Then the result and stored record agree", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decode[service.RiskResult](w)
				So(res.Success, ShouldBeTrue)
				So(res.RiskScore, ShouldAlmostEqual, 0.8, 1e-9)
				So(res.Message, ShouldEqual, "Attrition risk calculated: 80.0%")

				entries := decode[[]types.RiskEntry](list)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].Rank, ShouldEqual, 1)
				So(risk.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the employee is unknown", func() {
			w := do(mux, http.MethodPost, "/hr/generateAttritionRisk", map[string]string{"employeeId": "ghost"})

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When scoring fails internally", func() {
			broken := http.NewServeMux()
			api.NewServer(brokenScoring{svc}).Register(ctx, broken)
			w := do(broken, http.MethodPost, "/hr/generateAttritionRisk", map[string]string{"employeeId": "e1"})

			Convey("Then the failure result is returned with 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				res := decode[service.RiskResult](w)
				So(res.Success, ShouldBeFalse)
				So(res.Message, ShouldEqual, "Error calculating attrition risk")
			})
		})

		Convey("When string actions run", func() {
			training := do(mux, http.MethodPost, "/hr/generateTrainingRecommendations", map[string]string{"employeeId": "e1"})
			ideas := do(mux, http.MethodPost, "/hr/generateEngagementIdeas", map[string]string{"department": "Engineering"})
			policy := do(mux, http.MethodPost, "/hr/analyzePolicyGaps", nil)

			Convey("Then each result is wrapped as a value", func() {
				So(training.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](training)["value"], ShouldStartWith, "Training recommendations generated: ")
				So(ideas.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](ideas)["value"], ShouldStartWith, "Engagement ideas generated for Engineering")
				So(policy.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](policy)["value"], ShouldNotBeBlank)
			})
		})

		Convey("When analyzing a team", func() {
			w := do(mux, http.MethodPost, "/hr/analyzeTeamPerformance", map[string]string{"department": "Engineering"})
			missing := do(mux, http.MethodPost, "/hr/analyzeTeamPerformance", map[string]string{"department": "Nowhere"})

			Convey("Then the analysis is returned and an empty department is not found", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decode[service.TeamAnalysisResult](w)
				So(res.Success, ShouldBeTrue)
				So(res.Analysis.TeamSize, ShouldEqual, 2)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When applying a recommendation twice", func() {
			So(do(mux, http.MethodPost, "/hr/generateTrainingRecommendations", map[string]string{"employeeId": "e1"}).Code, ShouldEqual, http.StatusOK)
			recs := decode[[]model.TrainingRecommendation](do(mux, http.MethodGet, "/hr/recommendations?employeeId=e1", nil))
			So(len(recs), ShouldEqual, 1)

			first := do(mux, http.MethodPost, "/hr/suggestions/training/"+recs[0].ID+"/apply", nil)
			second := do(mux, http.MethodPost, "/hr/suggestions/training/"+recs[0].ID+"/apply", nil)
			unknown := do(mux, http.MethodPost, "/hr/suggestions/training/nope/apply", nil)

			Convey("Then only the first transition succeeds", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]string](first)["status"], ShouldEqual, string(model.StatusScheduled))
				So(second.Code, ShouldEqual, http.StatusBadRequest)
				So(unknown.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When narratives are requested without a generator", func() {
			explain := do(mux, http.MethodPost, "/genai/explainAttritionRisk", map[string]string{"employeeId": "e1"})
			summary := do(mux, http.MethodPost, "/genai/summarizeFeedback", map[string]string{"employeeId": "e1", "timeframe": "all"})
			plan := do(mux, http.MethodPost, "/genai/suggestTraining", map[string]string{"employeeId": "e1", "gaps": "delegation"})
			badTimeframe := do(mux, http.MethodPost, "/genai/summarizeFeedback", map[string]string{"employeeId": "e1", "timeframe": "soon"})

			Convey("Then fallbacks answer", func() {
				So(explain.Code, ShouldEqual, http.StatusOK)
				So(decode[service.ExplainResult](explain).Source, ShouldEqual, service.SourceFallback)
				So(summary.Code, ShouldEqual, http.StatusOK)
				So(decode[service.FeedbackSummary](summary).Count, ShouldEqual, 1)
				So(plan.Code, ShouldEqual, http.StatusOK)
				So(decode[service.TrainingPlan](plan).Plan, ShouldContainSubstring, "delegation")
				So(badTimeframe.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When rescoring before the service is started", func() {
			w := do(mux, http.MethodPost, "/hr/attrition/rescore", nil)

			Convey("Then it is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When rescoring a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			w := do(mux, http.MethodPost, "/hr/attrition/rescore", map[string]string{"department": "Engineering"})

			Convey("Then the jobs are accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				report := decode[service.RescoreReport](w)
				So(report.Requested, ShouldEqual, 2)
				So(report.Accepted+report.Duplicates, ShouldEqual, 2)
			})
		})

		Convey("When reading the risk summary", func() {
			So(do(mux, http.MethodPost, "/hr/generateAttritionRisk", map[string]string{"employeeId": "e1"}).Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/hr/attrition/summary", nil)

			Convey("Then the department is aggregated", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				summary := decode[[]types.RiskSummary](w)
				So(len(summary), ShouldEqual, 1)
				So(summary[0].High, ShouldEqual, 1)
			})
		})
	})
}
