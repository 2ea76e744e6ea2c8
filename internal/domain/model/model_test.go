package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	model "github.com/okian/smarthr/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTenureMonths(t *testing.T) {
	convey.Convey("Given a hire date", t, func() {
		hire := date(2023, time.March, 15)

		convey.So(model.TenureMonths(hire, date(2023, time.March, 15)), convey.ShouldEqual, 0)
		convey.So(model.TenureMonths(hire, date(2023, time.April, 14)), convey.ShouldEqual, 0)
		convey.So(model.TenureMonths(hire, date(2023, time.April, 15)), convey.ShouldEqual, 1)
		convey.So(model.TenureMonths(hire, date(2024, time.March, 20)), convey.ShouldEqual, 12)
		convey.So(model.TenureMonths(hire, date(2022, time.January, 1)), convey.ShouldEqual, 0)
		convey.So(model.TenureMonths(time.Time{}, date(2024, time.January, 1)), convey.ShouldEqual, 0)
	})
}

func TestEmployee(t *testing.T) {
	convey.Convey("Given an employee", t, func() {
		e := model.Employee{
			ID: "e1", EmployeeCode: "EMP001", FirstName: "Ada", LastName: "Lovelace",
			Role: "Senior Developer", Department: "Engineering", Team: "Core", Location: "London",
			HireDate: date(2020, time.January, 1),
		}

		convey.Convey("Then a complete record validates", func() {
			convey.So(e.Validate(), convey.ShouldBeNil)
			convey.So(e.FullName(), convey.ShouldEqual, "Ada Lovelace")
		})

		convey.Convey("Then missing required fields are rejected", func() {
			e.Department = " "
			err := e.Validate()
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("Then self management is rejected", func() {
			e.ManagerID = "e1"
			convey.So(errors.Is(e.Validate(), model.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("Then search matches any text field case-insensitively", func() {
			convey.So(e.Matches("developer"), convey.ShouldBeTrue)
			convey.So(e.Matches("LONDON"), convey.ShouldBeTrue)
			convey.So(e.Matches("emp001"), convey.ShouldBeTrue)
			convey.So(e.Matches("finance"), convey.ShouldBeFalse)
			convey.So(e.Matches(""), convey.ShouldBeTrue)
		})
	})
}

func TestSignalValidation(t *testing.T) {
	convey.Convey("Given satisfaction surveys", t, func() {
		ok := model.SatisfactionSurvey{EmployeeID: "e1", Score: 100}
		convey.So(ok.Validate(), convey.ShouldBeNil)

		for _, bad := range []float64{-0.1, 100.01, 150, math.NaN()} {
			err := model.SatisfactionSurvey{EmployeeID: "e1", Score: bad}.Validate()
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Given performance metrics", t, func() {
		p := model.PerformanceMetric{EmployeeID: "e1", Period: "2024-Q1", Score: 5, GoalsMet: 0, ManagerRating: 10}
		convey.So(p.Validate(), convey.ShouldBeNil)

		p.Score = 5.01
		convey.So(p.Validate().Error(), convey.ShouldContainSubstring, "between 0.00 and 5.00")

		p.Score = 3
		p.GoalsMet = 101
		convey.So(errors.Is(p.Validate(), model.ErrValidation), convey.ShouldBeTrue)

		p.GoalsMet = 50
		p.ManagerRating = -1
		convey.So(errors.Is(p.Validate(), model.ErrValidation), convey.ShouldBeTrue)

		p.ManagerRating = 5
		p.Period = ""
		convey.So(p.Validate(), convey.ShouldNotBeNil)
	})

	convey.Convey("Given feedback", t, func() {
		f := model.Feedback{EmployeeID: "e1", FromEmployeeID: "e2", Type: model.FeedbackPeer, Text: "great mentor"}
		convey.So(f.Validate(), convey.ShouldBeNil)

		f.FromEmployeeID = "e1"
		err := f.Validate()
		convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "cannot provide feedback to themselves")
	})
}

func TestNextStatus(t *testing.T) {
	convey.Convey("Given pending suggestions", t, func() {
		cases := []struct {
			kind model.SuggestionKind
			want model.Status
		}{
			{model.KindTraining, model.StatusScheduled},
			{model.KindEngagement, model.StatusApplied},
			{model.KindPolicy, model.StatusUnderReview},
		}
		for _, c := range cases {
			got, err := model.NextStatus(c.kind, model.StatusPending, model.ActionApply)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, c.want)

			got, err = model.NextStatus(c.kind, model.StatusPending, model.ActionDismiss)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, model.StatusDismissed)
		}
	})

	convey.Convey("Given a suggestion that already moved", t, func() {
		_, err := model.NextStatus(model.KindTraining, model.StatusScheduled, model.ActionDismiss)
		convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
	})

	convey.Convey("Given an unknown action or kind", t, func() {
		_, err := model.NextStatus(model.KindTraining, model.StatusPending, "archive")
		convey.So(err, convey.ShouldNotBeNil)
		_, err = model.ParseSuggestionKind("hiring")
		convey.So(err, convey.ShouldNotBeNil)
		k, err := model.ParseSuggestionKind("Engagement")
		convey.So(err, convey.ShouldBeNil)
		convey.So(k, convey.ShouldEqual, model.KindEngagement)
	})
}
