package scoring

import (
	"testing"

	"github.com/okian/smarthr/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecommend(t *testing.T) {
	Convey("Given the recommendation rules", t, func() {
		Convey("When a struggling engineering manager is evaluated", func() {
			rec := Recommend("Senior Engineering Manager", &model.PerformanceMetric{Score: 2.0, GoalsMet: 50})

			Convey("Then every matching rule contributes in order", func() {
				So(rec.Items, ShouldResemble, []string{
					RecPerformanceWorkshop,
					RecGoalSetting,
					RecProjectManagement,
					RecLeadership,
					RecTeamBuilding,
				})
				So(rec.Confidence, ShouldEqual, RuleConfidence)
			})
		})

		Convey("When a strong performer matches no role rule", func() {
			rec := Recommend("Accountant", &model.PerformanceMetric{Score: 4.5, GoalsMet: 95})

			Convey("Then only the generic pair is returned at lower confidence", func() {
				So(rec.Items, ShouldResemble, []string{RecProfessionalDev, RecIndustryTrends})
				So(rec.Confidence, ShouldEqual, GenericConfidence)
				So(rec.Text(), ShouldEqual, "Professional development seminar; Industry trends and innovation workshop")
			})
		})

		Convey("When a developer has no performance data", func() {
			rec := Recommend("Backend DEVELOPER", nil)
			So(rec.Items, ShouldResemble, []string{RecTechnicalSkills, RecCodeReview})
			So(rec.Confidence, ShouldEqual, RuleConfidence)
		})

		Convey("When the thresholds are met exactly", func() {
			rec := Recommend("Analyst", &model.PerformanceMetric{Score: 3.0, GoalsMet: 70})
			So(rec.Confidence, ShouldEqual, GenericConfidence)
		})

		Convey("When only goals met is low", func() {
			rec := Recommend("Analyst", &model.PerformanceMetric{Score: 4.0, GoalsMet: 69.9})
			So(rec.Items, ShouldResemble, []string{RecProjectManagement})
		})
	})
}
