package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/smarthr/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestRiskEntryJSON(t *testing.T) {
	convey.Convey("Given a risk entry", t, func() {
		e := types.RiskEntry{Rank: 1, EmployeeID: "e1", Name: "Ada Lovelace", RiskScore: 0.8, UrgencyLevel: "High"}

		convey.Convey("When encoding to JSON", func() {
			b, err := json.Marshal(e)

			convey.Convey("Then it should use camelCase field names", func() {
				convey.So(err, convey.ShouldBeNil)
				s := string(b)
				convey.So(s, convey.ShouldContainSubstring, `"employeeId":"e1"`)
				convey.So(s, convey.ShouldContainSubstring, `"riskScore":0.8`)
				convey.So(s, convey.ShouldContainSubstring, `"urgencyLevel":"High"`)
			})
		})
	})
}
