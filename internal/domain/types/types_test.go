package types_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	types "github.com/qqqlxhjy/NishimoriLine/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReport(t *testing.T) {
	Convey("Given a report with valid and rejected fits", t, func() {
		best := model.FitRecord{Tc: 2.27, Beta: 0.12, Slope: 0.12, RSquared: 0.99, Points: 9, Valid: true}
		r := &types.Report{
			RunID:  "run-1",
			Source: "scan.csv",
			Rows:   40,
			Used:   tcscan.Params{TMin: 2, TMax: 2.5, TcMin: 2.2, TcMax: 2.3, Step: 0.05},
			Records: []model.FitRecord{
				{Tc: 2.2, RSquared: math.Inf(-1), Points: 2},
				best,
				{Tc: 2.3, RSquared: 0.5, Slope: -1, Beta: -1, Points: 10},
			},
			Best:      &best,
			CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}

		Convey("Then ValidCount counts only valid records", func() {
			So(r.ValidCount(), ShouldEqual, 1)
		})

		Convey("When building the summary", func() {
			s := r.Summary()

			Convey("Then it carries counts instead of the table", func() {
				So(s.RunID, ShouldEqual, "run-1")
				So(s.Candidates, ShouldEqual, 3)
				So(s.ValidFits, ShouldEqual, 1)
				So(s.Best.Tc, ShouldEqual, 2.27)
			})

			Convey("And it encodes as JSON even though a record holds -Inf", func() {
				data, err := json.Marshal(s)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"run_id":"run-1"`)
				So(string(data), ShouldContainSubstring, `"valid_fits":1`)
			})
		})
	})
}
