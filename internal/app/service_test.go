package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/tcscan"
	"github.com/qqqlxhjy/NishimoriLine/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

// peakedScan has one broad peak at T=10 in both C and chi, giving the
// window [7, 13], and M = (13.5 - T)^0.3 falling towards the window edge.
func peakedScan() model.Scan {
	curve := []float64{1, 1, 1, 1, 1, 3, 5, 7, 8, 9, 8, 7, 5, 3, 1}
	n := len(curve)
	scan := model.Scan{
		Temperatures:     make([]float64, n),
		Energies:         make([]float64, n),
		Magnetizations:   make([]float64, n),
		HeatCapacities:   append([]float64(nil), curve...),
		Susceptibilities: append([]float64(nil), curve...),
	}
	for i := range n {
		t := float64(i + 1)
		scan.Temperatures[i] = t
		scan.Magnetizations[i] = math.Pow(13.5-t, 0.3)
	}
	return scan
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic scan with Tc = 2.269 and beta = 0.125", t, func() {
		scan := synth.Generate(synth.DefaultParams())
		svc := service.New()

		Convey("When it is analyzed with automatic bounds", func() {
			report, err := svc.Analyze(ctx, "synthetic", scan, service.Overrides{})

			Convey("Then the fit recovers the critical point", func() {
				So(err, ShouldBeNil)
				So(report.Best, ShouldNotBeNil)
				So(report.Best.Tc, ShouldAlmostEqual, 2.269, 0.005)
				So(report.Best.Beta, ShouldAlmostEqual, 0.125, 0.02)
				So(report.Best.RSquared, ShouldBeGreaterThan, 0.99)
			})

			Convey("Then the report carries the detected window and run metadata", func() {
				So(report.RunID, ShouldNotBeEmpty)
				So(report.Source, ShouldEqual, "synthetic")
				So(report.Rows, ShouldEqual, scan.Len())
				So(report.Auto.Primary, ShouldNotBeNil)
				So(report.Used.TMin, ShouldEqual, report.Auto.Primary.TEnvMin)
				So(report.Used.TMax, ShouldEqual, report.Auto.Primary.TEnvMax)
				So(report.Used.TcMin, ShouldEqual, report.Auto.Primary.TcOvMin)
				So(report.Used.TcMax, ShouldEqual, report.Auto.Primary.TcOvMax)
				So(report.Used.Step, ShouldEqual, 0.0001)
				So(len(report.Records), ShouldBeGreaterThan, 0)
				So(report.ValidCount(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When it is analyzed by several workers", func() {
			seq, err := service.New().Analyze(ctx, "seq", scan, service.Overrides{})
			So(err, ShouldBeNil)
			par, err := service.New(service.WithWorkerCount(4), service.WithQueueSize(16)).
				Analyze(ctx, "par", scan, service.Overrides{})
			So(err, ShouldBeNil)

			Convey("Then the table and best fit match the sequential run", func() {
				So(par.Records, ShouldResemble, seq.Records)
				So(par.Best, ShouldResemble, seq.Best)
			})
		})

		Convey("When bounds are overridden", func() {
			report, err := svc.Analyze(ctx, "override", scan, service.Overrides{
				TcMin: ptr(2.25),
				TcMax: ptr(2.28),
				Step:  ptr(0.001),
			})

			Convey("Then the overrides replace the detected values", func() {
				So(err, ShouldBeNil)
				So(report.Used.TcMin, ShouldEqual, 2.25)
				So(report.Used.TcMax, ShouldEqual, 2.28)
				So(report.Used.Step, ShouldEqual, 0.001)
				So(report.Used.TMin, ShouldEqual, report.Auto.Primary.TEnvMin)
				So(len(report.Records), ShouldEqual, 31)
				So(report.Records[0].Tc, ShouldEqual, 2.25)
			})
		})

		Convey("When the step override is not positive", func() {
			_, err := svc.Analyze(ctx, "bad", scan, service.Overrides{Step: ptr(-1)})

			Convey("Then the parameters are rejected", func() {
				So(errors.Is(err, service.ErrInvalidParams), ShouldBeTrue)
			})
		})

		Convey("When the step override asks for an unbounded grid", func() {
			_, err := svc.Analyze(ctx, "tiny", scan, service.Overrides{Step: ptr(1e-15)})

			Convey("Then the parameters are rejected before any fit runs", func() {
				So(errors.Is(err, service.ErrInvalidParams), ShouldBeTrue)
				So(errors.Is(err, tcscan.ErrInvalidRange), ShouldBeTrue)
			})
		})

		Convey("When a bound override is not finite", func() {
			_, err := svc.Analyze(ctx, "nan", scan, service.Overrides{TMin: ptr(math.NaN())})

			Convey("Then the parameters are rejected", func() {
				So(errors.Is(err, service.ErrInvalidParams), ShouldBeTrue)
			})
		})

		Convey("When the magnetization is zero everywhere", func() {
			for i := range scan.Magnetizations {
				scan.Magnetizations[i] = 0
			}
			report, err := svc.Analyze(ctx, "zero", scan, service.Overrides{})

			Convey("Then the scan completes without a best fit", func() {
				So(err, ShouldBeNil)
				So(report.Best, ShouldBeNil)
				So(report.ValidCount(), ShouldEqual, 0)
				for _, r := range report.Records {
					So(math.IsInf(r.RSquared, -1), ShouldBeTrue)
				}
			})
		})

		Convey("When a separate magnetization series is supplied", func() {
			fit := scan.Magnetization()
			fit.Values = append([]float64(nil), scan.Magnetizations...)
			for i := range scan.Magnetizations {
				scan.Magnetizations[i] = 0
			}
			report, err := svc.Analyze(ctx, "separate", scan, service.Overrides{Magnetization: &fit})

			Convey("Then it is fitted in place of the scan's column", func() {
				So(err, ShouldBeNil)
				So(report.Best, ShouldNotBeNil)
				So(report.Best.Tc, ShouldAlmostEqual, 2.269, 0.005)
			})

			Convey("Then a ragged series is rejected", func() {
				fit.Values = fit.Values[:3]
				_, err := svc.Analyze(ctx, "ragged", scan, service.Overrides{Magnetization: &fit})
				So(errors.Is(err, service.ErrLengthMismatch), ShouldBeTrue)
			})

			Convey("Then an empty series is rejected", func() {
				_, err := svc.Analyze(ctx, "empty", scan, service.Overrides{Magnetization: &model.Series{}})
				So(errors.Is(err, service.ErrEmptyScan), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then sequential and parallel runs both stop", func() {
				_, err := svc.Analyze(cctx, "cancelled", scan, service.Overrides{})
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, err = service.New(service.WithWorkerCount(2)).Analyze(cctx, "cancelled", scan, service.Overrides{})
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a scan with one broad peak at T = 10", t, func() {
		scan := peakedScan()
		svc := service.New(service.WithStep(0.01))

		Convey("When it is analyzed", func() {
			report, err := svc.Analyze(ctx, "peaked", scan, service.Overrides{})

			Convey("Then the primary window brackets the half-maximum interval", func() {
				So(err, ShouldBeNil)
				So(report.Auto.Primary, ShouldResemble, &model.Window{TEnvMin: 7, TEnvMax: 13, TcOvMin: 7, TcOvMax: 13})
				So(report.Auto.Secondary, ShouldBeNil)
			})

			Convey("Then the best fit rises with a near-linear log-log relation", func() {
				So(report.Best, ShouldNotBeNil)
				So(report.Best.Slope, ShouldBeGreaterThan, 0)
				So(report.Best.RSquared, ShouldBeGreaterThan, 0.95)
				So(report.Best.RSquared, ShouldBeLessThanOrEqualTo, 1)
			})
		})
	})

	Convey("Given scans that cannot be analyzed", t, func() {
		svc := service.New()

		Convey("When the scan is empty", func() {
			_, err := svc.Analyze(ctx, "empty", model.Scan{}, service.Overrides{})

			Convey("Then ErrEmptyScan is returned", func() {
				So(errors.Is(err, service.ErrEmptyScan), ShouldBeTrue)
			})
		})

		Convey("When the columns differ in length", func() {
			scan := peakedScan()
			scan.Magnetizations = scan.Magnetizations[:3]
			_, err := svc.Analyze(ctx, "short", scan, service.Overrides{})

			Convey("Then ErrLengthMismatch is returned", func() {
				So(errors.Is(err, service.ErrLengthMismatch), ShouldBeTrue)
			})
		})

		Convey("When C and chi are flat", func() {
			scan := peakedScan()
			for i := range scan.HeatCapacities {
				scan.HeatCapacities[i] = 1
				scan.Susceptibilities[i] = 1
			}
			_, err := svc.Analyze(ctx, "flat", scan, service.Overrides{})

			Convey("Then ErrNoWindow is returned", func() {
				So(errors.Is(err, service.ErrNoWindow), ShouldBeTrue)
				So(svc.GetStats()["noWindow"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestRuns(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a run store and a fixed clock", t, func() {
		store := repository.NewCacheStore()
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		svc := service.New(
			service.WithStore(store),
			service.WithStep(0.01),
			service.WithClock(func() time.Time { return at }),
		)

		Convey("When a scan is analyzed", func() {
			report, err := svc.Analyze(ctx, "peaked", peakedScan(), service.Overrides{})
			So(err, ShouldBeNil)

			Convey("Then the run is stored and retrievable", func() {
				So(report.CreatedAt, ShouldEqual, at)
				got, err := svc.Run(ctx, report.RunID)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, report)

				runs, err := svc.Runs(ctx)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 1)

				stats := svc.GetStats()
				So(stats["runs"], ShouldEqual, int64(1))
				So(stats["storedRuns"], ShouldEqual, 1)
			})

			Convey("Then unknown runs are not found", func() {
				_, err := svc.Run(ctx, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := service.New()

		Convey("Then lookups find nothing", func() {
			_, err := svc.Run(ctx, "any")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			runs, err := svc.Runs(ctx)
			So(err, ShouldBeNil)
			So(runs, ShouldBeEmpty)
			_, ok := svc.GetStats()["storedRuns"]
			So(ok, ShouldBeFalse)
		})
	})
}
