package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.candidates.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_candidates_evaluated_total")
			})
		})

		Convey("When empty options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "reanalysis")
				So(manager.subsystem, ShouldEqual, "tc")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording candidate fits", func() {
			before := testutil.ToFloat64(globalManager.candidates)
			beforeValid := testutil.ToFloat64(globalManager.fitsValid)
			RecordCandidates(7, 3)

			Convey("Then totals and the valid split advance", func() {
				So(testutil.ToFloat64(globalManager.candidates)-before, ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.fitsValid)-beforeValid, ShouldEqual, 7)
			})
		})

		Convey("When publishing a best fit", func() {
			UpdateBestFit(2.269, 0.125, 0.998)

			Convey("Then the gauges hold it", func() {
				So(testutil.ToFloat64(globalManager.bestTc), ShouldEqual, 2.269)
				So(testutil.ToFloat64(globalManager.bestBeta), ShouldEqual, 0.125)
				So(testutil.ToFloat64(globalManager.bestRSquared), ShouldEqual, 0.998)
			})
		})

		Convey("When recording analyses by outcome", func() {
			before := testutil.ToFloat64(globalManager.analyses.WithLabelValues(OutcomeNoWindow))
			RecordAnalysis(OutcomeNoWindow)

			Convey("Then only that outcome advances", func() {
				So(testutil.ToFloat64(globalManager.analyses.WithLabelValues(OutcomeNoWindow))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording everything else", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordScanDuration(12)
					RecordScanRows(100, 2)
					UpdateRunsStored(4)
					UpdateLastAnalysis(1700000000)
					RecordHTTPRequest("analyze", "POST", "200")
					RecordHTTPRequestDuration("analyze", "POST", "200", 5)
					RecordErrorByEndpoint("runs", "GET", "not_found")
					UpdateQueueCapacity(64)
					UpdateQueueSize(3)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerActiveCount(4)
					RecordWorkerProcessingLatency(0.2)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a destination file", t, func() {
		RecordCandidates(1, 0)
		path := filepath.Join(t.TempDir(), "reanalysis.prom")

		Convey("When the registry is written", func() {
			err := WriteTextfile(path)

			Convey("Then it contains the exposition text", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "reanalysis_tc_candidates_evaluated_total"), ShouldBeTrue)
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then a textfile error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, ErrTextfile.Error())
			})
		})
	})
}
