package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/scanio"
	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
	"github.com/qqqlxhjy/NishimoriLine/internal/synth"
	"github.com/smartystreets/goconvey/convey"
)

func writeScanDir(t *testing.T, flat bool) string {
	t.Helper()
	dir := t.TempDir()
	scan := synth.Generate(synth.DefaultParams())
	if flat {
		for i := range scan.HeatCapacities {
			scan.HeatCapacities[i] = 1
			scan.Susceptibilities[i] = 1
		}
	}
	f, err := os.Create(filepath.Join(dir, scanio.ScanFileName))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := scanio.WriteScan(f, scan); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCommand(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func outputDir(t *testing.T, dataDir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dataDir, "reanalysis_loglog_*"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one output dir, got %v (%v)", matches, err)
	}
	return matches[0]
}

func TestAnalyzeCommand(t *testing.T) {
	convey.Convey("Given a data directory with a synthetic scan", t, func() {
		dir := writeScanDir(t, false)

		convey.Convey("When it is analyzed", func() {
			out, err := execute("analyze", dir, "--tcstep", "0.001", "--workers", "2", "--xlsx")

			convey.Convey("Then the best fit is reported and outputs are written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Reanalysis written to ")
				convey.So(out, convey.ShouldContainSubstring, "Tc_best = 2.26")

				res := outputDir(t, dir)
				for _, name := range []string{scanio.TableFileName, scanio.SummaryFileName, scanio.WorkbookFileName} {
					_, err := os.Stat(filepath.Join(res, name))
					convey.So(err, convey.ShouldBeNil)
				}
				summary, err := os.ReadFile(filepath.Join(res, scanio.SummaryFileName))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(summary), convey.ShouldContainSubstring, "Tc step = 0.001000")
			})
		})

		convey.Convey("When the Tc range is overridden and metrics are requested", func() {
			metricsFile := filepath.Join(t.TempDir(), "reanalysis.prom")
			out, err := execute("analyze", dir, "--tcmin", "2.26", "--tcmax", "2.28", "--tcstep", "0.002",
				"--metrics-file", metricsFile)

			convey.Convey("Then the overrides are used and the textfile is written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Tc_best")

				table, err := os.ReadFile(filepath.Join(outputDir(t, dir), scanio.TableFileName))
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimRight(string(table), "\r\n"), "\r\n")
				convey.So(len(lines), convey.ShouldEqual, 1+11)
				convey.So(lines[1], convey.ShouldStartWith, "2.26000000,")

				prom, err := os.ReadFile(metricsFile)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(prom), convey.ShouldContainSubstring, "reanalysis_tc_")
			})
		})

		convey.Convey("When the scan's magnetization is unusable and a separate file is given", func() {
			flat := writeScanDir(t, false)
			scan, err := scanio.LoadScan(context.Background(), filepath.Join(flat, scanio.ScanFileName))
			convey.So(err, convey.ShouldBeNil)
			for i := range scan.Magnetizations {
				scan.Magnetizations[i] = 0
			}
			f, err := os.Create(filepath.Join(flat, scanio.ScanFileName))
			convey.So(err, convey.ShouldBeNil)
			convey.So(scanio.WriteScan(f, scan), convey.ShouldBeNil)
			convey.So(f.Close(), convey.ShouldBeNil)

			magFile := filepath.Join(dir, scanio.ScanFileName)

			convey.Convey("Then only the run with the file finds a fit", func() {
				out, err := execute("analyze", flat, "--tcstep", "0.001")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "No valid Tc found in reanalysis.")

				out, err = execute("analyze", flat, "--tcstep", "0.001", "--mag-file", magFile)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Tc_best = 2.26")
			})

			convey.Convey("Then a missing file fails the run", func() {
				_, err := execute("analyze", flat, "--mag-file", filepath.Join(flat, "missing.csv"))
				convey.So(errors.Is(err, scanio.ErrOpen), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the step flag is not positive", func() {
			_, err := execute("analyze", dir, "--tcstep", "-1")

			convey.Convey("Then the flags are rejected", func() {
				convey.So(errors.Is(err, ErrFlags), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given inputs that cannot be analyzed", t, func() {
		convey.Convey("When the directory does not exist", func() {
			_, err := execute("analyze", filepath.Join(t.TempDir(), "missing"))
			convey.So(errors.Is(err, ErrDataDir), convey.ShouldBeTrue)
		})

		convey.Convey("When the directory has no scan CSV", func() {
			_, err := execute("analyze", t.TempDir())
			convey.So(errors.Is(err, ErrScanFile), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, scanio.ScanFileName)
		})

		convey.Convey("When C and chi have no peaks", func() {
			_, err := execute("analyze", writeScanDir(t, true))
			convey.So(errors.Is(err, service.ErrNoWindow), convey.ShouldBeTrue)
		})

		convey.Convey("When no directory is given", func() {
			_, err := execute("analyze")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServeRoutes(t *testing.T) {
	convey.Convey("Given the HTTP routes of the serve command", t, func() {
		ctx := context.Background()
		mux := newMux(ctx, service.New())

		convey.Convey("Then the API and its docs are mounted", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/healthz", "/stats", "/runs"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}
