// Package scanio reads recorded temperature scans and writes reanalysis
// results in the CSV, text and XLSX layouts downstream tools expect.
package scanio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/qqqlxhjy/NishimoriLine/internal/domain/model"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
)

// Columns parsed by the two readers, and the row width each requires.
var (
	fullLayout = layout{width: 5, fields: []int{0, 1, 2, 3, 4}} // T, E, M, C, chi
	magLayout  = layout{width: 3, fields: []int{0, 2}}          // T, M; E is not parsed
)

type layout struct {
	width  int
	fields []int
}

// Option configures the readers.
type Option func(*readSettings)

type readSettings struct {
	logger logger.Logger
}

// WithLogger sets the logger skipped rows are reported to.
func WithLogger(l logger.Logger) Option {
	return func(s *readSettings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newReadSettings(opts []Option) readSettings {
	s := readSettings{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// LoadScan reads the scan CSV at path. See ReadScan for the format.
func LoadScan(ctx context.Context, path string, opts ...Option) (model.Scan, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Scan{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()
	return readScan(ctx, f, path, opts)
}

// ReadScan parses a scan CSV from r. The first row is a header and is
// ignored. Each following row needs at least the columns T, E, M, C, chi;
// shorter rows and rows with a non-numeric field among those five are
// skipped.
func ReadScan(ctx context.Context, r io.Reader, opts ...Option) (model.Scan, error) {
	return readScan(ctx, r, "stream", opts)
}

func readScan(ctx context.Context, r io.Reader, source string, opts []Option) (model.Scan, error) {
	s := newReadSettings(opts)
	var scan model.Scan
	loaded, skipped, err := readRows(r, fullLayout, func(v []float64) {
		scan.Temperatures = append(scan.Temperatures, v[0])
		scan.Energies = append(scan.Energies, v[1])
		scan.Magnetizations = append(scan.Magnetizations, v[2])
		scan.HeatCapacities = append(scan.HeatCapacities, v[3])
		scan.Susceptibilities = append(scan.Susceptibilities, v[4])
	})
	if err != nil {
		return model.Scan{}, err
	}
	metrics.RecordScanRows(loaded, skipped)
	if skipped > 0 {
		s.logger.Debug(ctx, "skipped malformed scan rows",
			logger.String("source", source),
			logger.Int("skipped", skipped),
			logger.Int("loaded", loaded),
		)
	}
	return scan, nil
}

// LoadMagnetization reads only T and M from a scan CSV. Rows need at least
// three columns; the energy column is not checked.
func LoadMagnetization(ctx context.Context, path string, opts ...Option) (model.Series, error) {
	s := newReadSettings(opts)
	f, err := os.Open(path)
	if err != nil {
		return model.Series{}, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	var series model.Series
	loaded, skipped, err := readRows(f, magLayout, func(v []float64) {
		series.Temperatures = append(series.Temperatures, v[0])
		series.Values = append(series.Values, v[1])
	})
	if err != nil {
		return model.Series{}, err
	}
	metrics.RecordScanRows(loaded, skipped)
	if skipped > 0 {
		s.logger.Debug(ctx, "skipped malformed scan rows",
			logger.String("source", path),
			logger.Int("skipped", skipped),
		)
	}
	return series, nil
}

// readRows calls emit with the parsed fields of every usable row after the
// header, in the order of l.fields.
func readRows(r io.Reader, l layout, emit func([]float64)) (loaded, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header := true
	vals := make([]float64, len(l.fields))
	for {
		row, rerr := cr.Read()
		if rerr == io.EOF {
			return loaded, skipped, nil
		}
		if rerr != nil {
			var perr *csv.ParseError
			if errors.As(rerr, &perr) {
				header = false
				skipped++
				continue
			}
			return loaded, skipped, fmt.Errorf("%w: %w", ErrRead, rerr)
		}
		if header {
			header = false
			continue
		}
		if len(row) < l.width || !parseFields(row, l.fields, vals) {
			skipped++
			continue
		}
		emit(vals)
		loaded++
	}
}

func parseFields(row []string, fields []int, out []float64) bool {
	for i, col := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return false
		}
		out[i] = v
	}
	return true
}
