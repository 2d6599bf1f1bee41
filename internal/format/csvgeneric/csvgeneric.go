// Package csvgeneric decodes arbitrary comma-separated field-recorder
// exports: a header row naming each column, then one row per sample. The
// first column is used as the time axis if it parses as a timestamp or
// seconds-since-start float; every other numeric column becomes its own
// "Other" series. This is the catch-all format tried last, after every
// format with a distinguishing header signature has failed to match.
package csvgeneric

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// DescriptiveName identifies this format to the detection registry.
const DescriptiveName = "Generic CSV"

const maxConsecutiveRowErrors = 50

// IsBufValid requires at least a header line with 2 or more comma-separated
// fields, and that the first non-header line parses as a comma-separated
// row with the same field count. This is deliberately the weakest
// signature in the registry: it is tried last.
func IsBufValid(buf []byte) error {
	reader := csv.NewReader(strings.NewReader(string(buf)))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("csvgeneric: failed to read header: %w", err)
	}
	if len(header) < 2 {
		return fmt.Errorf("csvgeneric: header has fewer than 2 columns")
	}
	row, err := reader.Read()
	if err != nil && err != io.EOF {
		return fmt.Errorf("csvgeneric: failed to read first data row: %w", err)
	}
	if err == nil && len(row) != len(header) {
		return fmt.Errorf("csvgeneric: first data row has %d fields, header has %d", len(row), len(header))
	}
	return nil
}

// Parser is the decoded generic CSV log.
type Parser struct {
	header  []string
	columns [][]float64 // columns[i][j] is column i's value at row j
	times   []float64
}

// timeLayouts are tried in order against the first column when it isn't a
// plain numeric offset.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTime(s string, rowIndex int) (float64, bool) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		// Treat as seconds since start, converted to ns here.
		return v * 1e9, true
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return float64(ts.UnixNano()), true
		}
	}
	return 0, false
}

// FromReader reads the header row, then decodes one row at a time,
// skipping malformed rows up to a consecutive-error ceiling.
func FromReader(r io.Reader) (*Parser, int64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("csvgeneric: failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, 0, fmt.Errorf("csvgeneric: header has fewer than 2 columns")
	}

	p := &Parser{header: header, columns: make([][]float64, len(header)-1)}

	consecutiveErrors := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			consecutiveErrors++
			monitoring.Logf("csvgeneric: skipping malformed row: %v", err)
			if consecutiveErrors >= maxConsecutiveRowErrors {
				monitoring.Logf("csvgeneric: %d consecutive malformed rows, terminating with %d rows decoded", consecutiveErrors, len(p.times))
				break
			}
			continue
		}
		if len(record) != len(header) {
			consecutiveErrors++
			monitoring.Logf("csvgeneric: row has %d fields, want %d, skipping", len(record), len(header))
			if consecutiveErrors >= maxConsecutiveRowErrors {
				break
			}
			continue
		}

		ts, ok := parseTime(record[0], len(p.times))
		if !ok {
			consecutiveErrors++
			monitoring.Logf("csvgeneric: row %d has unparseable timestamp %q, skipping", len(p.times), record[0])
			if consecutiveErrors >= maxConsecutiveRowErrors {
				break
			}
			continue
		}

		values := make([]float64, len(header)-1)
		rowOK := true
		for i := 1; i < len(record); i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				rowOK = false
				break
			}
			values[i-1] = v
		}
		if !rowOK {
			consecutiveErrors++
			monitoring.Logf("csvgeneric: row %d has a non-numeric field, skipping", len(p.times))
			if consecutiveErrors >= maxConsecutiveRowErrors {
				break
			}
			continue
		}

		consecutiveErrors = 0
		p.times = append(p.times, ts)
		for i, v := range values {
			p.columns[i] = append(p.columns[i], v)
		}
	}

	total := cr.InputOffset()

	if len(p.times) == 0 {
		return nil, total, fmt.Errorf("csvgeneric: no data rows decoded")
	}

	return p, total, nil
}

// FirstTimestampNs returns the first row's time-axis value, in nanoseconds.
func (p *Parser) FirstTimestampNs() float64 {
	if len(p.times) == 0 {
		return 0
	}
	return p.times[0]
}

// Metadata surfaces the column count and row count.
func (p *Parser) Metadata() []plotmodel.KV {
	return []plotmodel.KV{
		{Key: "format", Value: DescriptiveName},
		{Key: "columns", Value: fmt.Sprintf("%d", len(p.header))},
		{Key: "rows", Value: fmt.Sprintf("%d", len(p.times))},
	}
}

// Labels has no discrete event markers for this format.
func (p *Parser) Labels() []plotmodel.PlotLabels { return nil }

// RawPlots expands every non-time column into its own "Other" series,
// legended by its header name.
func (p *Parser) RawPlots() []plotmodel.RawPlot {
	var out []plotmodel.RawPlot
	for i, col := range p.columns {
		name := strings.TrimSpace(p.header[i+1])
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		pts := make([]plotmodel.Point, len(col))
		for j, v := range col {
			pts[j] = plotmodel.Point{p.times[j], v}
		}
		c, err := plotmodel.NewRawPlotCommon(name, pts, plotmodel.OtherUnitless(name, plotmodel.RangeThousands, false))
		if err != nil {
			monitoring.Logf("csvgeneric: dropping column %q: %v", name, err)
			continue
		}
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}
	return out
}
