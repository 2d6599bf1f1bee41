// Package format defines the uniform parser contract every log format
// implements, and dispatches raw bytes to the first parser that accepts
// them: narrowest checks first (fixed magic headers), then signature
// lines, then structural probes, per the detection order in the plotter's
// component design.
package format

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/telemetry-plotter/internal/format/bifrost"
	"github.com/banshee-data/telemetry-plotter/internal/format/csvgeneric"
	"github.com/banshee-data/telemetry-plotter/internal/format/grafnav"
	"github.com/banshee-data/telemetry-plotter/internal/format/hdf5scan"
	"github.com/banshee-data/telemetry-plotter/internal/format/mbedmotor"
	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// ParsedLog is what every parser produces once FromReader succeeds: the
// plotable series it decoded plus the bookkeeping the aggregator needs.
type ParsedLog interface {
	RawPlots() []plotmodel.RawPlot
	FirstTimestampNs() float64
	Metadata() []plotmodel.KV
	Labels() []plotmodel.PlotLabels
}

// Format describes one parser's entry points: a quick header sniff and
// the actual decode. IsBufValid should read no more than necessary to
// accept or reject sniff, a bounded prefix of the input.
type Format struct {
	Name         string
	IsBufValid   func(sniff []byte) error
	FromReader   func(r io.Reader) (ParsedLog, int64, error)
	ExtensionGated bool // true if this format is only tried when the path extension matches Extensions
	Extensions   []string
}

// sniffSize is how much of the input is handed to IsBufValid. Parsers are
// expected to sniff a header, not the whole file.
const sniffSize = 8192

// Registry lists every known format, narrowest/most specific checks
// first: fixed magic headers, then signature lines, then structural
// probes. HDF5 is extension-gated and tried ahead of the content-driven
// formats when the extension matches.
var Registry = []Format{
	{
		Name:       mbedmotor.DescriptiveName,
		IsBufValid: mbedmotor.IsBufValid,
		FromReader: func(r io.Reader) (ParsedLog, int64, error) { return mbedmotor.FromReader(r) },
	},
	{
		Name:       bifrost.DescriptiveName,
		IsBufValid: bifrost.IsBufValid,
		FromReader: func(r io.Reader) (ParsedLog, int64, error) { return bifrost.FromReader(r) },
	},
	{
		Name:           hdf5scan.DescriptiveName,
		IsBufValid:     hdf5scan.IsBufValid,
		FromReader:     func(r io.Reader) (ParsedLog, int64, error) { return hdf5scan.FromReader(r) },
		ExtensionGated: true,
		Extensions:     []string{".h5", ".hdf5"},
	},
	{
		Name:       grafnav.DescriptiveName,
		IsBufValid: grafnav.IsBufValid,
		FromReader: func(r io.Reader) (ParsedLog, int64, error) { return grafnav.FromReader(r) },
	},
	{
		Name:       csvgeneric.DescriptiveName,
		IsBufValid: csvgeneric.IsBufValid,
		FromReader: func(r io.Reader) (ParsedLog, int64, error) { return csvgeneric.FromReader(r) },
	},
}

// ErrNoFormatMatched is returned when no parser in the registry accepts
// the input.
var ErrNoFormatMatched = fmt.Errorf("format: no parser accepted the input")

// Detect picks the format for (filename, data) following the documented
// detection order: an HDF5-extension short-circuit first, then every
// other format in Registry order.
func Detect(filename string, data []byte) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	sniff := data
	if len(sniff) > sniffSize {
		sniff = sniff[:sniffSize]
	}

	for i := range Registry {
		f := &Registry[i]
		if !f.ExtensionGated {
			continue
		}
		for _, want := range f.Extensions {
			if ext == want {
				if err := f.IsBufValid(sniff); err == nil {
					return f, nil
				}
			}
		}
	}

	for i := range Registry {
		f := &Registry[i]
		if f.ExtensionGated {
			continue
		}
		err := f.IsBufValid(sniff)
		if err == nil {
			return f, nil
		}
		monitoring.Logf("format: %s rejected %s: %v", f.Name, filename, err)
	}

	return nil, ErrNoFormatMatched
}

// ParseBytes detects the format for filename/data and fully decodes it,
// returning a LogLoadState ready for the aggregator. parsed_bytes/
// total_bytes are reported so partial parses remain visible.
func ParseBytes(filename string, data []byte) (plotmodel.LogLoadState, error) {
	f, err := Detect(filename, data)
	if err != nil {
		return plotmodel.LogLoadState{}, fmt.Errorf("format-detect failure for %q: %w", filename, err)
	}

	cr := &countingReader{r: bytes.NewReader(data)}
	parsed, bytesRead, err := f.FromReader(cr)
	if err != nil {
		return plotmodel.LogLoadState{}, fmt.Errorf("%s: parse failed: %w", f.Name, err)
	}

	info := plotmodel.ParseInfo{ParsedBytes: bytesRead, TotalBytes: int64(len(data))}
	if info.Partial() {
		monitoring.Logf("format: %s partial parse of %q: %d/%d bytes", f.Name, filename, bytesRead, len(data))
	}

	return plotmodel.LogLoadState{
		DescriptiveName:  filepath.Base(filename),
		FirstTimestampNs: parsed.FirstTimestampNs(),
		Metadata:         parsed.Metadata(),
		RawPlots:         parsed.RawPlots(),
		Labels:           parsed.Labels(),
		ParseInfo:        info,
	}, nil
}

// countingReader wraps an io.Reader and tracks total bytes read in n.
// ParseBytes reports the byte count returned by the parser's FromReader;
// it does not read n.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// DropShortSeries filters out RawPlotCommon series with fewer than 2
// points, logging a debug message for each, per the "drop series with <2
// points" parser duty.
func DropShortSeries(name string, plots []plotmodel.RawPlotCommon) []plotmodel.RawPlotCommon {
	out := make([]plotmodel.RawPlotCommon, 0, len(plots))
	for _, p := range plots {
		if len(p.Points) < 2 {
			monitoring.Logf("format: %s: dropping series %q with %d point(s)", name, p.LegendName, len(p.Points))
			continue
		}
		out = append(out, p)
	}
	return out
}

// MaxConsecutiveRowErrors is the ceiling on consecutive malformed rows a
// log-style format parser tolerates before terminating cleanly with
// whatever it has decoded so far.
const MaxConsecutiveRowErrors = 50
