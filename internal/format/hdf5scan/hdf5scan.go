// Package hdf5scan decodes a simplified, self-describing binary log
// container used by several of the site's airborne sensor packages
// (altimeter, frame GPS, inclinometer, wasp200): a fixed magic header,
// a dataset count, then one named, typed dataset per entry, each
// carrying its own attribute list. No general HDF5 library exists in
// this stack, so only the subset of the real container format this
// fleet actually emits is implemented, following the same
// validate-header-then-decode-fixed-records idiom as the other binary
// formats in this package. Detection is extension-gated: this format
// is only attempted against ".h5"/".hdf5" files, since its magic alone
// isn't distinctive enough to try unconditionally.
package hdf5scan

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// DescriptiveName identifies this format to the detection registry.
const DescriptiveName = "HDF5 Sensor Container"

var magic = [8]byte{0x89, 'H', 'D', 'F', 'S', 'C', 'N', 0x01}

// dataTypeCode tags how a dataset's payload is laid out.
type dataTypeCode uint8

const (
	typeFloat64Primitive dataTypeCode = iota // interleaved samples of {time int64, value float64}
	typeCompoundTimeValue                    // records of {time int64, value float64}; decoded the same way, with a log message
)

// IsBufValid sniffs the fixed magic header.
func IsBufValid(buf []byte) error {
	if len(buf) < len(magic) {
		return fmt.Errorf("hdf5scan: buffer too short for magic header")
	}
	for i, b := range magic {
		if buf[i] != b {
			return fmt.Errorf("hdf5scan: magic mismatch at byte %d", i)
		}
	}
	return nil
}

// dataset is one decoded named series, plus its attributes.
type dataset struct {
	name       string
	unit       string
	timestamps []float64 // nanoseconds
	values     []float64
	attrs      []plotmodel.KV
}

// Parser is the decoded container: every dataset it held.
type Parser struct {
	datasets []dataset
}

func readU32(r io.Reader) (uint32, int64, error) {
	var b [4]byte
	n, err := io.ReadFull(r, b[:])
	return binary.LittleEndian.Uint32(b[:]), int64(n), err
}

func readU8(r io.Reader) (uint8, int64, error) {
	var b [1]byte
	n, err := io.ReadFull(r, b[:])
	return b[0], int64(n), err
}

func readString(r io.Reader) (string, int64, error) {
	length, n, err := readU32(r)
	total := n
	if err != nil {
		return "", total, err
	}
	buf := make([]byte, length)
	m, err := io.ReadFull(r, buf)
	total += int64(m)
	if err != nil {
		return "", total, err
	}
	return string(buf), total, nil
}

func readF64(r io.Reader) (float64, int64, error) {
	var b [8]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return 0, int64(n), err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), int64(n), nil
}

func readI64(r io.Reader) (int64, int64, error) {
	var b [8]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		return 0, int64(n), err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), int64(n), nil
}

// FromReader validates the header and decodes every dataset entry. Each
// dataset's type code alone selects its layout; both layouts are read as
// the declared number of interleaved (int64 nanosecond time, float64
// value) samples, and the compound layout also logs a message. A dataset
// that fails to decode is not retried under the other layout, and its
// attributes are read but not checked against the declared length. An
// unknown type code or a short read is a hard error, not a truncation:
// the container format does not tolerate partial records the way the
// flat log formats do.
func FromReader(r io.Reader) (*Parser, int64, error) {
	var hdr [8]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("hdf5scan: failed to read header: %w", err)
	}
	if err := IsBufValid(hdr[:]); err != nil {
		return nil, total, err
	}

	datasetCount, n64, err := readU32(r)
	total += n64
	if err != nil {
		return nil, total, fmt.Errorf("hdf5scan: failed to read dataset count: %w", err)
	}

	p := &Parser{}
	for di := uint32(0); di < datasetCount; di++ {
		name, n64, err := readString(r)
		total += n64
		if err != nil {
			return nil, total, fmt.Errorf("hdf5scan: dataset %d: failed to read name: %w", di, err)
		}

		unit, n64, err := readString(r)
		total += n64
		if err != nil {
			return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): failed to read unit: %w", di, name, err)
		}

		typeCode, n64, err := readU8(r)
		total += n64
		if err != nil {
			return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): failed to read type code: %w", di, name, err)
		}

		length, n64, err := readU32(r)
		total += n64
		if err != nil {
			return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): failed to read length: %w", di, name, err)
		}

		attrCount, n64, err := readU32(r)
		total += n64
		if err != nil {
			return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): failed to read attribute count: %w", di, name, err)
		}
		attrs := make([]plotmodel.KV, 0, attrCount)
		for ai := uint32(0); ai < attrCount; ai++ {
			k, n64, err := readString(r)
			total += n64
			if err != nil {
				return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): attribute %d key: %w", di, name, ai, err)
			}
			v, n64, err := readString(r)
			total += n64
			if err != nil {
				return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): attribute %d value: %w", di, name, ai, err)
			}
			attrs = append(attrs, plotmodel.KV{Key: k, Value: v})
		}

		ds := dataset{name: name, unit: unit, attrs: attrs}

		switch dataTypeCode(typeCode) {
		case typeFloat64Primitive:
			ds.timestamps = make([]float64, length)
			ds.values = make([]float64, length)
			for i := uint32(0); i < length; i++ {
				ts, n64, err := readI64(r)
				total += n64
				if err != nil {
					return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): sample %d timestamp: %w", di, name, i, err)
				}
				v, n64, err := readF64(r)
				total += n64
				if err != nil {
					return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): sample %d value: %w", di, name, i, err)
				}
				ds.timestamps[i] = float64(ts)
				ds.values[i] = v
			}
		case typeCompoundTimeValue:
			monitoring.Logf("hdf5scan: dataset %d (%s) uses compound record layout, falling back to single-field 'time' decode", di, name)
			ds.timestamps = make([]float64, length)
			ds.values = make([]float64, length)
			for i := uint32(0); i < length; i++ {
				ts, n64, err := readI64(r)
				total += n64
				if err != nil {
					return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): compound sample %d time: %w", di, name, i, err)
				}
				v, n64, err := readF64(r)
				total += n64
				if err != nil {
					return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): compound sample %d value: %w", di, name, i, err)
				}
				ds.timestamps[i] = float64(ts)
				ds.values[i] = v
			}
		default:
			return nil, total, fmt.Errorf("hdf5scan: dataset %d (%s): unknown type code %d", di, name, typeCode)
		}

		p.datasets = append(p.datasets, ds)
	}

	if len(p.datasets) == 0 {
		return nil, total, fmt.Errorf("hdf5scan: container holds no datasets")
	}

	return p, total, nil
}

// FirstTimestampNs returns the earliest timestamp across every dataset.
func (p *Parser) FirstTimestampNs() float64 {
	var first float64
	set := false
	for _, ds := range p.datasets {
		if len(ds.timestamps) == 0 {
			continue
		}
		if !set || ds.timestamps[0] < first {
			first = ds.timestamps[0]
			set = true
		}
	}
	return first
}

// Metadata flattens every dataset's attributes, prefixed by dataset name.
func (p *Parser) Metadata() []plotmodel.KV {
	out := []plotmodel.KV{
		{Key: "format", Value: DescriptiveName},
		{Key: "dataset_count", Value: fmt.Sprintf("%d", len(p.datasets))},
	}
	for _, ds := range p.datasets {
		for _, a := range ds.attrs {
			out = append(out, plotmodel.KV{Key: ds.name + "." + a.Key, Value: a.Value})
		}
	}
	return out
}

// Labels has no discrete event markers for this format.
func (p *Parser) Labels() []plotmodel.PlotLabels { return nil }

// RawPlots turns every dataset into its own "Other" series.
func (p *Parser) RawPlots() []plotmodel.RawPlot {
	var out []plotmodel.RawPlot
	for _, ds := range p.datasets {
		pts := make([]plotmodel.Point, len(ds.timestamps))
		for i := range pts {
			pts[i] = plotmodel.Point{ds.timestamps[i], ds.values[i]}
		}
		c, err := plotmodel.NewRawPlotCommon(ds.name, pts, plotmodel.Other(ds.name, ds.unit, plotmodel.RangeThousands, false))
		if err != nil {
			monitoring.Logf("hdf5scan: dropping dataset %q: %v", ds.name, err)
			continue
		}
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}
	return out
}
