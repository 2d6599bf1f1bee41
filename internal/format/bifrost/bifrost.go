// Package bifrost decodes the "Bifrost" transmitter loop-current monitor
// format. The instrument's recorder does not stamp absolute time: the
// format fabricates a synthetic start timestamp of January 1st of the
// current year at parse time (the quirk called out in the data model's
// open questions) and lays samples out at a fixed cadence from there.
// Correlating the synthetic axis with real GPS time is left to the
// caller; the parser only flags the quirk in metadata. Built the same way
// as mbedmotor: validate a fixed magic header, decode fixed-size records.
package bifrost

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// DescriptiveName identifies this format to the detection registry.
const DescriptiveName = "Bifrost Loop Current"

var magic = [8]byte{'B', 'I', 'F', 'R', 'O', 'S', 'T', 0x01}

// sampleIntervalNs is the fixed sample spacing the instrument records at.
const sampleIntervalNs = 10_000_000 // 10ms, i.e. 100Hz

const recordSize = 4 + 4 // loop_current (f32), loop_voltage (f32)

// IsBufValid sniffs the fixed magic header.
func IsBufValid(buf []byte) error {
	if len(buf) < len(magic) {
		return fmt.Errorf("bifrost: buffer too short for magic header")
	}
	for i, b := range magic {
		if buf[i] != b {
			return fmt.Errorf("bifrost: magic mismatch at byte %d", i)
		}
	}
	return nil
}

// Record is one fixed-cadence loop-current/voltage sample.
type Record struct {
	LoopCurrentA float32
	LoopVoltageV float32
}

// Parser is the decoded Bifrost log: a synthetic start time plus every
// sample, at sampleIntervalNs apart.
type Parser struct {
	SyntheticStartNs float64
	Records          []Record
}

// nowFn is overridable in tests so the synthetic-timestamp quirk is
// deterministic to assert against.
var nowFn = time.Now

// FromReader validates the header and decodes fixed-size records until
// EOF, fabricating the synthetic start timestamp from nowFn at parse
// time.
func FromReader(r io.Reader) (*Parser, int64, error) {
	var hdr [8]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("bifrost: failed to read header: %w", err)
	}
	if err := IsBufValid(hdr[:]); err != nil {
		return nil, total, err
	}

	now := nowFn().UTC()
	syntheticStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	p := &Parser{SyntheticStartNs: float64(syntheticStart.UnixNano())}

	buf := make([]byte, recordSize)
	for {
		n, err := io.ReadFull(r, buf)
		total += int64(n)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			monitoring.Logf("bifrost: trailing %d byte(s) short of a full record, stopping", n)
			break
		}
		if err != nil {
			return nil, total, fmt.Errorf("bifrost: read record: %w", err)
		}
		p.Records = append(p.Records, Record{
			LoopCurrentA: math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
			LoopVoltageV: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		})
	}

	if len(p.Records) == 0 {
		return nil, total, fmt.Errorf("bifrost: no samples decoded")
	}

	return p, total, nil
}

// FirstTimestampNs returns the fabricated synthetic start time.
func (p *Parser) FirstTimestampNs() float64 { return p.SyntheticStartNs }

// Metadata flags the synthetic-timestamp quirk so the caller knows this
// axis doesn't correlate to real GPS time without external correction.
func (p *Parser) Metadata() []plotmodel.KV {
	return []plotmodel.KV{
		{Key: "format", Value: DescriptiveName},
		{Key: "synthetic_timestamp", Value: "true"},
		{Key: "sample_count", Value: fmt.Sprintf("%d", len(p.Records))},
	}
}

// Labels has no discrete event markers for this format.
func (p *Parser) Labels() []plotmodel.PlotLabels { return nil }

// RawPlots expands loop current and loop voltage into their own series.
func (p *Parser) RawPlots() []plotmodel.RawPlot {
	const legend = "Bifrost"
	n := len(p.Records)
	current := make([]plotmodel.Point, n)
	voltage := make([]plotmodel.Point, n)
	for i, r := range p.Records {
		ts := p.SyntheticStartNs + float64(i)*sampleIntervalNs
		current[i] = plotmodel.Point{ts, float64(r.LoopCurrentA)}
		voltage[i] = plotmodel.Point{ts, float64(r.LoopVoltageV)}
	}

	var out []plotmodel.RawPlot
	if c, err := plotmodel.NewRawPlotCommon(legend+" Loop Current", current, plotmodel.DataType{Kind: plotmodel.KindCurrent}); err == nil {
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}
	if c, err := plotmodel.NewRawPlotCommon(legend+" Loop Voltage", voltage, plotmodel.DataType{Kind: plotmodel.KindVoltage}); err == nil {
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}
	return out
}
