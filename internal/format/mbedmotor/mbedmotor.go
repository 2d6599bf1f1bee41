// Package mbedmotor decodes the mbed motor-controller PID log: a fixed
// 8-byte magic header followed by a startup timestamp and a stream of
// fixed-size binary PID records (RPM, servo duty cycle, battery voltage,
// ...). Modeled on the teacher's Pandar40P binary-block parser
// (internal/lidar/parser.go): validate header, decode fixed-size records,
// track bytes consumed.
package mbedmotor

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// DescriptiveName identifies this format to the detection registry.
const DescriptiveName = "Mbed Motor Control PID"

// magic is the fixed 8-byte header every mbed PID log starts with. The
// final byte is the record layout version; only version 3 (the current
// firmware layout) is implemented.
var magic = [8]byte{'M', 'B', 'E', 'D', 'P', 'I', 'D', 0x03}

const recordSize = 4 + 4 + 4 + 4 + 4 + 4 + 1 + 4 // timestamp_ms, rpm, pid_output, servo_duty_cycle, rpm_error_count, first_valid_rpm_count, fan_on, vbat

// IsBufValid sniffs the fixed magic header. It reads no more than the
// header itself.
func IsBufValid(buf []byte) error {
	if len(buf) < len(magic) {
		return fmt.Errorf("mbedmotor: buffer too short for magic header")
	}
	for i, b := range magic {
		if buf[i] != b {
			return fmt.Errorf("mbedmotor: magic mismatch at byte %d", i)
		}
	}
	return nil
}

// Record is one decoded PID control-loop sample.
type Record struct {
	TimestampMs        uint32
	RPM                float32
	PIDOutput          float32
	ServoDutyCycle     float32
	RPMErrorCount      uint32
	FirstValidRPMCount uint32
	FanOn              bool
	VBat               float32
}

// Parser is the decoded mbed PID log: its header plus every record.
type Parser struct {
	StartupUnixMs uint32
	Records       []Record
}

// DescriptiveName returns the package-level DescriptiveName constant, the
// format's display name.
func (p *Parser) DescriptiveName() string { return DescriptiveName }

// FromReader validates the header, decodes a startup timestamp and then
// reads fixed-size records until EOF. A trailing partial record (fewer
// than recordSize bytes remaining) is treated as truncation: the reader
// stops, and the reported byte count includes the partial record's bytes.
func FromReader(r io.Reader) (*Parser, int64, error) {
	var hdr [8]byte
	n, err := io.ReadFull(r, hdr[:])
	total := int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("mbedmotor: failed to read header: %w", err)
	}
	if err := IsBufValid(hdr[:]); err != nil {
		return nil, total, err
	}

	var startupBuf [4]byte
	n, err = io.ReadFull(r, startupBuf[:])
	total += int64(n)
	if err != nil {
		return nil, total, fmt.Errorf("mbedmotor: failed to read startup timestamp: %w", err)
	}
	startup := binary.LittleEndian.Uint32(startupBuf[:])

	p := &Parser{StartupUnixMs: startup}

	buf := make([]byte, recordSize)
	for {
		n, err := io.ReadFull(r, buf)
		total += int64(n)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			monitoring.Logf("mbedmotor: trailing %d byte(s) short of a full record, stopping", n)
			break
		}
		if err != nil {
			return nil, total, fmt.Errorf("mbedmotor: read record: %w", err)
		}

		rec := Record{
			TimestampMs:        binary.LittleEndian.Uint32(buf[0:4]),
			RPM:                readFloat32(buf[4:8]),
			PIDOutput:          readFloat32(buf[8:12]),
			ServoDutyCycle:     readFloat32(buf[12:16]),
			RPMErrorCount:      binary.LittleEndian.Uint32(buf[16:20]),
			FirstValidRPMCount: binary.LittleEndian.Uint32(buf[20:24]),
			FanOn:              buf[24] == 1,
			VBat:               readFloat32(buf[25:29]),
		}
		p.Records = append(p.Records, rec)
	}

	if len(p.Records) == 0 {
		return nil, total, fmt.Errorf("mbedmotor: no PID records decoded")
	}

	return p, total, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// FirstTimestampNs returns the startup timestamp (ms since epoch) in
// nanoseconds, plus the first record's relative offset.
func (p *Parser) FirstTimestampNs() float64 {
	startNs := float64(p.StartupUnixMs) * 1e6
	if len(p.Records) == 0 {
		return startNs
	}
	return startNs + float64(p.Records[0].TimestampMs)*1e6
}

// Metadata surfaces the decoded header fields for the "Loaded logs" panel.
func (p *Parser) Metadata() []plotmodel.KV {
	return []plotmodel.KV{
		{Key: "format", Value: DescriptiveName},
		{Key: "record_count", Value: fmt.Sprintf("%d", len(p.Records))},
	}
}

// Labels has no discrete event markers for this format.
func (p *Parser) Labels() []plotmodel.PlotLabels { return nil }

// RawPlots expands every field of every record into its own generic
// series, legended "MBED PID".
func (p *Parser) RawPlots() []plotmodel.RawPlot {
	const legend = "MBED PID"
	startNs := float64(p.StartupUnixMs) * 1e6
	n := len(p.Records)

	rpm := make([]plotmodel.Point, 0, n)
	pidOut := make([]plotmodel.Point, 0, n)
	servo := make([]plotmodel.Point, 0, n)
	rpmErr := make([]plotmodel.Point, 0, n)
	firstValid := make([]plotmodel.Point, 0, n)
	fanOn := make([]plotmodel.Point, 0, n)
	vbat := make([]plotmodel.Point, 0, n)

	for _, r := range p.Records {
		ts := startNs + float64(r.TimestampMs)*1e6
		rpm = append(rpm, plotmodel.Point{ts, float64(r.RPM)})
		pidOut = append(pidOut, plotmodel.Point{ts, float64(r.PIDOutput)})
		servo = append(servo, plotmodel.Point{ts, float64(r.ServoDutyCycle)})
		rpmErr = append(rpmErr, plotmodel.Point{ts, float64(r.RPMErrorCount)})
		firstValid = append(firstValid, plotmodel.Point{ts, float64(r.FirstValidRPMCount)})
		b := 0.0
		if r.FanOn {
			b = 1.0
		}
		fanOn = append(fanOn, plotmodel.Point{ts, b})
		vbat = append(vbat, plotmodel.Point{ts, float64(r.VBat)})
	}

	series := []struct {
		name string
		pts  []plotmodel.Point
		dt   plotmodel.DataType
	}{
		{legend + " RPM", rpm, plotmodel.OtherUnitless("RPM", plotmodel.RangeThousands, false)},
		{legend + " PID Output", pidOut, plotmodel.OtherUnitless("PID Output", plotmodel.RangePercentage, false)},
		{legend + " Servo Duty Cycle", servo, plotmodel.OtherUnitless("Servo Duty Cycle", plotmodel.RangePercentage, true)},
		{legend + " RPM Error Count", rpmErr, plotmodel.OtherUnitless("RPM Error Count", plotmodel.RangeHundreds, false)},
		{legend + " First Valid RPM Count", firstValid, plotmodel.OtherUnitless("First Valid RPM Count", plotmodel.RangeHundreds, false)},
		{legend + " Fan On", fanOn, plotmodel.DataType{Kind: plotmodel.KindBoolean}},
		{legend + " VBat", vbat, plotmodel.DataType{Kind: plotmodel.KindVoltage}},
	}

	var common []plotmodel.RawPlotCommon
	for _, s := range series {
		c, err := plotmodel.NewRawPlotCommon(s.name, s.pts, s.dt)
		if err != nil {
			continue
		}
		common = append(common, c)
	}
	common = sharedDrop(common)

	out := make([]plotmodel.RawPlot, 0, len(common))
	for _, c := range common {
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}
	return out
}

func sharedDrop(plots []plotmodel.RawPlotCommon) []plotmodel.RawPlotCommon {
	out := make([]plotmodel.RawPlotCommon, 0, len(plots))
	for _, p := range plots {
		if len(p.Points) < 2 {
			monitoring.Logf("mbedmotor: dropping series %q with %d point(s)", p.LegendName, len(p.Points))
			continue
		}
		out = append(out, p)
	}
	return out
}
