package plotmodel

import (
	"fmt"
	"image/color"
	"math"
)

// Point is a single [t_ns, y] sample. x is nanoseconds since the UNIX epoch,
// represented as float64 to fit the plotting coordinate space.
type Point [2]float64

// X returns the timestamp, in nanoseconds.
func (p Point) X() float64 { return p[0] }

// Y returns the value.
func (p Point) Y() float64 { return p[1] }

// ErrTooFewPoints is returned by constructors that require at least two
// points to form a meaningful series.
var ErrTooFewPoints = fmt.Errorf("plotmodel: series must have at least 2 points")

// RawPlotCommon is the common representation for a single plotable series.
type RawPlotCommon struct {
	LegendName     string
	Points         []Point
	DataType       DataType
	ExpectedRange  ExpectedPlotRange
	Color          *color.RGBA
}

// NewRawPlotCommon validates and constructs a RawPlotCommon. It rejects
// empty or singleton point slices so that every value that escapes this
// constructor already satisfies the "at least 2 points" invariant.
func NewRawPlotCommon(legendName string, points []Point, dt DataType) (RawPlotCommon, error) {
	if len(points) < 2 {
		return RawPlotCommon{}, ErrTooFewPoints
	}
	return RawPlotCommon{
		LegendName:    legendName,
		Points:        EnsureMonotonicX(points),
		DataType:      dt,
		ExpectedRange: dt.PlotRange(),
	}, nil
}

// EnsureMonotonicX returns points with strictly increasing x. Where
// coercion would otherwise produce an equal or decreasing x, a monotonic
// nudge of last_x * float64 machine epsilon is applied, per the timestamp
// precision notes in the data model.
func EnsureMonotonicX(points []Point) []Point {
	if len(points) == 0 {
		return points
	}
	out := make([]Point, len(points))
	out[0] = points[0]
	for i := 1; i < len(points); i++ {
		x, y := points[i][0], points[i][1]
		lastX := out[i-1][0]
		if x <= lastX {
			nudge := lastX * math.Nextafter(1, 2)
			if nudge <= lastX {
				nudge = lastX + math.SmallestNonzeroFloat64
			}
			x = nudge
		}
		out[i] = Point{x, y}
	}
	return out
}

// RawPlotKind distinguishes a generic series from a geo-spatial dataset.
type RawPlotKind int

const (
	RawPlotGeneric RawPlotKind = iota
	RawPlotGeoSpatial
)

// RawPlot is the sum type every format parser ultimately produces: either a
// Generic series or a GeoSpatialDataset. Only the map view cares about the
// distinction; the plotter expands a GeoSpatialDataset into its constituent
// series via RawPlotsCommon.
type RawPlot struct {
	Kind   RawPlotKind
	Common RawPlotCommon // valid when Kind == RawPlotGeneric
	Geo    GeoSpatialDataset // valid when Kind == RawPlotGeoSpatial
}

// NewGenericRawPlot wraps a RawPlotCommon as a Generic RawPlot.
func NewGenericRawPlot(c RawPlotCommon) RawPlot {
	return RawPlot{Kind: RawPlotGeneric, Common: c}
}

// NewGeoSpatialRawPlot wraps a GeoSpatialDataset as a RawPlot.
func NewGeoSpatialRawPlot(g GeoSpatialDataset) RawPlot {
	return RawPlot{Kind: RawPlotGeoSpatial, Geo: g}
}

// RawPlotsCommon expands this RawPlot into its constituent RawPlotCommon
// series. A Generic RawPlot expands to itself; a GeoSpatialDataset expands
// into one series per populated auxiliary/position field.
func (p RawPlot) RawPlotsCommon() []RawPlotCommon {
	if p.Kind == RawPlotGeneric {
		return []RawPlotCommon{p.Common}
	}
	return p.Geo.RawPlotsCommon()
}

// ParseInfo surfaces how much of the input a parser actually consumed, so
// truncated or partial parses are visible to the caller.
type ParseInfo struct {
	ParsedBytes int64
	TotalBytes  int64
}

// Partial reports whether the parse consumed meaningfully less than the
// full input (more than 128 bytes short), per the error-handling design.
func (p ParseInfo) Partial() bool {
	return p.ParsedBytes < p.TotalBytes-128
}

// PlotLabels is free-form annotation data a parser may attach to a series
// (e.g. discrete event markers); its structure is owned by the caller.
type PlotLabels struct {
	Name   string
	Points []Point
}

// LogLoadState is the per-parsed-file record the aggregator maintains.
type LogLoadState struct {
	LogID            uint16
	DescriptiveName  string
	FirstTimestampNs float64
	Metadata         []KV
	RawPlots         []RawPlot
	Labels           []PlotLabels
	ParseInfo        ParseInfo
}

// KV is an ordered key/value metadata pair.
type KV struct {
	Key   string
	Value string
}

// PlotLabel returns the label shown to the user for a series belonging to
// this log: "<series-name> #<log_id>".
func (l LogLoadState) PlotLabel(seriesName string) string {
	return fmt.Sprintf("%s #%d", seriesName, l.LogID)
}
