package assembler

import (
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/mipmap"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// CookedPlot owns one admitted series: its raw points, a lazily-built
// mipmap pyramid, and a cached bounding box. Mutations rebuild the
// pyramid and invalidate the cached bounds.
type CookedPlot struct {
	Name             string
	LogID            uint16
	DataType         plotmodel.DataType
	FirstTimestampNs float64

	mu     sync.Mutex
	points []plotmodel.Point
	mm     *mipmap.Pyramid
	bounds *PlotBounds
}

// NewCookedPlot admits a parsed series. firstTimestampNs is the owning
// log's first timestamp, used as the offset_plot reference point.
func NewCookedPlot(name string, logID uint16, common plotmodel.RawPlotCommon, firstTimestampNs float64) *CookedPlot {
	return &CookedPlot{
		Name:             name,
		LogID:            logID,
		DataType:         common.DataType,
		FirstTimestampNs: firstTimestampNs,
		points:           append([]plotmodel.Point(nil), common.Points...),
	}
}

// Points returns the current raw points (post-mutation). The returned
// slice must not be modified by the caller.
func (c *CookedPlot) Points() []plotmodel.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.points
}

// Pyramid returns the mipmap pyramid, building it on first access.
func (c *CookedPlot) Pyramid() *mipmap.Pyramid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pyramidLocked()
}

func (c *CookedPlot) pyramidLocked() *mipmap.Pyramid {
	if c.mm == nil {
		c.mm = mipmap.New(c.points, mipmap.DefaultMinElements)
	}
	return c.mm
}

// Bounds returns the cached, padded absolute bounding box, computing it
// from the pyramid's coarsest joined level on first access instead of
// scanning every raw point. That level keeps the global y minimum and
// maximum (each survives its Min or Max reduction chain); once the pyramid
// has levels above the raw base, its x extent can be narrower than that of
// the raw points.
func (c *CookedPlot) Bounds() PlotBounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounds != nil {
		return *c.bounds
	}
	if len(c.points) == 0 {
		b := PlotBounds{}
		c.bounds = &b
		return b
	}
	pyr := c.pyramidLocked()
	top := pyr.Levels[pyr.NumLevels()-1]
	b := boundsFromMinMax(top)
	c.bounds = &b
	return b
}

func (c *CookedPlot) invalidateLocked() {
	c.mm = nil
	c.bounds = nil
}

// OffsetPlot shifts every x by (newStartDateNs - FirstTimestampNs) and
// rebuilds the mipmap.
func (c *CookedPlot) OffsetPlot(newStartDateNs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delta := newStartDateNs - c.FirstTimestampNs
	for i := range c.points {
		c.points[i] = plotmodel.Point{c.points[i].X() + delta, c.points[i].Y()}
	}
	c.FirstTimestampNs = newStartDateNs
	c.invalidateLocked()
}

// CutPlotWithinXRange drops every point with x in [start, end] and
// rebuilds the mipmap.
func (c *CookedPlot) CutPlotWithinXRange(start, end float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.points[:0:0]
	for _, p := range c.points {
		if p.X() >= start && p.X() <= end {
			continue
		}
		out = append(out, p)
	}
	c.points = out
	c.invalidateLocked()
}

// CutPlotOutsideMinmax drops points whose x lies inside [start, end] AND
// whose y lies outside [min, max], then rebuilds the mipmap.
func (c *CookedPlot) CutPlotOutsideMinmax(start, end, min, max float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.points[:0:0]
	for _, p := range c.points {
		inRange := p.X() >= start && p.X() <= end
		outOfBand := p.Y() < min || p.Y() > max
		if inRange && outOfBand {
			continue
		}
		out = append(out, p)
	}
	c.points = out
	c.invalidateLocked()
}
