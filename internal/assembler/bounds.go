// Package assembler bins parsed series into plot groups, rejects
// duplicates, and owns the lazy mipmap + cached bounds for each admitted
// series (a CookedPlot).
package assembler

import "github.com/banshee-data/telemetry-plotter/internal/plotmodel"

// PlotBounds is an absolute x/y bounding box, padded outward from the raw
// data extent so the initial view isn't flush against the plot edges.
type PlotBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

const boundsPadding = 0.10

// boundsFromMinMax computes a padded PlotBounds from the min/max x and y
// seen across points. points must be non-empty.
func boundsFromMinMax(points []plotmodel.Point) PlotBounds {
	minX, maxX := points[0].X(), points[0].X()
	minY, maxY := points[0].Y(), points[0].Y()
	for _, p := range points {
		if p.X() < minX {
			minX = p.X()
		}
		if p.X() > maxX {
			maxX = p.X()
		}
		if p.Y() < minY {
			minY = p.Y()
		}
		if p.Y() > maxY {
			maxY = p.Y()
		}
	}
	return pad(PlotBounds{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY})
}

func pad(b PlotBounds) PlotBounds {
	xSpan := b.MaxX - b.MinX
	ySpan := b.MaxY - b.MinY
	return PlotBounds{
		MinX: b.MinX - xSpan*boundsPadding,
		MaxX: b.MaxX + xSpan*boundsPadding,
		MinY: b.MinY - ySpan*boundsPadding,
		MaxY: b.MaxY + ySpan*boundsPadding,
	}
}
