// Package mipmap implements the min/max pyramidal reduction that makes
// interactive pan/zoom over millions-of-points series feasible: for a given
// pixel width and x-range, it returns the coarsest reduction level that
// still yields more points than pixels, capping per-frame work at O(pixels)
// regardless of the source size.
package mipmap

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// dedupAbsTol and dedupRelTol bound how close two x values must be to be
// treated as the same sample when joining a Max pyramid level with a Min
// pyramid level (they usually land on the exact same float64, but series
// that have been through an offset_plot shift can pick up tiny rounding
// drift).
const (
	dedupAbsTol = 0
	dedupRelTol = 1e-12
)

// DefaultMinElements is the level-size threshold below which pyramid
// construction stops reducing further.
const DefaultMinElements = 512

// Strategy selects which member of a consecutive pair survives a reduction.
type Strategy int

const (
	// Max keeps the pair member with the larger y.
	Max Strategy = iota
	// Min keeps the pair member with the smaller y.
	Min
)

// lessTotal implements a NaN-goes-last total order over x values, so that
// level lookups remain well-defined even if a malformed series carries NaN
// timestamps.
func lessTotal(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return false
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a < b
	}
}

// reduceLevel partitions level into consecutive pairs and keeps the
// min/max (by y) of each pair, carrying a trailing odd point through
// unchanged.
func reduceLevel(level []plotmodel.Point, strategy Strategy) []plotmodel.Point {
	n := len(level)
	out := make([]plotmodel.Point, 0, (n+1)/2)
	i := 0
	for ; i+1 < n; i += 2 {
		a, b := level[i], level[i+1]
		var keep plotmodel.Point
		switch strategy {
		case Max:
			if a.Y() >= b.Y() {
				keep = a
			} else {
				keep = b
			}
		default: // Min
			if a.Y() <= b.Y() {
				keep = a
			} else {
				keep = b
			}
		}
		out = append(out, keep)
	}
	if i < n {
		out = append(out, level[i])
	}
	return out
}

// BuildLevels builds a full reduction pyramid for the given strategy,
// starting with the raw points as level 0 and halving (by strategy) until
// the level size no longer exceeds minElements or stops shrinking.
func BuildLevels(points []plotmodel.Point, strategy Strategy, minElements int) [][]plotmodel.Point {
	levels := [][]plotmodel.Point{points}
	cur := points
	for len(cur) > minElements {
		next := reduceLevel(cur, strategy)
		if len(next) >= len(cur) {
			// Can't shrink further (e.g. a single-element level); stop to
			// avoid looping forever.
			break
		}
		levels = append(levels, next)
		cur = next
	}
	return levels
}

// mergeDedupSorted concatenates a and b, sorts by x (NaN-goes-last total
// order) and drops consecutive duplicate x values, keeping the first
// occurrence.
func mergeDedupSorted(a, b []plotmodel.Point) []plotmodel.Point {
	merged := make([]plotmodel.Point, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sortPointsByX(merged)

	out := merged[:0:0]
	for i, p := range merged {
		if i == 0 || !floats.EqualWithinAbsOrRel(p.X(), merged[i-1].X(), dedupAbsTol, dedupRelTol) {
			out = append(out, p)
		}
	}
	return out
}

// sortPointsByX sorts points ascending by x using the NaN-goes-last total
// order, in place.
func sortPointsByX(pts []plotmodel.Point) {
	sort.SliceStable(pts, func(i, j int) bool {
		return lessTotal(pts[i].X(), pts[j].X())
	})
}
