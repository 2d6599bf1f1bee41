package mipmap

import (
	"sort"
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// Span is an index range [Start, End) into a pyramid level.
type Span struct {
	Start, End int
}

// Pyramid is the joined display pyramid for one series: level 0 is the raw
// data, and each level above it is the Max reduction merged with the Min
// reduction, sorted by x and deduplicated, per the mipmap construction
// rules. It owns a single-slot lookup cache keyed on (pixelWidth, xBounds).
type Pyramid struct {
	Levels      [][]plotmodel.Point
	minElements int

	mu    sync.Mutex
	cache *lookupCacheEntry
}

type lookupCacheEntry struct {
	pixelWidth int
	xMin, xMax float64
	level      int
	span       *Span
}

// New builds a joined pyramid from raw points, reducing until levels reach
// minElements (pass mipmap.DefaultMinElements for the production default).
func New(points []plotmodel.Point, minElements int) *Pyramid {
	maxLevels := BuildLevels(points, Max, minElements)
	minLevels := BuildLevels(points, Min, minElements)

	levels := make([][]plotmodel.Point, len(maxLevels))
	levels[0] = points
	for i := 1; i < len(maxLevels); i++ {
		levels[i] = mergeDedupSorted(maxLevels[i], minLevels[i])
	}
	return &Pyramid{Levels: levels, minElements: minElements}
}

// NumLevels returns how many reduction levels the pyramid has.
func (p *Pyramid) NumLevels() int { return len(p.Levels) }

// partitionPoint returns the number of points in level with x strictly less
// than x, using binary search (level is sorted ascending by x).
func partitionPoint(level []plotmodel.Point, x float64) int {
	return sort.Search(len(level), func(i int) bool {
		return !lessTotal(level[i].X(), x)
	})
}

// GetLevelMatch returns the coarsest level whose window over [xMin, xMax]
// contains more than pixelWidth points, scanning from the coarsest level to
// the finest. If no level (including the raw base level) satisfies that,
// it returns (0, nil) and the caller should draw the unsliced base level.
func (p *Pyramid) GetLevelMatch(pixelWidth int, xMin, xMax float64) (int, *Span) {
	p.mu.Lock()
	if c := p.cache; c != nil && c.xMin == xMin && c.xMax == xMax && c.pixelWidth == pixelWidth {
		level, span := c.level, c.span
		p.mu.Unlock()
		return level, span
	}
	p.mu.Unlock()

	level, span := p.computeLevelMatch(pixelWidth, xMin, xMax)

	p.mu.Lock()
	p.cache = &lookupCacheEntry{pixelWidth: pixelWidth, xMin: xMin, xMax: xMax, level: level, span: span}
	p.mu.Unlock()

	return level, span
}

func (p *Pyramid) computeLevelMatch(pixelWidth int, xMin, xMax float64) (int, *Span) {
	for levelIdx := len(p.Levels) - 1; levelIdx >= 0; levelIdx-- {
		lvl := p.Levels[levelIdx]
		start := partitionPoint(lvl, xMin)
		end := partitionPoint(lvl, xMax)
		if end-start > pixelWidth {
			return levelIdx, &Span{Start: start, End: end}
		}
	}
	return 0, nil
}

// InvalidateCache clears the single-slot lookup cache. Nothing in this
// module calls it: Join returns a new Pyramid, and CookedPlot discards its
// pyramid after a cut or offset and builds a fresh one.
func (p *Pyramid) InvalidateCache() {
	p.mu.Lock()
	p.cache = nil
	p.mu.Unlock()
}

// Join combines two pyramids level by level: concatenate, sort by x,
// deduplicate consecutive equal-x entries. Used when live-appended data
// needs to be merged into an existing series' pyramid. The result's cache
// starts empty.
func Join(a, b *Pyramid) *Pyramid {
	n := len(a.Levels)
	if len(b.Levels) > n {
		n = len(b.Levels)
	}
	levels := make([][]plotmodel.Point, n)
	for i := 0; i < n; i++ {
		var la, lb []plotmodel.Point
		if i < len(a.Levels) {
			la = a.Levels[i]
		}
		if i < len(b.Levels) {
			lb = b.Levels[i]
		}
		levels[i] = mergeDedupSorted(la, lb)
	}
	minElements := a.minElements
	if minElements == 0 {
		minElements = b.minElements
	}
	return &Pyramid{Levels: levels, minElements: minElements}
}
