package geospatial

import (
	"fmt"
	"math"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// ErrIncompatibleTimeRange is returned by Merge when the primary and
// auxiliary tracks don't overlap within the caller's tolerance.
type ErrIncompatibleTimeRange struct {
	PrimaryStart, PrimaryEnd float64
	AuxStart, AuxEnd         float64
	ToleranceNs              float64
}

func (e *ErrIncompatibleTimeRange) Error() string {
	return fmt.Sprintf(
		"geospatial: aux time range [%.0f, %.0f] is not within %.0fns of primary range [%.0f, %.0f]",
		e.AuxStart, e.AuxEnd, e.ToleranceNs, e.PrimaryStart, e.PrimaryEnd,
	)
}

// Merge fuses an auxiliary dataset onto a primary track in place, assigning
// each primary point the nearest (by timestamp) auxiliary sample for
// whichever fields the precedence rules allow. It never interpolates: a
// primary point outside the aux range takes the aux's first or last sample.
//
// Field precedence: altitude is merged when the primary has none, or when
// the primary's existing altitude is GNSS-sourced and the aux's is
// laser-sourced (laser outranks GNSS). Speed and heading are merged only
// when the primary entirely lacks them.
func Merge(primary *plotmodel.PrimaryGeoSpatialData, aux plotmodel.AuxiliaryGeoSpatialData, tolNs float64) error {
	if len(primary.Points) == 0 || len(aux.Timestamps) == 0 {
		return nil
	}

	pStart, pEnd := primary.Points[0].TimestampNs, primary.Points[len(primary.Points)-1].TimestampNs
	aStart, aEnd := aux.Timestamps[0], aux.Timestamps[len(aux.Timestamps)-1]

	if math.Abs(pStart-aStart) > tolNs || math.Abs(pEnd-aEnd) > tolNs {
		return &ErrIncompatibleTimeRange{PrimaryStart: pStart, PrimaryEnd: pEnd, AuxStart: aStart, AuxEnd: aEnd, ToleranceNs: tolNs}
	}

	mergeHeading := len(aux.Headings) == len(aux.Timestamps)
	mergeSpeed := len(aux.Speeds) == len(aux.Timestamps)
	mergeAltitude := len(aux.Altitudes) == len(aux.Timestamps)

	auxIdx := 0
	lastAux := len(aux.Timestamps) - 1
	for i := range primary.Points {
		t := primary.Points[i].TimestampNs
		for auxIdx < lastAux && math.Abs(aux.Timestamps[auxIdx+1]-t) < math.Abs(aux.Timestamps[auxIdx]-t) {
			auxIdx++
		}

		p := &primary.Points[i]
		if mergeHeading && !p.HasHeading {
			p.HasHeading = true
			p.HeadingDeg = aux.Headings[auxIdx]
		}
		if mergeSpeed && !p.HasSpeed {
			p.HasSpeed = true
			p.SpeedKmh = aux.Speeds[auxIdx]
		}
		if mergeAltitude {
			auxAlt := aux.Altitudes[auxIdx]
			if !p.HasAltitude || (p.Altitude.Source == plotmodel.AltitudeGnss && auxAlt.Source == plotmodel.AltitudeLaser) {
				p.HasAltitude = true
				p.Altitude = auxAlt
			}
		}
	}

	primary.MergedWith = aux.Name
	recomputeBounds(primary)
	return nil
}

func recomputeBounds(p *plotmodel.PrimaryGeoSpatialData) {
	if len(p.Points) == 0 {
		return
	}
	b := plotmodel.PlotBoundsGeo{MinLat: p.Points[0].Lat, MaxLat: p.Points[0].Lat, MinLon: p.Points[0].Lon, MaxLon: p.Points[0].Lon}
	for _, pt := range p.Points {
		if pt.Lat < b.MinLat {
			b.MinLat = pt.Lat
		}
		if pt.Lat > b.MaxLat {
			b.MaxLat = pt.Lat
		}
		if pt.Lon < b.MinLon {
			b.MinLon = pt.Lon
		}
		if pt.Lon > b.MaxLon {
			b.MaxLon = pt.Lon
		}
	}
	p.Bounds = b
}
