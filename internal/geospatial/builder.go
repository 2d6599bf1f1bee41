// Package geospatial builds geo-spatial datasets from parallel parser
// columns and merges auxiliary sensor data onto a primary track by nearest
// timestamp.
package geospatial

import (
	"image/color"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// AltitudeColumn is the optional altitude input to Build: raw values plus
// the source instrument and the inclusive range the caller considers valid.
type AltitudeColumn struct {
	Values       []float64
	Source       plotmodel.AltitudeSource
	ValidMin     float64
	ValidMax     float64
	HasValidRange bool
}

// BuildInput is the set of parallel columns a format parser hands to
// Build. Timestamps is required; every other slice is optional (nil means
// "not present in this log") but if present must have the same length as
// Timestamps.
type BuildInput struct {
	Name       string
	Timestamps []float64
	Lat, Lon   []float64
	Heading    []float64
	Altitude   *AltitudeColumn
	Speed      []float64
	Color      color.RGBA
}

func checkLen(col string, got int, want int) error {
	if got != 0 && got != want {
		return &plotmodel.ErrColumnLengthMismatch{Column: col, Got: got, Expected: want}
	}
	return nil
}

// Build produces a Primary dataset when both Lat and Lon are supplied, or
// an Auxiliary dataset when at least one of Heading/Altitude/Speed is
// supplied without coordinates. Every supplied column must have exactly
// len(Timestamps) entries; a mismatch aborts the build rather than
// truncating data.
func Build(in BuildInput) (plotmodel.GeoSpatialDataset, error) {
	n := len(in.Timestamps)
	if n < 2 {
		return plotmodel.GeoSpatialDataset{}, plotmodel.ErrMissingTimestamps
	}

	for col, got := range map[string]int{
		"lat": len(in.Lat), "lon": len(in.Lon), "heading": len(in.Heading), "speed": len(in.Speed),
	} {
		if err := checkLen(col, got, n); err != nil {
			return plotmodel.GeoSpatialDataset{}, err
		}
	}
	if in.Altitude != nil {
		if err := checkLen("altitude", len(in.Altitude.Values), n); err != nil {
			return plotmodel.GeoSpatialDataset{}, err
		}
	}

	hasPosition := len(in.Lat) == n && len(in.Lon) == n
	hasAux := len(in.Heading) == n || len(in.Speed) == n || (in.Altitude != nil && len(in.Altitude.Values) == n)

	switch {
	case hasPosition:
		return buildPrimary(in), nil
	case hasAux:
		return buildAuxiliary(in), nil
	default:
		return plotmodel.GeoSpatialDataset{}, plotmodel.ErrAmbiguousDataset
	}
}

func wrapAltitude(col *AltitudeColumn, i int) (plotmodel.GeoAltitude, bool) {
	if col == nil || i >= len(col.Values) {
		return plotmodel.GeoAltitude{}, false
	}
	v := col.Values[i]
	valid := true
	if col.HasValidRange {
		valid = v >= col.ValidMin && v <= col.ValidMax
	}
	return plotmodel.GeoAltitude{Source: col.Source, Altitude: plotmodel.Altitude{Value: v, Valid: valid}}, true
}

func buildPrimary(in BuildInput) plotmodel.GeoSpatialDataset {
	n := len(in.Timestamps)
	points := make([]plotmodel.GeoPoint, n)
	bounds := plotmodel.PlotBoundsGeo{MinLat: in.Lat[0], MaxLat: in.Lat[0], MinLon: in.Lon[0], MaxLon: in.Lon[0]}

	for i := 0; i < n; i++ {
		gp := plotmodel.GeoPoint{TimestampNs: in.Timestamps[i], Lat: in.Lat[i], Lon: in.Lon[i]}
		if len(in.Heading) == n {
			gp.HasHeading = true
			gp.HeadingDeg = in.Heading[i]
		}
		if len(in.Speed) == n {
			gp.HasSpeed = true
			gp.SpeedKmh = in.Speed[i]
		}
		if alt, ok := wrapAltitude(in.Altitude, i); ok {
			gp.HasAltitude = true
			gp.Altitude = alt
		}
		points[i] = gp

		if gp.Lat < bounds.MinLat {
			bounds.MinLat = gp.Lat
		}
		if gp.Lat > bounds.MaxLat {
			bounds.MaxLat = gp.Lat
		}
		if gp.Lon < bounds.MinLon {
			bounds.MinLon = gp.Lon
		}
		if gp.Lon > bounds.MaxLon {
			bounds.MaxLon = gp.Lon
		}
	}

	return plotmodel.GeoSpatialDataset{
		Kind: plotmodel.GeoSpatialPrimary,
		Primary: plotmodel.PrimaryGeoSpatialData{
			Name:   in.Name,
			Points: points,
			Color:  in.Color,
			Bounds: bounds,
		},
	}
}

func buildAuxiliary(in BuildInput) plotmodel.GeoSpatialDataset {
	n := len(in.Timestamps)
	aux := plotmodel.AuxiliaryGeoSpatialData{
		Name:       in.Name,
		Timestamps: append([]float64(nil), in.Timestamps...),
		Color:      in.Color,
	}
	if len(in.Heading) == n {
		aux.Headings = append([]float64(nil), in.Heading...)
	}
	if len(in.Speed) == n {
		aux.Speeds = append([]float64(nil), in.Speed...)
	}
	if in.Altitude != nil && len(in.Altitude.Values) == n {
		alts := make([]plotmodel.GeoAltitude, n)
		for i := range alts {
			alts[i], _ = wrapAltitude(in.Altitude, i)
		}
		aux.Altitudes = alts
	}
	return plotmodel.GeoSpatialDataset{Kind: plotmodel.GeoSpatialAuxiliary, Auxiliary: aux}
}
