package geospatial

import (
	"errors"
	"testing"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func geoPoints(ts []float64) []plotmodel.GeoPoint {
	pts := make([]plotmodel.GeoPoint, len(ts))
	for i, t := range ts {
		pts[i] = plotmodel.GeoPoint{TimestampNs: t, Lat: 55.0 + float64(i)*0.1, Lon: 12.0 + float64(i)*0.1}
	}
	return pts
}

func laserAltitudes(vals []float64) []plotmodel.GeoAltitude {
	out := make([]plotmodel.GeoAltitude, len(vals))
	for i, v := range vals {
		out[i] = plotmodel.GeoAltitude{Source: plotmodel.AltitudeLaser, Altitude: plotmodel.Altitude{Value: v, Valid: true}}
	}
	return out
}

func gnssAltitudes(vals []float64) []plotmodel.GeoAltitude {
	out := make([]plotmodel.GeoAltitude, len(vals))
	for i, v := range vals {
		out[i] = plotmodel.GeoAltitude{Source: plotmodel.AltitudeGnss, Altitude: plotmodel.Altitude{Value: v, Valid: true}}
	}
	return out
}

// S3 — merge preserves cadence: primary keeps its own point count, each
// point takes the nearest aux sample.
func TestMergePreservesCadenceS3(t *testing.T) {
	primary := plotmodel.PrimaryGeoSpatialData{
		Name:   "Primary",
		Points: geoPoints([]float64{1e9, 2e9, 3e9}),
	}
	aux := plotmodel.AuxiliaryGeoSpatialData{
		Name:       "Laser",
		Timestamps: []float64{1e9, 1.33e9, 1.66e9, 2e9, 2.33e9, 2.66e9, 3e9},
		Altitudes:  laserAltitudes([]float64{100, 105, 110, 115, 120, 125, 130}),
	}

	if err := Merge(&primary, aux, 5e9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(primary.Points) != 3 {
		t.Fatalf("primary length = %d, want 3 (merge must not change cadence)", len(primary.Points))
	}
	want := []float64{100, 115, 130}
	for i, p := range primary.Points {
		if p.Altitude.Altitude.Value != want[i] {
			t.Errorf("point %d altitude = %v, want %v", i, p.Altitude.Altitude.Value, want[i])
		}
	}
	if primary.MergedWith != "Laser" {
		t.Errorf("MergedWith = %q, want %q", primary.MergedWith, "Laser")
	}
}

// S4 — nearest neighbour at boundary: before-range takes first, tie goes to
// the earlier sample (strict-less advance condition), after-range takes
// last.
func TestMergeNearestNeighbourAtBoundaryS4(t *testing.T) {
	primary := plotmodel.PrimaryGeoSpatialData{
		Name:   "Primary",
		Points: geoPoints([]float64{0.5e9, 1.5e9, 3.5e9}),
	}
	aux := plotmodel.AuxiliaryGeoSpatialData{
		Name:       "GNSS",
		Timestamps: []float64{1e9, 2e9, 3e9},
		Altitudes:  gnssAltitudes([]float64{100, 200, 300}),
	}

	if err := Merge(&primary, aux, 1e9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{100, 100, 300}
	for i, p := range primary.Points {
		if p.Altitude.Altitude.Value != want[i] {
			t.Errorf("point %d altitude = %v, want %v", i, p.Altitude.Altitude.Value, want[i])
		}
	}
}

func TestMergeRejectsIncompatibleTimeRange(t *testing.T) {
	primary := plotmodel.PrimaryGeoSpatialData{Points: geoPoints([]float64{0, 100})}
	aux := plotmodel.AuxiliaryGeoSpatialData{Timestamps: []float64{1e12, 2e12}, Headings: []float64{1, 2}}

	err := Merge(&primary, aux, 1e9)
	var incompat *ErrIncompatibleTimeRange
	if !errors.As(err, &incompat) {
		t.Fatalf("err = %v, want *ErrIncompatibleTimeRange", err)
	}
}

func TestMergeAltitudePrecedenceLaserOutranksGnss(t *testing.T) {
	primary := plotmodel.PrimaryGeoSpatialData{Points: geoPoints([]float64{1, 2})}
	primary.Points[0].HasAltitude = true
	primary.Points[0].Altitude = plotmodel.GeoAltitude{Source: plotmodel.AltitudeGnss, Altitude: plotmodel.Altitude{Value: 1, Valid: true}}
	primary.Points[1].HasAltitude = true
	primary.Points[1].Altitude = plotmodel.GeoAltitude{Source: plotmodel.AltitudeGnss, Altitude: plotmodel.Altitude{Value: 2, Valid: true}}

	aux := plotmodel.AuxiliaryGeoSpatialData{
		Timestamps: []float64{1, 2},
		Altitudes:  laserAltitudes([]float64{999, 888}),
	}
	if err := Merge(&primary, aux, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []float64{999, 888} {
		if primary.Points[i].Altitude.Altitude.Value != want {
			t.Errorf("point %d altitude = %v, want %v (laser must override gnss)", i, primary.Points[i].Altitude.Altitude.Value, want)
		}
		if primary.Points[i].Altitude.Source != plotmodel.AltitudeLaser {
			t.Errorf("point %d altitude source = %v, want Laser", i, primary.Points[i].Altitude.Source)
		}
	}
}

func TestMergeSkipsFieldsPrimaryAlreadyHas(t *testing.T) {
	primary := plotmodel.PrimaryGeoSpatialData{Points: geoPoints([]float64{1, 2})}
	primary.Points[0].HasSpeed = true
	primary.Points[0].SpeedKmh = 42
	primary.Points[1].HasSpeed = true
	primary.Points[1].SpeedKmh = 43

	aux := plotmodel.AuxiliaryGeoSpatialData{Timestamps: []float64{1, 2}, Speeds: []float64{0, 0}}
	if err := Merge(&primary, aux, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.Points[0].SpeedKmh != 42 || primary.Points[1].SpeedKmh != 43 {
		t.Errorf("speed should not be overwritten when primary already has it: got %+v", primary.Points)
	}
}
