package plotmodel

import "image/color"

// AltitudeSource distinguishes GNSS-derived from laser-ranger-derived
// altitude; Laser is preferred over GNSS when both are available (merge
// precedence, see geospatial.Merge).
type AltitudeSource int

const (
	AltitudeGnss AltitudeSource = iota
	AltitudeLaser
)

// Altitude carries a value plus whether it fell within the caller-supplied
// validity range at build time.
type Altitude struct {
	Value float64
	Valid bool
}

// GeoAltitude tags an Altitude with its source instrument.
type GeoAltitude struct {
	Source   AltitudeSource
	Altitude Altitude
}

// GeoPoint is a single fused position/attribute sample.
type GeoPoint struct {
	TimestampNs float64
	Lat, Lon    float64

	HasHeading bool
	HeadingDeg float64

	HasAltitude bool
	Altitude    GeoAltitude

	HasSpeed bool
	SpeedKmh float64
}

// PlotBoundsGeo is the lat/lon bounding box of a primary geo-spatial track.
type PlotBoundsGeo struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// PrimaryGeoSpatialData is a path that has positions; it is the anchor of a
// fused track.
type PrimaryGeoSpatialData struct {
	Name       string
	MergedWith string // name of the auxiliary dataset last merged in, if any
	Points     []GeoPoint
	Color      color.RGBA
	Bounds     PlotBoundsGeo
}

// AuxiliaryGeoSpatialData is a companion time series without positions; it
// exists to be merged into a PrimaryGeoSpatialData.
type AuxiliaryGeoSpatialData struct {
	Name       string
	Timestamps []float64
	Altitudes  []GeoAltitude // optional, len == len(Timestamps) if present
	Speeds     []float64     // optional, km/h
	Headings   []float64     // optional, deg
	Color      color.RGBA
}

// GeoSpatialKind distinguishes Primary from Auxiliary geo-spatial data.
type GeoSpatialKind int

const (
	GeoSpatialPrimary GeoSpatialKind = iota
	GeoSpatialAuxiliary
)

// GeoSpatialDataset is the sum type produced by the geo-spatial builder:
// either a Primary (has positions) or an Auxiliary (no positions) dataset.
type GeoSpatialDataset struct {
	Kind      GeoSpatialKind
	Primary   PrimaryGeoSpatialData
	Auxiliary AuxiliaryGeoSpatialData
}

// RawPlotsCommon expands a GeoSpatialDataset into the generic series the
// plotter actually draws: latitude, longitude, and whichever of
// heading/altitude/speed are populated.
func (g GeoSpatialDataset) RawPlotsCommon() []RawPlotCommon {
	switch g.Kind {
	case GeoSpatialPrimary:
		return primaryRawPlotsCommon(g.Primary)
	case GeoSpatialAuxiliary:
		return auxiliaryRawPlotsCommon(g.Auxiliary)
	default:
		return nil
	}
}

func primaryRawPlotsCommon(p PrimaryGeoSpatialData) []RawPlotCommon {
	var out []RawPlotCommon
	n := len(p.Points)
	if n < 2 {
		return nil
	}

	lat := make([]Point, 0, n)
	lon := make([]Point, 0, n)
	var heading, speed, altMsl, altLaser []Point

	for _, gp := range p.Points {
		lat = append(lat, Point{gp.TimestampNs, gp.Lat})
		lon = append(lon, Point{gp.TimestampNs, gp.Lon})
		if gp.HasHeading {
			heading = append(heading, Point{gp.TimestampNs, gp.HeadingDeg})
		}
		if gp.HasSpeed {
			speed = append(speed, Point{gp.TimestampNs, gp.SpeedKmh})
		}
		if gp.HasAltitude {
			pt := Point{gp.TimestampNs, gp.Altitude.Altitude.Value}
			if gp.Altitude.Source == AltitudeLaser {
				altLaser = append(altLaser, pt)
			} else {
				altMsl = append(altMsl, pt)
			}
		}
	}

	appendSeries := func(name string, pts []Point, dt DataType) {
		if len(pts) < 2 {
			return
		}
		c, err := NewRawPlotCommon(name, pts, dt)
		if err != nil {
			return
		}
		c.Color = &p.Color
		out = append(out, c)
	}

	appendSeries(p.Name+" Latitude", lat, DataType{Kind: KindLatitude})
	appendSeries(p.Name+" Longitude", lon, DataType{Kind: KindLongitude})
	appendSeries(p.Name+" Heading", heading, DataType{Kind: KindHeading})
	appendSeries(p.Name+" Speed", speed, DataType{Kind: KindVelocity})
	appendSeries(p.Name+" Altitude (MSL)", altMsl, DataType{Kind: KindAltitudeMSL})
	appendSeries(p.Name+" Altitude (Laser)", altLaser, DataType{Kind: KindAltitudeLaser})

	return out
}

func auxiliaryRawPlotsCommon(a AuxiliaryGeoSpatialData) []RawPlotCommon {
	var out []RawPlotCommon
	n := len(a.Timestamps)
	if n < 2 {
		return nil
	}

	appendSeries := func(name string, pts []Point, dt DataType) {
		if len(pts) < 2 {
			return
		}
		c, err := NewRawPlotCommon(name, pts, dt)
		if err != nil {
			return
		}
		c.Color = &a.Color
		out = append(out, c)
	}

	if len(a.Headings) == n {
		pts := make([]Point, n)
		for i, t := range a.Timestamps {
			pts[i] = Point{t, a.Headings[i]}
		}
		appendSeries(a.Name+" Heading", pts, DataType{Kind: KindHeading})
	}
	if len(a.Speeds) == n {
		pts := make([]Point, n)
		for i, t := range a.Timestamps {
			pts[i] = Point{t, a.Speeds[i]}
		}
		appendSeries(a.Name+" Speed", pts, DataType{Kind: KindVelocity})
	}
	if len(a.Altitudes) == n {
		var msl, laser []Point
		for i, t := range a.Timestamps {
			ga := a.Altitudes[i]
			pt := Point{t, ga.Altitude.Value}
			if ga.Source == AltitudeLaser {
				laser = append(laser, pt)
			} else {
				msl = append(msl, pt)
			}
		}
		appendSeries(a.Name+" Altitude (MSL)", msl, DataType{Kind: KindAltitudeMSL})
		appendSeries(a.Name+" Altitude (Laser)", laser, DataType{Kind: KindAltitudeLaser})
	}

	return out
}
