// Package plotmodel defines the canonical plotable-data types that every
// format parser decodes into: RawPlot, GeoSpatialDataset and the data-type /
// plot-range tags that drive units, legends and default visibility in the UI.
package plotmodel

import (
	"fmt"

	"github.com/banshee-data/telemetry-plotter/internal/units"
)

// ExpectedPlotRange buckets a series by magnitude so wildly differing
// series don't end up sharing a y-axis.
type ExpectedPlotRange int

const (
	// RangePercentage covers series expected to fall within [0, 1].
	RangePercentage ExpectedPlotRange = iota
	// RangeHundreds covers series expected to fall within [0, 100].
	RangeHundreds
	// RangeThousands covers series expected to fall within [0, 10000].
	RangeThousands
)

// String implements fmt.Stringer for log messages.
func (r ExpectedPlotRange) String() string {
	switch r {
	case RangePercentage:
		return "Percentage"
	case RangeHundreds:
		return "Hundreds"
	case RangeThousands:
		return "Thousands"
	default:
		return fmt.Sprintf("ExpectedPlotRange(%d)", int(r))
	}
}

// DataTypeKind identifies the semantic kind of a DataType.
type DataTypeKind int

const (
	KindCurrent DataTypeKind = iota
	KindVoltage
	KindPower
	KindTemperature
	KindLatitude
	KindLongitude
	KindHeading
	KindVelocity
	KindAltitudeMSL
	KindAltitudeEllipsoidal
	KindAltitudeLaser
	KindUtmNorthing
	KindUtmEasting
	KindTimeDelta
	KindPercentage
	KindBoolean
	KindElectricalResistance
	KindOther
)

// DataType classifies a series semantically; it drives unit display, legend
// formatting, and default visibility for "Other" series.
type DataType struct {
	Kind DataTypeKind

	// Only meaningful when Kind == KindOther.
	OtherName          string
	OtherUnit          string
	OtherPlotRange     ExpectedPlotRange
	OtherDefaultHidden bool
}

// Other constructs a DataType for a series that doesn't fit a predefined
// semantic kind.
func Other(name, unit string, plotRange ExpectedPlotRange, defaultHidden bool) DataType {
	return DataType{
		Kind:               KindOther,
		OtherName:          name,
		OtherUnit:          unit,
		OtherPlotRange:     plotRange,
		OtherDefaultHidden: defaultHidden,
	}
}

// OtherVelocity is a convenience constructor matching the common case of a
// velocity-flavoured auxiliary series (e.g. "East", "North", "Up" components).
func OtherVelocity(component string, defaultHidden bool) DataType {
	return Other(fmt.Sprintf("Velocity (%s)", component), "km/h", RangeThousands, defaultHidden)
}

// OtherUnitless is a convenience constructor for a dimensionless "Other" series.
func OtherUnitless(name string, plotRange ExpectedPlotRange, defaultHidden bool) DataType {
	return Other(name, "", plotRange, defaultHidden)
}

// Unit returns the display unit for the data type.
func (d DataType) Unit() string {
	switch d.Kind {
	case KindCurrent:
		return "A"
	case KindVoltage:
		return "V"
	case KindPower:
		return "W"
	case KindTemperature:
		return "°C"
	case KindLatitude, KindLongitude, KindHeading:
		return "deg"
	case KindVelocity:
		return "km/h"
	case KindAltitudeMSL, KindAltitudeEllipsoidal, KindAltitudeLaser, KindUtmNorthing, KindUtmEasting:
		return "m"
	case KindTimeDelta:
		return "s"
	case KindPercentage:
		return "%"
	case KindElectricalResistance:
		return "Ω"
	case KindOther:
		return d.OtherUnit
	default:
		return ""
	}
}

// DisplayValue converts y, stored internally in Unit()'s unit, to the
// value/unit pair to show on screen. Only KindVelocity is ever stored in a
// unit other than the display preference (km/h internally, see
// internal/units); preferredSpeedUnit is ignored for every other kind, and
// an empty or invalid preference falls back to Unit().
func (d DataType) DisplayValue(y float64, preferredSpeedUnit string) (float64, string) {
	if d.Kind == KindVelocity && units.IsValid(preferredSpeedUnit) {
		return units.ConvertSpeedFromKmh(y, preferredSpeedUnit), preferredSpeedUnit
	}
	return y, d.Unit()
}

// PlotRange returns the ExpectedPlotRange bucket this data type belongs in.
func (d DataType) PlotRange() ExpectedPlotRange {
	switch d.Kind {
	case KindPercentage:
		return RangePercentage
	case KindLatitude, KindLongitude, KindHeading, KindBoolean:
		return RangeHundreds
	case KindOther:
		return d.OtherPlotRange
	default:
		return RangeThousands
	}
}

// DefaultHidden reports whether a series of this data type should be hidden
// by default when first loaded.
func (d DataType) DefaultHidden() bool {
	if d.Kind == KindOther {
		return d.OtherDefaultHidden
	}
	return false
}

// Name returns a human readable name for the data type, used in legends.
func (d DataType) Name() string {
	switch d.Kind {
	case KindCurrent:
		return "Current"
	case KindVoltage:
		return "Voltage"
	case KindPower:
		return "Power"
	case KindTemperature:
		return "Temperature"
	case KindLatitude:
		return "Latitude"
	case KindLongitude:
		return "Longitude"
	case KindHeading:
		return "Heading"
	case KindVelocity:
		return "Velocity"
	case KindAltitudeMSL:
		return "Altitude (MSL)"
	case KindAltitudeEllipsoidal:
		return "Altitude (Ellipsoidal)"
	case KindAltitudeLaser:
		return "Altitude (Laser)"
	case KindUtmNorthing:
		return "UTM Northing"
	case KindUtmEasting:
		return "UTM Easting"
	case KindTimeDelta:
		return "Time Delta"
	case KindPercentage:
		return "Percentage"
	case KindBoolean:
		return "Boolean"
	case KindElectricalResistance:
		return "Resistance"
	case KindOther:
		return d.OtherName
	default:
		return "Unknown"
	}
}
