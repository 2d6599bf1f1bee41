package units

import (
	"math"
	"testing"
)

func TestConvertSpeedFromKmh(t *testing.T) {
	tests := []struct {
		name     string
		speedKmh float64
		units    string
		expected float64
	}{
		{"36 km/h to mps", 36.0, MPS, 10.0},
		{"36 km/h to kmph", 36.0, KMPH, 36.0},
		{"36 km/h to kph", 36.0, KPH, 36.0},
		{"36 km/h to mph", 36.0, MPH, 22.3694},
		{"unknown units default to kmph", 36.0, "unknown", 36.0},
		{"0 km/h to mph", 0.0, MPH, 0.0},
		{"highway speed 112.65 km/h to mph", 112.65, MPH, 70.0},
		{"walking speed 5.0 km/h to mph", 5.0, MPH, 3.10686},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeedFromKmh(tt.speedKmh, tt.units)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("ConvertSpeedFromKmh(%f, %s) = %f, want %f", tt.speedKmh, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsValid(tt.unit); result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got, want := GetValidUnitsString(), "mps, mph, kmph, kph"; got != want {
		t.Errorf("GetValidUnitsString() = %s, want %s", got, want)
	}
}

func TestConversionAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		speedKmh float64
		unit     string
		expected float64
	}{
		{"3.6 km/h to mps", 3.6, MPS, 1.0},
		{"18 km/h to mps", 18.0, MPS, 5.0},
		{"1 km/h to mph", 1.0, MPH, 0.621371},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeedFromKmh(tt.speedKmh, tt.unit)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ConvertSpeedFromKmh(%f, %s) = %f, want %f", tt.speedKmh, tt.unit, result, tt.expected)
			}
		})
	}
}
