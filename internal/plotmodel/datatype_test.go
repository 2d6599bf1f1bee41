package plotmodel

import "testing"

func TestDisplayValueConvertsVelocity(t *testing.T) {
	d := DataType{Kind: KindVelocity}

	value, unit := d.DisplayValue(36, "mps")
	if unit != "mps" || value != 10 {
		t.Fatalf("expected 10 mps, got %v %s", value, unit)
	}

	value, unit = d.DisplayValue(36, "")
	if unit != "km/h" || value != 36 {
		t.Fatalf("expected unconverted km/h fallback, got %v %s", value, unit)
	}

	value, unit = d.DisplayValue(36, "not-a-unit")
	if unit != "km/h" || value != 36 {
		t.Fatalf("expected invalid preference to fall back to km/h, got %v %s", value, unit)
	}
}

func TestDisplayValueIgnoresPreferenceForNonVelocity(t *testing.T) {
	d := DataType{Kind: KindTemperature}
	value, unit := d.DisplayValue(21.5, "mph")
	if unit != "°C" || value != 21.5 {
		t.Fatalf("expected temperature unaffected by speed preference, got %v %s", value, unit)
	}
}
