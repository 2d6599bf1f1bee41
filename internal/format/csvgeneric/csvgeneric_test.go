package csvgeneric

import (
	"strings"
	"testing"
)

const sampleCSV = "time,temperature,resistance\n0.0,21.5,100.2\n0.1,21.6,100.3\n0.2,21.7,100.1\n"

func TestIsBufValid(t *testing.T) {
	if err := IsBufValid([]byte(sampleCSV)); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := IsBufValid([]byte("just one column\n")); err == nil {
		t.Fatal("expected rejection of single-column header")
	}
}

func TestFromReaderDecodesColumns(t *testing.T) {
	p, n, err := FromReader(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if n == 0 {
		t.Fatal("expected non-zero bytes consumed")
	}
	if len(p.times) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(p.times))
	}
	if p.times[0] != 0 {
		t.Fatalf("expected first timestamp = 0ns, got %v", p.times[0])
	}

	plots := p.RawPlots()
	if len(plots) != 2 {
		t.Fatalf("expected 2 series (temperature, resistance), got %d", len(plots))
	}
	names := map[string]bool{}
	for _, rp := range plots {
		names[rp.Common.LegendName] = true
		if len(rp.Common.Points) != 3 {
			t.Fatalf("series %q has %d points, want 3", rp.Common.LegendName, len(rp.Common.Points))
		}
	}
	if !names["temperature"] || !names["resistance"] {
		t.Fatalf("unexpected series names: %v", names)
	}
}

func TestFromReaderSkipsMalformedRows(t *testing.T) {
	data := "time,value\n0.0,1.0\nbad,row,here\n0.1,1.1\n0.2,garbage\n0.3,1.3\n"
	p, _, err := FromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if len(p.times) != 3 {
		t.Fatalf("expected 3 valid rows decoded, got %d", len(p.times))
	}
}

func TestFromReaderRejectsEmptyBody(t *testing.T) {
	_, _, err := FromReader(strings.NewReader("time,value\n"))
	if err == nil {
		t.Fatal("expected error when no data rows are present")
	}
}

func TestFromReaderAcceptsRFC3339Timestamps(t *testing.T) {
	data := "time,value\n2026-01-01T00:00:00Z,1.0\n2026-01-01T00:00:01Z,2.0\n"
	p, _, err := FromReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if len(p.times) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(p.times))
	}
	if p.times[1] <= p.times[0] {
		t.Fatalf("expected increasing timestamps, got %v then %v", p.times[0], p.times[1])
	}
}
