package bifrost

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func encodeRecord(current, voltage float32) []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(current))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(voltage))
	return buf
}

func TestIsBufValid(t *testing.T) {
	if err := IsBufValid(magic[:]); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := IsBufValid([]byte("BADMAGIC")); err == nil {
		t.Fatal("expected rejection")
	}
}

func TestSyntheticStartTimestamp(t *testing.T) {
	fixed := time.Date(2026, time.June, 15, 12, 30, 0, 0, time.UTC)
	orig := nowFn
	nowFn = func() time.Time { return fixed }
	defer func() { nowFn = orig }()

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write(encodeRecord(1.0, 24.0))
	buf.Write(encodeRecord(1.1, 23.9))

	p, _, err := FromReader(&buf)
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}

	wantStart := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if p.SyntheticStartNs != float64(wantStart.UnixNano()) {
		t.Fatalf("synthetic start = %v, want Jan 1 of current year = %v", p.SyntheticStartNs, wantStart.UnixNano())
	}

	plots := p.RawPlots()
	if len(plots) != 2 {
		t.Fatalf("expected 2 series (current, voltage), got %d", len(plots))
	}
	for _, rp := range plots {
		if rp.Common.Points[0].X() != p.SyntheticStartNs {
			t.Fatalf("series %q does not start at the synthetic timestamp", rp.Common.LegendName)
		}
	}
}

func TestMetadataFlagsSyntheticQuirk(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.Write(encodeRecord(1.0, 24.0))
	buf.Write(encodeRecord(1.1, 23.9))
	p, _, err := FromReader(&buf)
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	found := false
	for _, kv := range p.Metadata() {
		if kv.Key == "synthetic_timestamp" && kv.Value == "true" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected synthetic_timestamp=true in metadata")
	}
}
