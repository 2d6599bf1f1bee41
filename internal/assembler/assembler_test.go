package assembler

import (
	"testing"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func series(name string, n int, dt plotmodel.DataType) plotmodel.RawPlotCommon {
	pts := make([]plotmodel.Point, n)
	for i := range pts {
		pts[i] = plotmodel.Point{float64(i), float64(i % 5)}
	}
	c, err := plotmodel.NewRawPlotCommon(name, pts, dt)
	if err != nil {
		panic(err)
	}
	return c
}

func TestAdmitBinsByExpectedRange(t *testing.T) {
	a := New()
	if _, err := a.Admit(0, series("pct", 4, plotmodel.DataType{Kind: plotmodel.KindPercentage}), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Admit(0, series("volts", 4, plotmodel.DataType{Kind: plotmodel.KindVoltage}), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(a.Group(plotmodel.RangePercentage)); got != 1 {
		t.Errorf("RangePercentage group has %d entries, want 1", got)
	}
	if got := len(a.Group(plotmodel.RangeThousands)); got != 1 {
		t.Errorf("RangeThousands group has %d entries, want 1", got)
	}
}

func TestAdmitRejectsDuplicateNameAndLogID(t *testing.T) {
	a := New()
	dt := plotmodel.DataType{Kind: plotmodel.KindVoltage}
	if _, err := a.Admit(1, series("Bus Voltage", 4, dt), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := a.Admit(1, series("Bus Voltage", 4, dt), 0)
	var dup *ErrDuplicateSeries
	if err == nil {
		t.Fatal("expected ErrDuplicateSeries, got nil")
	}
	if dup, _ = err.(*ErrDuplicateSeries); dup == nil {
		t.Fatalf("err = %v (%T), want *ErrDuplicateSeries", err, err)
	}
}

func TestAdmitAllowsSameNameDifferentLogID(t *testing.T) {
	a := New()
	dt := plotmodel.DataType{Kind: plotmodel.KindVoltage}
	if _, err := a.Admit(1, series("Bus Voltage", 4, dt), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Admit(2, series("Bus Voltage", 4, dt), 0); err != nil {
		t.Fatalf("same name under a different log_id should be admitted: %v", err)
	}
}

func TestRemoveLogDropsAllItsSeries(t *testing.T) {
	a := New()
	dt := plotmodel.DataType{Kind: plotmodel.KindVoltage}
	a.Admit(1, series("A", 4, dt), 0)
	a.Admit(1, series("B", 4, dt), 0)
	a.Admit(2, series("A", 4, dt), 0)

	a.RemoveLog(1)
	remaining := a.Group(plotmodel.RangeThousands)
	if len(remaining) != 1 {
		t.Fatalf("got %d remaining series, want 1", len(remaining))
	}
	if remaining[0].LogID != 2 {
		t.Errorf("remaining series has LogID %d, want 2", remaining[0].LogID)
	}
}
