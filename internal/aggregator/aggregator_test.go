package aggregator

import (
	"testing"

	"github.com/banshee-data/telemetry-plotter/internal/assembler"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func genericState(name string, firstTs float64) plotmodel.LogLoadState {
	pts := []plotmodel.Point{{firstTs, 1}, {firstTs + 1, 2}, {firstTs + 2, 3}}
	c, err := plotmodel.NewRawPlotCommon(name, pts, plotmodel.DataType{Kind: plotmodel.KindVoltage})
	if err != nil {
		panic(err)
	}
	return plotmodel.LogLoadState{
		DescriptiveName:  name,
		FirstTimestampNs: firstTs,
		RawPlots:         []plotmodel.RawPlot{plotmodel.NewGenericRawPlot(c)},
	}
}

func TestIngestAssignsSequentialLogIDs(t *testing.T) {
	agg := New(assembler.New())
	l1, errs1 := agg.Ingest(genericState("first", 0))
	if len(errs1) != 0 {
		t.Fatalf("unexpected errors: %v", errs1)
	}
	l2, errs2 := agg.Ingest(genericState("second", 10))
	if len(errs2) != 0 {
		t.Fatalf("unexpected errors: %v", errs2)
	}
	if l1.LogID != 0 || l2.LogID != 1 {
		t.Fatalf("log IDs = %d, %d, want 0, 1", l1.LogID, l2.LogID)
	}
	if len(l1.Plots) != 1 || len(l2.Plots) != 1 {
		t.Fatalf("expected 1 admitted plot per log, got %d and %d", len(l1.Plots), len(l2.Plots))
	}
}

func TestLogsReturnsInIngestOrder(t *testing.T) {
	agg := New(assembler.New())
	agg.Ingest(genericState("a", 0))
	agg.Ingest(genericState("b", 0))
	agg.Ingest(genericState("c", 0))

	logs := agg.Logs()
	if len(logs) != 3 {
		t.Fatalf("got %d logs, want 3", len(logs))
	}
	for i, l := range logs {
		if int(l.LogID) != i {
			t.Errorf("logs[%d].LogID = %d, want %d", i, l.LogID, i)
		}
	}
}

func TestUnloadRemovesLogAndItsSeries(t *testing.T) {
	asm := assembler.New()
	agg := New(asm)
	l1, _ := agg.Ingest(genericState("a", 0))

	agg.Unload(l1.LogID)
	if len(agg.Logs()) != 0 {
		t.Fatal("expected no logs after Unload")
	}
	if len(asm.Group(plotmodel.RangeThousands)) != 0 {
		t.Fatal("expected assembler group emptied after Unload")
	}
}
