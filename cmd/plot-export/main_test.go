package main

import (
	"strings"
	"testing"

	"github.com/banshee-data/telemetry-plotter/internal/fsutil"
	"github.com/banshee-data/telemetry-plotter/internal/mipmap"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

func samplePoints(n int) []plotmodel.Point {
	pts := make([]plotmodel.Point, n)
	for i := range pts {
		pts[i] = plotmodel.Point{float64(i) * 1e6, float64(i % 7)}
	}
	return pts
}

func TestParseFlagsRequiresInputAndOutput(t *testing.T) {
	if _, err := parseFlags([]string{"-output", "out.html"}); err == nil {
		t.Fatal("expected an error when -input is missing")
	}
	if _, err := parseFlags([]string{"-input", "a.bin"}); err == nil {
		t.Fatal("expected an error when -output is missing")
	}
}

func TestParseFlagsVersionSkipsRequiredFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-version"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if !cfg.ShowVersion {
		t.Fatal("expected ShowVersion to be set")
	}
}

func TestParseFlagsRejectsInvalidSpeedUnit(t *testing.T) {
	_, err := parseFlags([]string{"-input", "a.bin", "-output", "out.html", "-speed-unit", "lightyears"})
	if err == nil {
		t.Fatal("expected an error for an invalid -speed-unit value")
	}
}

func TestParseFlagsRejectsUnknownFormat(t *testing.T) {
	_, err := parseFlags([]string{"-input", "a.bin", "-output", "out.xyz", "-format", "xyz"})
	if err == nil {
		t.Fatal("expected an error for an unsupported -format value")
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags([]string{"-input", "a.bin", "-output", "out.html"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.OutFormat != "html" || cfg.PixelWidth != 1600 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestSelectSeriesDefaultsToFirst(t *testing.T) {
	a, err := plotmodel.NewRawPlotCommon("alpha", samplePoints(10), plotmodel.OtherUnitless("test", plotmodel.RangeThousands, false))
	if err != nil {
		t.Fatalf("NewRawPlotCommon: %v", err)
	}
	b, err := plotmodel.NewRawPlotCommon("beta", samplePoints(10), plotmodel.OtherUnitless("test", plotmodel.RangeThousands, false))
	if err != nil {
		t.Fatalf("NewRawPlotCommon: %v", err)
	}
	plots := []plotmodel.RawPlot{plotmodel.NewGenericRawPlot(a), plotmodel.NewGenericRawPlot(b)}

	got, err := selectSeries(plots, "")
	if err != nil {
		t.Fatalf("selectSeries: %v", err)
	}
	if got.LegendName != "alpha" {
		t.Fatalf("expected first series, got %q", got.LegendName)
	}

	got, err = selectSeries(plots, "beta")
	if err != nil {
		t.Fatalf("selectSeries: %v", err)
	}
	if got.LegendName != "beta" {
		t.Fatalf("expected named series, got %q", got.LegendName)
	}
}

func TestSelectSeriesMissingNameErrors(t *testing.T) {
	a, _ := plotmodel.NewRawPlotCommon("alpha", samplePoints(10), plotmodel.OtherUnitless("test", plotmodel.RangeThousands, false))
	_, err := selectSeries([]plotmodel.RawPlot{plotmodel.NewGenericRawPlot(a)}, "missing")
	if err == nil {
		t.Fatal("expected an error for an unknown series name")
	}
}

func TestSelectSeriesEmptyInputErrors(t *testing.T) {
	if _, err := selectSeries(nil, ""); err == nil {
		t.Fatal("expected an error for an empty plot list")
	}
}

func TestReducedPointsFallsBackToRawWhenNoLevelMatches(t *testing.T) {
	raw := samplePoints(4)
	pyramid := mipmap.New(raw, mipmap.DefaultMinElements)
	got := reducedPoints(pyramid, 100000, raw)
	if len(got) != len(raw) {
		t.Fatalf("expected raw fallback of %d points, got %d", len(raw), len(got))
	}
}

func TestReducedPointsReducesLargeSeries(t *testing.T) {
	raw := samplePoints(20000)
	pyramid := mipmap.New(raw, mipmap.DefaultMinElements)
	got := reducedPoints(pyramid, 200, raw)
	if len(got) >= len(raw) {
		t.Fatalf("expected reduction below raw size %d, got %d", len(raw), len(got))
	}
}

func TestRunReadsThroughInjectedFileSystem(t *testing.T) {
	orig := fs
	defer func() { fs = orig }()
	fs = fsutil.NewMemoryFileSystem()

	cfg := Config{InputPath: "missing.bin", OutputPath: "out.html", OutFormat: "html"}
	err := run(cfg)
	if err == nil || !strings.Contains(err.Error(), "reading") {
		t.Fatalf("expected a read error surfaced through the injected filesystem, got %v", err)
	}
}

func TestDisplayPointsConvertsVelocitySeries(t *testing.T) {
	dt := plotmodel.DataType{Kind: plotmodel.KindVelocity}
	points := []plotmodel.Point{{0, 36}, {1, 72}}

	ys, unit := displayPoints(dt, points, "mps")
	if unit != "mps" || ys[0] != 10 || ys[1] != 20 {
		t.Fatalf("expected mps-converted values, got ys=%v unit=%s", ys, unit)
	}

	ys, unit = displayPoints(dt, points, "")
	if unit != "km/h" || ys[0] != 36 {
		t.Fatalf("expected unconverted km/h fallback, got ys=%v unit=%s", ys, unit)
	}
}
