// Command plot-export loads a single log file, mipmap-reduces one of its
// series to a target pixel width, and renders it as a standalone HTML
// chart or a PNG, for debugging parser and reduction output without the
// full interactive plotter running.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/telemetry-plotter/internal/format"
	"github.com/banshee-data/telemetry-plotter/internal/fsutil"
	"github.com/banshee-data/telemetry-plotter/internal/mipmap"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
	"github.com/banshee-data/telemetry-plotter/internal/security"
	"github.com/banshee-data/telemetry-plotter/internal/units"
	"github.com/banshee-data/telemetry-plotter/internal/version"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// fs is the filesystem every file read/write in this command goes through,
// overridable in tests with an fsutil.MemoryFileSystem.
var fs fsutil.FileSystem = fsutil.OSFileSystem{}

// Config holds the command-line configuration for one export run.
type Config struct {
	InputPath   string
	SeriesName  string // legend name to export; empty means the first series
	PixelWidth  int
	OutFormat   string // "html" or "png"
	OutputPath  string
	SpeedUnit   string // preferred display unit for KindVelocity series
	ShowVersion bool
}

func parseFlags(args []string) (Config, error) {
	flags := flag.NewFlagSet("plot-export", flag.ContinueOnError)
	cfg := Config{}
	flags.StringVar(&cfg.InputPath, "input", "", "path to the log file to load")
	flags.StringVar(&cfg.SeriesName, "series", "", "legend name of the series to export (default: first series)")
	flags.IntVar(&cfg.PixelWidth, "pixel-width", 1600, "target pixel width for mipmap reduction")
	flags.StringVar(&cfg.OutFormat, "format", "html", "output format: html or png")
	flags.StringVar(&cfg.OutputPath, "output", "", "output file path")
	flags.StringVar(&cfg.SpeedUnit, "speed-unit", "", "display unit for velocity series: mps, mph, kmph, or kph (default: km/h, unconverted)")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}
	if cfg.InputPath == "" {
		return Config{}, fmt.Errorf("plot-export: -input is required")
	}
	if cfg.OutputPath == "" {
		return Config{}, fmt.Errorf("plot-export: -output is required")
	}
	if cfg.OutFormat != "html" && cfg.OutFormat != "png" {
		return Config{}, fmt.Errorf("plot-export: -format must be html or png, got %q", cfg.OutFormat)
	}
	if cfg.SpeedUnit != "" && !units.IsValid(cfg.SpeedUnit) {
		return Config{}, fmt.Errorf("plot-export: -speed-unit must be one of: %s", units.GetValidUnitsString())
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg Config) error {
	data, err := fs.ReadFile(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("plot-export: reading %s: %w", cfg.InputPath, err)
	}

	fm, err := format.Detect(cfg.InputPath, data)
	if err != nil {
		return fmt.Errorf("plot-export: %w", err)
	}
	parsed, _, err := fm.FromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("plot-export: parsing %s as %s: %w", cfg.InputPath, fm.Name, err)
	}

	series, err := selectSeries(parsed.RawPlots(), cfg.SeriesName)
	if err != nil {
		return err
	}

	pyramid := mipmap.New(series.Points, mipmap.DefaultMinElements)
	points := reducedPoints(pyramid, cfg.PixelWidth, series.Points)

	if err := security.ValidateExportPath(cfg.OutputPath); err != nil {
		return fmt.Errorf("plot-export: %w", err)
	}

	switch cfg.OutFormat {
	case "html":
		out, err := fs.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("plot-export: creating %s: %w", cfg.OutputPath, err)
		}
		defer out.Close()
		return renderHTML(out, series.LegendName, series.DataType, points, cfg.SpeedUnit)
	default:
		return renderPNG(cfg.OutputPath, series.LegendName, series.DataType, points, cfg.SpeedUnit)
	}
}

// selectSeries returns the RawPlotCommon matching name across every
// RawPlot's expansion, or the first series overall when name is empty.
func selectSeries(plots []plotmodel.RawPlot, name string) (plotmodel.RawPlotCommon, error) {
	var all []plotmodel.RawPlotCommon
	for _, rp := range plots {
		all = append(all, rp.RawPlotsCommon()...)
	}
	if len(all) == 0 {
		return plotmodel.RawPlotCommon{}, fmt.Errorf("plot-export: file contains no series")
	}
	if name == "" {
		return all[0], nil
	}
	for _, s := range all {
		if s.LegendName == name {
			return s, nil
		}
	}
	return plotmodel.RawPlotCommon{}, fmt.Errorf("plot-export: no series named %q (have %d series)", name, len(all))
}

// reducedPoints returns the coarsest mipmap level covering the series'
// full x-range for pixelWidth, falling back to the raw points when no
// level is coarse enough to need reducing.
func reducedPoints(pyramid *mipmap.Pyramid, pixelWidth int, raw []plotmodel.Point) []plotmodel.Point {
	if len(raw) == 0 {
		return raw
	}
	level, span := pyramid.GetLevelMatch(pixelWidth, raw[0].X(), raw[len(raw)-1].X())
	if span == nil {
		return raw
	}
	return pyramid.Levels[level][span.Start:span.End]
}

// displayPoints converts every point's y through dt.DisplayValue for
// speedUnit, returning the converted y values alongside the unit label they
// share (DisplayValue is pure per-point but the unit is constant across a
// series).
func displayPoints(dt plotmodel.DataType, points []plotmodel.Point, speedUnit string) ([]float64, string) {
	ys := make([]float64, len(points))
	unit := dt.Unit()
	for i, p := range points {
		var y float64
		y, unit = dt.DisplayValue(p.Y(), speedUnit)
		ys[i] = y
	}
	return ys, unit
}

// renderHTML renders points as a line chart, following the teacher's
// echarts debug-chart handlers (e.g. handleBackgroundGridPolar).
func renderHTML(w io.Writer, seriesName string, dt plotmodel.DataType, points []plotmodel.Point, speedUnit string) error {
	ys, unit := displayPoints(dt, points, speedUnit)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: seriesName, Theme: "dark", Width: "1600px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: seriesName, Subtitle: fmt.Sprintf("points=%d", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (ns)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	xs := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		xs[i] = fmt.Sprintf("%.0f", p.X())
		data[i] = opts.LineData{Value: ys[i]}
	}
	line.SetXAxis(xs).AddSeries(seriesName, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

// renderPNG renders points as a single line plot, following the teacher's
// gridplotter.go gonum/plot usage.
func renderPNG(path, seriesName string, dt plotmodel.DataType, points []plotmodel.Point, speedUnit string) error {
	ys, unit := displayPoints(dt, points, speedUnit)

	p := plot.New()
	p.Title.Text = seriesName
	p.X.Label.Text = "time (ns)"
	p.Y.Label.Text = unit

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X(), Y: ys[i]}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("plot-export: building line plotter: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot-export: saving %s: %w", path, err)
	}
	return nil
}
