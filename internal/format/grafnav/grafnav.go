// Package grafnav decodes GrafNav PPP post-processed GNSS trajectories: a
// metadata preamble ("key: value" lines), a "SeqNum ..." column header
// line, a units line, then whitespace-separated ASCII data rows. Modeled
// on the teacher's tolerant line-oriented parsing
// (internal/serialmux/parse.go): read a line at a time, skip what can't
// be parsed, keep going up to the consecutive-error ceiling.
package grafnav

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/geospatial"
	"github.com/banshee-data/telemetry-plotter/internal/monitoring"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// DescriptiveName identifies this format to the detection registry.
const DescriptiveName = "GrafNav PPP"

const legendName = "GrafNav-PPP"

// maxConsecutiveRowErrors mirrors format.MaxConsecutiveRowErrors, kept
// local to avoid an import cycle with the format package.
const maxConsecutiveRowErrors = 50

// row is one decoded GrafNav PPP data line.
type row struct {
	seqNum                          int64
	timestampNs                     float64
	lat, lon                        float64
	hMSL, northing, easting         float64
	quality                         int64
	undulation, pdop, hEll          float64
	numSatellites                   int64
	cog                             float64
	vEast, vNorth, vUp, horizSpeed  float64
}

// IsBufValid sniffs for the "SeqNum" column-header line appearing after
// zero or more metadata lines, within the sniffed prefix.
func IsBufValid(buf []byte) error {
	scanner := bufio.NewScanner(bufio.NewReader(newLimitedReader(buf)))
	lines := 0
	for scanner.Scan() && lines < 200 {
		lines++
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "SeqNum") {
			return nil
		}
	}
	return fmt.Errorf("grafnav: no SeqNum column header found in sniffed prefix")
}

func newLimitedReader(buf []byte) io.Reader {
	return &sliceReader{data: buf}
}

type sliceReader struct {
	data []byte
	pos  int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

// Parser is the decoded GrafNav PPP log.
type Parser struct {
	rows     []row
	metadata []plotmodel.KV
}

func parseRow(fields []string) (row, error) {
	if len(fields) < 17 {
		return row{}, fmt.Errorf("grafnav: expected 17 columns, got %d", len(fields))
	}

	seqNum, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return row{}, fmt.Errorf("grafnav: invalid seq_num: %w", err)
	}

	date, err := time.Parse("2006/01/02", fields[1])
	if err != nil {
		return row{}, fmt.Errorf("grafnav: invalid date: %w", err)
	}
	clock, err := time.Parse("15:04:05", strings.SplitN(fields[2], ".", 2)[0])
	if err != nil {
		return row{}, fmt.Errorf("grafnav: invalid time: %w", err)
	}
	var fracSec float64
	if parts := strings.SplitN(fields[2], ".", 2); len(parts) == 2 {
		fracSec, _ = strconv.ParseFloat("0."+parts[1], 64)
	}
	ts := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC).
		Add(time.Duration(fracSec * float64(time.Second)))

	f := func(i int) (float64, error) { return strconv.ParseFloat(fields[i], 64) }
	iv := func(i int) (int64, error) { return strconv.ParseInt(fields[i], 10, 64) }

	lat, err := f(3)
	if err != nil {
		return row{}, err
	}
	lon, err := f(4)
	if err != nil {
		return row{}, err
	}
	hMSL, err := f(5)
	if err != nil {
		return row{}, err
	}
	northing, err := f(6)
	if err != nil {
		return row{}, err
	}
	easting, err := f(7)
	if err != nil {
		return row{}, err
	}
	quality, err := iv(8)
	if err != nil {
		return row{}, err
	}
	undulation, err := f(9)
	if err != nil {
		return row{}, err
	}
	pdop, err := f(10)
	if err != nil {
		return row{}, err
	}
	hEll, err := f(11)
	if err != nil {
		return row{}, err
	}
	numSat, err := iv(12)
	if err != nil {
		return row{}, err
	}
	cog, err := f(13)
	if err != nil {
		return row{}, err
	}
	vEast, err := f(14)
	if err != nil {
		return row{}, err
	}
	vNorth, err := f(15)
	if err != nil {
		return row{}, err
	}
	vUp, err := f(16)
	if err != nil {
		return row{}, err
	}
	var horizSpeed float64
	if len(fields) > 17 {
		horizSpeed, _ = f(17)
	}

	return row{
		seqNum:       seqNum,
		timestampNs:  float64(ts.UnixNano()),
		lat:          lat,
		lon:          lon,
		hMSL:         hMSL,
		northing:     northing,
		easting:      easting,
		quality:      quality,
		undulation:   undulation,
		pdop:         pdop,
		hEll:         hEll,
		numSatellites: numSat,
		cog:          cog,
		vEast:        vEast,
		vNorth:       vNorth,
		vUp:          vUp,
		horizSpeed:   horizSpeed,
	}, nil
}

// FromReader consumes the metadata preamble, the column-header and units
// lines, then every data row, tolerating malformed rows up to the
// consecutive-error ceiling.
func FromReader(r io.Reader) (*Parser, int64, error) {
	reader := bufio.NewReader(r)
	var total int64
	var metadata []plotmodel.KV

	for {
		line, err := reader.ReadString('\n')
		total += int64(len(line))
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if strings.HasPrefix(trimmed, "SeqNum") {
				break
			}
			if idx := strings.Index(trimmed, ":"); idx >= 0 {
				metadata = append(metadata, plotmodel.KV{
					Key:   strings.TrimSpace(trimmed[:idx]),
					Value: strings.TrimSpace(trimmed[idx+1:]),
				})
			}
		}
		if err != nil {
			return nil, total, fmt.Errorf("grafnav: unexpected end of file while reading metadata/header: %w", err)
		}
	}

	// Skip the units line.
	unitsLine, _ := reader.ReadString('\n')
	total += int64(len(unitsLine))

	var rows []row
	consecutiveErrors := 0
	for {
		line, err := reader.ReadString('\n')
		total += int64(len(line))
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			fields := strings.Fields(trimmed)
			parsed, perr := parseRow(fields)
			if perr != nil {
				consecutiveErrors++
				monitoring.Logf("grafnav: skipping malformed row: %v", perr)
				if consecutiveErrors >= maxConsecutiveRowErrors {
					monitoring.Logf("grafnav: %d consecutive malformed rows, terminating with %d rows decoded", consecutiveErrors, len(rows))
					break
				}
			} else {
				consecutiveErrors = 0
				rows = append(rows, parsed)
			}
		}
		if err != nil {
			break
		}
	}

	if len(rows) == 0 {
		return nil, total, fmt.Errorf("grafnav: no data rows found in log")
	}

	metadata = append(metadata, plotmodel.KV{Key: "Dataset length", Value: fmt.Sprintf("%d", len(rows))})

	return &Parser{rows: rows, metadata: metadata}, total, nil
}

// FirstTimestampNs returns the first row's timestamp.
func (p *Parser) FirstTimestampNs() float64 {
	if len(p.rows) == 0 {
		return 0
	}
	return p.rows[0].timestampNs
}

// Metadata returns the decoded preamble plus a row-count summary.
func (p *Parser) Metadata() []plotmodel.KV { return p.metadata }

// Labels has no discrete event markers for this format.
func (p *Parser) Labels() []plotmodel.PlotLabels { return nil }

// RawPlots builds 12 generic series (altitude, UTM, velocity components,
// quality indicators) plus one Primary geo-spatial dataset for the
// lat/lon/heading/altitude/speed track.
func (p *Parser) RawPlots() []plotmodel.RawPlot {
	n := len(p.rows)
	timestamps := make([]float64, n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	altEll := make([]float64, n)
	speed := make([]float64, n)
	heading := make([]float64, n)

	hMSL := make([]plotmodel.Point, n)
	hEll := make([]plotmodel.Point, n)
	northing := make([]plotmodel.Point, n)
	easting := make([]plotmodel.Point, n)
	vEast := make([]plotmodel.Point, n)
	vNorth := make([]plotmodel.Point, n)
	vUp := make([]plotmodel.Point, n)
	quality := make([]plotmodel.Point, n)
	pdop := make([]plotmodel.Point, n)
	numSat := make([]plotmodel.Point, n)
	undulation := make([]plotmodel.Point, n)
	seqNum := make([]plotmodel.Point, n)

	for i, r := range p.rows {
		timestamps[i] = r.timestampNs
		lat[i] = r.lat
		lon[i] = r.lon
		altEll[i] = r.hEll
		speed[i] = r.horizSpeed
		heading[i] = r.cog

		hMSL[i] = plotmodel.Point{r.timestampNs, r.hMSL}
		hEll[i] = plotmodel.Point{r.timestampNs, r.hEll}
		northing[i] = plotmodel.Point{r.timestampNs, r.northing}
		easting[i] = plotmodel.Point{r.timestampNs, r.easting}
		vEast[i] = plotmodel.Point{r.timestampNs, r.vEast}
		vNorth[i] = plotmodel.Point{r.timestampNs, r.vNorth}
		vUp[i] = plotmodel.Point{r.timestampNs, r.vUp}
		quality[i] = plotmodel.Point{r.timestampNs, float64(r.quality)}
		pdop[i] = plotmodel.Point{r.timestampNs, r.pdop}
		numSat[i] = plotmodel.Point{r.timestampNs, float64(r.numSatellites)}
		undulation[i] = plotmodel.Point{r.timestampNs, r.undulation}
		seqNum[i] = plotmodel.Point{r.timestampNs, float64(r.seqNum)}
	}

	series := []struct {
		name string
		pts  []plotmodel.Point
		dt   plotmodel.DataType
	}{
		{legendName + " Altitude (MSL)", hMSL, plotmodel.DataType{Kind: plotmodel.KindAltitudeMSL}},
		{legendName + " Altitude (Ellipsoidal)", hEll, plotmodel.DataType{Kind: plotmodel.KindAltitudeEllipsoidal}},
		{legendName + " UTM Northing", northing, plotmodel.DataType{Kind: plotmodel.KindUtmNorthing}},
		{legendName + " UTM Easting", easting, plotmodel.DataType{Kind: plotmodel.KindUtmEasting}},
		{legendName + " Velocity East", vEast, plotmodel.OtherVelocity("East", true)},
		{legendName + " Velocity North", vNorth, plotmodel.OtherVelocity("North", true)},
		{legendName + " Velocity Up", vUp, plotmodel.OtherVelocity("Up", true)},
		{legendName + " Quality Factor", quality, plotmodel.OtherUnitless("Quality Factor", plotmodel.RangeHundreds, false)},
		{legendName + " PDOP", pdop, plotmodel.OtherUnitless("PDOP", plotmodel.RangeHundreds, true)},
		{legendName + " Satellites", numSat, plotmodel.OtherUnitless("Satellites", plotmodel.RangeHundreds, false)},
		{legendName + " Undulation", undulation, plotmodel.Other("Undulation", "m", plotmodel.RangeHundreds, true)},
		{legendName + " Sequence Number", seqNum, plotmodel.OtherUnitless("Sequence Number", plotmodel.RangeHundreds, true)},
	}

	var out []plotmodel.RawPlot
	for _, s := range series {
		c, err := plotmodel.NewRawPlotCommon(s.name, s.pts, s.dt)
		if err != nil {
			monitoring.Logf("grafnav: dropping series %q: %v", s.name, err)
			continue
		}
		out = append(out, plotmodel.NewGenericRawPlot(c))
	}

	geo, err := geospatial.Build(geospatial.BuildInput{
		Name:       legendName,
		Timestamps: timestamps,
		Lat:        lat,
		Lon:        lon,
		Heading:    heading,
		Altitude: &geospatial.AltitudeColumn{
			Values: altEll,
			Source: plotmodel.AltitudeGnss,
		},
		Speed: speed,
	})
	if err != nil {
		monitoring.Logf("grafnav: failed to build geo-spatial dataset: %v", err)
	} else {
		out = append(out, plotmodel.NewGeoSpatialRawPlot(geo))
	}

	return out
}
