// Package persistence implements the optional session save/restore contract:
// two well-known prefixes identify a plain file as either a saved set of
// parsed logs or a saved plot-UI state snapshot. Everything after the prefix
// is encoding/gob — the teacher carries no general-purpose serialization
// library in its dependency graph, so gob is the justified stdlib choice
// here (see DESIGN.md).
package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
	"github.com/banshee-data/telemetry-plotter/internal/units"
)

// The two recognized file prefixes. A file's first bytes are compared
// against both, bounded by the longer of the two, before falling back to
// normal format detection.
const (
	DataFilePrefix    = "PLOTINATOR3000 PLOT DATA FILE"
	UIStateFilePrefix = "PLOTINATOR3000 PLOT UI STATE FILE"
)

// MaxPersistedPoints is the total loaded-point ceiling above which session
// persistence is disabled, to avoid UI stalls while saving.
const MaxPersistedPoints = 100_000

// Kind identifies which of the two file formats a buffer sniffed as.
type Kind int

const (
	KindUnknown Kind = iota
	KindData
	KindUIState
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindUIState:
		return "ui-state"
	default:
		return "unknown"
	}
}

var nowFn = time.Now

// Sniff reports which prefix (if any) data begins with, and returns the
// remainder of the buffer with that prefix stripped. Data shorter than a
// prefix never matches it; bytes.HasPrefix handles that without reading
// past the end of data.
func Sniff(data []byte) (Kind, []byte) {
	if bytes.HasPrefix(data, []byte(DataFilePrefix)) {
		return KindData, data[len(DataFilePrefix):]
	}
	if bytes.HasPrefix(data, []byte(UIStateFilePrefix)) {
		return KindUIState, data[len(UIStateFilePrefix):]
	}
	return KindUnknown, data
}

// SeriesUIState is the per-series UI state keyed by log_id: color override,
// visibility, and date-shift (the same axis the "Date shift" UI offsets a
// series by). log_id is the only identity used to key this state.
type SeriesUIState struct {
	LogID         uint16
	Name          string
	Hidden        bool
	ColorOverride *color.RGBA
	DateShiftNs   float64
}

// PlotUiState is a snapshot of the plot-UI state that, when loaded, wholly
// replaces the current session's per-series overrides.
type PlotUiState struct {
	Series      []SeriesUIState
	SavedAtUnix int64

	// DisplayTimezone and SpeedUnit are display preferences, validated
	// against internal/units on Set; empty means "use the default"
	// (UTC, km/h respectively).
	DisplayTimezone string
	SpeedUnit       string
}

// SetDisplayTimezone validates tz against the tz database (via
// units.IsTimezoneValid) before storing it. An empty string resets to the
// UTC default.
func (s *PlotUiState) SetDisplayTimezone(tz string) error {
	if tz != "" && !units.IsTimezoneValid(tz) {
		return fmt.Errorf("persistence: invalid timezone %q", tz)
	}
	s.DisplayTimezone = tz
	return nil
}

// SetSpeedUnit validates unit against units.ValidUnits before storing it.
// An empty string resets to the km/h default.
func (s *PlotUiState) SetSpeedUnit(unit string) error {
	if unit != "" && !units.IsValid(unit) {
		return fmt.Errorf("persistence: invalid speed unit %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	s.SpeedUnit = unit
	return nil
}

// SavedAtDisplay renders SavedAtUnix in DisplayTimezone (UTC if unset),
// labeled with its UTC offset via units.GetTimezoneLabel.
func (s PlotUiState) SavedAtDisplay() (string, error) {
	tz := s.DisplayTimezone
	if tz == "" {
		tz = "UTC"
	}
	local, err := units.ConvertTime(time.Unix(s.SavedAtUnix, 0).UTC(), tz)
	if err != nil {
		return "", fmt.Errorf("persistence: %w", err)
	}
	return fmt.Sprintf("%s %s", local.Format("2006-01-02 15:04:05"), units.GetTimezoneLabel(tz)), nil
}

// ShouldPersist reports whether session persistence is enabled for a
// session with the given total loaded-point count.
func ShouldPersist(totalPoints int) bool {
	return totalPoints <= MaxPersistedPoints
}

// EncodeDataFile serializes files as a data file, prefix included.
func EncodeDataFile(files []plotmodel.LogLoadState) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(DataFilePrefix)
	if err := gob.NewEncoder(&buf).Encode(files); err != nil {
		return nil, fmt.Errorf("persistence: failed to encode data file: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDataFile decodes the gob body following a stripped DataFilePrefix.
func DecodeDataFile(body []byte) ([]plotmodel.LogLoadState, error) {
	var files []plotmodel.LogLoadState
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&files); err != nil {
		return nil, fmt.Errorf("persistence: failed to decode data file: %w", err)
	}
	return files, nil
}

// EncodeUIStateFile serializes state as a UI-state file, prefix included.
// SavedAtUnix is stamped with the current time if unset.
func EncodeUIStateFile(state PlotUiState) ([]byte, error) {
	if state.SavedAtUnix == 0 {
		state.SavedAtUnix = nowFn().Unix()
	}
	var buf bytes.Buffer
	buf.WriteString(UIStateFilePrefix)
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("persistence: failed to encode UI state file: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeUIStateFile decodes the gob body following a stripped
// UIStateFilePrefix.
func DecodeUIStateFile(body []byte) (PlotUiState, error) {
	var state PlotUiState
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&state); err != nil {
		return PlotUiState{}, fmt.Errorf("persistence: failed to decode UI state file: %w", err)
	}
	return state, nil
}

// Load sniffs data and decodes it as whichever of the two formats matched.
// Kind is KindUnknown, with both return values nil, if data does not start
// with either recognized prefix — the caller should fall back to normal
// format detection in that case.
func Load(data []byte) (Kind, []plotmodel.LogLoadState, *PlotUiState, error) {
	kind, body := Sniff(data)
	switch kind {
	case KindData:
		files, err := DecodeDataFile(body)
		return KindData, files, nil, err
	case KindUIState:
		state, err := DecodeUIStateFile(body)
		return KindUIState, nil, &state, err
	default:
		return KindUnknown, nil, nil, nil
	}
}

// WriteDataFile streams files to w in data-file form.
func WriteDataFile(w io.Writer, files []plotmodel.LogLoadState) error {
	payload, err := EncodeDataFile(files)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// WriteUIStateFile streams state to w in UI-state-file form.
func WriteUIStateFile(w io.Writer, state PlotUiState) error {
	payload, err := EncodeUIStateFile(state)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
