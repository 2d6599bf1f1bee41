// Package aggregator assigns session-scoped log IDs to parsed logs and
// drives each log's series into the plot assembler on parse completion.
package aggregator

import (
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/assembler"
	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// LoadedLog is the "Loaded logs" panel's view of one parsed file: its
// assigned log_id, descriptive name, first timestamp and metadata, plus
// the CookedPlots the assembler admitted for it.
type LoadedLog struct {
	LogID            uint16
	DescriptiveName  string
	FirstTimestampNs float64
	Metadata         []plotmodel.KV
	ParseInfo        plotmodel.ParseInfo
	Plots            []*assembler.CookedPlot
}

// Aggregator assigns the next log_id on each parse completion and fans the
// parsed RawPlots out to the assembler.
type Aggregator struct {
	mu        sync.Mutex
	nextLogID uint16
	assembler *assembler.Assembler
	logs      map[uint16]*LoadedLog
}

// New returns an empty Aggregator backed by the given assembler.
func New(asm *assembler.Assembler) *Aggregator {
	return &Aggregator{assembler: asm, logs: map[uint16]*LoadedLog{}}
}

// Ingest assigns the next log_id to state, admits every one of its
// RawPlots into the assembler, and records the result for the "Loaded
// logs" panel. Admission errors (duplicate series) are collected and
// returned but do not prevent the rest of the log's series from being
// admitted.
func (a *Aggregator) Ingest(state plotmodel.LogLoadState) (*LoadedLog, []error) {
	a.mu.Lock()
	logID := a.nextLogID
	a.nextLogID++
	a.mu.Unlock()

	log := &LoadedLog{
		LogID:            logID,
		DescriptiveName:  state.DescriptiveName,
		FirstTimestampNs: state.FirstTimestampNs,
		Metadata:         state.Metadata,
		ParseInfo:        state.ParseInfo,
	}

	var errs []error
	for _, rp := range state.RawPlots {
		for _, common := range rp.RawPlotsCommon() {
			cooked, err := a.assembler.Admit(logID, common, state.FirstTimestampNs)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			log.Plots = append(log.Plots, cooked)
		}
	}

	a.mu.Lock()
	a.logs[logID] = log
	a.mu.Unlock()

	return log, errs
}

// Logs returns every currently loaded log, most recently ingested last.
func (a *Aggregator) Logs() []*LoadedLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*LoadedLog, 0, len(a.logs))
	for id := uint16(0); id < a.nextLogID; id++ {
		if l, ok := a.logs[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Unload removes a log from the aggregator and drops its series from the
// assembler.
func (a *Aggregator) Unload(logID uint16) {
	a.mu.Lock()
	delete(a.logs, logID)
	a.mu.Unlock()
	a.assembler.RemoveLog(logID)
}
