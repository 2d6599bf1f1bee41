package assembler

import (
	"fmt"
	"sync"

	"github.com/banshee-data/telemetry-plotter/internal/plotmodel"
)

// ErrDuplicateSeries is returned by Admit when the same (name, log_id)
// pair has already been admitted into a plot group.
type ErrDuplicateSeries struct {
	Name  string
	LogID uint16
}

func (e *ErrDuplicateSeries) Error() string {
	return fmt.Sprintf("assembler: series %q for log #%d already admitted", e.Name, e.LogID)
}

type seriesKey struct {
	name  string
	logID uint16
}

// Assembler bins admitted series into three plot groups keyed by
// ExpectedPlotRange, rejecting duplicates within a group.
type Assembler struct {
	mu     sync.Mutex
	groups map[plotmodel.ExpectedPlotRange]map[seriesKey]*CookedPlot
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{
		groups: map[plotmodel.ExpectedPlotRange]map[seriesKey]*CookedPlot{
			plotmodel.RangePercentage: {},
			plotmodel.RangeHundreds:   {},
			plotmodel.RangeThousands:  {},
		},
	}
}

// Admit bins one RawPlotCommon series under its ExpectedPlotRange group.
// It rejects a (common.LegendName, logID) pair already present in that
// group.
func (a *Assembler) Admit(logID uint16, common plotmodel.RawPlotCommon, firstTimestampNs float64) (*CookedPlot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	group := a.groups[common.ExpectedRange]
	key := seriesKey{name: common.LegendName, logID: logID}
	if _, exists := group[key]; exists {
		return nil, &ErrDuplicateSeries{Name: common.LegendName, LogID: logID}
	}

	cooked := NewCookedPlot(common.LegendName, logID, common, firstTimestampNs)
	group[key] = cooked
	return cooked, nil
}

// Group returns every CookedPlot currently admitted into the given
// ExpectedPlotRange bucket.
func (a *Assembler) Group(r plotmodel.ExpectedPlotRange) []*CookedPlot {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*CookedPlot, 0, len(a.groups[r]))
	for _, cp := range a.groups[r] {
		out = append(out, cp)
	}
	return out
}

// RemoveLog drops every series admitted under the given log_id across all
// groups, e.g. when a loaded log is unloaded from the session.
func (a *Assembler) RemoveLog(logID uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, group := range a.groups {
		for key := range group {
			if key.logID == logID {
				delete(group, key)
			}
		}
	}
}
