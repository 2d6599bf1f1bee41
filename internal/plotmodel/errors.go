package plotmodel

import "fmt"

// ErrColumnLengthMismatch is returned when a caller supplies optional
// columns (altitude, speed, heading, ...) whose lengths don't match the
// timestamp column. This is a programmer invariant violation: the caller
// must abort the parse rather than silently truncate data.
type ErrColumnLengthMismatch struct {
	Column   string
	Got      int
	Expected int
}

func (e *ErrColumnLengthMismatch) Error() string {
	return fmt.Sprintf("plotmodel: column %q has length %d, expected %d (same as timestamps)", e.Column, e.Got, e.Expected)
}

// ErrMissingTimestamps is returned when a geo-spatial builder is asked to
// build without at least two timestamps.
var ErrMissingTimestamps = fmt.Errorf("plotmodel: geo-spatial dataset requires at least 2 timestamps")

// ErrAmbiguousDataset is returned when neither lat/lon nor any auxiliary
// column was supplied, so neither a Primary nor an Auxiliary dataset could
// be determined.
var ErrAmbiguousDataset = fmt.Errorf("plotmodel: geo-spatial dataset needs either lat+lon or at least one of heading/altitude/speed")
