package buffer

import "github.com/pstuifzand/tui-columns/internal/host"

// Recorder wraps a host and counts tab stop mutations.
type Recorder struct {
	host.Host
	Adds   int
	Clears int
}

// NewRecorder wraps h.
func NewRecorder(h host.Host) *Recorder {
	return &Recorder{Host: h}
}

// AddTabStop counts and forwards the call.
func (r *Recorder) AddTabStop(line, x int) {
	r.Adds++
	r.Host.AddTabStop(line, x)
}

// ClearTabStops counts and forwards the call.
func (r *Recorder) ClearTabStops(line int) {
	r.Clears++
	r.Host.ClearTabStops(line)
}

// Mutations returns the total number of tab stop mutation calls.
func (r *Recorder) Mutations() int {
	return r.Adds + r.Clears
}

// Reset zeroes the counters.
func (r *Recorder) Reset() {
	r.Adds, r.Clears = 0, 0
}
