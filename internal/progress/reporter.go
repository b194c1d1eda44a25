package progress

import (
	"math"
	"time"
)

// legacyTotalSteps is the historical fixed step count. Callers that still
// report "step N of 10" get the old linear fraction.
const legacyTotalSteps = 10

// Mode selects how a Reporter talks to its display.
type Mode int

const (
	// ModeWeighted feeds the tracker and reports remaining time.
	ModeWeighted Mode = iota
	// ModeLegacy drives a display without a remaining-time readout and
	// honours explicit step/total pairs of any size.
	ModeLegacy
)

// String returns a human-readable name for a mode.
func (m Mode) String() string {
	switch m {
	case ModeWeighted:
		return "weighted"
	case ModeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Sink receives snapshots for display.
type Sink interface {
	Render(Snapshot)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Snapshot)

// Render calls f(s).
func (f SinkFunc) Render(s Snapshot) { f(s) }

// Reporter is the callback handed to the pipeline. It routes each status
// update either through the tracker or, for fixed-step callers, straight to
// the display.
type Reporter struct {
	tracker *Tracker
	sink    Sink
	mode    Mode
}

// NewReporter creates a Reporter. The mode is fixed for its lifetime.
func NewReporter(tracker *Tracker, sink Sink, mode Mode) *Reporter {
	return &Reporter{tracker: tracker, sink: sink, mode: mode}
}

// Mode returns the reporter's mode.
func (r *Reporter) Mode() Mode {
	return r.mode
}

// Tracker returns the underlying tracker.
func (r *Reporter) Tracker() *Tracker {
	return r.tracker
}

// Report handles one status update from the pipeline.
func (r *Reporter) Report(message string, opts ...UpdateOption) {
	cfg := newUpdateConfig(opts)

	if r.usesFixedSteps(cfg) {
		r.reportFixed(message, *cfg.step, *cfg.totalSteps)
		return
	}

	r.tracker.Update(message, opts...)
	snap := r.tracker.Snapshot(message)
	if r.mode == ModeLegacy {
		snap.Remaining = 0
	}
	r.sink.Render(snap)
}

func (r *Reporter) usesFixedSteps(cfg updateConfig) bool {
	if cfg.step == nil || cfg.totalSteps == nil {
		return false
	}
	if r.mode == ModeLegacy {
		return true
	}
	return *cfg.totalSteps == legacyTotalSteps
}

// reportFixed renders a linear step/total fraction without touching the
// tracker's step index.
func (r *Reporter) reportFixed(message string, step, total int) {
	elapsed := r.tracker.Elapsed()
	fraction := FixedFraction(step, total)

	var remaining time.Duration
	if r.mode == ModeWeighted {
		remaining = r.tracker.EstimateRemaining(fraction, elapsed)
	}

	r.sink.Render(Snapshot{
		Message:     message,
		CurrentStep: step,
		TotalSteps:  total,
		Fraction:    fraction,
		Elapsed:     elapsed,
		Remaining:   remaining,
		Fixed:       true,
	})
}

// FixedFraction is the linear progress of step out of total steps, where the
// last step (total-1) is complete.
func FixedFraction(step, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	f := float64(step) / float64(max(total-1, 1))
	return math.Min(math.Max(f, 0), 1.0)
}
