package display

import (
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/stagewatch/internal/event"
	"github.com/Iron-Ham/stagewatch/internal/logging"
	"github.com/Iron-Ham/stagewatch/internal/progress"
)

// BusSink publishes every snapshot on an event bus so that several displays
// (and the run log) can follow one tracker. It implements progress.Sink.
type BusSink struct {
	bus   *event.Bus
	runID string
	steps []progress.Step
}

// NewBusSink creates a sink for one run. steps is the tracker's step list,
// used to name the running step; a fresh run ID is generated.
func NewBusSink(bus *event.Bus, steps []progress.Step) *BusSink {
	return &BusSink{
		bus:   bus,
		runID: uuid.NewString(),
		steps: steps,
	}
}

// RunID returns the identifier stamped on every published event.
func (s *BusSink) RunID() string {
	return s.runID
}

// Render implements progress.Sink.
func (s *BusSink) Render(snap progress.Snapshot) {
	ev := event.NewProgressUpdatedEvent(
		s.runID,
		snap.Message,
		s.StepName(snap),
		snap.CurrentStep,
		snap.TotalSteps,
		snap.Fraction,
		snap.Elapsed,
		snap.Remaining,
	)
	ev.Fixed = snap.Fixed
	s.bus.Publish(ev)
}

// Complete publishes the run-completed event.
func (s *BusSink) Complete(elapsed time.Duration) {
	s.bus.Publish(event.NewRunCompletedEvent(s.runID, elapsed))
}

// StepName returns the name of the snapshot's step. Fixed-step snapshots
// number the caller's own steps and have no name.
func (s *BusSink) StepName(snap progress.Snapshot) string {
	if snap.Fixed {
		return ""
	}
	if snap.CurrentStep >= 0 && snap.CurrentStep < len(s.steps) {
		return s.steps[snap.CurrentStep].Name
	}
	return "Completed"
}

// Subscribe renders progress events for runID into sink. It returns the
// subscription ID for Bus.Unsubscribe.
func Subscribe(bus *event.Bus, runID string, sink progress.Sink) string {
	return bus.SubscribeRun(runID, event.TypeProgressUpdated, func(e event.Event) {
		ev, ok := e.(event.ProgressUpdatedEvent)
		if !ok {
			return
		}
		sink.Render(progress.Snapshot{
			Message:     ev.Message,
			CurrentStep: ev.CurrentStep,
			TotalSteps:  ev.TotalSteps,
			Fraction:    ev.Fraction,
			Elapsed:     ev.Elapsed,
			Remaining:   ev.Remaining,
			Fixed:       ev.Fixed,
		})
	})
}

// LogProgress records every progress and completion event at debug level.
// It returns the subscription ID.
func LogProgress(bus *event.Bus, logger *logging.Logger) string {
	return bus.SubscribeAll(func(e event.Event) {
		switch ev := e.(type) {
		case event.ProgressUpdatedEvent:
			logger.WithRun(ev.RunID).WithStep(ev.StepName).Debug("progress updated",
				"current", ev.CurrentStep+1,
				"total", ev.TotalSteps,
				"percent", ev.Fraction*100,
				"remaining_seconds", ev.Remaining.Seconds())
		case event.RunCompletedEvent:
			logger.WithRun(ev.RunID).Info("run completed",
				"elapsed_seconds", ev.Elapsed.Seconds())
		}
	})
}
