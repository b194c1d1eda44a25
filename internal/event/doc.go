// Package event provides a pub-sub event bus and the event types exchanged
// between the analysis pipeline, the progress tracker, and displays.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Pipeline:
//   - [PipelineEvent]: A stage signal ([Kind]) emitted by the pipeline or
//     derived from one of its log lines
//
// Progress:
//   - [ProgressUpdatedEvent]: A progress snapshot for displays
//   - [RunCompletedEvent]: Emitted once when the final step is reached
//
// Both progress events implement [RunEvent]; [Bus.SubscribeRun] delivers only
// the events of one run, so several runs can share a bus.
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously and protected against panics; a panicking handler is logged
// and does not prevent other handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	id := bus.SubscribeRun(runID, event.TypeProgressUpdated, func(e event.Event) {
//	    update := e.(event.ProgressUpdatedEvent)
//	    fmt.Printf("%.0f%%\n", update.Fraction*100)
//	})
//
//	bus.Publish(event.NewProgressUpdatedEvent(runID, msg, "Cost Estimation", 2, 8, 0.07, elapsed, remaining))
//	bus.Unsubscribe(id)
package event
