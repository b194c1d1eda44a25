// Package event defines event types for decoupling the pipeline, the
// progress tracker and the display layer.
package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "pipeline.stage", "progress.updated")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypePipelineStage   = "pipeline.stage"
	TypeProgressUpdated = "progress.updated"
	TypeRunCompleted    = "run.completed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// RunEvent is implemented by events that belong to one tracked run.
// Subscriptions made with Bus.SubscribeRun only see RunEvents of their run.
type RunEvent interface {
	Event
	EventRunID() string
}

// -----------------------------------------------------------------------------
// Pipeline Events
// -----------------------------------------------------------------------------

// Kind identifies which stage of the analysis pipeline an event refers to.
type Kind int

const (
	KindUnknown         Kind = iota // No recognizable stage
	KindRunStarted                  // Start-of-run marker
	KindValidation                  // Symbol validation and data pre-fetch
	KindEnvironment                 // Environment and credential checks
	KindCostEstimate                // Cost estimation
	KindConfiguration               // Parameter and model configuration
	KindEngineInit                  // Analysis engine initialization
	KindAnalystActive               // An analyst is mentioned as working
	KindToolCall                    // The active analyst invoked a tool
	KindAnalystStarted              // An analyst module started
	KindAnalystComplete             // An analyst module finished
	KindSignal                      // Signal processing after the analysts
	KindCollating                   // Result organization
	KindCompleted                   // Generic completion
)

// String returns a human-readable name for a kind.
func (k Kind) String() string {
	switch k {
	case KindRunStarted:
		return "run_started"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	case KindCostEstimate:
		return "cost_estimate"
	case KindConfiguration:
		return "configuration"
	case KindEngineInit:
		return "engine_init"
	case KindAnalystActive:
		return "analyst_active"
	case KindToolCall:
		return "tool_call"
	case KindAnalystStarted:
		return "analyst_started"
	case KindAnalystComplete:
		return "analyst_complete"
	case KindSignal:
		return "signal"
	case KindCollating:
		return "collating"
	case KindCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// IsAnalystKind reports whether the kind names a specific analyst.
func (k Kind) IsAnalystKind() bool {
	return k == KindAnalystActive || k == KindAnalystStarted || k == KindAnalystComplete
}

// PipelineEvent is a structured signal emitted by the analysis pipeline, or
// derived from one of its free-text status lines.
type PipelineEvent struct {
	baseEvent
	Kind    Kind
	Analyst string // Analyst identifier for analyst kinds; empty otherwise
	Message string // Original status line, if any

	// ModuleComplete is set when the message reports that a pipeline module
	// finished, independent of which stage Kind resolved to.
	ModuleComplete bool
	// Terminal is set when the whole run reports completion.
	Terminal bool
}

// NewPipelineEvent creates a PipelineEvent of the given kind.
func NewPipelineEvent(kind Kind, message string) PipelineEvent {
	return PipelineEvent{
		baseEvent: newBaseEvent(TypePipelineStage),
		Kind:      kind,
		Message:   message,
	}
}

// NewAnalystEvent creates an analyst-scoped PipelineEvent. Completion kinds
// also carry the ModuleComplete flag.
func NewAnalystEvent(kind Kind, analyst, message string) PipelineEvent {
	e := NewPipelineEvent(kind, message)
	e.Analyst = analyst
	e.ModuleComplete = kind == KindAnalystComplete
	return e
}

// NewCompletedEvent creates the terminal event for a run.
func NewCompletedEvent(message string) PipelineEvent {
	e := NewPipelineEvent(KindCompleted, message)
	e.Terminal = true
	return e
}

// -----------------------------------------------------------------------------
// Progress Events
// -----------------------------------------------------------------------------

// ProgressUpdatedEvent carries a progress snapshot to display components.
type ProgressUpdatedEvent struct {
	baseEvent
	RunID       string
	Message     string
	StepName    string
	CurrentStep int
	TotalSteps  int
	Fraction    float64 // Completion in [0,1]
	Elapsed     time.Duration
	Remaining   time.Duration
	// Fixed is set for caller-supplied step counts; StepName is then empty.
	Fixed bool
}

// EventRunID implements RunEvent.
func (e ProgressUpdatedEvent) EventRunID() string { return e.RunID }

// NewProgressUpdatedEvent creates a ProgressUpdatedEvent.
func NewProgressUpdatedEvent(runID, message, stepName string, current, total int, fraction float64, elapsed, remaining time.Duration) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		baseEvent:   newBaseEvent(TypeProgressUpdated),
		RunID:       runID,
		Message:     message,
		StepName:    stepName,
		CurrentStep: current,
		TotalSteps:  total,
		Fraction:    fraction,
		Elapsed:     elapsed,
		Remaining:   remaining,
	}
}

// RunCompletedEvent is emitted once the tracker reaches its final step.
type RunCompletedEvent struct {
	baseEvent
	RunID   string
	Elapsed time.Duration
}

// EventRunID implements RunEvent.
func (e RunCompletedEvent) EventRunID() string { return e.RunID }

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(runID string, elapsed time.Duration) RunCompletedEvent {
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		RunID:     runID,
		Elapsed:   elapsed,
	}
}
