package progress

import (
	"errors"
	"math"
	"time"

	"github.com/Iron-Ham/stagewatch/internal/classify"
	"github.com/Iron-Ham/stagewatch/internal/event"
	"github.com/Iron-Ham/stagewatch/internal/logging"
	"github.com/Iron-Ham/stagewatch/internal/util"
)

var (
	// ErrNoAnalysts is returned when a tracker is built without analysts.
	ErrNoAnalysts = errors.New("progress: at least one analyst is required")
	// ErrEmptyAnalyst is returned when an analyst identifier is blank.
	ErrEmptyAnalyst = errors.New("progress: analyst identifier must not be empty")
)

// Indices of the fixed preliminary steps.
const (
	stepValidation = iota
	stepEnvironment
	stepCost
	stepConfiguration
	stepEngineInit
)

// Below this fraction the static estimate is trusted over extrapolation.
const earlyPhaseFraction = 0.2

// Options configures a Tracker.
type Options struct {
	// Analysts lists the configured analyst identifiers, in pipeline order.
	Analysts []string
	// Depth is the research depth (1-3). Other values use defaults.
	Depth int
	// Provider is the LLM provider tag, used only to scale the estimate.
	Provider string
	// Callback, if set, receives a snapshot after every update.
	Callback func(Snapshot)
	// Logger receives step transitions. Default: logging.NopLogger()
	Logger *logging.Logger
	// Clock returns the current time. Default: time.Now
	Clock func() time.Time
}

// HistoryEntry records one status message seen by the tracker.
type HistoryEntry struct {
	Message   string
	Timestamp time.Time
	Elapsed   time.Duration
}

// Snapshot is the derived progress view handed to displays.
type Snapshot struct {
	Message     string
	CurrentStep int
	TotalSteps  int
	Fraction    float64
	Elapsed     time.Duration
	Remaining   time.Duration
	// Fixed marks a caller-supplied step/total pair that bypassed the
	// tracker, so CurrentStep does not index the tracker's steps.
	Fixed bool
}

// Percent returns the fraction as a percentage.
func (s Snapshot) Percent() float64 {
	return s.Fraction * 100
}

// Tracker accumulates pipeline status updates into a monotonic step index,
// a weighted completion fraction, and a remaining-time estimate.
//
// A Tracker is not safe for concurrent use; callers serialize updates.
type Tracker struct {
	analysts []string
	depth    int
	provider string

	steps       []Step
	totalWeight float64
	estimated   float64 // seconds

	current int
	start   time.Time
	history []HistoryEntry

	classifier *classify.Classifier
	callback   func(Snapshot)
	logger     *logging.Logger
	now        func() time.Time
}

// NewTracker builds the step list and duration estimate for a run and
// starts its clock.
func NewTracker(opts Options) (*Tracker, error) {
	if len(opts.Analysts) == 0 {
		return nil, ErrNoAnalysts
	}
	for _, a := range opts.Analysts {
		if a == "" {
			return nil, ErrEmptyAnalyst
		}
	}

	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	analysts := append([]string(nil), opts.Analysts...)
	steps := BuildSteps(analysts)

	return &Tracker{
		analysts:    analysts,
		depth:       opts.Depth,
		provider:    opts.Provider,
		steps:       steps,
		totalWeight: totalWeight(steps),
		estimated:   EstimateSeconds(len(analysts), opts.Depth, opts.Provider),
		start:       opts.Clock(),
		classifier:  classify.New(analysts),
		callback:    opts.Callback,
		logger:      opts.Logger,
		now:         opts.Clock,
	}, nil
}

// UpdateOption customizes a single Update call.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	step       *int
	totalSteps *int
}

// WithStep sets the target step explicitly instead of classifying the
// message.
func WithStep(step int) UpdateOption {
	return func(c *updateConfig) { c.step = &step }
}

// WithTotalSteps records the caller's step count. The weighted model
// ignores it; see Reporter for the fixed-step convention.
func WithTotalSteps(total int) UpdateOption {
	return func(c *updateConfig) { c.totalSteps = &total }
}

func newUpdateConfig(opts []UpdateOption) updateConfig {
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Update records a free-text status message and advances the step index
// according to its classification. Unrecognized messages only add history.
func (t *Tracker) Update(message string, opts ...UpdateOption) {
	cfg := newUpdateConfig(opts)
	ev := t.classifier.Classify(message)

	if cfg.step != nil {
		t.process(message, ev, *cfg.step, true, true)
		return
	}

	target, ok := t.Resolve(ev)
	t.process(message, ev, target, ok, false)
}

// Apply records a structured pipeline event. It is the string-free
// counterpart of Update.
func (t *Tracker) Apply(ev event.PipelineEvent) {
	target, ok := t.Resolve(ev)
	t.process(ev.Message, ev, target, ok, false)
}

func (t *Tracker) process(message string, ev event.PipelineEvent, target int, ok, explicit bool) {
	elapsed := t.record(message)

	if ok {
		t.advance(ev, target, explicit)
	}
	if ev.Terminal {
		t.finish()
	}

	if t.callback != nil {
		t.callback(t.snapshotAt(message, elapsed))
	}
}

func (t *Tracker) record(message string) time.Duration {
	now := t.now()
	elapsed := now.Sub(t.start)
	t.history = append(t.history, HistoryEntry{
		Message:   message,
		Timestamp: now,
		Elapsed:   elapsed,
	})
	return elapsed
}

func (t *Tracker) advance(ev event.PipelineEvent, target int, explicit bool) {
	if target > len(t.steps) {
		target = len(t.steps)
	}
	last := t.lastIndex()

	switch {
	case ev.ModuleComplete && t.completesCurrent(ev, target, explicit):
		t.current = min(t.current+1, last)
		t.logger.Info("analyst finished, advancing",
			"step", t.current+1,
			"total", len(t.steps),
			"analyst", ev.Analyst)
	case target >= t.current:
		t.current = target
		t.logger.Debug("step advanced",
			"step", t.current+1,
			"total", len(t.steps),
			"kind", ev.Kind.String())
	default:
		t.logger.Debug("ignoring step regression",
			"detected", target+1,
			"current", t.current+1)
	}
}

// completesCurrent reports whether a module-complete signal refers to the
// step the tracker is on. For classified events the analyst named by the
// signal is authoritative; an explicit step must equal the current index.
func (t *Tracker) completesCurrent(ev event.PipelineEvent, target int, explicit bool) bool {
	if t.current > t.lastIndex() {
		return false
	}
	if target == t.current {
		return true
	}
	if explicit || ev.Analyst == "" {
		return false
	}
	return t.steps[t.current].Analyst == ev.Analyst
}

// finish pins the index to the last step. It is the one transition that may
// move backwards, from the one-past-last position an explicit step can reach.
func (t *Tracker) finish() {
	t.current = t.lastIndex()
	t.logger.Info("analysis complete", "step", t.current+1, "total", len(t.steps))
}

// Resolve maps a pipeline event to a step index. The boolean is false when
// the event does not identify a step.
func (t *Tracker) Resolve(ev event.PipelineEvent) (int, bool) {
	if ev.Kind.IsAnalystKind() {
		return t.analystStep(ev.Analyst)
	}

	switch ev.Kind {
	case event.KindRunStarted, event.KindValidation:
		return stepValidation, true
	case event.KindEnvironment:
		return stepEnvironment, true
	case event.KindCostEstimate:
		return stepCost, true
	case event.KindConfiguration:
		return stepConfiguration, true
	case event.KindEngineInit:
		return stepEngineInit, true
	case event.KindToolCall:
		// Tool calls only confirm the analyst already running.
		if t.current < len(t.steps) && t.steps[t.current].IsAnalyst() {
			return t.current, true
		}
		return 0, false
	case event.KindSignal, event.KindCollating, event.KindCompleted:
		return t.lastIndex(), true
	}
	return 0, false
}

// analystStep returns the step for an analyst, preferring the first match at
// or after the current step so repeated identifiers resolve forward.
func (t *Tracker) analystStep(analyst string) (int, bool) {
	if analyst == "" {
		return 0, false
	}
	first := -1
	for i, s := range t.steps {
		if s.Analyst != analyst {
			continue
		}
		if i >= t.current {
			return i, true
		}
		if first < 0 {
			first = i
		}
	}
	if first >= 0 {
		return first, true
	}
	return 0, false
}

func (t *Tracker) lastIndex() int {
	return len(t.steps) - 1
}

// Fraction returns the weighted completion in [0,1]. Once the last step is
// reached it is 1.
func (t *Tracker) Fraction() float64 {
	if t.current >= t.lastIndex() {
		return 1.0
	}
	if t.totalWeight <= 0 {
		return 0
	}
	done := totalWeight(t.steps[:t.current])
	return math.Min(math.Max(done/t.totalWeight, 0), 1.0)
}

// EstimateRemaining predicts the time left given a completion fraction and
// the elapsed time. Early in a run the static estimate dominates, since
// extrapolating from little progress is unreliable.
func (t *Tracker) EstimateRemaining(fraction float64, elapsed time.Duration) time.Duration {
	el := elapsed.Seconds()
	switch {
	case fraction <= 0:
		return seconds(t.estimated)
	case fraction > earlyPhaseFraction:
		return seconds(math.Max(el/fraction-el, 0))
	default:
		return seconds(math.Max(t.estimated-el, 0))
	}
}

// Snapshot returns the current progress view labelled with message.
func (t *Tracker) Snapshot(message string) Snapshot {
	return t.snapshotAt(message, t.Elapsed())
}

func (t *Tracker) snapshotAt(message string, elapsed time.Duration) Snapshot {
	fraction := t.Fraction()
	return Snapshot{
		Message:     message,
		CurrentStep: t.current,
		TotalSteps:  len(t.steps),
		Fraction:    fraction,
		Elapsed:     elapsed,
		Remaining:   t.EstimateRemaining(fraction, elapsed),
	}
}

// Steps returns a copy of the step list.
func (t *Tracker) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// CurrentStep returns the current step index.
func (t *Tracker) CurrentStep() int {
	return t.current
}

// TotalSteps returns the number of steps.
func (t *Tracker) TotalSteps() int {
	return len(t.steps)
}

// CurrentStepInfo returns the current step, or a "Completed" placeholder
// once the tracker is past the last step.
func (t *Tracker) CurrentStepInfo() Step {
	if t.current < len(t.steps) {
		return t.steps[t.current]
	}
	return completedStep
}

// Done reports whether the final step has been reached.
func (t *Tracker) Done() bool {
	return t.current >= t.lastIndex()
}

// ProgressPercentage returns the weighted completion as 0-100.
func (t *Tracker) ProgressPercentage() float64 {
	return t.Fraction() * 100
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// EstimatedTotal returns the static duration estimate made at construction.
func (t *Tracker) EstimatedTotal() time.Duration {
	return seconds(t.estimated)
}

// EstimatedSeconds returns the static duration estimate in seconds.
func (t *Tracker) EstimatedSeconds() float64 {
	return t.estimated
}

// History returns a copy of every status message recorded so far.
func (t *Tracker) History() []HistoryEntry {
	return append([]HistoryEntry(nil), t.history...)
}

// Analysts returns the configured analyst identifiers.
func (t *Tracker) Analysts() []string {
	return append([]string(nil), t.analysts...)
}

// Depth returns the configured research depth.
func (t *Tracker) Depth() int {
	return t.depth
}

// Provider returns the configured provider tag.
func (t *Tracker) Provider() string {
	return t.provider
}

// StartedAt returns when the tracker's clock started.
func (t *Tracker) StartedAt() time.Time {
	return t.start
}

// FormatTime renders a duration for display.
func (t *Tracker) FormatTime(d time.Duration) string {
	return util.FormatDuration(d)
}
