// Package progress estimates completion and remaining time for a staged
// stock-analysis run.
//
// # Steps and Weights
//
// A run is a fixed sequence of [Step] values: five preliminary steps, one
// step per configured analyst, and a final result step. Each step carries a
// relative weight. The analyst block always weighs 0.8 in total, however many
// analysts there are. Weights are normalized when the fraction is computed,
// so they need not sum to 1.
//
// # Tracking
//
// A [Tracker] consumes either free-text status lines ([Tracker.Update]) or
// structured pipeline events ([Tracker.Apply]). Free text is classified into
// an event first, so the weighting logic never inspects strings. The step
// index only moves forward, with two exceptions that still never move it
// backward: a module-complete signal for the running analyst advances one
// step, and a terminal signal jumps to the last step.
//
//	tracker, err := progress.NewTracker(progress.Options{
//	    Analysts: []string{"market", "fundamentals"},
//	    Depth:    progress.DepthBasic,
//	    Provider: progress.ProviderDeepSeek,
//	    Logger:   logger,
//	})
//	if err != nil {
//	    return err
//	}
//	tracker.Update("🚀 开始股票分析")
//	tracker.Apply(event.NewAnalystEvent(event.KindAnalystComplete, "market", ""))
//
// # Remaining Time
//
// Until 20% of the weighted work is done the remaining time comes from a
// static estimate made at construction; after that it is extrapolated from
// the elapsed time.
//
// # Reporting
//
// A [Reporter] adapts the tracker to a display [Sink]. Its [Mode] is chosen
// once, at construction. In [ModeWeighted], callers that still pass an
// explicit "step N of 10" pair get the historical linear fraction.
//
// # Thread Safety
//
// Trackers and Reporters are not safe for concurrent use. Callers that
// receive updates from several goroutines must serialize them.
package progress
