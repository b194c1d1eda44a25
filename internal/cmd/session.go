package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/Iron-Ham/stagewatch/internal/config"
	"github.com/Iron-Ham/stagewatch/internal/display"
	"github.com/Iron-Ham/stagewatch/internal/event"
	"github.com/Iron-Ham/stagewatch/internal/logging"
	"github.com/Iron-Ham/stagewatch/internal/progress"
	"github.com/Iron-Ham/stagewatch/internal/summary"
	"github.com/Iron-Ham/stagewatch/internal/watcher"
)

// runSession wires one tracked run: tracker, reporter, event bus, and the
// display subscribed to it. Every method that touches the tracker must be
// called from the same goroutine.
type runSession struct {
	cfg    *config.Config
	logger *logging.Logger
	out    io.Writer

	bus      *event.Bus
	sink     *display.BusSink
	tracker  *progress.Tracker
	reporter *progress.Reporter
	mode     progress.Mode

	// subs are this run's bus subscriptions, released by finish.
	subs []string
}

func newRunSession(cfg *config.Config, out io.Writer) (*runSession, error) {
	base, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus(base)
	sink := display.NewBusSink(bus, progress.BuildSteps(cfg.Tracker.Analysts))
	logger := base.WithRun(sink.RunID())

	tracker, err := progress.NewTracker(progress.Options{
		Analysts: cfg.Tracker.Analysts,
		Depth:    cfg.Tracker.ResearchDepth,
		Provider: cfg.Tracker.Provider,
		Logger:   logger,
	})
	if err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	mode := progress.ModeWeighted
	if cfg.Tracker.LegacyMode {
		mode = progress.ModeLegacy
	}

	logSub := display.LogProgress(bus, base)
	logger.Info("run started",
		"analysts", cfg.Tracker.Analysts,
		"depth", cfg.Tracker.ResearchDepth,
		"provider", cfg.Tracker.Provider,
		"mode", mode.String(),
		"estimated_seconds", tracker.EstimatedSeconds())

	return &runSession{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		bus:      bus,
		sink:     sink,
		tracker:  tracker,
		reporter: progress.NewReporter(tracker, sink, mode),
		mode:     mode,
		subs:     []string{logSub},
	}, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return logger, nil
}

// handleLine feeds one status line to the reporter. It returns
// watcher.ErrStop once the run is complete.
func (s *runSession) handleLine(line string) error {
	message, opts := parseLine(line)
	s.reporter.Report(message, opts...)

	if s.tracker.Done() {
		return watcher.ErrStop
	}
	return nil
}

// finish publishes completion, writes the summary, and closes the log.
func (s *runSession) finish(summaryPath string) error {
	defer func() { _ = s.logger.Close() }()
	defer s.unsubscribe()

	elapsed := s.tracker.Elapsed()
	if s.tracker.Done() {
		s.sink.Complete(elapsed)
	} else {
		s.logger.Warn("input ended before the run completed",
			"step", s.tracker.CurrentStep()+1,
			"total", s.tracker.TotalSteps())
	}

	if summaryPath == "" {
		return nil
	}
	if err := summary.FromTracker(s.sink.RunID(), s.mode, s.tracker).WriteFile(summaryPath); err != nil {
		return err
	}
	s.logger.Info("summary written", "path", summaryPath)
	return nil
}

// unsubscribe detaches the run's displays and log subscriber from the bus.
func (s *runSession) unsubscribe() {
	for _, id := range s.subs {
		s.bus.Unsubscribe(id)
	}
	s.subs = nil
}

// feed produces status lines by calling handle until input ends.
type feed func(ctx context.Context, handle watcher.LineHandler) error

// run drives a feed through the session using the configured display.
func (s *runSession) run(ctx context.Context, source feed, summaryPath string) error {
	var err error
	if s.cfg.Display.TUI && isTerminal(s.out) {
		err = s.runInteractive(ctx, source)
	} else {
		err = s.runPlain(ctx, source)
	}

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if ferr := s.finish(summaryPath); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func (s *runSession) runPlain(ctx context.Context, source feed) error {
	renderer := display.NewRenderer(s.out, display.RendererOptions{
		BarWidth:    s.cfg.Display.BarWidth,
		StatusWidth: s.cfg.Display.StatusWidth,
	})
	runID := s.sink.RunID()
	s.subs = append(s.subs,
		display.Subscribe(s.bus, runID, renderer),
		s.bus.SubscribeRun(runID, event.TypeRunCompleted, func(e event.Event) {
			if ev, ok := e.(event.RunCompletedEvent); ok {
				renderer.Finish(ev.Elapsed)
			}
		}),
	)

	return source(ctx, s.handleLine)
}

func (s *runSession) runInteractive(ctx context.Context, source feed) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(
		display.NewModel("stagewatch", s.cfg.Display.BarWidth),
		tea.WithOutput(s.out),
		tea.WithContext(ctx),
	)
	s.subs = append(s.subs,
		display.Subscribe(s.bus, s.sink.RunID(), display.NewProgramSink(program, s.sink.StepName)))

	done := make(chan error, 1)
	go func() {
		err := source(ctx, s.handleLine)
		if s.tracker.Done() {
			program.Send(display.DoneMsg{Elapsed: s.tracker.Elapsed()})
		} else {
			program.Quit()
		}
		done <- err
	}()

	_, perr := program.Run()
	// The user may quit before input ends; stop the feed and wait for it so
	// the tracker is not touched concurrently.
	cancel()
	err := <-done

	if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
		return fmt.Errorf("display: %w", perr)
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
