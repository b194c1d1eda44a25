package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/stagewatch/internal/watcher"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <log|->",
	Short: "Replay a finished run's status log",
	Long: `Feed every line of a pipeline status log through the progress tracker
and render the resulting progress. Use "-" to read from stdin.

Lines of the form "[step/total] message" report an explicit step count and
use the fixed-step display.

Examples:
  # Replay a log with the analysts from the config file
  stagewatch replay analysis.log

  # Pipe a run through and keep a summary
  cat analysis.log | stagewatch replay - -a market,risk --summary run.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayTracker trackerFlags
	replayDisplay displayFlags
)

func init() {
	replayTracker.register(replayCmd)
	replayDisplay.register(replayCmd)
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &replayTracker, &replayDisplay)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeIn()

	session, err := newRunSession(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	return session.run(cmd.Context(), scanFeed(in), replayDisplay.summaryPath)
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// scanFeed reads r to the end, checking for cancellation between lines.
func scanFeed(r io.Reader) feed {
	return func(ctx context.Context, handle watcher.LineHandler) error {
		return watcher.Scan(r, func(line string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return handle(line)
		})
	}
}
