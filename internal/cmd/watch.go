package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/stagewatch/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <log>",
	Short: "Follow a running analysis's status log",
	Long: `Follow a pipeline status log as it is written and show live progress.

Watching stops when the run completes, when the log file is removed, or on
Ctrl+C.

Examples:
  # Follow a run started elsewhere
  stagewatch watch /tmp/analysis.log -a market,fundamentals,technical

  # Only show lines written from now on
  stagewatch watch analysis.log --skip-existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchTracker      trackerFlags
	watchDisplay      displayFlags
	watchSkipExisting bool
)

func init() {
	watchTracker.register(watchCmd)
	watchDisplay.register(watchCmd)
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", false, "Ignore lines already in the log")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &watchTracker, &watchDisplay)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := newRunSession(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	path := args[0]
	follow := func(ctx context.Context, handle watcher.LineHandler) error {
		return watcher.New(path, handle, watcher.Options{
			SkipExisting: watchSkipExisting,
			Logger:       session.logger,
		}).Run(ctx)
	}

	return session.run(ctx, follow, watchDisplay.summaryPath)
}
