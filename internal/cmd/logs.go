package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/stagewatch/internal/config"
	"github.com/Iron-Ham/stagewatch/internal/logging"
	"github.com/Iron-Ham/stagewatch/internal/watcher"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View stagewatch debug logs",
	Long: `View and filter the debug log that stagewatch writes while tracking runs.

The log is read from logging.dir (see 'stagewatch config'), or from --file.

Examples:
  # Show the last 50 entries
  stagewatch logs

  # Show every entry of the most recent run
  stagewatch logs --last -n 0

  # Follow the log as runs are tracked
  stagewatch logs -f

  # Only warnings and errors from the last hour
  stagewatch logs --level warn --since 1h

  # Export one run as CSV
  stagewatch logs --run 6f1c... --export run.csv --format csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsFile   string
	logsRunID  string
	logsLast   bool
	logsTail   int
	logsFollow bool
	logsLevel  string
	logsSince  string
	logsGrep   string
	logsExport string
	logsFormat string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFile, "file", "", "Log file to read (default: <logging.dir>/stagewatch.log)")
	logsCmd.Flags().StringVar(&logsRunID, "run", "", "Only show entries from this run ID")
	logsCmd.Flags().BoolVar(&logsLast, "last", false, "Only show entries from the most recent run")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write matching entries to this file instead of the terminal")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Export format: text, json or csv")
}

var (
	logTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	logAttrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	logLevelStyle = map[string]lipgloss.Style{
		logging.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		logging.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		logging.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		logging.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
	}
)

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry logging.LogEntry) string {
	var sb strings.Builder

	sb.WriteString(logTimeStyle.Render("[" + entry.Timestamp.Local().Format("15:04:05.000") + "]"))
	sb.WriteString(" ")

	level := strings.ToUpper(entry.Level)
	if style, ok := logLevelStyle[level]; ok {
		sb.WriteString(style.Render("[" + level + "]"))
	} else {
		sb.WriteString("[" + level + "]")
	}

	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	if entry.Step != "" {
		sb.WriteString(" ")
		sb.WriteString(logAttrStyle.Render("step_name=" + entry.Step))
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(logAttrStyle.Render(k + "="))
		sb.WriteString(fmt.Sprintf("%v", entry.Attrs[k]))
	}

	return sb.String()
}

func resolveLogPath() (string, error) {
	if logsFile != "" {
		return logsFile, nil
	}
	cfg := config.Get()
	dir := cfg.Logging.ResolveDir()
	if dir == "" {
		return "", fmt.Errorf("logging.dir is not set, so stagewatch logs to stderr\nSet it with 'stagewatch config set logging.dir <dir>' or pass --file")
	}
	return filepath.Join(dir, logging.LogFileName), nil
}

func buildLogFilter() (logging.LogFilter, error) {
	filter := logging.LogFilter{RunID: logsRunID}

	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}

	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return filter, fmt.Errorf("invalid duration format: %w", err)
		}
		filter.Since = time.Now().Add(-duration)
	}

	if logsGrep != "" {
		pattern, err := regexp.Compile(logsGrep)
		if err != nil {
			return filter, fmt.Errorf("invalid grep pattern: %w", err)
		}
		filter.Pattern = pattern
	}

	return filter, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	logPath, err := resolveLogPath()
	if err != nil {
		return err
	}

	filter, err := buildLogFilter()
	if err != nil {
		return err
	}

	if logsFollow {
		if logsExport != "" {
			return fmt.Errorf("--export cannot be combined with --follow")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return followLogs(ctx, cmd.OutOrStdout(), logPath, filter)
	}

	entries, err := logging.ReadEntries(logPath)
	if err != nil {
		return err
	}

	if logsLast && filter.RunID == "" {
		if ids := logging.RunIDs(entries); len(ids) > 0 {
			filter.RunID = ids[len(ids)-1]
		}
	}
	entries = logging.FilterEntries(entries, filter)

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsExport != "" {
		return exportLogs(cmd.OutOrStdout(), entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(out, formatLogEntry(entry))
	}
	return nil
}

func exportLogs(out io.Writer, entries []logging.LogEntry) error {
	file, err := os.Create(logsExport)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := logging.ExportEntries(file, entries, logsFormat); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Fprintf(out, "Exported %d entries to %s\n", len(entries), logsExport)
	return nil
}

// followLogs prints entries appended to the log until ctx is cancelled or
// the file is removed.
func followLogs(ctx context.Context, out io.Writer, logPath string, filter logging.LogFilter) error {
	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", logPath)

	follower := watcher.New(logPath, func(line string) error {
		entry, err := logging.ParseEntry(line)
		if err != nil {
			fmt.Fprintln(out, line)
			return nil
		}
		if filter.Matches(entry) {
			fmt.Fprintln(out, formatLogEntry(entry))
		}
		return nil
	}, watcher.Options{SkipExisting: true})

	err := follower.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
