// Package logging provides structured logging for stagewatch runs.
//
// This package wraps Go's log/slog to provide JSON-formatted logs. Loggers
// are injected into the components that need them; there is no package-level
// logger, so tests substitute a capturing sink with [New] and a buffer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLogger := logger.WithRun(runID)
//	runLogger.Info("step advanced", "step", 3, "total", 8)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"step advanced","run_id":"...","step":3,"total":8}
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.New(&buf, logging.LevelDebug)
//
// or [NopLogger] to discard everything.
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  dir: ~/.local/state/stagewatch
//	  max_size_mb: 10   # rotate stagewatch.log past this size
//	  max_backups: 3    # keep stagewatch.log.1 .. .3
//	  compress: false   # gzip rotated files
//
// # Reading Logs Back
//
// [ReadEntries] parses a log file into [LogEntry] values, [FilterEntries]
// narrows them by run, level, time or message, and [ExportEntries] writes
// them as JSON, text or CSV.
package logging
