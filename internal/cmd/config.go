package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/stagewatch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify stagewatch configuration",
	Long: `View or modify stagewatch configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  stagewatch config set tracker.provider deepseek
  stagewatch config set tracker.analysts market,risk,technical
  stagewatch config set display.bar_width 60

Valid keys:
  tracker.analysts        - Comma-separated analyst identifiers
  tracker.research_depth  - 1 (fast), 2 (basic) or 3 (standard); others use defaults
  tracker.provider        - LLM provider (dashscope, deepseek, google)
  tracker.legacy_mode     - Fixed-step display without remaining time (true/false)
  display.bar_width       - Progress bar width in columns
  display.status_width    - Status line width, 0 for no limit
  display.tui             - Use the interactive display on a terminal (true/false)
  logging.enabled         - Write a debug log (true/false)
  logging.level           - debug, info, warn or error
  logging.dir             - Directory for stagewatch.log
  logging.max_size_mb     - Rotate the log past this size, 0 to never rotate
  logging.max_backups     - Number of rotated log files to keep
  logging.compress        - Gzip rotated log files (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/stagewatch/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// settableKeys maps each key accepted by "config set" to its value kind.
var settableKeys = map[string]string{
	"tracker.analysts":       "list",
	"tracker.research_depth": "int",
	"tracker.provider":       "string",
	"tracker.legacy_mode":    "bool",
	"display.bar_width":      "int",
	"display.status_width":   "int",
	"display.tui":            "bool",
	"logging.enabled":        "bool",
	"logging.level":          "string",
	"logging.dir":            "string",
	"logging.max_size_mb":    "int",
	"logging.max_backups":    "int",
	"logging.compress":       "bool",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "tracker:")
	fmt.Fprintf(out, "  analysts: %s\n", strings.Join(cfg.Tracker.Analysts, ", "))
	fmt.Fprintf(out, "  research_depth: %d\n", cfg.Tracker.ResearchDepth)
	fmt.Fprintf(out, "  provider: %s\n", cfg.Tracker.Provider)
	fmt.Fprintf(out, "  legacy_mode: %v\n", cfg.Tracker.LegacyMode)

	fmt.Fprintln(out, "display:")
	fmt.Fprintf(out, "  bar_width: %d\n", cfg.Display.BarWidth)
	fmt.Fprintf(out, "  status_width: %d\n", cfg.Display.StatusWidth)
	fmt.Fprintf(out, "  tui: %v\n", cfg.Display.TUI)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	dir := cfg.Logging.Dir
	if dir == "" {
		dir = "(stderr)"
	}
	fmt.Fprintf(out, "  dir: %s\n", dir)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)
	fmt.Fprintf(out, "  compress: %v\n", cfg.Logging.Compress)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'stagewatch config set --help' to see valid keys", key)
	}

	typedValue, err := parseConfigValue(key, keyType, value)
	if err != nil {
		return err
	}

	previous := viper.Get(key)
	viper.Set(key, typedValue)
	cfg, err := config.Load()
	if err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

func parseConfigValue(key, keyType, value string) (any, error) {
	switch keyType {
	case "list":
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("invalid value for %s: expected at least one item", key)
		}
		return items, nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		return value, nil
	}
}

const defaultConfigContent = `# stagewatch configuration

# The analysis run being tracked
tracker:
  # Analyst identifiers in pipeline order
  analysts:
    - market
    - fundamentals
  # 1 (fast), 2 (basic) or 3 (standard)
  research_depth: 2
  # LLM provider; scales the duration estimate
  # Known: dashscope, deepseek, google
  provider: dashscope
  # Fixed-step display without remaining time
  legacy_mode: false

# Progress rendering
display:
  # Progress bar width in columns (10-200)
  bar_width: 40
  # Truncate the status line to this many columns (0 = no limit)
  status_width: 80
  # Use the interactive display when stdout is a terminal
  tui: false

# Debug logging
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Directory for stagewatch.log; empty logs to stderr
  dir: ""
  # Rotate stagewatch.log past this many megabytes (0 = never)
  max_size_mb: 10
  # Rotated files to keep
  max_backups: 3
  # Gzip rotated files
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'stagewatch config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to describe the runs you track.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/stagewatch/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: STAGEWATCH_* (e.g., STAGEWATCH_TRACKER_PROVIDER)")

	return nil
}
