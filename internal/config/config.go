package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

// Config represents the complete stagewatch configuration
type Config struct {
	Tracker TrackerConfig `mapstructure:"tracker"`
	Display DisplayConfig `mapstructure:"display"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TrackerConfig describes the analysis run being tracked
type TrackerConfig struct {
	// Analysts lists the analyst identifiers in pipeline order
	// (default: ["market", "fundamentals"])
	Analysts []string `mapstructure:"analysts"`
	// ResearchDepth is 1 (fast), 2 (basic) or 3 (standard) (default: 2).
	// Other values are accepted and estimated with the defaults.
	ResearchDepth int `mapstructure:"research_depth"`
	// Provider is the LLM provider tag used to scale the duration estimate
	// Known: "dashscope", "deepseek", "google" (default: "dashscope")
	Provider string `mapstructure:"provider"`
	// LegacyMode drives the display with fixed step counts and no remaining time
	LegacyMode bool `mapstructure:"legacy_mode"`
}

// DisplayConfig controls progress rendering
type DisplayConfig struct {
	// BarWidth is the width of the progress bar in columns (default: 40, min: 10, max: 200)
	BarWidth int `mapstructure:"bar_width"`
	// StatusWidth truncates the status line to this many columns (default: 80, 0 = no limit)
	StatusWidth int `mapstructure:"status_width"`
	// TUI renders with the interactive terminal UI when stdout is a terminal
	TUI bool `mapstructure:"tui"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for stagewatch.log. Empty logs to stderr.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the log file past this size in megabytes (default: 10, 0 = never)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Analysts:      []string{"market", "fundamentals"},
			ResearchDepth: progress.DepthBasic,
			Provider:      progress.ProviderDashScope,
			LegacyMode:    false,
		},
		Display: DisplayConfig{
			BarWidth:    40,
			StatusWidth: 80,
			TUI:         false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Tracker defaults
	viper.SetDefault("tracker.analysts", defaults.Tracker.Analysts)
	viper.SetDefault("tracker.research_depth", defaults.Tracker.ResearchDepth)
	viper.SetDefault("tracker.provider", defaults.Tracker.Provider)
	viper.SetDefault("tracker.legacy_mode", defaults.Tracker.LegacyMode)

	// Display defaults
	viper.SetDefault("display.bar_width", defaults.Display.BarWidth)
	viper.SetDefault("display.status_width", defaults.Display.StatusWidth)
	viper.SetDefault("display.tui", defaults.Display.TUI)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stagewatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stagewatch"
	}
	return filepath.Join(home, ".config", "stagewatch")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ResolveDir returns the log directory with ~ expanded. An empty Dir stays
// empty, meaning stderr.
func (l *LoggingConfig) ResolveDir() string {
	path := l.Dir
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}
