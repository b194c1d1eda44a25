package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "display.bar_width")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Bar width bounds. These must match the limits the display package
// enforces (defined separately to avoid an import cycle).
const (
	MinBarWidth = 10
	MaxBarWidth = 200
)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTracker()...)
	errors = append(errors, c.validateDisplay()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// Warnings returns non-fatal observations about the configuration. An
// unrecognized research depth or provider is estimated with the defaults.
func (c *Config) Warnings() []string {
	var warnings []string

	if !slices.Contains(progress.KnownDepths(), c.Tracker.ResearchDepth) {
		warnings = append(warnings, fmt.Sprintf(
			"tracker.research_depth %d is not 1 (fast), 2 (basic) or 3 (standard); estimates use the default per-analyst time",
			c.Tracker.ResearchDepth))
	}

	if c.Tracker.Provider != "" && !slices.Contains(progress.KnownProviders(), c.Tracker.Provider) {
		warnings = append(warnings, fmt.Sprintf(
			"tracker.provider %q is not calibrated; estimates use a neutral multiplier (known: %s)",
			c.Tracker.Provider, strings.Join(progress.KnownProviders(), ", ")))
	}

	return warnings
}

// validateTracker validates the TrackerConfig
func (c *Config) validateTracker() []ValidationError {
	var errors []ValidationError

	if len(c.Tracker.Analysts) == 0 {
		errors = append(errors, ValidationError{
			Field:   "tracker.analysts",
			Value:   c.Tracker.Analysts,
			Message: "at least one analyst is required",
		})
	}

	for i, analyst := range c.Tracker.Analysts {
		if strings.TrimSpace(analyst) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("tracker.analysts[%d]", i),
				Value:   analyst,
				Message: "analyst identifier must not be empty",
			})
		}
	}

	if strings.TrimSpace(c.Tracker.Provider) == "" {
		errors = append(errors, ValidationError{
			Field:   "tracker.provider",
			Value:   c.Tracker.Provider,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.BarWidth < MinBarWidth {
		errors = append(errors, ValidationError{
			Field:   "display.bar_width",
			Value:   c.Display.BarWidth,
			Message: fmt.Sprintf("must be at least %d", MinBarWidth),
		})
	}
	if c.Display.BarWidth > MaxBarWidth {
		errors = append(errors, ValidationError{
			Field:   "display.bar_width",
			Value:   c.Display.BarWidth,
			Message: fmt.Sprintf("exceeds maximum of %d", MaxBarWidth),
		})
	}

	if c.Display.StatusWidth < 0 {
		errors = append(errors, ValidationError{
			Field:   "display.status_width",
			Value:   c.Display.StatusWidth,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Dir != "" {
		// Check for null bytes which are invalid in paths
		if strings.ContainsRune(c.Logging.Dir, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "logging.dir",
				Value:   c.Logging.Dir,
				Message: "path contains invalid null character",
			})
		}

		const maxPathLength = 4096
		if len(c.Logging.Dir) > maxPathLength {
			errors = append(errors, ValidationError{
				Field:   "logging.dir",
				Value:   c.Logging.Dir,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
			})
		}
	}

	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
