package cmd

import (
	"fmt"

	"github.com/Iron-Ham/stagewatch/internal/config"
	"github.com/spf13/cobra"
)

// trackerFlags are the run-description flags shared by every command. Unset
// flags fall back to the tracker section of the config.
type trackerFlags struct {
	analysts []string
	depth    int
	provider string
}

func (f *trackerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.analysts, "analysts", "a", nil, "Analyst identifiers in pipeline order (default from config)")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", 0, "Research depth: 1 fast, 2 basic, 3 standard (default from config)")
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "LLM provider tag (default from config)")
}

func (f *trackerFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("analysts") {
		cfg.Tracker.Analysts = f.analysts
	}
	if cmd.Flags().Changed("depth") {
		cfg.Tracker.ResearchDepth = f.depth
	}
	if cmd.Flags().Changed("provider") {
		cfg.Tracker.Provider = f.provider
	}
}

// displayFlags control how a run is rendered and recorded.
type displayFlags struct {
	legacy      bool
	tui         bool
	summaryPath string
}

func (f *displayFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.legacy, "legacy", false, "Fixed-step display without a remaining-time estimate")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "Interactive display when stdout is a terminal")
	cmd.Flags().StringVar(&f.summaryPath, "summary", "", "Write a YAML run summary to this file")
}

func (f *displayFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("legacy") {
		cfg.Tracker.LegacyMode = f.legacy
	}
	if cmd.Flags().Changed("tui") {
		cfg.Display.TUI = f.tui
	}
}

// loadConfig reads the configuration and lets command flags override it.
// The merged result is validated again since flags bypass the config file.
func loadConfig(cmd *cobra.Command, tf *trackerFlags, df *displayFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tf.apply(cmd, cfg)
	if df != nil {
		df.apply(cmd, cfg)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	return cfg, nil
}
