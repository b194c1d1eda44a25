// Package summary records the outcome of a tracked run as YAML.
package summary

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

// Summary is the persisted record of one tracked run.
type Summary struct {
	RunID            string    `yaml:"run_id"`
	Analysts         []string  `yaml:"analysts"`
	Depth            int       `yaml:"depth"`
	Provider         string    `yaml:"provider"`
	Mode             string    `yaml:"mode"`
	StartedAt        time.Time `yaml:"started_at"`
	EstimatedSeconds float64   `yaml:"estimated_seconds"`
	ElapsedSeconds   float64   `yaml:"elapsed_seconds"`
	FinalStep        int       `yaml:"final_step"`
	FinalStepName    string    `yaml:"final_step_name"`
	TotalSteps       int       `yaml:"total_steps"`
	Percent          float64   `yaml:"percent"`
	Completed        bool      `yaml:"completed"`
	History          []Entry   `yaml:"history"`
}

// Entry is one status message from the run history.
type Entry struct {
	Message        string    `yaml:"message"`
	ElapsedSeconds float64   `yaml:"elapsed_seconds"`
	At             time.Time `yaml:"at"`
}

// FromTracker captures the tracker's current state.
func FromTracker(runID string, mode progress.Mode, t *progress.Tracker) Summary {
	history := t.History()
	entries := make([]Entry, len(history))
	for i, h := range history {
		entries[i] = Entry{
			Message:        h.Message,
			ElapsedSeconds: round(h.Elapsed.Seconds()),
			At:             h.Timestamp,
		}
	}

	return Summary{
		RunID:            runID,
		Analysts:         t.Analysts(),
		Depth:            t.Depth(),
		Provider:         t.Provider(),
		Mode:             mode.String(),
		StartedAt:        t.StartedAt(),
		EstimatedSeconds: round(t.EstimatedSeconds()),
		ElapsedSeconds:   round(t.Elapsed().Seconds()),
		FinalStep:        t.CurrentStep(),
		FinalStepName:    t.CurrentStepInfo().Name,
		TotalSteps:       t.TotalSteps(),
		Percent:          round(t.ProgressPercentage()),
		Completed:        t.Done(),
		History:          entries,
	}
}

// Write encodes the summary as YAML.
func (s Summary) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the summary to path, replacing any existing file.
func (s Summary) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close summary: %w", cerr)
		}
	}()
	return s.Write(f)
}

// Read decodes a summary previously written with Write.
func Read(r io.Reader) (Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("decode summary: %w", err)
	}
	return s, nil
}

// round keeps two decimals so summaries stay readable.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
