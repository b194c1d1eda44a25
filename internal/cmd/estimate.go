package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/stagewatch/internal/progress"
	"github.com/Iron-Ham/stagewatch/internal/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show the step plan and duration estimate for a run",
	Long: `Print the weighted steps a run will go through and how long it is
expected to take, before starting the analysis.

Examples:
  # Two analysts at basic depth on DeepSeek
  stagewatch estimate --analysts market,fundamentals --depth 2 --provider deepseek

  # Machine-readable output
  stagewatch estimate -a market,technical,risk --json`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

var (
	estimateFlags trackerFlags
	estimateJSON  bool
)

func init() {
	estimateFlags.register(estimateCmd)
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "Output the estimate as JSON")
	rootCmd.AddCommand(estimateCmd)
}

// estimateStep is one row of the JSON estimate
type estimateStep struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Share   float64 `json:"share"`
	Analyst string  `json:"analyst,omitempty"`
}

// estimateOutput is the JSON form of the estimate command
type estimateOutput struct {
	Analysts         []string       `json:"analysts"`
	Depth            int            `json:"depth"`
	Provider         string         `json:"provider"`
	EstimatedSeconds float64        `json:"estimated_seconds"`
	Steps            []estimateStep `json:"steps"`
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &estimateFlags, nil)
	if err != nil {
		return err
	}

	t := cfg.Tracker
	steps := progress.BuildSteps(t.Analysts)
	total := lo.SumBy(steps, func(s progress.Step) float64 { return s.Weight })

	out := estimateOutput{
		Analysts:         t.Analysts,
		Depth:            t.ResearchDepth,
		Provider:         t.Provider,
		EstimatedSeconds: progress.EstimateSeconds(len(t.Analysts), t.ResearchDepth, t.Provider),
		Steps: lo.Map(steps, func(s progress.Step, _ int) estimateStep {
			return estimateStep{
				Name:    s.Name,
				Weight:  s.Weight,
				Share:   s.Weight / total,
				Analyst: s.Analyst,
			}
		}),
	}

	if estimateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printEstimateText(cmd.OutOrStdout(), out)
	return nil
}

func printEstimateText(w io.Writer, out estimateOutput) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "RUN PLAN")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintf(w, "Analysts: %s\n", strings.Join(out.Analysts, ", "))
	fmt.Fprintf(w, "Depth:    %d\n", out.Depth)
	fmt.Fprintf(w, "Provider: %s\n", out.Provider)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEPS")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for i, s := range out.Steps {
		fmt.Fprintf(w, "%2d. %-36s %5.1f%%\n", i+1, s.Name, s.Share*100)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Estimated duration: %s\n", util.FormatDuration(progress.EstimateDuration(len(out.Analysts), out.Depth, out.Provider)))
}
