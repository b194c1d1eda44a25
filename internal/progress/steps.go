package progress

import (
	"fmt"

	"github.com/samber/lo"
)

// analystBlockWeight is the share of the run spent inside analyst stages,
// split evenly across the configured analysts.
const analystBlockWeight = 0.8

// Step is one named phase of the tracked pipeline with a relative weight.
type Step struct {
	Name        string
	Description string
	Weight      float64
	// Analyst is the analyst identifier for analyst steps, empty otherwise.
	Analyst string
}

// IsAnalyst reports whether the step belongs to an analyst.
func (s Step) IsAnalyst() bool {
	return s.Analyst != ""
}

// completedStep is reported once the tracker has moved past the last step.
var completedStep = Step{Name: "Completed", Description: "Analysis complete", Weight: 0}

var analystDisplayNames = map[string]string{
	"market":       "Market Analyst",
	"fundamentals": "Fundamental Analyst",
	"technical":    "Technical Analyst",
	"sentiment":    "Sentiment Analyst",
	"risk":         "Risk Analyst",
}

// AnalystDisplayName returns the human name for an analyst identifier.
// Unknown identifiers are returned unchanged.
func AnalystDisplayName(analyst string) string {
	if name, ok := analystDisplayNames[analyst]; ok {
		return name
	}
	return analyst
}

// BuildSteps returns the ordered step list for a run: five fixed
// preliminary steps, one step per analyst, and a final result step.
// Weights are relative and need not sum to 1.
func BuildSteps(analysts []string) []Step {
	steps := []Step{
		{Name: "Data Validation", Description: "Validate stock symbol and pre-fetch data", Weight: 0.05},
		{Name: "Environment Setup", Description: "Check API keys and environment configuration", Weight: 0.02},
		{Name: "Cost Estimation", Description: "Estimate analysis cost", Weight: 0.01},
		{Name: "Parameter Configuration", Description: "Configure analysis parameters and models", Weight: 0.02},
		{Name: "Engine Initialization", Description: "Initialize AI analysis engine", Weight: 0.05},
	}

	if len(analysts) > 0 {
		weight := analystBlockWeight / float64(len(analysts))
		steps = append(steps, lo.Map(analysts, func(analyst string, _ int) Step {
			name := AnalystDisplayName(analyst)
			return Step{
				Name:        fmt.Sprintf("%s Analysis", name),
				Description: fmt.Sprintf("%s conducting professional analysis", name),
				Weight:      weight,
				Analyst:     analyst,
			}
		})...)
	}

	return append(steps, Step{
		Name:        "Result Organization",
		Description: "Organize analysis results and generate report",
		Weight:      0.05,
	})
}

// totalWeight sums the weights of steps.
func totalWeight(steps []Step) float64 {
	return lo.SumBy(steps, func(s Step) float64 { return s.Weight })
}
