package display

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text

	// Title is the header line of the interactive view
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	// BarFilled and BarEmpty color the two halves of the plain progress bar
	BarFilled = lipgloss.NewStyle().Foreground(SecondaryColor)
	BarEmpty  = lipgloss.NewStyle().Foreground(MutedColor)

	// StepName highlights the name of the running step
	StepName = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	// Status is the latest status message from the pipeline
	Status = lipgloss.NewStyle().Foreground(TextColor)

	// Muted is used for the step counter and timing line
	Muted = lipgloss.NewStyle().Foreground(MutedColor)

	// Done marks the final line once a run has completed
	Done = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// HelpBar shows key bindings under the interactive view
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(WarningColor)
)
