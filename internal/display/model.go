package display

import (
	"strings"
	"time"

	barprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/stagewatch/internal/progress"
	"github.com/Iron-Ham/stagewatch/internal/util"
)

// Horizontal space reserved around the bar in the interactive view.
const barPadding = 4

// SnapshotMsg carries a progress snapshot into the interactive view.
type SnapshotMsg struct {
	Snapshot progress.Snapshot
	StepName string
}

// DoneMsg tells the interactive view the run has finished.
type DoneMsg struct {
	Elapsed time.Duration
}

// Model is the bubbletea model for live progress display.
type Model struct {
	bar      barprogress.Model
	maxWidth int

	title    string
	snap     progress.Snapshot
	stepName string

	done     bool
	elapsed  time.Duration
	quitting bool
}

// NewModel creates the interactive view. barWidth caps the bar width.
func NewModel(title string, barWidth int) Model {
	if barWidth <= 0 {
		barWidth = DefaultBarWidth
	}
	bar := barprogress.New(
		barprogress.WithSolidFill(string(SecondaryColor)),
		barprogress.WithoutPercentage(),
	)
	bar.Width = barWidth

	return Model{
		bar:      bar,
		maxWidth: barWidth,
		title:    title,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-barPadding, 1), m.maxWidth)

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.stepName = msg.StepName

	case DoneMsg:
		m.done = true
		m.elapsed = msg.Elapsed
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(Title.Render(m.title))
	b.WriteString("\n")

	if m.stepName != "" {
		b.WriteString(StepName.Render(m.stepName))
		b.WriteString("\n")
	}

	b.WriteString(m.bar.ViewAs(m.snap.Fraction))
	b.WriteString("\n")

	if m.snap.Message != "" {
		status := util.TruncateANSI(util.SingleLine(m.snap.Message), m.bar.Width+barPadding)
		b.WriteString(Status.Render(status))
		b.WriteString("\n")
	}

	b.WriteString(Muted.Render(StepLabel(m.snap.CurrentStep, m.snap.TotalSteps, m.snap.Fraction)))
	b.WriteString("\n")
	b.WriteString(Muted.Render(TimingLine(m.snap.Elapsed, m.snap.Remaining)))
	b.WriteString("\n")

	switch {
	case m.done:
		b.WriteString(Done.Render("✅ Analysis complete in " + util.FormatDuration(m.elapsed)))
		b.WriteString("\n")
	case !m.quitting:
		b.WriteString(HelpBar.Render(HelpKey.Render("q") + " quit"))
		b.WriteString("\n")
	}

	return b.String()
}

// Snapshot returns the last snapshot the view received.
func (m Model) Snapshot() progress.Snapshot {
	return m.snap
}

// Done reports whether the run finished while the view was open.
func (m Model) Done() bool {
	return m.done
}

// ProgramSink forwards snapshots to a running bubbletea program.
type ProgramSink struct {
	program *tea.Program
	names   func(progress.Snapshot) string
}

// NewProgramSink creates a sink that sends SnapshotMsg values to program.
// names resolves the step name shown above the bar and may be nil.
func NewProgramSink(program *tea.Program, names func(progress.Snapshot) string) *ProgramSink {
	return &ProgramSink{program: program, names: names}
}

// Render implements progress.Sink.
func (s *ProgramSink) Render(snap progress.Snapshot) {
	msg := SnapshotMsg{Snapshot: snap}
	if s.names != nil {
		msg.StepName = s.names(snap)
	}
	s.program.Send(msg)
}
