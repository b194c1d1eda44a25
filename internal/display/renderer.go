package display

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Iron-Ham/stagewatch/internal/progress"
	"github.com/Iron-Ham/stagewatch/internal/util"
)

// DefaultBarWidth is used when no bar width is configured.
const DefaultBarWidth = 40

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// BarWidth is the number of bar cells. Default: DefaultBarWidth
	BarWidth int
	// StatusWidth truncates the status line. Zero disables truncation.
	StatusWidth int
}

// Renderer writes progress snapshots as plain terminal text. It implements
// progress.Sink.
type Renderer struct {
	out  io.Writer
	opts RendererOptions
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer, opts RendererOptions) *Renderer {
	if opts.BarWidth <= 0 {
		opts.BarWidth = DefaultBarWidth
	}
	return &Renderer{out: out, opts: opts}
}

// Render writes one progress block.
func (r *Renderer) Render(snap progress.Snapshot) {
	fmt.Fprint(r.out, r.Format(snap))
}

// Finish writes the completion line for a run.
func (r *Renderer) Finish(elapsed time.Duration) {
	fmt.Fprintln(r.out, Done.Render("✅ Analysis complete in "+util.FormatDuration(elapsed)))
}

// Format returns the progress block for a snapshot without writing it.
func (r *Renderer) Format(snap progress.Snapshot) string {
	var b strings.Builder

	b.WriteString(RenderBar(snap.Fraction, r.opts.BarWidth))
	b.WriteString("\n")

	status := util.SingleLine(snap.Message)
	if r.opts.StatusWidth > 0 {
		status = util.TruncateANSI(status, r.opts.StatusWidth)
	}
	b.WriteString(Status.Render(status))
	b.WriteString("\n")

	b.WriteString(Muted.Render(StepLabel(snap.CurrentStep, snap.TotalSteps, snap.Fraction)))
	b.WriteString("\n")
	b.WriteString(Muted.Render(TimingLine(snap.Elapsed, snap.Remaining)))
	b.WriteString("\n")

	return b.String()
}

// RenderBar renders a progress bar of width cells at the given fraction.
func RenderBar(fraction float64, width int) string {
	fraction = math.Min(math.Max(fraction, 0), 1)
	if width < 0 {
		width = 0
	}

	filled := int(fraction * float64(width))
	empty := width - filled

	return "[" + BarFilled.Render(strings.Repeat("█", filled)) +
		BarEmpty.Render(strings.Repeat("░", empty)) + "]"
}

// StepLabel formats the 1-based step counter with the completion percentage.
func StepLabel(current, total int, fraction float64) string {
	step := min(current+1, total)
	return fmt.Sprintf("Step %d of %d (%.1f%%)", step, total, fraction*100)
}

// TimingLine formats elapsed and remaining time. Remaining is omitted when
// it is zero.
func TimingLine(elapsed, remaining time.Duration) string {
	line := "Elapsed: " + util.FormatDuration(elapsed)
	if remaining > 0 {
		line += " | Remaining: " + util.FormatDuration(remaining)
	}
	return line
}
