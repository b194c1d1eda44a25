package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

func plainLines(s string) []string {
	return strings.Split(strings.TrimRight(ansi.Strip(s), "\n"), "\n")
}

func TestRenderer_Format(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, RendererOptions{BarWidth: 10})

	out := r.Format(progress.Snapshot{
		Message:     "📊 [模块开始] market_analyst",
		CurrentStep: 5,
		TotalSteps:  8,
		Fraction:    0.15,
		Elapsed:     30 * time.Second,
		Remaining:   90 * time.Second,
	})

	lines := plainLines(out)
	require.Len(t, lines, 4)
	assert.Equal(t, "[█░░░░░░░░░]", lines[0])
	assert.Equal(t, "📊 [模块开始] market_analyst", lines[1])
	assert.Equal(t, "Step 6 of 8 (15.0%)", lines[2])
	assert.Equal(t, "Elapsed: 30.0s | Remaining: 1.5 min", lines[3])
}

func TestRenderer_OmitsZeroRemaining(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, RendererOptions{})

	lines := plainLines(r.Format(progress.Snapshot{
		Message:     "step",
		CurrentStep: 3,
		TotalSteps:  10,
		Fraction:    1.0 / 3.0,
		Elapsed:     5400 * time.Second,
	}))

	assert.Equal(t, "Elapsed: 1.5 h", lines[3])
}

func TestRenderer_StepPastEnd(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, RendererOptions{})

	lines := plainLines(r.Format(progress.Snapshot{CurrentStep: 8, TotalSteps: 8, Fraction: 1}))

	assert.Equal(t, "Step 8 of 8 (100.0%)", lines[2])
}

func TestRenderer_TruncatesStatus(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, RendererOptions{StatusWidth: 12})

	lines := plainLines(r.Format(progress.Snapshot{
		Message:    "a very long status line\nwith a second line",
		TotalSteps: 8,
	}))

	assert.Equal(t, "a very lo...", lines[1])
}

func TestRenderer_RenderWrites(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, RendererOptions{BarWidth: 4})

	r.Render(progress.Snapshot{Message: "hello", TotalSteps: 8, Fraction: 0.5})
	r.Finish(90 * time.Second)

	out := ansi.Strip(buf.String())
	assert.Contains(t, out, "[██░░]")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Analysis complete in 1.5 min")
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		fraction float64
		width    int
		want     string
	}{
		{0, 4, "[░░░░]"},
		{0.5, 4, "[██░░]"},
		{1, 4, "[████]"},
		{1.5, 4, "[████]"},
		{-0.5, 4, "[░░░░]"},
		{0.5, 0, "[]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ansi.Strip(RenderBar(tt.fraction, tt.width)), "RenderBar(%v, %d)", tt.fraction, tt.width)
	}
}

func TestTimingLine(t *testing.T) {
	assert.Equal(t, "Elapsed: 0.0s", TimingLine(0, 0))
	assert.Equal(t, "Elapsed: 12.3s | Remaining: 4.5 min", TimingLine(12300*time.Millisecond, 270*time.Second))
}
