package display

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/stagewatch/internal/progress"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return model, cmd
}

func TestModel_Snapshot(t *testing.T) {
	m := NewModel("stagewatch", 20)
	assert.Nil(t, m.Init())

	m, cmd := update(t, m, SnapshotMsg{
		Snapshot: progress.Snapshot{
			Message:     "初始化分析引擎",
			CurrentStep: 4,
			TotalSteps:  8,
			Fraction:    0.1,
			Elapsed:     20 * time.Second,
			Remaining:   400 * time.Second,
		},
		StepName: "Engine Initialization",
	})
	assert.Nil(t, cmd)
	assert.Equal(t, 4, m.Snapshot().CurrentStep)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "stagewatch")
	assert.Contains(t, view, "Engine Initialization")
	assert.Contains(t, view, "初始化分析引擎")
	assert.Contains(t, view, "Step 5 of 8 (10.0%)")
	assert.Contains(t, view, "Elapsed: 20.0s | Remaining: 6.7 min")
	assert.Contains(t, view, "q quit")
}

func TestModel_DoneQuits(t *testing.T) {
	m := NewModel("stagewatch", 20)

	m, cmd := update(t, m, DoneMsg{Elapsed: 90 * time.Second})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Done())
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Analysis complete in 1.5 min")
	assert.NotContains(t, view, "q quit")
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		m := NewModel("stagewatch", 20)
		m, cmd := update(t, m, key)

		require.NotNil(t, cmd, "key %q", key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.False(t, m.Done())
	}
}

func TestModel_OtherKeysIgnored(t *testing.T) {
	m := NewModel("stagewatch", 20)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Nil(t, cmd)
}

func TestModel_WindowResizeCapsBar(t *testing.T) {
	m := NewModel("stagewatch", 30)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	assert.Equal(t, 30, m.bar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 14, Height: 40})
	assert.Equal(t, 10, m.bar.Width)
}
