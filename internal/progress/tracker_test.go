package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/stagewatch/internal/event"
	"github.com/Iron-Ham/stagewatch/internal/logging"
)

// fakeClock is a manually advanced clock for deterministic elapsed times.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(t *testing.T, analysts ...string) (*Tracker, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	tr, err := NewTracker(Options{
		Analysts: analysts,
		Depth:    DepthBasic,
		Provider: ProviderDashScope,
		Clock:    clock.Now,
	})
	require.NoError(t, err)
	return tr, clock
}

func TestNewTracker_Validation(t *testing.T) {
	_, err := NewTracker(Options{})
	assert.ErrorIs(t, err, ErrNoAnalysts)

	_, err = NewTracker(Options{Analysts: []string{"market", ""}})
	assert.ErrorIs(t, err, ErrEmptyAnalyst)
}

func TestNewTracker_CopiesAnalysts(t *testing.T) {
	analysts := []string{"market", "risk"}
	tr, _ := newTestTracker(t, analysts...)
	analysts[0] = "changed"

	assert.Equal(t, []string{"market", "risk"}, tr.Analysts())
}

func TestUpdate_StartMarkerOnFreshTracker(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")

	tr.Update("🚀 开始股票分析")

	assert.Equal(t, 0, tr.CurrentStep())
	assert.Equal(t, 0.0, tr.Fraction())
}

func TestUpdate_RegressionIgnored(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")

	tr.Update("初始化分析引擎")
	require.Equal(t, 4, tr.CurrentStep())

	tr.Update("检查环境变量") // classified as step 1
	assert.Equal(t, 4, tr.CurrentStep())
}

func TestUpdate_RegressionIgnoredWithExplicitStep(t *testing.T) {
	tr, _ := newTestTracker(t, "market")

	tr.Update("working", WithStep(4))
	tr.Update("working", WithStep(1))

	assert.Equal(t, 4, tr.CurrentStep())
}

func TestUpdate_TerminalJumpsToLast(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals", "technical")

	tr.Update("配置分析参数")
	require.Equal(t, 3, tr.CurrentStep())

	tr.Update("分析完成")

	assert.Equal(t, tr.TotalSteps()-1, tr.CurrentStep())
	assert.Equal(t, 1.0, tr.Fraction())
}

func TestUpdate_FractionStaysOneAfterLast(t *testing.T) {
	tr, _ := newTestTracker(t, "market")

	tr.Update("分析完成")
	for _, msg := range []string{"验证", "half done", "🔧 工具调用", "检查环境"} {
		tr.Update(msg)
		assert.Equal(t, 1.0, tr.Fraction(), "after %q", msg)
	}
}

func TestUpdate_UnknownMessageIsNoOp(t *testing.T) {
	tr, _ := newTestTracker(t, "market")
	tr.Update("成本估算")
	require.Equal(t, 2, tr.CurrentStep())

	tr.Update("half done")

	assert.Equal(t, 2, tr.CurrentStep())
	assert.Len(t, tr.History(), 2)
}

func TestUpdate_ModuleCompleteAdvances(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")

	tr.Update("📊 [模块开始] market_analyst")
	require.Equal(t, 5, tr.CurrentStep())

	tr.Update("📊 [模块完成] market_analyst")
	assert.Equal(t, 6, tr.CurrentStep())

	// A repeated completion for an analyst already passed does nothing.
	tr.Update("📊 [模块完成] market_analyst")
	assert.Equal(t, 6, tr.CurrentStep())
}

func TestUpdate_ModuleCompleteClampsAtLast(t *testing.T) {
	tr, _ := newTestTracker(t, "market")
	last := tr.TotalSteps() - 1

	tr.Update("working", WithStep(last))
	tr.Update("模块完成", WithStep(last))

	assert.Equal(t, last, tr.CurrentStep())
}

func TestUpdate_ModuleCompleteForCurrentAnalystWithRepeatedIDs(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "market")

	tr.Update("[模块开始] market")
	require.Equal(t, 5, tr.CurrentStep())
	tr.Update("[模块完成] market")
	require.Equal(t, 6, tr.CurrentStep())

	// The second market step resolves forward and completes too.
	tr.Update("[模块完成] market")
	assert.Equal(t, 7, tr.CurrentStep())
}

func TestUpdate_ExplicitModuleCompleteMustMatchCurrent(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")
	tr.Update("[模块开始] market")
	require.Equal(t, 5, tr.CurrentStep())

	tr.Update("[模块完成] market", WithStep(6))

	assert.Equal(t, 6, tr.CurrentStep(), "explicit step wins over the analyst named in the text")
}

func TestUpdate_ToolCallKeepsAnalystStep(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")

	// Not on an analyst step yet: no change.
	tr.Update("🔧 工具调用: get_stock_data")
	assert.Equal(t, 0, tr.CurrentStep())

	tr.Update("[模块开始] fundamentals")
	require.Equal(t, 6, tr.CurrentStep())
	tr.Update("🔧 工具调用: get_financials")
	assert.Equal(t, 6, tr.CurrentStep())
}

func TestUpdate_CallbackReceivesSnapshot(t *testing.T) {
	clock := newFakeClock()
	var got []Snapshot
	tr, err := NewTracker(Options{
		Analysts: []string{"market", "fundamentals"},
		Depth:    DepthBasic,
		Provider: ProviderDeepSeek,
		Clock:    clock.Now,
		Callback: func(s Snapshot) { got = append(got, s) },
	})
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	tr.Update("🚀 开始股票分析")

	require.Len(t, got, 1)
	snap := got[0]
	assert.Equal(t, "🚀 开始股票分析", snap.Message)
	assert.Equal(t, 0, snap.CurrentStep)
	assert.Equal(t, 8, snap.TotalSteps)
	assert.Equal(t, 0.0, snap.Fraction)
	assert.Equal(t, 10*time.Second, snap.Elapsed)
	assert.InDelta(t, 294.0, snap.Remaining.Seconds(), 1e-6, "no progress yet: static estimate")
}

func TestApply_StructuredEvents(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "risk")

	tr.Apply(event.NewPipelineEvent(event.KindCostEstimate, ""))
	assert.Equal(t, 2, tr.CurrentStep())

	tr.Apply(event.NewAnalystEvent(event.KindAnalystStarted, "risk", ""))
	assert.Equal(t, 6, tr.CurrentStep())

	tr.Apply(event.NewAnalystEvent(event.KindAnalystComplete, "risk", ""))
	assert.Equal(t, 7, tr.CurrentStep())

	tr.Apply(event.NewCompletedEvent("done"))
	assert.True(t, tr.Done())
	assert.Len(t, tr.History(), 4)
}

func TestResolve(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")
	last := tr.TotalSteps() - 1

	tests := []struct {
		name   string
		ev     event.PipelineEvent
		want   int
		wantOK bool
	}{
		{"run started", event.NewPipelineEvent(event.KindRunStarted, ""), 0, true},
		{"validation", event.NewPipelineEvent(event.KindValidation, ""), 0, true},
		{"environment", event.NewPipelineEvent(event.KindEnvironment, ""), 1, true},
		{"cost", event.NewPipelineEvent(event.KindCostEstimate, ""), 2, true},
		{"configuration", event.NewPipelineEvent(event.KindConfiguration, ""), 3, true},
		{"engine", event.NewPipelineEvent(event.KindEngineInit, ""), 4, true},
		{"market", event.NewAnalystEvent(event.KindAnalystActive, "market", ""), 5, true},
		{"fundamentals", event.NewAnalystEvent(event.KindAnalystStarted, "fundamentals", ""), 6, true},
		{"unconfigured analyst", event.NewAnalystEvent(event.KindAnalystActive, "risk", ""), 0, false},
		{"analyst without id", event.NewPipelineEvent(event.KindAnalystComplete, ""), 0, false},
		{"tool call outside analyst", event.NewPipelineEvent(event.KindToolCall, ""), 0, false},
		{"signal", event.NewPipelineEvent(event.KindSignal, ""), last, true},
		{"collating", event.NewPipelineEvent(event.KindCollating, ""), last, true},
		{"completed", event.NewPipelineEvent(event.KindCompleted, ""), last, true},
		{"unknown", event.NewPipelineEvent(event.KindUnknown, ""), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.Resolve(tt.ev)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCurrentStepMonotonic(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals", "technical", "sentiment", "risk")

	messages := []string{
		"🚀 开始股票分析", "验证股票代码", "检查API密钥", "half done", "成本预估",
		"配置参数", "验证", "初始化引擎", "[模块开始] market", "🔧 tool call",
		"[模块完成] market", "技术分析师 working", "[模块开始] fundamentals",
		"[模块完成] fundamentals", "检查环境", "[模块开始] sentiment",
		"[模块完成] risk", "整理结果", "Completed",
	}

	prev := tr.CurrentStep()
	prevFraction := tr.Fraction()
	for _, msg := range messages {
		tr.Update(msg)
		assert.GreaterOrEqual(t, tr.CurrentStep(), prev, "step went backwards after %q", msg)
		assert.GreaterOrEqual(t, tr.Fraction(), prevFraction, "fraction went backwards after %q", msg)
		assert.GreaterOrEqual(t, tr.Fraction(), 0.0)
		assert.LessOrEqual(t, tr.Fraction(), 1.0)
		prev = tr.CurrentStep()
		prevFraction = tr.Fraction()
	}
	assert.True(t, tr.Done())
}

func TestFraction_Weighted(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals")
	total := 0.05 + 0.02 + 0.01 + 0.02 + 0.05 + 0.8 + 0.05

	tr.Update("working", WithStep(5))
	assert.InDelta(t, 0.15/total, tr.Fraction(), 1e-9)

	tr.Update("working", WithStep(6))
	assert.InDelta(t, 0.55/total, tr.Fraction(), 1e-9)
	assert.InDelta(t, 0.55/total*100, tr.ProgressPercentage(), 1e-9)
}

func TestEstimateRemaining(t *testing.T) {
	tr, _ := newTestTracker(t, "market", "fundamentals") // 420s estimate

	assert.Equal(t, 420*time.Second, tr.EstimateRemaining(0, 100*time.Second))
	assert.Equal(t, 320*time.Second, tr.EstimateRemaining(0.1, 100*time.Second))
	assert.Equal(t, time.Duration(0), tr.EstimateRemaining(0.1, 500*time.Second), "floored at zero")
	assert.Equal(t, 300*time.Second, tr.EstimateRemaining(0.25, 100*time.Second))
	assert.Equal(t, time.Duration(0), tr.EstimateRemaining(1.0, 100*time.Second))
}

func TestRemainingNeverNegative(t *testing.T) {
	tr, clock := newTestTracker(t, "market")

	for i, msg := range []string{"验证", "环境", "成本", "配置", "引擎", "[模块开始] market", "整理结果"} {
		clock.Advance(time.Duration(i*200) * time.Second)
		tr.Update(msg)
		snap := tr.Snapshot(msg)
		assert.GreaterOrEqual(t, snap.Remaining, time.Duration(0), "after %q", msg)
	}
}

func TestCurrentStepInfo(t *testing.T) {
	tr, _ := newTestTracker(t, "market")

	assert.Equal(t, "Data Validation", tr.CurrentStepInfo().Name)

	tr.Update("past the end", WithStep(tr.TotalSteps()))
	info := tr.CurrentStepInfo()
	assert.Equal(t, "Completed", info.Name)
	assert.Equal(t, 0.0, info.Weight)
	assert.Equal(t, 1.0, tr.Fraction())

}

func TestUpdate_TerminalPinsToLastFromPastTheEnd(t *testing.T) {
	tr, _ := newTestTracker(t, "market")

	tr.Update("past the end", WithStep(tr.TotalSteps()))
	require.Equal(t, tr.TotalSteps(), tr.CurrentStep())

	tr.Update("分析完成")

	assert.Equal(t, tr.TotalSteps()-1, tr.CurrentStep())
	assert.Equal(t, "Result Organization", tr.CurrentStepInfo().Name)
	assert.Equal(t, 1.0, tr.Fraction())
	assert.True(t, tr.Done())
}

func TestExplicitStepClampedToOnePastLast(t *testing.T) {
	tr, _ := newTestTracker(t, "market")

	tr.Update("way past", WithStep(100))

	assert.Equal(t, tr.TotalSteps(), tr.CurrentStep())
}

func TestAccessors(t *testing.T) {
	clock := newFakeClock()
	tr, err := NewTracker(Options{
		Analysts: []string{"market"},
		Depth:    DepthStandard,
		Provider: ProviderGoogle,
		Clock:    clock.Now,
	})
	require.NoError(t, err)

	clock.Advance(75 * time.Second)
	assert.Equal(t, 75*time.Second, tr.Elapsed())
	assert.Equal(t, DepthStandard, tr.Depth())
	assert.Equal(t, ProviderGoogle, tr.Provider())
	assert.Equal(t, clock.now.Add(-75*time.Second), tr.StartedAt())
	assert.InDelta(t, (60+240)*1.3*1.3, tr.EstimatedSeconds(), 1e-9)
	assert.InDelta(t, tr.EstimatedSeconds(), tr.EstimatedTotal().Seconds(), 1e-6)
	assert.Equal(t, "1.5 min", tr.FormatTime(90*time.Second))
}

func TestHistoryAppendOnly(t *testing.T) {
	tr, clock := newTestTracker(t, "market")

	tr.Update("first")
	clock.Advance(5 * time.Second)
	tr.Update("second")

	history := tr.History()
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Message)
	assert.Equal(t, time.Duration(0), history[0].Elapsed)
	assert.Equal(t, "second", history[1].Message)
	assert.Equal(t, 5*time.Second, history[1].Elapsed)

	history[0].Message = "mutated"
	assert.Equal(t, "first", tr.History()[0].Message)
}

func TestTrackerLogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTracker(Options{
		Analysts: []string{"market"},
		Logger:   logging.New(&buf, logging.LevelDebug),
	})
	require.NoError(t, err)

	tr.Update("初始化引擎")
	tr.Update("验证")
	tr.Update("分析完成")

	out := buf.String()
	assert.True(t, strings.Contains(out, "step advanced"))
	assert.True(t, strings.Contains(out, "ignoring step regression"))
	assert.True(t, strings.Contains(out, "analysis complete"))
}
