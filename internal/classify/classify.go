// Package classify turns free-text status lines from the analysis pipeline
// into structured pipeline events.
//
// The pipeline's log vocabulary is bilingual: the original phrases are
// Chinese, and translated builds emit the English equivalents. Both are
// recognized. Matching is keyword based and ordered; the first rule that
// matches wins.
package classify

import (
	"strings"

	"github.com/Iron-Ham/stagewatch/internal/event"
)

// Category tokens for the well-known analyst identifiers.
var categoryTokens = map[string][]string{
	"market":       {"market", "市场"},
	"fundamentals": {"fundamental", "基本面"},
	"technical":    {"technical", "技术"},
	"sentiment":    {"sentiment", "情绪"},
	"risk":         {"risk", "风险"},
}

// categoryOrder is the priority used when a module start/complete line is
// scanned for an analyst category.
var categoryOrder = []string{"market", "fundamentals", "technical", "sentiment", "risk"}

var (
	startMarkers = []string{"🚀 开始股票分析", "🚀 starting stock analysis"}

	validationPhrases    = []string{"验证", "预获取", "数据准备", "validat", "prefetch", "pre-fetch", "data preparation"}
	environmentPhrases   = []string{"环境", "api", "密钥", "environment"}
	costPhrases          = []string{"成本", "预估", "cost", "estimat"}
	configurationPhrases = []string{"配置", "参数", "config", "parameter"}
	initPhrases          = []string{"初始化", "引擎", "initializ", "engine"}

	analystMentions = []string{
		"market analyst", "fundamentals analyst", "fundamental analyst",
		"technical analyst", "sentiment analyst", "risk analyst",
		"市场分析师", "基本面分析师", "技术分析师", "情绪分析师", "风险分析师",
	}

	toolPhrases     = []string{"工具调用", "正在调用", "tool"}
	modulePhrases   = []string{"模块开始", "模块完成", "module start", "module complete"}
	moduleDone      = []string{"模块完成", "module complete"}
	signalTokens    = []string{"graph_signal_processing", "signal", "信号"}
	collatePhrases  = []string{"整理", "结果", "organiz", "collat", "result"}
	terminalPhrases = []string{"分析完成", "分析成功", "analysis complete", "analysis succeeded", "analysis successful"}
)

// completionWords are matched case-sensitively, as the pipeline capitalizes
// them only in its final status line.
var completionWords = []string{"Completed", "Success"}

// Classifier maps status lines to pipeline events for a fixed analyst set.
type Classifier struct {
	analysts []string
}

// New creates a Classifier aware of the configured analyst identifiers.
// Identifiers outside the well-known categories are matched literally.
func New(analysts []string) *Classifier {
	return &Classifier{analysts: append([]string(nil), analysts...)}
}

// Classify returns the pipeline event described by message. Lines that match
// no rule yield an event of kind [event.KindUnknown]; flags for module
// completion and run completion are set independently of the kind.
func (c *Classifier) Classify(message string) event.PipelineEvent {
	lower := strings.ToLower(message)

	ev := c.classifyKind(message, lower)
	ev.ModuleComplete = containsAny(lower, moduleDone)
	ev.Terminal = containsAny(lower, terminalPhrases)
	return ev
}

func (c *Classifier) classifyKind(message, lower string) event.PipelineEvent {
	switch {
	case containsAny(lower, startMarkers):
		return event.NewPipelineEvent(event.KindRunStarted, message)
	case containsAny(lower, validationPhrases):
		return event.NewPipelineEvent(event.KindValidation, message)
	case containsAny(lower, environmentPhrases):
		return event.NewPipelineEvent(event.KindEnvironment, message)
	case containsAny(lower, costPhrases):
		return event.NewPipelineEvent(event.KindCostEstimate, message)
	case containsAny(lower, configurationPhrases):
		return event.NewPipelineEvent(event.KindConfiguration, message)
	case containsAny(lower, initPhrases):
		return event.NewPipelineEvent(event.KindEngineInit, message)
	case containsAny(lower, analystMentions):
		// A named analyst with no configured step is not a match; later
		// rules are not consulted.
		if analyst, ok := c.analystInStepOrder(lower); ok {
			return event.NewAnalystEvent(event.KindAnalystActive, analyst, message)
		}
		return event.NewPipelineEvent(event.KindUnknown, message)
	case containsAny(lower, toolPhrases):
		return event.NewPipelineEvent(event.KindToolCall, message)
	case containsAny(lower, modulePhrases):
		return c.classifyModule(message, lower)
	case containsAny(lower, collatePhrases):
		return event.NewPipelineEvent(event.KindCollating, message)
	case containsAny(message, completionWords):
		return event.NewPipelineEvent(event.KindCompleted, message)
	}
	return event.NewPipelineEvent(event.KindUnknown, message)
}

// classifyModule handles module start/complete lines. Categories are checked
// in fixed priority order, then custom analyst identifiers, then signal
// processing.
func (c *Classifier) classifyModule(message, lower string) event.PipelineEvent {
	kind := event.KindAnalystStarted
	if containsAny(lower, moduleDone) {
		kind = event.KindAnalystComplete
	}

	for _, category := range categoryOrder {
		if !containsAny(lower, categoryTokens[category]) {
			continue
		}
		if analyst, ok := c.configured(category); ok {
			return event.NewAnalystEvent(kind, analyst, message)
		}
		return event.NewPipelineEvent(event.KindUnknown, message)
	}

	for _, analyst := range c.analysts {
		if _, known := categoryTokens[analyst]; known {
			continue
		}
		if strings.Contains(lower, strings.ToLower(analyst)) {
			return event.NewAnalystEvent(kind, analyst, message)
		}
	}

	if containsAny(lower, signalTokens) {
		return event.NewPipelineEvent(event.KindSignal, message)
	}
	return event.NewPipelineEvent(event.KindUnknown, message)
}

// analystInStepOrder returns the first configured analyst whose category
// tokens appear in the message.
func (c *Classifier) analystInStepOrder(lower string) (string, bool) {
	for _, analyst := range c.analysts {
		if containsAny(lower, tokensFor(analyst)) {
			return analyst, true
		}
	}
	return "", false
}

func (c *Classifier) configured(analyst string) (string, bool) {
	for _, a := range c.analysts {
		if a == analyst {
			return a, true
		}
	}
	return "", false
}

// tokensFor returns the lowercase tokens identifying an analyst.
func tokensFor(analyst string) []string {
	if tokens, ok := categoryTokens[analyst]; ok {
		return tokens
	}
	return []string{strings.ToLower(analyst)}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
