package progress

import "time"

// Research depth levels.
const (
	DepthFast     = 1
	DepthBasic    = 2
	DepthStandard = 3
)

// Known LLM provider tags.
const (
	ProviderDashScope = "dashscope"
	ProviderDeepSeek  = "deepseek"
	ProviderGoogle    = "google"
)

// baseSeconds covers validation, environment checks and configuration.
const baseSeconds = 60.0

// Calibrated per-analyst seconds by research depth.
var analystSecondsByDepth = map[int]float64{
	DepthFast:     120,
	DepthBasic:    180,
	DepthStandard: 240,
}

const defaultAnalystSeconds = 180.0

var providerMultipliers = map[string]float64{
	ProviderDashScope: 1.0,
	ProviderDeepSeek:  0.7,
	ProviderGoogle:    1.3,
}

// Deeper research makes more tool calls per analyst.
var depthMultipliers = map[int]float64{
	DepthFast:     0.8,
	DepthBasic:    1.0,
	DepthStandard: 1.3,
}

// EstimateSeconds returns the expected wall time of a run in seconds.
// Unrecognized depths and providers use the defaults.
func EstimateSeconds(analystCount, depth int, provider string) float64 {
	perAnalyst, ok := analystSecondsByDepth[depth]
	if !ok {
		perAnalyst = defaultAnalystSeconds
	}
	providerMul, ok := providerMultipliers[provider]
	if !ok {
		providerMul = 1.0
	}
	depthMul, ok := depthMultipliers[depth]
	if !ok {
		depthMul = 1.0
	}

	return (baseSeconds + float64(analystCount)*perAnalyst) * providerMul * depthMul
}

// EstimateDuration is EstimateSeconds as a time.Duration.
func EstimateDuration(analystCount, depth int, provider string) time.Duration {
	return seconds(EstimateSeconds(analystCount, depth, provider))
}

// KnownDepths returns the research depths with calibrated timings.
func KnownDepths() []int {
	return []int{DepthFast, DepthBasic, DepthStandard}
}

// KnownProviders returns the provider tags with a calibrated multiplier.
func KnownProviders() []string {
	return []string{ProviderDashScope, ProviderDeepSeek, ProviderGoogle}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
