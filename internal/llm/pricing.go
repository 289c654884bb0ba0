package llm

import "math"

// Model identifiers used across the pipeline.
const (
	ModelFlash  = "gemini-3-flash-preview"
	ModelPro    = "gemini-3-pro-preview"
	ModelSonnet = "claude-sonnet-4-5-20250929"
)

// Rate holds USD prices per one million tokens.
type Rate struct {
	Input  float64
	Output float64
}

// pricing is the single source of truth for per-model rates. Unknown models
// fall back to the Flash rate rather than billing zero.
var pricing = map[string]Rate{
	ModelFlash:                   {Input: 0.10, Output: 0.40},
	ModelPro:                     {Input: 1.25, Output: 5.00},
	"gemini-3-pro-image-preview": {Input: 1.25, Output: 5.00},
	"gemini-2.0-flash":           {Input: 0.10, Output: 0.40},
	ModelSonnet:                  {Input: 3.00, Output: 15.00},
	"claude-sonnet-4-20250514":   {Input: 3.00, Output: 15.00},
}

// CalcCost returns the USD cost of a single call, rounded to 8 decimal
// places so repeated aggregation stays stable.
func CalcCost(model string, tokensIn, tokensOut int) float64 {
	rate, ok := pricing[model]
	if !ok {
		rate = pricing[ModelFlash]
	}

	cost := float64(tokensIn)/1_000_000*rate.Input + float64(tokensOut)/1_000_000*rate.Output
	return math.Round(cost*1e8) / 1e8
}
