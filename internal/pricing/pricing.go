// Package pricing estimates completion spend from token usage. Rates are
// USD per one million tokens. Stale or unknown model identifiers must never
// block a query, so lookups fall back to zero cost.
package pricing

import "strings"

type Rate struct {
	InputPerM  float64
	OutputPerM float64
}

// openAIRates are keyed by exact model identifier.
var openAIRates = map[string]Rate{
	"gpt-4-0125-preview":     {InputPerM: 10, OutputPerM: 30},
	"gpt-4-1106-preview":     {InputPerM: 10, OutputPerM: 30},
	"gpt-4":                  {InputPerM: 30, OutputPerM: 60},
	"gpt-4-32k":              {InputPerM: 60, OutputPerM: 120},
	"gpt-3.5-turbo-0125":     {InputPerM: 0.50, OutputPerM: 1.50},
	"gpt-3.5-turbo-instruct": {InputPerM: 1.50, OutputPerM: 2.00},
}

// anthropicTierRates are keyed by the tier label embedded in the identifier.
var anthropicTierRates = map[string]Rate{
	"opus":   {InputPerM: 15, OutputPerM: 75},
	"sonnet": {InputPerM: 3, OutputPerM: 15},
	"haiku":  {InputPerM: 0.25, OutputPerM: 1.25},
}

// Resolve returns the rate for a model identifier and whether it is known.
func Resolve(model string) (Rate, bool) {
	if rate, ok := openAIRates[model]; ok {
		return rate, true
	}
	for tier, rate := range anthropicTierRates {
		if strings.Contains(model, "claude") && strings.Contains(model, tier) {
			return rate, true
		}
	}
	return Rate{}, false
}

// Estimate converts token counts to USD. Unknown models cost zero.
func Estimate(model string, promptTokens, completionTokens int) float64 {
	rate, ok := Resolve(model)
	if !ok {
		return 0
	}
	inputCost := float64(promptTokens) * rate.InputPerM / 1e6
	outputCost := float64(completionTokens) * rate.OutputPerM / 1e6
	return inputCost + outputCost
}
