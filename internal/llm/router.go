package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedModel marks a model identifier that matches no backend
// family. It is a configuration error: callers surface it immediately and
// never retry.
var ErrUnsupportedModel = errors.New("unsupported model identifier")

type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
)

// Route classifies a model identifier into a backend family by substring,
// mirroring how deployments name their models ("gpt-4-...", "claude-3-...").
func Route(model string) (Family, error) {
	switch {
	case strings.Contains(model, "gpt"):
		return FamilyOpenAI, nil
	case strings.Contains(model, "claude"):
		return FamilyAnthropic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
}

// AnthropicTier extracts the cost tier label from a claude identifier.
// An unmatched tier is not an error; it prices at zero and the caller
// should log a warning.
func AnthropicTier(model string) string {
	for _, tier := range []string{"opus", "sonnet", "haiku"} {
		if strings.Contains(model, tier) {
			return tier
		}
	}
	return ""
}
