// Package llm holds the completion client seam: a transcript value, a model
// router, and one client per backend family. The two families differ only in
// request shape (OpenAI takes the system message inline; Anthropic takes it
// as a separate field), and that difference lives entirely inside the
// clients.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generation is the product of one completion call.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

type Client interface {
	Complete(ctx context.Context, transcript Transcript) (Generation, error)
}

// Config carries everything needed to construct a client for a model
// identifier. The backend family is resolved exactly once, here.
type Config struct {
	Model            string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	MaxTokens        int
	Timeout          time.Duration
}

// NewClient routes the model identifier and builds the matching backend
// client. Missing credentials and unroutable identifiers are configuration
// errors surfaced immediately.
func NewClient(cfg Config) (Client, error) {
	family, err := Route(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch family {
	case FamilyOpenAI:
		return newOpenAIClient(cfg)
	case FamilyAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, cfg.Model)
	}
}

// ExtractSQL strips a markdown code fence from model output. Models are
// instructed to return bare SQL but do not always comply.
func ExtractSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
