package llm

import (
	"errors"
	"testing"
)

func TestRouteByFamilySubstring(t *testing.T) {
	tests := []struct {
		model string
		want  Family
	}{
		{"gpt-4-0125-preview", FamilyOpenAI},
		{"gpt-3.5-turbo-instruct", FamilyOpenAI},
		{"claude-3-opus-20240229", FamilyAnthropic},
		{"claude-3-haiku-20240307", FamilyAnthropic},
	}
	for _, tt := range tests {
		got, err := Route(tt.model)
		if err != nil {
			t.Fatalf("Route(%q) error = %v", tt.model, err)
		}
		if got != tt.want {
			t.Fatalf("Route(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestRouteRejectsUnknownIdentifier(t *testing.T) {
	_, err := Route("mistral-large")
	if err == nil {
		t.Fatal("Route() expected error")
	}
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("Route() error = %v, want ErrUnsupportedModel", err)
	}
}

func TestAnthropicTier(t *testing.T) {
	if got := AnthropicTier("claude-3-sonnet-20240229"); got != "sonnet" {
		t.Fatalf("AnthropicTier() = %q", got)
	}
	if got := AnthropicTier("claude-next"); got != "" {
		t.Fatalf("AnthropicTier() = %q, want empty", got)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{Model: "gpt-4"}); err == nil {
		t.Fatal("NewClient() expected error for missing OpenAI key")
	}
	if _, err := NewClient(Config{Model: "claude-3-opus-20240229"}); err == nil {
		t.Fatal("NewClient() expected error for missing Anthropic key")
	}
	_, err := NewClient(Config{Model: "llama-70b"})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("NewClient() error = %v, want ErrUnsupportedModel", err)
	}
}
