package pricing

import (
	"math"
	"testing"
)

func TestEstimateKnownOpenAIModel(t *testing.T) {
	got := Estimate("gpt-4-0125-preview", 1_000_000, 1_000_000)
	if math.Abs(got-40) > 1e-9 {
		t.Fatalf("Estimate() = %f, want 40", got)
	}
}

func TestEstimateAnthropicTiers(t *testing.T) {
	tests := []struct {
		model string
		want  float64
	}{
		{"claude-3-opus-20240229", 90},
		{"claude-3-sonnet-20240229", 18},
		{"claude-3-haiku-20240307", 1.5},
	}
	for _, tt := range tests {
		got := Estimate(tt.model, 1_000_000, 1_000_000)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("Estimate(%q) = %f, want %f", tt.model, got, tt.want)
		}
	}
}

func TestEstimateUnknownModelIsZeroNotError(t *testing.T) {
	if got := Estimate("mistral-large", 500, 500); got != 0 {
		t.Fatalf("Estimate() = %f, want 0", got)
	}
	if _, ok := Resolve("opus-without-claude-prefix"); ok {
		t.Fatal("Resolve() matched a tier without the claude family substring")
	}
}

func TestEstimateMonotonicInTokenCounts(t *testing.T) {
	models := []string{"gpt-4", "gpt-3.5-turbo-0125", "claude-3-haiku-20240307", "unknown"}
	for _, model := range models {
		low := Estimate(model, 100, 100)
		high := Estimate(model, 200, 300)
		if low > high {
			t.Fatalf("Estimate(%q) not monotonic: %f > %f", model, low, high)
		}
		if low < 0 || high < 0 {
			t.Fatalf("Estimate(%q) returned negative cost", model)
		}
	}
}
