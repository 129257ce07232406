package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

// anthropicClient talks to the Anthropic messages API directly. Unlike the
// OpenAI family, this request shape takes the system prompt as a top-level
// field next to the message list, so the client lifts it out of the
// transcript before sending.
type anthropicClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
		return nil, fmt.Errorf("CLAUDE_API_KEY must be set for model %q", cfg.Model)
	}
	baseURL := strings.TrimSpace(cfg.AnthropicBaseURL)
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &anthropicClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.AnthropicAPIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, transcript Transcript) (Generation, error) {
	system, _ := transcript.System()
	messages := make([]Message, 0, transcript.Len())
	for _, msg := range transcript.Messages() {
		if msg.Role == RoleSystem {
			continue
		}
		messages = append(messages, msg)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return Generation{}, fmt.Errorf("marshal messages payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Generation{}, fmt.Errorf("build messages request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Generation{}, fmt.Errorf("request message completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, fmt.Errorf("read messages response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Generation{}, fmt.Errorf("message completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Generation{}, fmt.Errorf("decode messages response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return Generation{}, fmt.Errorf("message completion returned no content blocks")
	}

	return Generation{
		Text:             parsed.Content[0].Text,
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
	}, nil
}
