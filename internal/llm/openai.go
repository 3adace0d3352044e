package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const chatCompletionsPath = "/chat/completions"

// openAICaller speaks the OpenAI chat completions format. Perplexity exposes
// the same API under a different base URL.
type openAICaller struct {
	httpBackend
}

func newOpenAICaller(_ context.Context, cfg *Config) (Caller, error) {
	if err := cfg.requireAPIKey(); err != nil {
		return nil, err
	}
	return &openAICaller{
		httpBackend: newHTTPBackend(cfg, auth{Key: cfg.APIKey}, nil),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAICaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var resp chatResponse
	if err := c.postJSON(ctx, chatCompletionsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", c.cfg.Backend, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%s: %w", c.cfg.Backend, ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}

	return &Response{
		Text:         resp.Choices[0].Message.Content,
		Model:        model,
		Backend:      c.cfg.Backend,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Latency:      time.Since(start),
	}, nil
}

func (c *openAICaller) Close() error { return nil }
