package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	messagesPath     = "/messages"
	anthropicVersion = "2023-06-01"
)

type claudeCaller struct {
	httpBackend
}

func newClaudeCaller(_ context.Context, cfg *Config) (Caller, error) {
	if err := cfg.requireAPIKey(); err != nil {
		return nil, err
	}
	return &claudeCaller{
		httpBackend: newHTTPBackend(cfg,
			auth{Key: cfg.APIKey, Header: "x-api-key"},
			map[string]string{"anthropic-version": anthropicVersion},
		),
	}, nil
}

type claudeRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type claudeResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// text joins the text blocks of a messages-API reply.
func (r *claudeResponse) text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

func (c *claudeCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	req := claudeRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}

	var resp claudeResponse
	if err := c.postJSON(ctx, messagesPath, req, &resp); err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}

	text := resp.text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}

	return &Response{
		Text:         text,
		Model:        model,
		Backend:      BackendClaude,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      time.Since(start),
	}, nil
}

func (c *claudeCaller) Close() error { return nil }
