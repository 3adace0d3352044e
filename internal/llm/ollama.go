package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const generatePath = "/api/generate"

// ollamaCaller talks to an Ollama server. No API key is required.
type ollamaCaller struct {
	httpBackend
}

func newOllamaCaller(_ context.Context, cfg *Config) (Caller, error) {
	return &ollamaCaller{
		httpBackend: newHTTPBackend(cfg, auth{Key: cfg.APIKey}, nil),
	}, nil
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *ollamaCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	req := ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	}

	var resp ollamaResponse
	if err := c.postJSON(ctx, generatePath, req, &resp); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	if strings.TrimSpace(resp.Response) == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}

	return &Response{
		Text:         resp.Response,
		Model:        model,
		Backend:      BackendOllama,
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
		Latency:      time.Since(start),
	}, nil
}

func (c *ollamaCaller) Close() error { return nil }
