package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type huggingFaceCaller struct {
	httpBackend
}

func newHuggingFaceCaller(_ context.Context, cfg *Config) (Caller, error) {
	if err := cfg.requireAPIKey(); err != nil {
		return nil, err
	}
	return &huggingFaceCaller{
		httpBackend: newHTTPBackend(cfg, auth{Key: cfg.APIKey}, nil),
	}, nil
}

type hfParameters struct {
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (c *huggingFaceCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	req := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			Temperature:    c.cfg.Temperature,
			MaxNewTokens:   c.cfg.MaxTokens,
			ReturnFullText: false,
		},
	}

	// Model IDs contain a slash (org/name) that must stay a path separator.
	path := "/models/" + (&url.URL{Path: c.cfg.Model}).EscapedPath()

	var resp []hfGeneration
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("huggingface: %w", err)
	}

	if len(resp) == 0 || strings.TrimSpace(resp[0].GeneratedText) == "" {
		return nil, fmt.Errorf("huggingface: %w", ErrEmptyResponse)
	}

	return &Response{
		Text:    resp[0].GeneratedText,
		Model:   c.cfg.Model,
		Backend: BackendHuggingFace,
		Latency: time.Since(start),
	}, nil
}

func (c *huggingFaceCaller) Close() error { return nil }
