// Package llm selects a language-model backend by configuration and exposes it
// behind a single Caller interface. Backends translate provider failures into
// retry.StatusError so the retrying invoker can classify them.
package llm

import (
	"fmt"
	"time"
)

// Backend names a model provider.
type Backend string

// Supported backends
const (
	// BackendOpenAI is the OpenAI chat completions API
	BackendOpenAI Backend = "openai"
	// BackendPerplexity is Perplexity's OpenAI-compatible API
	BackendPerplexity Backend = "perplexity"
	// BackendClaude is the Anthropic messages API
	BackendClaude Backend = "claude"
	// BackendOllama is a local or remote Ollama server
	BackendOllama Backend = "ollama"
	// BackendHuggingFace is the Hugging Face inference API
	BackendHuggingFace Backend = "huggingface"
	// BackendGemini is Google Gemini through the generative-ai-go SDK
	BackendGemini Backend = "gemini"
	// BackendBedrock is Anthropic models on AWS Bedrock
	BackendBedrock Backend = "bedrock"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 60 * time.Second

var defaultModels = map[Backend]string{
	BackendOpenAI:      "gpt-4o-mini",
	BackendPerplexity:  "sonar",
	BackendClaude:      "claude-3-5-sonnet-20241022",
	BackendOllama:      "llama3",
	BackendHuggingFace: "mistralai/Mistral-7B-Instruct-v0.3",
	BackendGemini:      "gemini-2.5-flash",
	BackendBedrock:     "anthropic.claude-3-5-sonnet-20240620-v1:0",
}

var defaultBaseURLs = map[Backend]string{
	BackendOpenAI:      "https://api.openai.com/v1",
	BackendPerplexity:  "https://api.perplexity.ai",
	BackendClaude:      "https://api.anthropic.com/v1",
	BackendOllama:      "http://localhost:11434",
	BackendHuggingFace: "https://api-inference.huggingface.co",
}

// Config selects and parameterizes a backend. Endpoints come from trusted
// configuration and are not subject to SSRF checks.
type Config struct {
	Backend     Backend
	Model       string
	APIKey      string
	BaseURL     string
	Region      string // AWS region, bedrock only
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default configuration (Gemini, like the rest of the tool chain)
func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendGemini,
		Model:       defaultModels[BackendGemini],
		Timeout:     DefaultTimeout,
		Temperature: 0.1,
		MaxTokens:   4096,
	}
}

// DefaultModel returns the model used for backend when none is configured.
func DefaultModel(backend Backend) string {
	return defaultModels[backend]
}

// DefaultBaseURL returns the API root for an HTTP backend, or "" for SDK backends.
func DefaultBaseURL(backend Backend) string {
	return defaultBaseURLs[backend]
}

// WithModel returns a copy of c using model.
func (c *Config) WithModel(model string) *Config {
	cp := *c
	cp.Model = model
	return &cp
}

// withDefaults returns a copy with empty fields filled for c.Backend.
func (c *Config) withDefaults() *Config {
	cp := *c
	if cp.Model == "" {
		cp.Model = DefaultModel(cp.Backend)
	}
	if cp.BaseURL == "" {
		cp.BaseURL = DefaultBaseURL(cp.Backend)
	}
	if cp.Timeout <= 0 {
		cp.Timeout = DefaultTimeout
	}
	if cp.MaxTokens <= 0 {
		cp.MaxTokens = 4096
	}
	return &cp
}

// requireAPIKey fails for hosted backends without a key.
func (c *Config) requireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w for backend %s", ErrMissingAPIKey, c.Backend)
	}
	return nil
}
