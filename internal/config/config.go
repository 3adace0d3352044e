// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/jobcraft/internal/fetch"
	"github.com/jonathan/jobcraft/internal/llm"
	"github.com/jonathan/jobcraft/internal/retry"
)

// APIKeyEnv overrides the secrets file.
const APIKeyEnv = "JOBCRAFT_API_KEY"

// ErrMissingSecret is returned when the secrets file has no llm_api_key.
var ErrMissingSecret = errors.New("missing secret")

// Config is the YAML configuration file. Missing values use Default().
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Retry   RetryConfig   `yaml:"retry"`
	Scraper ScraperConfig `yaml:"scraper"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	Backend           string        `yaml:"backend" validate:"required,oneof=openai perplexity claude ollama huggingface gemini bedrock"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Region            string        `yaml:"region"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	Temperature       float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int           `yaml:"max_tokens" validate:"gte=0"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"` // 0 = unlimited
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	MaxAttempts           int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelay             time.Duration `yaml:"base_delay" validate:"gte=0"`
	MaxBackoff            time.Duration `yaml:"max_backoff" validate:"gte=0"`
	DefaultRateLimitDelay time.Duration `yaml:"default_rate_limit_delay" validate:"gte=0"`
	MaxRateLimitDelay     time.Duration `yaml:"max_rate_limit_delay" validate:"gte=0"`
}

// ScraperConfig tunes job scraping.
type ScraperConfig struct {
	FetchTimeout          time.Duration `yaml:"fetch_timeout" validate:"gte=0"`
	UserAgent             string        `yaml:"user_agent"`
	UseBrowser            bool          `yaml:"use_browser"`
	BrowserTimeout        time.Duration `yaml:"browser_timeout" validate:"gte=0"`
	Concurrency           int           `yaml:"concurrency" validate:"gte=1,lte=32"`
	HostRequestsPerMinute int           `yaml:"host_requests_per_minute" validate:"gte=0"` // 0 = unlimited
	StrictDNS             bool          `yaml:"strict_dns"`
}

// CacheConfig selects the job cache.
type CacheConfig struct {
	Driver string        `yaml:"driver" validate:"oneof=none postgres redis"`
	URL    string        `yaml:"url" validate:"required_unless=Driver none"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=0"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	Verbose bool   `yaml:"verbose"`
}

// Secrets is the secrets YAML file.
type Secrets struct {
	LLMAPIKey string `yaml:"llm_api_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	policy := retry.DefaultPolicy()
	llmDefaults := llm.DefaultConfig()
	return Config{
		LLM: LLMConfig{
			Backend:     string(llmDefaults.Backend),
			Timeout:     llmDefaults.Timeout,
			Temperature: llmDefaults.Temperature,
			MaxTokens:   llmDefaults.MaxTokens,
		},
		Retry: RetryConfig{
			MaxAttempts:           policy.MaxAttempts,
			BaseDelay:             policy.BaseDelay,
			MaxBackoff:            policy.MaxBackoff,
			DefaultRateLimitDelay: policy.DefaultRateLimitDelay,
			MaxRateLimitDelay:     policy.MaxRateLimitDelay,
		},
		Scraper: ScraperConfig{
			FetchTimeout:   fetch.DefaultTimeout,
			UserAgent:      fetch.DefaultUserAgent,
			BrowserTimeout: fetch.DefaultBrowserTimeout,
			Concurrency:    4,
		},
		Cache: CacheConfig{
			Driver: "none",
			TTL:    24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// resolvePath resolves path relative to the current directory if not absolute
func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}

// LoadConfig loads configuration from a YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Load reads path (or only the defaults when path is empty), fills unset
// values from Default() and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return validationError(err)
	}
	if c.Retry.MaxBackoff < c.Retry.BaseDelay {
		return fmt.Errorf("config error: 'retry.max_backoff' must not be below 'retry.base_delay'")
	}
	return nil
}

// validationError reports every failed field by its YAML path.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("config error: %w", err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, ve := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("'%s' failed %s", yamlPath(ve.Namespace()), ve.Tag()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// yamlPath turns "Config.LLM.MaxTokens" into "llm.max_tokens".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.LLM.Backend == "" {
		result.LLM.Backend = defaults.LLM.Backend
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if result.LLM.Region == "" {
		result.LLM.Region = defaults.LLM.Region
	}
	if result.Scraper.UserAgent == "" {
		result.Scraper.UserAgent = defaults.Scraper.UserAgent
	}
	if result.Cache.Driver == "" {
		result.Cache.Driver = defaults.Cache.Driver
	}
	if result.Cache.URL == "" {
		result.Cache.URL = defaults.Cache.URL
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}

	// Numeric fields: use default if zero
	if result.LLM.Timeout == 0 {
		result.LLM.Timeout = defaults.LLM.Timeout
	}
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = defaults.LLM.Temperature
	}
	if result.LLM.MaxTokens == 0 {
		result.LLM.MaxTokens = defaults.LLM.MaxTokens
	}
	if result.Retry.MaxAttempts == 0 {
		result.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if result.Retry.BaseDelay == 0 {
		result.Retry.BaseDelay = defaults.Retry.BaseDelay
	}
	if result.Retry.MaxBackoff == 0 {
		result.Retry.MaxBackoff = defaults.Retry.MaxBackoff
	}
	if result.Retry.DefaultRateLimitDelay == 0 {
		result.Retry.DefaultRateLimitDelay = defaults.Retry.DefaultRateLimitDelay
	}
	if result.Retry.MaxRateLimitDelay == 0 {
		result.Retry.MaxRateLimitDelay = defaults.Retry.MaxRateLimitDelay
	}
	if result.Scraper.FetchTimeout == 0 {
		result.Scraper.FetchTimeout = defaults.Scraper.FetchTimeout
	}
	if result.Scraper.BrowserTimeout == 0 {
		result.Scraper.BrowserTimeout = defaults.Scraper.BrowserTimeout
	}
	if result.Scraper.Concurrency == 0 {
		result.Scraper.Concurrency = defaults.Scraper.Concurrency
	}
	if result.Cache.TTL == 0 {
		result.Cache.TTL = defaults.Cache.TTL
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// LoadAPIKey returns the LLM API key. JOBCRAFT_API_KEY wins over the secrets
// file; with neither, the key is empty, which only keyless backends accept.
func LoadAPIKey(secretsPath string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		return key, nil
	}
	if secretsPath == "" {
		return "", nil
	}

	path, err := resolvePath(secretsPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	var secrets Secrets
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("failed to parse secrets YAML: %w", err)
	}
	if strings.TrimSpace(secrets.LLMAPIKey) == "" {
		return "", fmt.Errorf("%w: 'llm_api_key' is missing or empty in %s (or set %s)", ErrMissingSecret, path, APIKeyEnv)
	}
	return strings.TrimSpace(secrets.LLMAPIKey), nil
}

// ModelConfig builds the model adapter configuration.
func (c *Config) ModelConfig(apiKey string) *llm.Config {
	return &llm.Config{
		Backend:     llm.Backend(c.LLM.Backend),
		Model:       c.LLM.Model,
		APIKey:      apiKey,
		BaseURL:     c.LLM.BaseURL,
		Region:      c.LLM.Region,
		Timeout:     c.LLM.Timeout,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
}

// RetryPolicy builds the retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:           c.Retry.MaxAttempts,
		BaseDelay:             c.Retry.BaseDelay,
		MaxBackoff:            c.Retry.MaxBackoff,
		DefaultRateLimitDelay: c.Retry.DefaultRateLimitDelay,
		MaxRateLimitDelay:     c.Retry.MaxRateLimitDelay,
	}
}

// FetchOptions builds the page fetch options.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = c.Scraper.FetchTimeout
	opts.UserAgent = c.Scraper.UserAgent
	return opts
}
