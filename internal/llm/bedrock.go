package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/jonathan/jobcraft/internal/retry"
)

const bedrockAnthropicVersion = "bedrock-2023-05-31"

// bedrockCaller invokes Anthropic models hosted on AWS Bedrock. Credentials
// come from the default AWS chain.
type bedrockCaller struct {
	client *bedrockruntime.Client
	cfg    *Config
}

func newBedrockCaller(ctx context.Context, cfg *Config) (Caller, error) {
	opts := []func(*config.LoadOptions) error{
		// Retries belong to the invoker; the SDK makes one attempt.
		config.WithRetryMaxAttempts(1),
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if cfg.BaseURL != "" {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		}
	})

	return &bedrockCaller{client: client, cfg: cfg}, nil
}

type bedrockClaudeRequest struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	Messages         []chatMessage `json:"messages"`
}

func (c *bedrockCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	ctx, cancel := callTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(bedrockClaudeRequest{
		AnthropicVersion: bedrockAnthropicVersion,
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		Messages:         []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("bedrock: marshal request: %w", err))
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.cfg.Model),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w", bedrockError(err))
	}

	var resp claudeResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock: decode response: %w", err)
	}

	text := resp.text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("bedrock: %w", ErrEmptyResponse)
	}

	return &Response{
		Text:         text,
		Model:        c.cfg.Model,
		Backend:      BackendBedrock,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Latency:      time.Since(start),
	}, nil
}

func (c *bedrockCaller) Close() error { return nil }

// bedrockError turns an SDK response error into *retry.StatusError. Errors
// without an HTTP response (signing, dialing) are returned unchanged.
func bedrockError(err error) error {
	var re *awshttp.ResponseError
	if !errors.As(err, &re) || re.ResponseError == nil || re.Response == nil || re.Response.Response == nil {
		return err
	}

	return &retry.StatusError{
		StatusCode: re.HTTPStatusCode(),
		Header:     re.Response.Header.Clone(),
		Body:       re.Error(),
	}
}
