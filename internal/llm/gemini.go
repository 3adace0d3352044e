package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/jonathan/jobcraft/internal/retry"
)

// geminiCaller implements Caller for Google Gemini
type geminiCaller struct {
	client *genai.Client
	cfg    *Config
}

func newGeminiCaller(ctx context.Context, cfg *Config) (Caller, error) {
	if err := cfg.requireAPIKey(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiCaller{client: client, cfg: cfg}, nil
}

func (c *geminiCaller) Invoke(ctx context.Context, prompt string) (*Response, error) {
	start := time.Now()

	ctx, cancel := callTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(float32(c.cfg.Temperature))
	if c.cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.cfg.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", geminiError(err))
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	out := &Response{
		Text:    text,
		Model:   c.cfg.Model,
		Backend: BackendGemini,
		Latency: time.Since(start),
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// Close releases resources held by the client
func (c *geminiCaller) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response: %w", ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response: %w", ErrEmptyResponse)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response: %w", ErrEmptyResponse)
	}

	return strings.Join(parts, ""), nil
}

// geminiError converts SDK errors carrying an HTTP or gRPC status into
// *retry.StatusError. Anything else is returned unchanged.
func geminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &retry.StatusError{StatusCode: gerr.Code, Header: gerr.Header, Body: gerr.Message}
	}

	var aerr *apierror.APIError
	if !errors.As(err, &aerr) {
		return err
	}

	code := aerr.HTTPCode()
	if code <= 0 {
		code = httpStatusFromCode(aerr.GRPCStatus().Code())
	}
	if code <= 0 {
		return err
	}

	se := &retry.StatusError{StatusCode: code, Header: http.Header{}, Body: aerr.Error()}
	if d := aerr.Details().RetryInfo.GetRetryDelay(); d != nil {
		se.Header.Set("Retry-After", strconv.FormatFloat(d.AsDuration().Seconds(), 'f', -1, 64))
	}
	return se
}

// httpStatusFromCode maps the gRPC codes Gemini returns to HTTP statuses.
// Codes without an equivalent map to 0.
func httpStatusFromCode(c codes.Code) int {
	switch c {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Internal, codes.Unknown:
		return http.StatusInternalServerError
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return 0
	}
}
