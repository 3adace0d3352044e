package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/jobcraft/internal/retry"
)

// auth describes how an API key is attached to requests.
type auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// httpBackend is the shared JSON-over-HTTP transport of the REST backends.
type httpBackend struct {
	cfg     *Config
	auth    auth
	headers map[string]string
	client  *http.Client
}

func newHTTPBackend(cfg *Config, a auth, headers map[string]string) httpBackend {
	return httpBackend{
		cfg:     cfg,
		auth:    a,
		headers: headers,
		// Per-call deadlines come from the context.
		client: &http.Client{},
	}
}

func (b *httpBackend) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := strings.TrimRight(b.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if b.auth.Key != "" {
		header := b.auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := b.auth.Key
		if header == "Authorization" {
			scheme := b.auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}
			value = scheme + " " + value
		} else if b.auth.Scheme != "" {
			value = b.auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// postJSON sends payload to path under the configured timeout and decodes a
// 2xx body into dest. Other statuses become *retry.StatusError; transport
// errors are returned wrapped but otherwise untouched.
func (b *httpBackend) postJSON(ctx context.Context, path string, payload, dest any) error {
	ctx, cancel := callTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := b.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req) //nolint:gosec // URL is built from trusted config, not user input.
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return retry.NewStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
