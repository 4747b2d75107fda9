package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/domain"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"

	// maxBodySize caps how much of a response is read.
	maxBodySize = 1 << 20
)

// TokenSource returns the bearer token for backend requests.
// An empty token means the request is sent without Authorization.
type TokenSource func(ctx context.Context) (string, error)

// Option configures a client.
type Option func(*client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		c.logger = logger
	}
}

// WithTokenSource attaches a bearer token to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *client) {
		c.token = ts
	}
}

// WithDescriptorPath selects the descriptor collection, "experiment" or "experiments".
func WithDescriptorPath(path string) Option {
	return func(c *client) {
		if path != "" {
			c.descriptorPath = path
		}
	}
}

// client holds the transport shared by DeviceClient and BackendClient.
type client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
	token   TokenSource

	descriptorPath string
}

func newClient(baseURL string, opts ...Option) (*client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &client{
		base:    base,
		timeout: 10 * time.Second,
		logger:  logging.NewNop(),

		descriptorPath: DefaultDescriptorPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

func (c *client) url(path string) string {
	return c.base.JoinPath(strings.TrimPrefix(path, "/")).String()
}

// postConfig sends cfg as a single form field "config" holding its JSON text.
func (c *client) postConfig(ctx context.Context, path string, cfg any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	form := url.Values{"config": {string(raw)}}
	_, err = c.do(ctx, http.MethodPost, path, contentTypeForm, strings.NewReader(form.Encode()))
	return err
}

func (c *client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, contentTypeJSON, bytes.NewReader(raw))
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, path, err)
	}
	return nil
}

// do performs the request and returns the body of a 2xx response.
// Any other status becomes a *domain.StatusError.
func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	target := c.url(path)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)

	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", "method", method, "url", target, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, target, err)
	}
	c.logger.Debug("Request done", "method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{
			Method:  method,
			URL:     target,
			Code:    resp.StatusCode,
			Message: errorMessage(data),
		}
	}
	return data, nil
}

// errorMessage extracts {"message": "..."} from an error body when present.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
