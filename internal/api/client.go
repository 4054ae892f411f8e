package api

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
	"sync"

	"github.com/google/uuid"
	"github.com/me/acadeval/internal/logging"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// Client is the single choke-point for calls to the evaluation platform API.
// It attaches the bearer token and reports 401 responses to the handler
// installed with SetUnauthorizedHandler.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()
}

// NewClient creates an API client for the given base URL (including the
// /api/v1 prefix).
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Logger:     logging.Component(logger, "api"),
	}
}

// SetTokenSource installs the source of bearer tokens.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// SetUnauthorizedHandler installs fn to run whenever an authenticated call
// receives HTTP 401.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

type requestConfig struct {
	public bool
	query  url.Values
}

// RequestOption adjusts a single call.
type RequestOption func(*requestConfig)

// Public marks the call as anonymous: no bearer token is attached and a 401
// does not evict the session.
func Public() RequestOption {
	return func(rc *requestConfig) { rc.public = true }
}

// Query adds query parameters. Empty values are skipped.
func Query(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		for k, v := range params {
			if v == "" {
				continue
			}
			rc.query.Set(k, v)
		}
	}
}

func newRequestConfig(opts []RequestOption) *requestConfig {
	rc := &requestConfig{query: url.Values{}}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, opts)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out, opts)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out, opts)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out, opts)
}

// Upload posts a multipart form. The content type comes from the multipart
// writer, never JSON, and the bearer token is attached here directly.
func (c *Client) Upload(ctx context.Context, path string, form *Form, out any, opts ...RequestOption) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	rc := newRequestConfig(opts)
	data, _, err := c.send(ctx, http.MethodPost, path, body, contentType, rc)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// Download performs a GET request and returns the raw body and its content type.
func (c *Client) Download(ctx context.Context, path string, opts ...RequestOption) ([]byte, string, error) {
	rc := newRequestConfig(opts)
	return c.send(ctx, http.MethodGet, path, nil, "", rc)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts []RequestOption) error {
	rc := newRequestConfig(opts)

	var reader io.Reader
	var contentType string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		c.Logger.Debug("HTTP request body", "body", string(data))
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	data, _, err := c.send(ctx, method, path, reader, contentType, rc)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// send performs one HTTP exchange. There are no retries and no timeout
// beyond what HTTPClient and ctx impose.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, rc *requestConfig) ([]byte, string, error) {
	u := c.BaseURL + path
	if len(rc.query) > 0 {
		u += "?" + rc.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", "req_"+uuid.New().String()[:8])

	token := ""
	if !rc.public {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.Logger.Debug("HTTP request", "method", method, "url", u, "authenticated", token != "")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	c.Logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
			Body:       string(data),
		}
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.Logger.Warn("session rejected by server", "method", method, "path", path)
			c.unauthorized()
		}
		return nil, "", apiErr
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
