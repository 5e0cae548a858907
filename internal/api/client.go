// Package api is the service layer in front of the TaskFlow REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nhle/taskflow/internal/telemetry"
)

// TokenSource supplies the bearer token and is told when the backend
// rejects it.
type TokenSource interface {
	Token() string
	Invalidate()
}

// Client is a thin HTTP client for the TaskFlow REST API. It handles
// Bearer token authentication, envelope decoding, and automatic retry
// with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// still wrapped with OpenTelemetry instrumentation.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMaxRetries bounds the number of retries on HTTP 429.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request counts and latencies on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for the backend rooted at baseURL
// (e.g., https://bookmaster.fun/api). tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *c.httpClient
	hc.Transport = otelhttp.NewTransport(base)
	c.httpClient = &hc

	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the response wrapper every TaskFlow endpoint uses.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Errors map[string]json.RawMessage `json:"errors"`
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and envelope decoding.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WarnContext(ctx, "request failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("request_id", requestID),
				slog.Any("error", err),
			)
			return &TransportError{Method: method, Path: path, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.metrics.RecordRequest(ctx, method, routeOf(path), resp.StatusCode, start)
		c.logger.DebugContext(ctx, "api request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", requestID),
			slog.Duration("elapsed", time.Since(start)),
		)
		if readErr != nil {
			return &TransportError{Method: method, Path: path, Status: resp.StatusCode, Err: readErr}
		}

		if isHTML(resp.Header.Get("Content-Type")) {
			c.logger.WarnContext(ctx, "html response",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)
			return &TransportError{Method: method, Path: path, Status: resp.StatusCode, HTML: true}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if c.tokens != nil {
				c.tokens.Invalidate()
			}
			msg := "session expired"
			var env envelope
			if json.Unmarshal(respBody, &env) == nil {
				msg = firstNonEmpty(env.Message, errorMessage(env), msg)
			}
			return &AuthError{Message: msg}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastStatus = resp.StatusCode
			wait := retryAfterDuration(resp, attempt)
			c.logger.InfoContext(ctx, "rate limited",
				slog.String("path", path),
				slog.Duration("wait", wait),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return decodeResponse(method, path, resp.StatusCode, respBody, result)
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries,
		&TransportError{Method: method, Path: path, Status: lastStatus},
	)
}

// decodeResponse unwraps the envelope into result. success:false is an
// APIError regardless of the HTTP status.
func decodeResponse(method, path string, status int, body []byte, result any) error {
	ok := status >= 200 && status < 300

	if len(bytes.TrimSpace(body)) == 0 {
		if ok {
			return nil
		}
		return &TransportError{Method: method, Path: path, Status: status}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Success == nil {
		if !ok {
			return &TransportError{Method: method, Path: path, Status: status, Err: err}
		}
		// Some endpoints answer with the bare payload.
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}
		return nil
	}

	if !*env.Success {
		apiErr := &APIError{Status: status, Message: firstNonEmpty(env.Message, errorMessage(env), flattenErrors(env.Errors), defaultMessage)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
		}
		return apiErr
	}

	if result == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Message
}

// flattenErrors joins a field validation map into one message, ordered
// by field name. Values may be a string or a list of strings.
func flattenErrors(errs map[string]json.RawMessage) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		raw := errs[field]
		var list []string
		if json.Unmarshal(raw, &list) == nil {
			parts = append(parts, list...)
			continue
		}
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			parts = append(parts, single)
			continue
		}
		parts = append(parts, field+" is invalid")
	}
	return strings.Join(parts, "; ")
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeOf collapses numeric path segments so metrics stay low-cardinality.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return idSegment.ReplaceAllString(path, "/{id}$1")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
