package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
	"github.com/google/uuid"
)

// DefaultBaseURL is where a locally started runtime listens.
const DefaultBaseURL = "http://localhost:8000"

// InvalidResponseMessage is the problem shown for transport and decode failures.
const InvalidResponseMessage = domain.InvalidResponseMessage

// RequestIDHeader correlates a call in the client and runtime logs.
const RequestIDHeader = "X-Request-ID"

const maxBodySize = 16 << 20

// StatusError is returned when a strict endpoint answers with an error status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: runtime answered %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: runtime answered %d: %s", e.Op, e.StatusCode, e.Body)
}

// Unwrap lets callers match the error with errors.Is(err, domain.ErrTransport).
func (e *StatusError) Unwrap() error {
	return domain.ErrTransport
}

// Client is the HTTP implementation of ports.Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.Transport = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the runtime at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the runtime address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizeSource converts line endings to LF and tabs to four spaces,
// the only layout the runtime lexer accepts.
func NormalizeSource(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	return strings.ReplaceAll(source, "\t", "    ")
}

// Run executes a whole program.
func (c *Client) Run(ctx context.Context, source string) domain.RunResult {
	body, err := c.call(ctx, "run", http.MethodPost, "/run", nil, map[string]any{"code": NormalizeSource(source)}, true)
	return c.lenientRun("run", body, err)
}

// SubmitInput answers a pending input prompt and continues the program.
func (c *Client) SubmitInput(ctx context.Context, sessionID, value string) domain.RunResult {
	body, err := c.call(ctx, "input", http.MethodPost, "/input", nil, map[string]any{"session_id": sessionID, "value": value}, true)
	return c.lenientRun("input", body, err)
}

func (c *Client) lenientRun(op string, body map[string]any, err error) domain.RunResult {
	if err == nil {
		var res domain.RunResult
		if res, err = NormalizeRun(body); err == nil {
			return res
		}
	}
	c.logger.Warn("run call failed", "op", op, "err", err)
	return failedRun(err)
}

// StartDebug creates a debug session for the source, scoped to debugKey.
func (c *Client) StartDebug(ctx context.Context, source, debugKey string) domain.DebugResult {
	body, err := c.call(ctx, "debug", http.MethodPost, "/debug", nil, map[string]any{"code": NormalizeSource(source), "debug_key": debugKey}, true)
	return c.lenientDebug("debug", body, err)
}

// RunToNextError advances the session to the next error not yet reported for debugKey.
func (c *Client) RunToNextError(ctx context.Context, sessionID, debugKey string) domain.DebugResult {
	body, err := c.call(ctx, "next_error", http.MethodPost, "/debug/next-error", nil, map[string]any{"session_id": sessionID, "debug_key": debugKey}, true)
	return c.lenientDebug("next_error", body, err)
}

func (c *Client) lenientDebug(op string, body map[string]any, err error) domain.DebugResult {
	if err == nil {
		var res domain.DebugResult
		if res, err = NormalizeDebug(body); err == nil {
			return res
		}
	}
	c.logger.Warn("debug call failed", "op", op, "err", err)
	return failedDebug()
}

// Step executes one statement forward.
func (c *Client) Step(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	body, err := c.call(ctx, "step", http.MethodPost, "/step", sessionQuery(sessionID), nil, false)
	if err != nil {
		return domain.DebugResult{}, err
	}
	return NormalizeDebug(body)
}

// Back moves the session one snapshot back in its history.
func (c *Client) Back(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	body, err := c.call(ctx, "back", http.MethodPost, "/back", sessionQuery(sessionID), nil, false)
	if err != nil {
		return domain.DebugResult{}, err
	}
	return NormalizeBack(body)
}

// Env reads the variable environment of a session.
func (c *Client) Env(ctx context.Context, sessionID string) (map[string]any, error) {
	body, err := c.call(ctx, "env", http.MethodGet, "/env", sessionQuery(sessionID), nil, false)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// viewKeys are the parts of a flat detail body that the view already shows elsewhere.
var viewKeys = []string{
	"env", "environment", "output", "trace", "memory_kb", "memoryKB",
	"session_id", "success", "done", "finished",
}

// Detail reads the inspection detail of a session. A body that nests its detail
// object is unwrapped, with a top-level state_info folded in. A flat body keeps
// only what the view does not already carry, such as pc and state_info.
func (c *Client) Detail(ctx context.Context, sessionID string) (map[string]any, error) {
	body, err := c.call(ctx, "detail", http.MethodGet, "/detail", sessionQuery(sessionID), nil, false)
	if err != nil {
		return nil, err
	}
	if _, nested := body["detail"].(map[string]any); nested {
		res, err := NormalizeDebug(body)
		if err != nil {
			return nil, err
		}
		return res.Detail, nil
	}
	detail := domain.CloneMap(body)
	for _, key := range viewKeys {
		delete(detail, key)
	}
	return detail, nil
}

func sessionQuery(sessionID string) url.Values {
	return url.Values{"session_id": []string{sessionID}}
}

// call performs one request and decodes the body as a JSON object.
// Lenient calls decode the body whatever the status; strict calls turn any status
// of 400 or above into a *StatusError.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, payload any, lenient bool) (map[string]any, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrTransport, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrTransport, err)
	}
	c.logger.Debug("runtime call",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest && !lenient {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("body is not an object")
		}
		return nil, fmt.Errorf("%s: %w (status %d): %w", op, domain.ErrDecode, resp.StatusCode, err)
	}
	return body, nil
}

func failedRun(err error) domain.RunResult {
	res := domain.NewRunResult()
	res.Problems = []domain.Problem{{
		Kind:    domain.KindError,
		Title:   "Runtime Error:",
		Message: InvalidResponseMessage,
	}}
	res.Summary = domain.Summary{TotalErrors: 1, TotalProblems: 1}
	res.Message = err.Error()
	return res
}

func failedDebug() domain.DebugResult {
	res := domain.NewDebugResult()
	res.Error = &domain.DebugError{Message: InvalidResponseMessage}
	return res
}
