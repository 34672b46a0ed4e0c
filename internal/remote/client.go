// Package remote talks to the todo, user and stats services over
// REST/JSON. Every call is bounded by a timeout and fails with a
// classified *Error.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Default call bounds
const (
	DefaultTimeout       = 5 * time.Second
	DefaultHealthTimeout = 3 * time.Second
)

// Op names the kind of call, for timeouts, logs and metrics
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpHealth Op = "health"
)

// Client performs calls against one backend
type Client struct {
	service       string
	base          string
	http          *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
	logger        *log.Logger
	metrics       *Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeouts sets the bound for regular calls and for health checks
func WithTimeouts(request, health time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.timeout = request
		}
		if health > 0 {
			c.healthTimeout = health
		}
	}
}

// WithLogger sets the logger used for call tracing
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records every call in m
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// APIBase appends the fixed /api suffix to a service base address
func APIBase(base string) string {
	return strings.TrimRight(base, "/") + "/api"
}

// New creates a client for the service reachable at baseURL. baseURL is
// the service address without the /api suffix.
func New(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service:       service,
		base:          APIBase(baseURL),
		http:          &http.Client{},
		timeout:       DefaultTimeout,
		healthTimeout: DefaultHealthTimeout,
		logger:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the human-readable service name
func (c *Client) Service() string {
	return c.service
}

// Do performs one call. in, if non-nil, is sent as the JSON body; out,
// if non-nil, receives the decoded response. It reports whether a
// response body was decoded into out.
func (c *Client) Do(ctx context.Context, op Op, method, path string, in, out any) (bool, error) {
	timeout := c.timeout
	if op == OpHealth {
		timeout = c.healthTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := uuid.New().String()
	start := time.Now()

	decoded, status, err := c.roundTrip(ctx, method, c.base+path, requestID, in, out)
	elapsed := time.Since(start)

	if err != nil {
		rerr := c.classify(op, status, err)
		c.logger.Warn("call failed", "service", c.service, "op", op, "path", path,
			"request_id", requestID, "kind", rerr.Kind, "status", status, "elapsed", elapsed, "err", err)
		c.metrics.observe(c.service, op, rerr.Kind.String(), elapsed)
		return false, rerr
	}

	c.logger.Debug("call ok", "service", c.service, "op", op, "path", path,
		"request_id", requestID, "status", status, "elapsed", elapsed)
	c.metrics.observe(c.service, op, "ok", elapsed)
	return decoded, nil
}

// errStatus marks a non-2xx response
var errStatus = errors.New("unexpected status")

func (c *Client) roundTrip(ctx context.Context, method, url, requestID string, in, out any) (bool, int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return false, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return false, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, resp.StatusCode, errStatus
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return false, resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return true, resp.StatusCode, nil
}

// classify maps a failed round trip to an *Error
func (c *Client) classify(op Op, status int, err error) *Error {
	e := &Error{Service: c.service, Op: op, Status: status, Err: err}

	var netErr net.Error
	switch {
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindTimeout
	default:
		e.Kind = KindUnreachable
	}
	return e
}
