//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package agentclient talks to the local execution agent over HTTP.
package agentclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/autorpa/flowforge/agentwire"
	itelemetry "github.com/autorpa/flowforge/internal/telemetry"
	"github.com/autorpa/flowforge/log"
)

const (
	// DefaultBaseURL is where the agent listens unless configured otherwise.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultLogLimit is the number of log lines requested by Logs when limit <= 0.
	DefaultLogLimit = 100

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Agent endpoints.
const (
	PathHealth     = "/health"
	PathExecute    = "/execute"
	PathPicker     = "/picker/start"
	PathLogs       = "/logs"
	PathDiagnostic = "/diagnostic"
)

// Connection states reported by Health.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Execution states reported by Execute.
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionError     = "error"
)

// Picker modes.
const (
	PickerDesktop = "desktop"
	PickerWeb     = "web"
)

// Status describes agent reachability.
type Status struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	OS       string `json:"os,omitempty"`
	Python   string `json:"python,omitempty"`
	LastSeen string `json:"lastSeen,omitempty"`
}

// ExecutionResult is the agent's answer to an execute request.
type ExecutionResult struct {
	Status      string   `json:"status"`
	Progress    float64  `json:"progress,omitempty"`
	CurrentStep int      `json:"currentStep,omitempty"`
	TotalSteps  int      `json:"totalSteps,omitempty"`
	Logs        []string `json:"logs,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// StatusError is returned when the agent answers with a non 2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("agent %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("agent %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Option configures the Client.
type Option func(*config)

type config struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL sets the agent address.
func WithBaseURL(u string) Option {
	return func(cfg *config) {
		cfg.baseURL = u
	}
}

// WithTimeout sets the timeout of the default HTTP client. It is ignored
// when WithHTTPClient is given.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client.
func New(opts ...Option) *Client {
	cfg := &config{baseURL: DefaultBaseURL, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		http:    cfg.httpClient,
	}
}

// BaseURL returns the agent address.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes the agent. When the agent cannot be reached the returned
// status is disconnected and err explains why.
func (c *Client) Health(ctx context.Context) (*Status, error) {
	st := &Status{}
	if err := c.do(ctx, http.MethodGet, PathHealth, nil, nil, st); err != nil {
		return &Status{Status: StatusDisconnected}, err
	}
	st.Status = StatusConnected
	return st, nil
}

// Execute submits an agent workflow.
func (c *Client) Execute(ctx context.Context, wf *agentwire.Workflow) (*ExecutionResult, error) {
	if wf == nil {
		return nil, fmt.Errorf("agentclient: nil workflow")
	}
	res := &ExecutionResult{}
	if err := c.do(ctx, http.MethodPost, PathExecute, nil, wf, res); err != nil {
		return nil, err
	}
	return res, nil
}

// StartPicker starts the element picker in the given mode, desktop when empty.
func (c *Client) StartPicker(ctx context.Context, mode string) error {
	if mode == "" {
		mode = PickerDesktop
	}
	return c.do(ctx, http.MethodPost, PathPicker, nil, map[string]string{"mode": mode}, nil)
}

// Logs returns up to limit recent agent log lines.
func (c *Client) Logs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	var out struct {
		Logs []string `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, PathLogs, q, nil, &out); err != nil {
		return nil, err
	}
	if out.Logs == nil {
		return []string{}, nil
	}
	return out.Logs, nil
}

// Diagnostic runs the agent's self check.
func (c *Client) Diagnostic(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.do(ctx, http.MethodGet, PathDiagnostic, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("agent unreachable: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (err error) {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanAgentCall, trace.WithAttributes(
		attribute.String(itelemetry.KeyAgentEndpoint, path),
	))
	status := 0
	defer func() {
		itelemetry.IncAgentRequest(ctx, path, status, err != nil)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int(itelemetry.KeyAgentStatus, status))
		span.End()
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := log.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	log.Tracef("agent %s %s -> %d", method, path, resp.StatusCode)
	return nil
}
