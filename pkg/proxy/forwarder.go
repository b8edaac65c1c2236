// Package proxy forwards requests to a project's upstream base URL with a
// hard timeout, header hygiene and classified failure outcomes.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/johanstenius/mocktail-sub000/pkg/logging"
)

// ErrorKind classifies a failed forward. The set is closed.
type ErrorKind string

const (
	ErrorTimeout    ErrorKind = "timeout"
	ErrorConnection ErrorKind = "connection_error"
	ErrorInvalidURL ErrorKind = "invalid_url"
)

// strippedHeaders are never forwarded in either direction. Authorization is
// handled separately because it is stripped only on the request side.
var strippedHeaders = map[string]bool{
	"host":              true,
	"x-api-key":         true,
	"api-key":           true,
	"connection":        true,
	"keep-alive":        true,
	"transfer-encoding": true,
	"content-length":    true,
}

// AuthConfig controls what happens to the inbound authorization header.
type AuthConfig struct {
	// PassThrough forwards the caller's authorization header verbatim.
	PassThrough bool
	// StaticHeader, when set and PassThrough is false, is sent as the
	// authorization header instead of the caller's.
	StaticHeader string
}

// Request is the inbound request to forward.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    any
}

// Result is the tagged outcome of a forward. Success carries the upstream
// response; failure carries a classification and message. DurationMs is set
// on every path.
type Result struct {
	Success    bool              `json:"success"`
	Status     int               `json:"status,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	Error      ErrorKind         `json:"error,omitempty"`
	Message    string            `json:"message,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

// Forwarder performs upstream calls.
type Forwarder struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a forwarder. Per-call timeouts come from the project's
// upstream config, so the shared client carries none.
func New() *Forwarder {
	return &Forwarder{
		client: &http.Client{},
		logger: logging.Nop(),
	}
}

// SetLogger sets the logger for the forwarder.
func (f *Forwarder) SetLogger(logger *slog.Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// Forward resolves req.Path against baseURL and performs the call. A
// malformed URL fails immediately with invalid_url and no network attempt.
func (f *Forwarder) Forward(ctx context.Context, baseURL string, req Request, timeout time.Duration, auth AuthConfig) Result {
	start := time.Now()

	target, err := buildTarget(baseURL, req.Path, req.Query)
	if err != nil {
		return Result{
			Success:    false,
			Error:      ErrorInvalidURL,
			Message:    err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	body, err := encodeBody(req.Method, req.Body)
	if err != nil {
		return Result{
			Success:    false,
			Error:      ErrorConnection,
			Message:    "encode request body: " + err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, target, body)
	if err != nil {
		return Result{
			Success:    false,
			Error:      ErrorInvalidURL,
			Message:    err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}
	applyRequestHeaders(httpReq, req.Headers, auth)
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		kind, msg := classify(err)
		f.logger.Warn("upstream call failed",
			"url", target,
			"error", msg,
			"kind", string(kind))
		return Result{
			Success:    false,
			Error:      kind,
			Message:    msg,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		kind, msg := classify(err)
		return Result{
			Success:    false,
			Error:      kind,
			Message:    msg,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	f.logger.Debug("upstream call completed",
		"url", target,
		"status", resp.StatusCode)

	return Result{
		Success:    true,
		Status:     resp.StatusCode,
		Headers:    filterResponseHeaders(resp.Header),
		Body:       decodeBody(resp.Header.Get("Content-Type"), raw),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// buildTarget joins base URL and path and appends the query string.
func buildTarget(baseURL, path string, query url.Values) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", errors.New("base URL must be http or https")
	}
	if base.Host == "" {
		return "", errors.New("base URL has no host")
	}

	joined := strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	target := *base
	target.Path = joined
	target.RawQuery = query.Encode()
	return target.String(), nil
}

// encodeBody prepares the outbound body. GET and HEAD never carry one;
// string bodies go out as-is, everything else is serialized to JSON.
func encodeBody(method string, body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return nil, nil
	}
	if s, ok := body.(string); ok {
		return strings.NewReader(s), nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// applyRequestHeaders copies inbound headers onto the outbound request,
// dropping transport and identity headers and applying the auth policy.
func applyRequestHeaders(req *http.Request, headers map[string]string, auth AuthConfig) {
	for key, value := range headers {
		lower := strings.ToLower(key)
		if strippedHeaders[lower] {
			continue
		}
		if lower == "authorization" {
			if auth.PassThrough {
				req.Header.Set("Authorization", value)
			}
			continue
		}
		req.Header.Set(key, value)
	}
	if !auth.PassThrough && auth.StaticHeader != "" {
		req.Header.Set("Authorization", auth.StaticHeader)
	}
}

// filterResponseHeaders drops hop-by-hop headers from the upstream
// response. Authorization survives in this direction.
func filterResponseHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if strippedHeaders[strings.ToLower(key)] || len(values) == 0 {
			continue
		}
		out[key] = values[0]
	}
	return out
}

// decodeBody parses JSON responses into structured values, else keeps text.
func decodeBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded
		}
	}
	return string(raw)
}

// classify maps a transport error to the closed error set.
func classify(err error) (ErrorKind, string) {
	msg := err.Error()

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout, msg
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return ErrorTimeout, msg
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrorTimeout, msg
	}
	return ErrorConnection, msg
}
