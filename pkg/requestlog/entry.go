// Package requestlog records one structured entry per served request for
// inspection and usage accounting.
package requestlog

import (
	"strings"
	"time"
)

// Source identifies how a response was produced.
type Source string

const (
	// SourceMock is a response rendered from a matched variant.
	SourceMock Source = "mock"
	// SourceProxy is a response from a proxy-enabled endpoint.
	SourceProxy Source = "proxy"
	// SourceProxyFallback is an upstream response for an unmatched path.
	SourceProxyFallback Source = "proxy_fallback"
)

// Entry captures the full outcome of one request.
type Entry struct {
	ID               string            `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	ProjectID        string            `json:"projectId"`
	EndpointID       *string           `json:"endpointId"`
	VariantID        *string           `json:"variantId"`
	Method           string            `json:"method"`
	Path             string            `json:"path"`
	Status           int               `json:"status"`
	RequestHeaders   map[string]string `json:"requestHeaders,omitempty"`
	RequestBody      any               `json:"requestBody,omitempty"`
	ResponseBody     any               `json:"responseBody,omitempty"`
	ValidationErrors []string          `json:"validationErrors"`
	DurationMs       int64             `json:"durationMs"`
	Source           Source            `json:"source"`
}

// Logger is the sink the orchestrator writes one entry per request to.
type Logger interface {
	Log(entry *Entry)
}

// Filter selects entries from a store. Zero values match everything.
type Filter struct {
	ProjectID  string
	EndpointID string
	Method     string
	PathPrefix string
	Status     int
	Source     Source
	Limit      int
	Offset     int
}

// matches reports whether an entry satisfies every set criterion.
func (f *Filter) matches(e *Entry) bool {
	if f.ProjectID != "" && e.ProjectID != f.ProjectID {
		return false
	}
	if f.EndpointID != "" && (e.EndpointID == nil || *e.EndpointID != f.EndpointID) {
		return false
	}
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.PathPrefix != "" && !strings.HasPrefix(e.Path, f.PathPrefix) {
		return false
	}
	if f.Status != 0 && e.Status != f.Status {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	return true
}
