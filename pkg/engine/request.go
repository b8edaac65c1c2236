// Package engine implements the request-serving pipeline: project
// resolution, endpoint matching, variant selection, validation, rendering,
// failure simulation, proxying and per-request logging.
package engine

import "net/url"

// Request is one inbound request, already resolved to a project ID.
type Request struct {
	ProjectID string
	Method    string
	Path      string
	Query     url.Values
	Headers   map[string]string

	// Body is the parsed JSON body, nil when absent or not JSON.
	Body any

	// RawBody is the body as received, used for logging.
	RawBody string
}

// queryMap flattens the query to first values for rule evaluation.
func (r *Request) queryMap() map[string]string {
	if len(r.Query) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Query))
	for key, values := range r.Query {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

// Failure is the closed set of terminal lookup failures.
type Failure string

const (
	FailureProjectNotFound  Failure = "project_not_found"
	FailureEndpointNotFound Failure = "endpoint_not_found"
)

// Result is the discriminated outcome of serving a request. Failure is
// empty on success; Status, Headers and Body always describe the HTTP
// response to write.
type Result struct {
	Failure Failure
	Status  int
	Headers map[string]string
	Body    any
}

// errorBody builds the structured body used for terminal error outcomes.
func errorBody(kind, message string) map[string]any {
	return map[string]any{
		"error":   kind,
		"message": message,
	}
}
