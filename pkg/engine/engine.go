package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/johanstenius/mocktail-sub000/internal/matching"
	"github.com/johanstenius/mocktail-sub000/internal/storage"
	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
	"github.com/johanstenius/mocktail-sub000/pkg/logging"
	"github.com/johanstenius/mocktail-sub000/pkg/mock"
	"github.com/johanstenius/mocktail-sub000/pkg/notify"
	"github.com/johanstenius/mocktail-sub000/pkg/proxy"
	"github.com/johanstenius/mocktail-sub000/pkg/requestlog"
	"github.com/johanstenius/mocktail-sub000/pkg/template"
	"github.com/johanstenius/mocktail-sub000/pkg/validation"
)

// Engine turns an inbound request into a response. One instance serves all
// projects concurrently; per-request state never leaks between calls.
type Engine struct {
	store     storage.ProjectStore
	buckets   *bucket.Store
	templates *template.Engine
	validator *validation.Validator
	forwarder *proxy.Forwarder
	logSink   requestlog.Logger
	notifier  notify.Sink
	logger    *slog.Logger

	// Injection points for deterministic tests.
	randInt func(n int) int
	sleep   func(d time.Duration)
}

// New creates an engine over the given project store and bucket store.
// Logging and notification sinks default to no-ops.
func New(store storage.ProjectStore, buckets *bucket.Store) *Engine {
	return &Engine{
		store:     store,
		buckets:   buckets,
		templates: template.New(),
		validator: validation.New(),
		forwarder: proxy.New(),
		logSink:   requestlog.NewMemoryStore(0),
		notifier:  notify.NopSink{},
		logger:    logging.Nop(),
		randInt:   rand.Intn,
		sleep:     time.Sleep,
	}
}

// SetLogger sets the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
		e.forwarder.SetLogger(logger)
	}
}

// SetLogSink sets the per-request log sink.
func (e *Engine) SetLogSink(sink requestlog.Logger) {
	if sink != nil {
		e.logSink = sink
	}
}

// SetNotifier sets the stats-changed notification sink.
func (e *Engine) SetNotifier(sink notify.Sink) {
	if sink != nil {
		e.notifier = sink
	}
}

// Serve runs the full pipeline for one request. Exactly one log entry and
// one (debounced) notification are emitted per call, terminal errors
// included.
func (e *Engine) Serve(ctx context.Context, req *Request) Result {
	start := time.Now()

	project := e.store.Get(req.ProjectID)
	if project == nil {
		res := Result{
			Failure: FailureProjectNotFound,
			Status:  http.StatusNotFound,
			Body:    errorBody(string(FailureProjectNotFound), fmt.Sprintf("project %q not found", req.ProjectID)),
		}
		e.finish(req, nil, nil, res, nil, requestlog.SourceMock, start)
		return res
	}

	best := matching.FindBestMatch(project.Endpoints, req.Method, req.Path)

	if best == nil {
		if project.Upstream != nil && project.Upstream.BaseURL != "" {
			res := e.forward(ctx, project, req)
			e.finish(req, nil, nil, res, nil, requestlog.SourceProxyFallback, start)
			return res
		}
		res := Result{
			Failure: FailureEndpointNotFound,
			Status:  http.StatusNotFound,
			Body:    errorBody(string(FailureEndpointNotFound), fmt.Sprintf("no endpoint matches %s %s", req.Method, req.Path)),
		}
		e.finish(req, nil, nil, res, nil, requestlog.SourceMock, start)
		return res
	}

	endpoint := best.Endpoint
	if endpoint.ProxyEnabled && project.Upstream != nil && project.Upstream.BaseURL != "" {
		res := e.forward(ctx, project, req)
		e.finish(req, endpoint, nil, res, nil, requestlog.SourceProxy, start)
		return res
	}

	matchCtx := &matching.Context{
		Params:  best.Params,
		Query:   req.queryMap(),
		Headers: req.Headers,
		Body:    req.Body,
	}

	variant := SelectVariant(endpoint.Variants, matchCtx)
	if variant == nil {
		res := Result{
			Status: http.StatusInternalServerError,
			Body:   errorBody("no_variant", "no response variant configured"),
		}
		e.finish(req, endpoint, nil, res, nil, requestlog.SourceMock, start)
		return res
	}

	var validationErrors []string
	if endpoint.ValidationMode != "" && endpoint.ValidationMode != mock.ValidationNone && len(endpoint.Schema) > 0 {
		verdict := e.validator.Validate(endpoint.Schema, req.Body)
		errs, reject := validation.Enforce(endpoint.ValidationMode, verdict)
		validationErrors = errs
		if reject {
			res := Result{
				Status: http.StatusBadRequest,
				Body: map[string]any{
					"error":  "validation_failed",
					"errors": errs,
				},
			}
			e.finish(req, endpoint, variant, res, validationErrors, requestlog.SourceMock, start)
			return res
		}
	}

	res := e.render(variant, best.Params, req)

	e.simulate(variant, &res)

	stripBodylessStatus(&res)
	e.finish(req, endpoint, variant, res, validationErrors, requestlog.SourceMock, start)
	return res
}

// forward delegates to the proxy forwarder and maps its outcome. Failures
// become 502 with the classification in the body; upstream statuses pass
// through verbatim.
func (e *Engine) forward(ctx context.Context, project *mock.Project, req *Request) Result {
	up := project.Upstream
	outcome := e.forwarder.Forward(ctx, up.BaseURL, proxy.Request{
		Method:  req.Method,
		Path:    req.Path,
		Query:   req.Query,
		Headers: req.Headers,
		Body:    req.Body,
	}, up.Timeout(), proxy.AuthConfig{
		PassThrough:  up.AuthPassThrough,
		StaticHeader: up.StaticAuthHeader,
	})

	if !outcome.Success {
		return Result{
			Status: http.StatusBadGateway,
			Body:   errorBody(string(outcome.Error), outcome.Message),
		}
	}

	res := Result{
		Status:  outcome.Status,
		Headers: outcome.Headers,
		Body:    outcome.Body,
	}
	stripBodylessStatus(&res)
	return res
}

// render produces the response for a selected variant. Static bodies get
// path-param token substitution; template bodies run through the template
// engine, with header values templated as well. Malformed templates degrade
// to a 500 template error.
func (e *Engine) render(variant *mock.Variant, params map[string]string, req *Request) Result {
	status := variant.Status
	if status == 0 {
		status = http.StatusOK
	}

	if variant.BodyType != mock.BodyTemplate {
		return Result{
			Status:  status,
			Headers: cloneHeaders(variant.Headers),
			Body:    template.SubstituteParams(variant.Body, params),
		}
	}

	tmplCtx := &template.Context{
		Request: template.RequestData{
			Method:  req.Method,
			Path:    req.Path,
			Params:  params,
			Query:   req.queryMap(),
			Headers: req.Headers,
			Body:    req.Body,
			RawBody: req.RawBody,
		},
		ProjectID: req.ProjectID,
		Buckets:   e.buckets,
	}

	rendered, err := e.templates.Render(variant.TemplateSource(), tmplCtx)
	if err != nil {
		e.logger.Warn("template render failed",
			"project", req.ProjectID,
			"variant", variant.ID,
			"error", err)
		return Result{
			Status: http.StatusInternalServerError,
			Body:   errorBody("template_error", err.Error()),
		}
	}

	headers := make(map[string]string, len(variant.Headers))
	for key, value := range variant.Headers {
		if out, err := e.templates.Render(value, tmplCtx); err == nil {
			headers[key] = out
		} else {
			headers[key] = value
		}
	}

	return Result{
		Status:  status,
		Headers: headers,
		Body:    decodeRendered(rendered),
	}
}

// simulate applies the variant's artificial delay, then rolls its fail
// rate. The delay always completes; it is a feature, not I/O.
func (e *Engine) simulate(variant *mock.Variant, res *Result) {
	if variant.DelayMs > 0 {
		delay := variant.DelayMs
		if variant.DelayType == mock.DelayRandom {
			delay = e.randInt(variant.DelayMs + 1)
		}
		if delay > 0 {
			e.sleep(time.Duration(delay) * time.Millisecond)
		}
	}

	if variant.FailRate > 0 && e.randInt(100) < variant.FailRate {
		*res = Result{
			Status: http.StatusInternalServerError,
			Body:   errorBody("simulated_failure", "failure injected by variant fail rate"),
		}
	}
}

// finish emits the log entry and the debounced stats notification. It runs
// exactly once per request on every path through Serve.
func (e *Engine) finish(req *Request, endpoint *mock.Endpoint, variant *mock.Variant, res Result, validationErrors []string, source requestlog.Source, start time.Time) {
	entry := &requestlog.Entry{
		ProjectID:        req.ProjectID,
		Method:           req.Method,
		Path:             req.Path,
		Status:           res.Status,
		RequestHeaders:   req.Headers,
		RequestBody:      req.Body,
		ResponseBody:     res.Body,
		ValidationErrors: validationErrors,
		DurationMs:       time.Since(start).Milliseconds(),
		Source:           source,
	}
	if endpoint != nil {
		id := endpoint.ID
		entry.EndpointID = &id
	}
	if variant != nil {
		id := variant.ID
		entry.VariantID = &id
	}
	e.logSink.Log(entry)

	payload := map[string]any{
		"method": req.Method,
		"path":   req.Path,
		"status": res.Status,
	}
	if endpoint != nil {
		payload["endpointId"] = endpoint.ID
	}
	e.notifier.Notify(notify.Event{
		Type:    notify.EventStatsChanged,
		Scope:   notify.ScopeProject,
		ScopeID: req.ProjectID,
		Payload: payload,
	})

	e.logger.Debug("request served",
		"project", req.ProjectID,
		"method", req.Method,
		"path", req.Path,
		"status", res.Status,
		"source", string(source))
}

// stripBodylessStatus drops the body for statuses that must not carry one.
func stripBodylessStatus(res *Result) {
	if res.Status == http.StatusNoContent || res.Status == http.StatusNotModified {
		res.Body = nil
	}
}

// decodeRendered parses template output as JSON when possible so the
// response writer can re-encode it consistently; otherwise the raw string
// is served as-is.
func decodeRendered(rendered string) any {
	if rendered == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(rendered), &decoded); err == nil {
		return decoded
	}
	return rendered
}

func cloneHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
