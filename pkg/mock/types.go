// Package mock defines the configuration model for projects, endpoints and
// response variants served by the engine.
package mock

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValidationMode controls how request-body validation failures are handled.
type ValidationMode string

const (
	// ValidationNone disables request validation for the endpoint.
	ValidationNone ValidationMode = "none"
	// ValidationWarn records violations but never blocks the response.
	ValidationWarn ValidationMode = "warn"
	// ValidationStrict replaces the response with a 400 carrying the violations.
	ValidationStrict ValidationMode = "strict"
)

// BodyType determines how a variant's body is produced.
type BodyType string

const (
	// BodyStatic returns the literal body with path-param token substitution.
	BodyStatic BodyType = "static"
	// BodyTemplate runs the body string through the template engine.
	BodyTemplate BodyType = "template"
)

// DelayType selects between a fixed and a uniform-random simulated delay.
type DelayType string

const (
	DelayFixed  DelayType = "fixed"
	DelayRandom DelayType = "random"
)

// RuleTarget identifies which part of the request a match rule inspects.
type RuleTarget string

const (
	TargetHeader RuleTarget = "header"
	TargetQuery  RuleTarget = "query"
	TargetParam  RuleTarget = "param"
	TargetBody   RuleTarget = "body"
)

// RuleOperator is the comparison applied by a match rule.
type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpNotEquals   RuleOperator = "not_equals"
	OpContains    RuleOperator = "contains"
	OpNotContains RuleOperator = "not_contains"
	OpExists      RuleOperator = "exists"
	OpNotExists   RuleOperator = "not_exists"
)

// RuleLogic combines the rules of a rule set.
type RuleLogic string

const (
	LogicAnd RuleLogic = "and"
	LogicOr  RuleLogic = "or"
)

// Project owns a set of endpoints and an optional upstream for proxying.
type Project struct {
	// ID is the unique project identifier.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is a human-readable project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Upstream configures proxy forwarding. Nil means no upstream: unmatched
	// requests return 404 and proxy-enabled endpoints fall back to mocking.
	Upstream *Upstream `json:"upstream,omitempty" yaml:"upstream,omitempty"`

	// Endpoints are the configured endpoints in creation order. Matching
	// candidates are fed to the path matcher in this order, so ties between
	// equally specific patterns resolve to the earliest-created endpoint.
	Endpoints []*Endpoint `json:"endpoints,omitempty" yaml:"endpoints,omitempty" validate:"dive"`
}

// Upstream describes the real service behind a project's proxy.
type Upstream struct {
	// BaseURL is the upstream base URL requests are resolved against.
	BaseURL string `json:"baseUrl" yaml:"baseUrl" validate:"required"`

	// TimeoutMs is the hard timeout for a forwarded call (default 30000).
	TimeoutMs int `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty" validate:"gte=0"`

	// AuthPassThrough forwards the inbound Authorization header when true.
	AuthPassThrough bool `json:"authPassThrough,omitempty" yaml:"authPassThrough,omitempty"`

	// StaticAuthHeader, when set and AuthPassThrough is false, is sent as the
	// Authorization header on forwarded requests.
	StaticAuthHeader string `json:"staticAuthHeader,omitempty" yaml:"staticAuthHeader,omitempty"`
}

// Timeout returns the proxy timeout as a duration, applying the default.
func (u *Upstream) Timeout() time.Duration {
	if u == nil || u.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutMs) * time.Millisecond
}

// Endpoint is a (method, path pattern) pair within a project.
type Endpoint struct {
	ID        string `json:"id" yaml:"id"`
	ProjectID string `json:"projectId,omitempty" yaml:"projectId,omitempty"`

	// Method is one of GET, POST, PUT, PATCH, DELETE.
	Method string `json:"method" yaml:"method" validate:"required,oneof=GET POST PUT PATCH DELETE"`

	// Path is a pattern with :name segments, e.g. /users/:id/posts.
	Path string `json:"path" yaml:"path" validate:"required,startswith=/"`

	// ProxyEnabled forwards matched requests upstream instead of mocking.
	ProxyEnabled bool `json:"proxyEnabled,omitempty" yaml:"proxyEnabled,omitempty"`

	// Schema is a JSON-Schema document validated against the request body.
	// Empty or nil means no validation.
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`

	// ValidationMode controls schema enforcement (none, warn, strict).
	ValidationMode ValidationMode `json:"validationMode,omitempty" yaml:"validationMode,omitempty" validate:"omitempty,oneof=none warn strict"`

	// Variants are the candidate responses, selected per request.
	Variants []*Variant `json:"variants" yaml:"variants" validate:"dive"`

	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// DefaultVariant returns the variant flagged as default, or nil.
func (e *Endpoint) DefaultVariant() *Variant {
	for _, v := range e.Variants {
		if v.IsDefault {
			return v
		}
	}
	return nil
}

// Validate enforces the endpoint invariants that cannot be expressed as
// struct tags: at least one variant, at most one default.
func (e *Endpoint) Validate() error {
	if len(e.Variants) == 0 {
		return fmt.Errorf("endpoint %s %s: at least one variant is required", e.Method, e.Path)
	}
	defaults := 0
	for _, v := range e.Variants {
		if v.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("endpoint %s %s: at most one variant may be default, got %d", e.Method, e.Path, defaults)
	}
	return nil
}

// Variant is one possible response for an endpoint.
type Variant struct {
	ID string `json:"id" yaml:"id"`

	// Priority orders evaluation; lower values are evaluated first.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// IsDefault marks the last-resort variant that matches unconditionally.
	IsDefault bool `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`

	// Status is the HTTP status code to return.
	Status int `json:"status" yaml:"status" validate:"gte=100,lte=599"`

	// Headers are set on the response (values may contain templates when
	// BodyType is template).
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is either a literal JSON-like value (static) or a template source
	// string (template).
	Body any `json:"body,omitempty" yaml:"body,omitempty"`

	// BodyType selects static substitution or full templating.
	BodyType BodyType `json:"bodyType,omitempty" yaml:"bodyType,omitempty" validate:"omitempty,oneof=static template"`

	// DelayMs is the simulated latency in milliseconds.
	DelayMs int `json:"delayMs,omitempty" yaml:"delayMs,omitempty" validate:"gte=0"`

	// DelayType is fixed (exactly DelayMs) or random (uniform in [0, DelayMs]).
	DelayType DelayType `json:"delayType,omitempty" yaml:"delayType,omitempty" validate:"omitempty,oneof=fixed random"`

	// FailRate is the percent chance (0-100) of a synthetic 500.
	FailRate int `json:"failRate,omitempty" yaml:"failRate,omitempty" validate:"gte=0,lte=100"`

	// Rules guard selection of this variant. Ignored for the default variant.
	Rules MatchRuleSet `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// TemplateSource returns the variant body as a template string. Non-string
// bodies are marshalled to JSON so object-shaped templates still render.
func (v *Variant) TemplateSource() string {
	switch b := v.Body.(type) {
	case nil:
		return ""
	case string:
		return b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// MatchRuleSet is an ordered rule list plus combination logic.
type MatchRuleSet struct {
	Rules []MatchRule `json:"rules,omitempty" yaml:"rules,omitempty" validate:"dive"`
	Logic RuleLogic   `json:"logic,omitempty" yaml:"logic,omitempty" validate:"omitempty,oneof=and or"`
}

// Empty reports whether the rule set has no rules (trivially matching).
func (rs MatchRuleSet) Empty() bool { return len(rs.Rules) == 0 }

// MatchRule is a single boolean condition against one part of the request.
type MatchRule struct {
	// Target selects header, query, param or body.
	Target RuleTarget `json:"target" yaml:"target" validate:"required,oneof=header query param body"`

	// Key is the header/query/param name, or a dot-delimited path into the
	// JSON body for the body target.
	Key string `json:"key" yaml:"key" validate:"required"`

	// Operator is the comparison to apply.
	Operator RuleOperator `json:"operator" yaml:"operator" validate:"required,oneof=equals not_equals contains not_contains exists not_exists"`

	// Value is the comparison operand; unused by exists/not_exists.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// NeedsValue reports whether the rule's operator requires a value operand.
func (r MatchRule) NeedsValue() bool {
	return r.Operator != OpExists && r.Operator != OpNotExists
}

// Validate checks rule completeness beyond struct tags.
func (r MatchRule) Validate() error {
	if r.NeedsValue() && r.Value == "" {
		return fmt.Errorf("rule %s %s %s: operator requires a value", r.Target, r.Key, r.Operator)
	}
	return nil
}
