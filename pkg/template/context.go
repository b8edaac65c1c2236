package template

import (
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/johanstenius/mocktail-sub000/pkg/bucket"
)

// RequestData is the request snapshot templates can interpolate from.
type RequestData struct {
	Method  string
	Path    string
	Params  map[string]string
	Query   map[string]string
	Headers map[string]string
	Body    any    // parsed JSON body, or nil
	RawBody string // original body string
}

// Context carries everything a single render needs. It is request-scoped and
// passed explicitly; the engine keeps no ambient per-request state, so
// concurrent renders never interfere.
type Context struct {
	Request RequestData

	// ProjectID scopes bucket lookups.
	ProjectID string

	// Buckets resolves bucket helper calls. Nil disables bucket helpers.
	Buckets bucket.Accessor
}

// resolve evaluates a dotted data path rooted at "request". It returns the
// raw value and whether it was found; unresolved paths are simply absent.
func (c *Context) resolve(path string) (any, bool) {
	rest, ok := strings.CutPrefix(path, "request.")
	if !ok {
		return nil, false
	}

	section, field, hasField := strings.Cut(rest, ".")
	switch section {
	case "method":
		return c.Request.Method, true
	case "path":
		return c.Request.Path, true
	case "params":
		if !hasField {
			return nil, false
		}
		v, ok := c.Request.Params[field]
		return v, ok
	case "query":
		if !hasField {
			return nil, false
		}
		v, ok := c.Request.Query[field]
		return v, ok
	case "headers":
		if !hasField {
			return nil, false
		}
		return c.header(field)
	case "body":
		if !hasField {
			return c.Request.Body, c.Request.Body != nil
		}
		return c.bodyPath(field)
	default:
		return nil, false
	}
}

func (c *Context) header(key string) (string, bool) {
	if v, ok := c.Request.Headers[key]; ok {
		return v, true
	}
	for k, v := range c.Request.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (c *Context) bodyPath(path string) (any, bool) {
	if c.Request.Body == nil {
		return nil, false
	}
	expr, err := jp.ParseString("$." + path)
	if err != nil {
		return nil, false
	}
	results := expr.Get(c.Request.Body)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// truthy implements conditional-block truthiness: absent, nil, empty string,
// false and zero are falsy, everything else truthy.
func truthy(value any, found bool) bool {
	if !found || value == nil {
		return false
	}
	switch v := value.(type) {
	case string:
		return v != "" && v != "false" && v != "0"
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}
