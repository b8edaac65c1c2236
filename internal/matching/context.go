package matching

import (
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Context is the request-scoped data match rules are evaluated against.
type Context struct {
	// Params are the path parameters resolved by the path matcher.
	Params map[string]string
	// Query is the raw query map (first value per key).
	Query map[string]string
	// Headers is the raw header map; lookups are case-insensitive.
	Headers map[string]string
	// Body is the parsed JSON request body, or nil when absent/unparseable.
	Body any
}

// Header looks up a header value case-insensitively.
func (c *Context) Header(key string) (string, bool) {
	if v, ok := c.Headers[key]; ok {
		return v, true
	}
	for k, v := range c.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// BodyPath resolves a dot-delimited path into the parsed body. It returns
// (nil, false) on any missing or non-object intermediate, mirroring the
// "undefined" result of a failed traversal.
func (c *Context) BodyPath(path string) (any, bool) {
	if c.Body == nil || path == "" {
		return nil, false
	}
	expr, err := jp.ParseString("$." + path)
	if err != nil {
		return nil, false
	}
	results := expr.Get(c.Body)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}
