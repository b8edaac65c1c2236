// Package template renders response bodies with request-data interpolation,
// conditional blocks, synthetic-data generators and bucket accessors.
//
// The grammar is deliberately small: {{request.query.x}} interpolation,
// {{#if path}}A{{else}}B{{/if}} conditionals with a mandatory else branch,
// a fixed catalogue of faker functions and three bucket helpers. Unresolved
// data paths render empty; malformed block syntax is a render error.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Engine renders templates. It is stateless and safe for concurrent use.
type Engine struct{}

// New creates a template engine.
func New() *Engine {
	return &Engine{}
}

// ErrMalformed is wrapped by every render error caused by bad block syntax.
var ErrMalformed = errors.New("malformed template")

// node is one element of a parsed template.
type node interface{}

type textNode string

type exprNode string

type ifNode struct {
	path  string
	then  []node
	other []node
}

var tokenRegex = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Render evaluates a template string with the given context.
func (e *Engine) Render(src string, ctx *Context) (string, error) {
	nodes, err := parse(src)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	renderNodes(&sb, nodes, ctx)
	return sb.String(), nil
}

// parse splits the source into text, expression and conditional nodes.
func parse(src string) ([]node, error) {
	type frame struct {
		path    string
		then    []node
		other   []node
		inElse  bool
		started bool
	}

	var stack []*frame
	top := &frame{started: true}
	stack = append(stack, top)

	emit := func(n node) {
		f := stack[len(stack)-1]
		if f.inElse {
			f.other = append(f.other, n)
		} else {
			f.then = append(f.then, n)
		}
	}

	pos := 0
	for _, loc := range tokenRegex.FindAllStringSubmatchIndex(src, -1) {
		if loc[0] > pos {
			emit(textNode(src[pos:loc[0]]))
		}
		pos = loc[1]
		expr := strings.TrimSpace(src[loc[2]:loc[3]])

		switch {
		case strings.HasPrefix(expr, "#if"):
			arg := strings.TrimSpace(strings.TrimPrefix(expr, "#if"))
			if arg == "" {
				return nil, fmt.Errorf("%w: #if without a condition path", ErrMalformed)
			}
			stack = append(stack, &frame{path: arg})

		case expr == "else":
			f := stack[len(stack)-1]
			if len(stack) == 1 || f.inElse {
				return nil, fmt.Errorf("%w: unexpected {{else}}", ErrMalformed)
			}
			f.inElse = true

		case expr == "/if":
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: {{/if}} without matching {{#if}}", ErrMalformed)
			}
			f := stack[len(stack)-1]
			if !f.inElse {
				return nil, fmt.Errorf("%w: {{#if %s}} is missing its {{else}} branch", ErrMalformed, f.path)
			}
			stack = stack[:len(stack)-1]
			emit(ifNode{path: f.path, then: f.then, other: f.other})

		default:
			emit(exprNode(expr))
		}
	}

	if len(stack) > 1 {
		return nil, fmt.Errorf("%w: unterminated {{#if %s}}", ErrMalformed, stack[len(stack)-1].path)
	}
	if pos < len(src) {
		emit(textNode(src[pos:]))
	}
	return top.then, nil
}

func renderNodes(sb *strings.Builder, nodes []node, ctx *Context) {
	for _, n := range nodes {
		switch v := n.(type) {
		case textNode:
			sb.WriteString(string(v))
		case exprNode:
			sb.WriteString(evaluate(string(v), ctx))
		case ifNode:
			value, found := resolveCtx(ctx, v.path)
			if truthy(value, found) {
				renderNodes(sb, v.then, ctx)
			} else {
				renderNodes(sb, v.other, ctx)
			}
		}
	}
}

func resolveCtx(ctx *Context, path string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	return ctx.resolve(path)
}

// Function-call expression patterns.
var (
	alphanumericPattern = regexp.MustCompile(`^alphanumeric\((\d+)\)$`)
	integerPattern      = regexp.MustCompile(`^integer\((\d+)\)$`)
	floatPattern        = regexp.MustCompile(`^float\((\d+(?:\.\d+)?),\s*(\d+)\)$`)
	bucketPattern       = regexp.MustCompile(`^bucket\("([^"]+)"\)$`)
	bucketLenPattern    = regexp.MustCompile(`^bucketLength\("([^"]+)"\)$`)
	bucketItemPattern   = regexp.MustCompile(`^bucketItem\("([^"]+)",\s*(-?\d+)\)$`)
)

// evaluate resolves a single expression. Unknown expressions and unresolved
// data paths render as the empty string.
func evaluate(expr string, ctx *Context) string {
	if strings.HasPrefix(expr, "request.") {
		value, found := resolveCtx(ctx, expr)
		if !found || value == nil {
			return ""
		}
		return formatValue(value)
	}

	// Zero-argument fakers.
	if fn, ok := fakers[expr]; ok {
		return fn()
	}

	// One-argument fakers.
	if m := alphanumericPattern.FindStringSubmatch(expr); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fakerAlphanumeric(n)
	}
	if m := integerPattern.FindStringSubmatch(expr); m != nil {
		n, _ := strconv.Atoi(m[1])
		return fakerInteger(n)
	}
	if m := floatPattern.FindStringSubmatch(expr); m != nil {
		max, _ := strconv.ParseFloat(m[1], 64)
		precision, _ := strconv.Atoi(m[2])
		return fakerFloat(max, precision)
	}

	// Bucket helpers.
	if m := bucketPattern.FindStringSubmatch(expr); m != nil {
		return evalBucket(ctx, m[1])
	}
	if m := bucketLenPattern.FindStringSubmatch(expr); m != nil {
		return evalBucketLength(ctx, m[1])
	}
	if m := bucketItemPattern.FindStringSubmatch(expr); m != nil {
		index, _ := strconv.Atoi(m[2])
		return evalBucketItem(ctx, m[1], index)
	}

	return ""
}

func evalBucket(ctx *Context, name string) string {
	if ctx == nil || ctx.Buckets == nil {
		return "[]"
	}
	items, ok := ctx.Buckets.Items(ctx.ProjectID, name)
	if !ok || items == nil {
		return "[]"
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func evalBucketLength(ctx *Context, name string) string {
	if ctx == nil || ctx.Buckets == nil {
		return "0"
	}
	items, ok := ctx.Buckets.Items(ctx.ProjectID, name)
	if !ok {
		return "0"
	}
	return strconv.Itoa(len(items))
}

func evalBucketItem(ctx *Context, name string, index int) string {
	if ctx == nil || ctx.Buckets == nil {
		return "null"
	}
	items, ok := ctx.Buckets.Items(ctx.ProjectID, name)
	if !ok {
		return "null"
	}
	if index < 0 {
		index += len(items)
	}
	if index < 0 || index >= len(items) {
		return "null"
	}
	raw, err := json.Marshal(items[index])
	if err != nil {
		return "null"
	}
	return string(raw)
}

// formatValue renders an interpolated value. Scalars render bare; objects and
// arrays render as JSON so nested body fields stay useful inside templates.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
