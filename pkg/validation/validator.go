// Package validation checks request bodies against per-endpoint JSON Schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// Result is the outcome of validating one request body.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator compiles and caches endpoint schemas.
type Validator struct {
	compiler *jsonschema.Compiler
}

// New creates a validator.
func New() *Validator {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	return &Validator{compiler: c}
}

// Validate checks body against schema. A nil or empty schema always passes.
// Error strings carry the offending field path, or "body" for root errors.
func (v *Validator) Validate(schema map[string]any, body any) Result {
	if len(schema) == 0 {
		return Result{Valid: true}
	}

	compiled, err := v.compile(schema)
	if err != nil {
		return Result{Valid: false, Errors: []string{"body: invalid schema: " + err.Error()}}
	}

	if err := compiled.Validate(body); err != nil {
		return Result{Valid: false, Errors: flatten(err)}
	}
	return Result{Valid: true}
}

// Enforce applies the endpoint's validation mode to a result. It returns the
// validation errors to log and whether the request must be rejected.
func Enforce(mode mock.ValidationMode, res Result) (errors []string, reject bool) {
	if res.Valid || mode == mock.ValidationNone {
		return nil, false
	}
	return res.Errors, mode == mock.ValidationStrict
}

func (v *Validator) compile(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource("endpoint.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile("endpoint.json")
}

// flatten turns a jsonschema validation error tree into flat messages.
func flatten(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{"body: " + err.Error()}
	}

	var out []string
	collect(ve, &out)
	if len(out) == 0 {
		out = append(out, format(ve))
	}
	return out
}

// collect walks to the leaf causes, which carry the specific failures.
func collect(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		*out = append(*out, format(ve))
		return
	}
	for _, cause := range ve.Causes {
		collect(cause, out)
	}
}

func format(ve *jsonschema.ValidationError) string {
	return fmt.Sprintf("%s: %s", fieldPath(ve.InstanceLocation), ve.Message)
}

// fieldPath converts a JSON pointer like "/account/plan" to "account.plan".
// The root pointer maps to "body".
func fieldPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "body"
	}
	segments := strings.Split(pointer, "/")
	for i, s := range segments {
		s = strings.ReplaceAll(s, "~1", "/")
		segments[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return strings.Join(segments, ".")
}
