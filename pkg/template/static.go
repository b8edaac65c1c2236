package template

import "strings"

// SubstituteParams walks a decoded JSON body and replaces string leaves of
// the form ":name" with the matching path parameter value. Leaves whose
// parameter is absent are left untouched. Maps and slices are copied, other
// values are returned as-is.
func SubstituteParams(body any, params map[string]string) any {
	if len(params) == 0 {
		return body
	}
	switch v := body.(type) {
	case string:
		if name, ok := strings.CutPrefix(v, ":"); ok && name != "" {
			if value, ok := params[name]; ok {
				return value
			}
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = SubstituteParams(item, params)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = SubstituteParams(item, params)
		}
		return out
	default:
		return v
	}
}
