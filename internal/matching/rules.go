package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// Evaluate checks a single match rule against the request context.
func Evaluate(rule mock.MatchRule, ctx *Context) bool {
	value, found := resolveTarget(rule, ctx)
	// Missing and null are one category: absent for every operator.
	present := found && value != nil

	switch rule.Operator {
	case mock.OpExists:
		return present
	case mock.OpNotExists:
		return !present
	case mock.OpEquals:
		return present && stringify(value) == rule.Value
	case mock.OpNotEquals:
		return !present || stringify(value) != rule.Value
	case mock.OpContains:
		return present && strings.Contains(stringify(value), rule.Value)
	case mock.OpNotContains:
		return !present || !strings.Contains(stringify(value), rule.Value)
	default:
		return false
	}
}

// EvaluateRuleSet applies a rule set's combination logic. An empty rule list
// is trivially true. "and" requires every rule; "or" requires at least one.
func EvaluateRuleSet(rs mock.MatchRuleSet, ctx *Context) bool {
	if rs.Empty() {
		return true
	}

	if rs.Logic == mock.LogicOr {
		for _, rule := range rs.Rules {
			if Evaluate(rule, ctx) {
				return true
			}
		}
		return false
	}

	// "and" is the default when logic is unset.
	for _, rule := range rs.Rules {
		if !Evaluate(rule, ctx) {
			return false
		}
	}
	return true
}

func resolveTarget(rule mock.MatchRule, ctx *Context) (any, bool) {
	switch rule.Target {
	case mock.TargetHeader:
		v, ok := ctx.Header(rule.Key)
		return v, ok
	case mock.TargetQuery:
		v, ok := ctx.Query[rule.Key]
		return v, ok
	case mock.TargetParam:
		v, ok := ctx.Params[rule.Key]
		return v, ok
	case mock.TargetBody:
		return ctx.BodyPath(rule.Key)
	default:
		return nil, false
	}
}

// stringify renders a resolved value the way rule comparison expects:
// numbers without trailing zeros, booleans as true/false.
func stringify(value any) string {
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
		return fmt.Sprintf("%v", v)
	}
}
