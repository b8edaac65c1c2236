package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

func testCtx() *Context {
	return &Context{
		Params:  map[string]string{"id": "7"},
		Query:   map[string]string{"type": "admin", "page": "2"},
		Headers: map[string]string{"X-Debug": "true", "Content-Type": "application/json"},
		Body: map[string]any{
			"user": map[string]any{
				"name": "ada",
				"age":  float64(36),
			},
			"tags":   []any{"a", "b"},
			"active": true,
			"note":   nil,
		},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		rule mock.MatchRule
		want bool
	}{
		{
			name: "query equals",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "type", Operator: mock.OpEquals, Value: "admin"},
			want: true,
		},
		{
			name: "query equals mismatch",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "type", Operator: mock.OpEquals, Value: "user"},
			want: false,
		},
		{
			name: "header lookup is case-insensitive",
			rule: mock.MatchRule{Target: mock.TargetHeader, Key: "x-debug", Operator: mock.OpEquals, Value: "true"},
			want: true,
		},
		{
			name: "param equals",
			rule: mock.MatchRule{Target: mock.TargetParam, Key: "id", Operator: mock.OpEquals, Value: "7"},
			want: true,
		},
		{
			name: "body dot path equals",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "user.name", Operator: mock.OpEquals, Value: "ada"},
			want: true,
		},
		{
			name: "body number stringified without trailing zeros",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "user.age", Operator: mock.OpEquals, Value: "36"},
			want: true,
		},
		{
			name: "body boolean stringified",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "active", Operator: mock.OpEquals, Value: "true"},
			want: true,
		},
		{
			name: "not_equals on present value",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "type", Operator: mock.OpNotEquals, Value: "user"},
			want: true,
		},
		{
			name: "not_equals true when value missing",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "absent", Operator: mock.OpNotEquals, Value: "x"},
			want: true,
		},
		{
			name: "contains substring",
			rule: mock.MatchRule{Target: mock.TargetHeader, Key: "content-type", Operator: mock.OpContains, Value: "json"},
			want: true,
		},
		{
			name: "contains false on missing value",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "absent", Operator: mock.OpContains, Value: "x"},
			want: false,
		},
		{
			name: "not_contains true on missing value",
			rule: mock.MatchRule{Target: mock.TargetQuery, Key: "absent", Operator: mock.OpNotContains, Value: "x"},
			want: true,
		},
		{
			name: "not_contains true on null body field",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "note", Operator: mock.OpNotContains, Value: "x"},
			want: true,
		},
		{
			name: "exists on present field",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "user.name", Operator: mock.OpExists},
			want: true,
		},
		{
			name: "exists false on null field",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "note", Operator: mock.OpExists},
			want: false,
		},
		{
			name: "not_exists on missing field",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "user.email", Operator: mock.OpNotExists},
			want: true,
		},
		{
			name: "missing intermediate resolves as absent",
			rule: mock.MatchRule{Target: mock.TargetBody, Key: "account.plan.tier", Operator: mock.OpExists},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.rule, testCtx()))
		})
	}
}

func TestEvaluateRuleSet(t *testing.T) {
	ctx := testCtx()
	typeAdmin := mock.MatchRule{Target: mock.TargetQuery, Key: "type", Operator: mock.OpEquals, Value: "admin"}
	debugOn := mock.MatchRule{Target: mock.TargetHeader, Key: "x-debug", Operator: mock.OpEquals, Value: "true"}
	neverTrue := mock.MatchRule{Target: mock.TargetQuery, Key: "type", Operator: mock.OpEquals, Value: "nope"}

	t.Run("empty set matches everything", func(t *testing.T) {
		assert.True(t, EvaluateRuleSet(mock.MatchRuleSet{}, ctx))
	})

	t.Run("and requires all rules", func(t *testing.T) {
		assert.True(t, EvaluateRuleSet(mock.MatchRuleSet{
			Rules: []mock.MatchRule{typeAdmin, debugOn},
			Logic: mock.LogicAnd,
		}, ctx))
		assert.False(t, EvaluateRuleSet(mock.MatchRuleSet{
			Rules: []mock.MatchRule{typeAdmin, neverTrue},
			Logic: mock.LogicAnd,
		}, ctx))
	})

	t.Run("or requires one rule", func(t *testing.T) {
		assert.True(t, EvaluateRuleSet(mock.MatchRuleSet{
			Rules: []mock.MatchRule{neverTrue, debugOn},
			Logic: mock.LogicOr,
		}, ctx))
		assert.False(t, EvaluateRuleSet(mock.MatchRuleSet{
			Rules: []mock.MatchRule{neverTrue, neverTrue},
			Logic: mock.LogicOr,
		}, ctx))
	})

	t.Run("unset logic defaults to and", func(t *testing.T) {
		assert.False(t, EvaluateRuleSet(mock.MatchRuleSet{
			Rules: []mock.MatchRule{typeAdmin, neverTrue},
		}, ctx))
	})
}
