package engine

import (
	"sort"

	"github.com/johanstenius/mocktail-sub000/internal/matching"
	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// SelectVariant picks the variant to serve. Variants are walked in
// ascending priority order (stable, so equal priorities keep input order)
// and the first non-default variant whose rules match wins. The default
// variant is strictly a fallback: it is never matched by rules, only used
// when nothing else matches. With no default, the first variant in sorted
// order is the fallback. An empty list yields nil.
func SelectVariant(variants []*mock.Variant, ctx *matching.Context) *mock.Variant {
	if len(variants) == 0 {
		return nil
	}

	sorted := make([]*mock.Variant, len(variants))
	copy(sorted, variants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	var fallback *mock.Variant
	for _, v := range sorted {
		if v.IsDefault {
			if fallback == nil {
				fallback = v
			}
			continue
		}
		if matching.EvaluateRuleSet(v.Rules, ctx) {
			return v
		}
	}

	if fallback != nil {
		return fallback
	}
	return sorted[0]
}
