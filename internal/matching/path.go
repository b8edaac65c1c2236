// Package matching provides request matching: colon-parameter path patterns
// and boolean match rules evaluated against request data.
package matching

import (
	"strings"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// PathMatch is the result of matching a request path against a pattern.
type PathMatch struct {
	Matched bool
	// Params holds the values bound by :name pattern segments.
	Params map[string]string
}

// MatchPath checks a request path against a colon-parameter pattern.
// Both strings are split on "/" ignoring empty segments; segment counts must
// be equal. A pattern segment starting with ":" binds the request segment
// under that name; any other segment must be byte-equal.
func MatchPath(pattern, path string) PathMatch {
	patternSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	if len(patternSegs) != len(pathSegs) {
		return PathMatch{}
	}

	params := make(map[string]string)
	for i, seg := range patternSegs {
		if strings.HasPrefix(seg, ":") {
			params[seg[1:]] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return PathMatch{}
		}
	}

	return PathMatch{Matched: true, Params: params}
}

// Specificity scores a pattern by its number of literal (non-parameter)
// segments. Higher scores win when several patterns match the same path,
// so /users/active beats /users/:id for the request /users/active.
func Specificity(pattern string) int {
	score := 0
	for _, seg := range splitPath(pattern) {
		if !strings.HasPrefix(seg, ":") {
			score++
		}
	}
	return score
}

// BestMatch is a matched endpoint with its extracted path parameters.
type BestMatch struct {
	Endpoint *mock.Endpoint
	Params   map[string]string
}

// FindBestMatch returns the most specific endpoint matching the method and
// path, or nil when nothing matches. Candidates are evaluated in input order
// and ties keep the first candidate, so callers should pass endpoints in a
// stable order (creation order).
func FindBestMatch(endpoints []*mock.Endpoint, method, path string) *BestMatch {
	var best *BestMatch
	bestScore := -1

	for _, ep := range endpoints {
		if ep == nil || !strings.EqualFold(ep.Method, method) {
			continue
		}
		m := MatchPath(ep.Path, path)
		if !m.Matched {
			continue
		}
		if score := Specificity(ep.Path); score > bestScore {
			best = &BestMatch{Endpoint: ep, Params: m.Params}
			bestScore = score
		}
	}

	return best
}

// splitPath splits on "/" and drops empty segments, so "/a//b/" and "a/b"
// produce the same segments.
func splitPath(s string) []string {
	parts := strings.Split(s, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
