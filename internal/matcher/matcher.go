// Package matcher implements the per-service route dispatch structure
// (spec §4.4): an exact-match hashmap, a longest-prefix table, and an
// ordered regexp list, built once at load time. At request time the
// exact map is O(1) average, the prefix list is scanned longest-first
// (linear in the number of prefix routes), and the regexp list costs
// O(R·|P|).
package matcher

import (
	"sort"

	"github.com/edgegate/edgegate/internal/model"
)

// Matcher resolves a request path to a Route for one service. Built
// once from a service's ordered routes and never mutated afterward.
type Matcher struct {
	exact    map[string]*model.Route
	prefixes []prefixEntry // sorted longest-literal-first; ties keep config order
	regexps  []*model.Route
}

type prefixEntry struct {
	literal string
	route   *model.Route
}

// Build compiles a service's ordered routes into a Matcher.
func Build(routes []*model.Route) *Matcher {
	m := &Matcher{exact: make(map[string]*model.Route)}

	for _, r := range routes {
		switch r.Match.Kind {
		case model.MatchExact:
			m.exact[r.Match.Exact] = r
		case model.MatchPrefix:
			m.prefixes = append(m.prefixes, prefixEntry{literal: r.Match.Prefix, route: r})
		case model.MatchRegexp:
			m.regexps = append(m.regexps, r)
		}
	}

	// Longest literal wins; stable sort preserves configuration order
	// among equal-length prefixes, per the documented tie-break.
	sort.SliceStable(m.prefixes, func(i, j int) bool {
		return len(m.prefixes[i].literal) > len(m.prefixes[j].literal)
	})

	return m
}

// Match selects a route for path per the deterministic algorithm in
// spec §4.4: exact, then longest matching prefix, then first matching
// regexp in configuration order. Returns (nil, false) if nothing
// matches.
func (m *Matcher) Match(path string) (*model.Route, bool) {
	if r, ok := m.exact[path]; ok {
		return r, true
	}

	for _, p := range m.prefixes {
		if hasPrefix(path, p.literal) {
			return p.route, true
		}
	}

	for _, r := range m.regexps {
		if r.Match.Regexp.MatchString(path) {
			return r, true
		}
	}

	return nil, false
}

func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}
