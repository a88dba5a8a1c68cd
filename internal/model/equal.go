package model

import "bytes"

// StructuralEqual reports whether c and other describe the same
// configuration, ignoring non-comparable runtime artifacts (compiled
// regexp pointers, opaque plugin values) in favor of their source
// representation (pattern text, raw YAML fragments). Used by the
// load -> serialize -> reload round-trip property.
func (c *Config) StructuralEqual(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.Services) != len(other.Services) {
		return false
	}
	for i, s := range c.Services {
		if !s.structuralEqual(other.Services[i]) {
			return false
		}
	}
	return true
}

func (s *Service) structuralEqual(o *Service) bool {
	if s.Name != o.Name {
		return false
	}
	if len(s.Listeners) != len(o.Listeners) {
		return false
	}
	for i, l := range s.Listeners {
		if !l.structuralEqual(o.Listeners[i]) {
			return false
		}
	}
	if !pluginsEqual(s.ServicePlugins, o.ServicePlugins) {
		return false
	}
	if len(s.Routes) != len(o.Routes) {
		return false
	}
	for i, r := range s.Routes {
		if !r.structuralEqual(o.Routes[i]) {
			return false
		}
	}
	if len(s.Clusters) != len(o.Clusters) {
		return false
	}
	for name, c := range s.Clusters {
		oc, ok := o.Clusters[name]
		if !ok || !c.structuralEqual(oc) {
			return false
		}
	}
	return true
}

func (l *Listener) structuralEqual(o *Listener) bool {
	if l.Name != o.Name || l.Address != o.Address || l.Protocol != o.Protocol {
		return false
	}
	switch {
	case l.SSL == nil && o.SSL == nil:
		return true
	case l.SSL == nil || o.SSL == nil:
		return false
	default:
		return *l.SSL == *o.SSL
	}
}

func (r *Route) structuralEqual(o *Route) bool {
	if r.Name != o.Name || r.ClusterRef != o.ClusterRef {
		return false
	}
	if !r.Match.structuralEqual(&o.Match) {
		return false
	}
	return pluginsEqual(r.RoutePlugins, o.RoutePlugins)
}

func (m *MatchRule) structuralEqual(o *MatchRule) bool {
	if m.Kind != o.Kind {
		return false
	}
	switch m.Kind {
	case MatchExact:
		return m.Exact == o.Exact
	case MatchPrefix:
		return m.Prefix == o.Prefix
	case MatchRegexp:
		return m.RegexpSrc == o.RegexpSrc
	default:
		return false
	}
}

func (c *Cluster) structuralEqual(o *Cluster) bool {
	if c.Name != o.Name || c.Resolver != o.Resolver || c.LBPolicy != o.LBPolicy {
		return false
	}
	switch c.Resolver {
	case ResolverStatic:
		if len(c.StaticEndpoints) != len(o.StaticEndpoints) {
			return false
		}
		for i, e := range c.StaticEndpoints {
			if e != o.StaticEndpoints[i] {
				return false
			}
		}
		return true
	case ResolverDNS:
		return c.DNSHost == o.DNSHost && c.DNSPort == o.DNSPort &&
			c.DNSRefreshInterval == o.DNSRefreshInterval
	default:
		return true
	}
}

func pluginsEqual(a, b []*PluginInstance) bool {
	if len(a) != len(b) {
		return false
	}
	for i, p := range a {
		if p.Name != b[i].Name {
			return false
		}
		if !bytes.Equal(normalizeYAML(p.RawConfig), normalizeYAML(b[i].RawConfig)) {
			return false
		}
	}
	return true
}

// normalizeYAML trims the surrounding whitespace YAML re-encoders tend
// to disagree on, so byte-for-byte comparison of semantically equal
// fragments doesn't spuriously fail.
func normalizeYAML(b []byte) []byte {
	return bytes.TrimSpace(b)
}
