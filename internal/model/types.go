// Package model holds the validated, immutable configuration tree
// produced by the config loader. Values here are constructed once at
// load time and shared read-only by every request path; no field is
// mutated after Config is returned from a successful load.
package model

import (
	"regexp"
	"time"
)

// Protocol identifies the wire protocol a Listener accepts.
type Protocol string

// Supported listener protocols.
const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

// MatchKind identifies which variant of MatchRule is populated.
type MatchKind int

// Supported match kinds, in the tie-break order the matcher applies.
const (
	MatchExact MatchKind = iota
	MatchPrefix
	MatchRegexp
)

// ResolverKind identifies which Cluster resolver variant is active.
type ResolverKind string

// Supported resolver kinds.
const (
	ResolverStatic ResolverKind = "static"
	ResolverDNS    ResolverKind = "dns"
)

// LBPolicyKind identifies which load-balancing policy a Cluster uses.
type LBPolicyKind string

// Supported load-balancing policies.
const (
	LBRoundRobin LBPolicyKind = "round_robin"
	LBRandom     LBPolicyKind = "random"
)

// DefaultDNSRefreshInterval is used when a Dns cluster omits
// refresh_interval.
const DefaultDNSRefreshInterval = 10 * time.Second

// Config is the top-level validated configuration: an ordered sequence
// of services.
type Config struct {
	Services []*Service
}

// Service binds listeners to routes, service-scoped plugins, and the
// clusters its routes may reference.
type Service struct {
	Name            string
	Listeners       []*Listener
	ServicePlugins  []*PluginInstance
	Routes          []*Route
	Clusters        map[string]*Cluster
	ClusterNames    []string // preserves config order for round-trip/serialization
}

// SSLConfig carries the TLS material for an https Listener.
type SSLConfig struct {
	CertPath string
	KeyPath  string
}

// Listener is an address+protocol the gateway accepts connections on.
type Listener struct {
	Name     string
	Address  string
	Protocol Protocol
	SSL      *SSLConfig // non-nil iff Protocol == ProtocolHTTPS
}

// MatchRule selects a Route by request path. Exactly one of the
// Exact/Prefix/Regexp fields is meaningful, per Kind.
type MatchRule struct {
	Kind   MatchKind
	Exact  string
	Prefix string
	// RegexpSrc is the original pattern text, kept for re-serialization
	// and structural-equality comparisons.
	RegexpSrc string
	Regexp    *regexp.Regexp
}

// Route is a match rule plus the plugin chain and backend cluster
// applied when the rule wins dispatch.
type Route struct {
	Name          string
	Match         MatchRule
	RoutePlugins  []*PluginInstance
	ClusterRef    string
}

// PluginInstance is a named plugin constructed from a raw YAML
// fragment. Value holds the opaque plugin produced by its registered
// constructor; RawConfig is retained for re-serialization.
type PluginInstance struct {
	Name      string
	RawConfig []byte // the raw YAML fragment passed to the constructor
	Value     any    // opaque plugin value; type-asserted against gwplugin hook interfaces
}

// Cluster is a named set of backend endpoints plus a resolution and
// load-balancing policy.
type Cluster struct {
	Name     string
	Resolver ResolverKind
	LBPolicy LBPolicyKind

	// Populated when Resolver == ResolverStatic.
	StaticEndpoints []StaticEndpoint

	// Populated when Resolver == ResolverDNS.
	DNSHost            string
	DNSPort            int
	DNSRefreshInterval time.Duration
}

// StaticEndpoint is a fixed host:port pair configured directly in YAML.
type StaticEndpoint struct {
	Host string
	Port int
}
