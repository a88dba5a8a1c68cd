package cluster

import (
	"context"
	"fmt"
	"net"

	"github.com/edgegate/edgegate/internal/model"
)

// Resolver produces the current set of endpoints for a cluster. A
// resolver is invoked once at build time and, for resolvers that
// declare a refresh interval, again on every tick.
type Resolver interface {
	Resolve(ctx context.Context) ([]Endpoint, error)
}

// StaticResolver returns a fixed endpoint list taken directly from
// configuration. Resolve never fails.
type StaticResolver struct {
	Endpoints []Endpoint
}

// Resolve returns the configured endpoints.
func (s StaticResolver) Resolve(ctx context.Context) ([]Endpoint, error) {
	out := make([]Endpoint, len(s.Endpoints))
	copy(out, s.Endpoints)
	return out, nil
}

// DNSResolver resolves a single host:port pair by looking up all A/AAAA
// records for Host and pairing each with Port. A failed lookup is
// reported to the caller, which (per spec §4.6) is expected to keep
// serving the prior snapshot rather than clear it.
type DNSResolver struct {
	Host string
	Port int

	// Lookup defaults to net.DefaultResolver.LookupHost; overridable
	// in tests.
	Lookup func(ctx context.Context, host string) ([]string, error)
}

// Resolve looks up Host and returns one Endpoint per returned address.
func (d DNSResolver) Resolve(ctx context.Context) ([]Endpoint, error) {
	lookup := d.Lookup
	if lookup == nil {
		lookup = net.DefaultResolver.LookupHost
	}

	addrs, err := lookup(ctx, d.Host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup %s: %w", d.Host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("dns lookup %s: no addresses returned", d.Host)
	}

	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, Endpoint{Host: a, Port: d.Port})
	}
	return out, nil
}

// NewResolver builds the Resolver described by a validated model.Cluster.
func NewResolver(c *model.Cluster) Resolver {
	switch c.Resolver {
	case model.ResolverDNS:
		return DNSResolver{Host: c.DNSHost, Port: c.DNSPort}
	default:
		endpoints := make([]Endpoint, 0, len(c.StaticEndpoints))
		for _, e := range c.StaticEndpoints {
			endpoints = append(endpoints, Endpoint{Host: e.Host, Port: e.Port})
		}
		return StaticResolver{Endpoints: endpoints}
	}
}
