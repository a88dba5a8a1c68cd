package cluster

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/edgegate/edgegate/internal/model"
)

// Cluster is the runtime counterpart of model.Cluster: a resolver, a
// load-balancing policy, and the currently published EndpointSet. The
// snapshot is held behind an atomic.Pointer so Pick never blocks on a
// lock held by a concurrent refresh.
type Cluster struct {
	Name string

	resolver Resolver
	policy   LBPolicy
	logger   *zap.Logger

	snapshot atomic.Pointer[EndpointSet]

	refreshInterval time.Duration
	cancel          context.CancelFunc
}

// New builds a Cluster from a validated model.Cluster and performs the
// initial resolution synchronously so the cluster is immediately
// pickable. For DNS clusters it also starts a background refresh loop;
// callers must call Close when the cluster is no longer needed.
func New(c *model.Cluster, logger *zap.Logger) (*Cluster, error) {
	interval := c.DNSRefreshInterval
	if interval <= 0 {
		interval = model.DefaultDNSRefreshInterval
	}
	return newFromResolver(c.Name, NewResolver(c), newPolicy(c.LBPolicy), c.Resolver == model.ResolverDNS, interval, logger)
}

// newFromResolver builds a Cluster around an already-constructed
// Resolver. Split out from New so tests can exercise the initial-resolve
// and refresh-loop behavior against an injected resolver (e.g. a
// DNSResolver with a fake Lookup) without going through model.Cluster.
func newFromResolver(name string, resolver Resolver, policy LBPolicy, dns bool, refreshInterval time.Duration, logger *zap.Logger) (*Cluster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rc := &Cluster{
		Name:     name,
		resolver: resolver,
		policy:   policy,
		logger:   logger.With(zap.String("cluster", name)),
	}

	endpoints, err := rc.resolver.Resolve(context.Background())
	if err != nil {
		if !dns {
			return nil, err
		}
		// A Dns cluster degrades rather than failing startup: publish an
		// empty snapshot (Pick reports ErrNoEndpointsAvailable until a
		// refresh succeeds) and still start the refresh loop so it can
		// recover.
		rc.logger.Warn("initial dns resolution failed, starting with empty snapshot", zap.Error(err))
		rc.snapshot.Store(&EndpointSet{})
	} else {
		rc.snapshot.Store(&EndpointSet{Endpoints: endpoints})
	}

	if dns {
		rc.refreshInterval = refreshInterval
		ctx, cancel := context.WithCancel(context.Background())
		rc.cancel = cancel
		go rc.refreshLoop(ctx)
	}

	return rc, nil
}

func newPolicy(kind model.LBPolicyKind) LBPolicy {
	if kind == model.LBRandom {
		return Random{}
	}
	return &RoundRobin{}
}

func (c *Cluster) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			endpoints, err := c.resolver.Resolve(ctx)
			if err != nil {
				c.logger.Warn("dns refresh failed, keeping prior snapshot", zap.Error(err))
				continue
			}
			c.snapshot.Store(&EndpointSet{Endpoints: endpoints})
		}
	}
}

// Pick selects one endpoint from the current snapshot via the
// cluster's load-balancing policy.
func (c *Cluster) Pick() (Endpoint, error) {
	snap := c.snapshot.Load()
	if snap.Empty() {
		return Endpoint{}, ErrNoEndpointsAvailable
	}
	return c.policy.Pick(snap.Endpoints), nil
}

// Snapshot returns the currently published endpoint set.
func (c *Cluster) Snapshot() *EndpointSet {
	return c.snapshot.Load()
}

// Close stops the background refresh loop, if any. Safe to call on a
// static cluster.
func (c *Cluster) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Set is the built clusters for one service, keyed by name.
type Set map[string]*Cluster

// Build constructs a Cluster for every entry in a service's cluster
// map. On error it closes any clusters already built.
func Build(clusters map[string]*model.Cluster, logger *zap.Logger) (Set, error) {
	out := make(Set, len(clusters))
	for name, c := range clusters {
		rc, err := New(c, logger)
		if err != nil {
			for _, built := range out {
				built.Close()
			}
			return nil, err
		}
		out[name] = rc
	}
	return out, nil
}

// CloseAll closes every cluster in the set.
func (s Set) CloseAll() {
	for _, c := range s {
		c.Close()
	}
}
