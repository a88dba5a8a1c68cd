package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgegate/edgegate/internal/model"
)

func TestCluster_PickReturnsListedEndpoint(t *testing.T) {
	c, err := New(&model.Cluster{
		Name:     "backend",
		Resolver: model.ResolverStatic,
		LBPolicy: model.LBRoundRobin,
		StaticEndpoints: []model.StaticEndpoint{
			{Host: "10.0.0.1", Port: 80},
			{Host: "10.0.0.2", Port: 80},
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	valid := map[string]bool{"10.0.0.1:80": true, "10.0.0.2:80": true}
	for i := 0; i < 10; i++ {
		e, err := c.Pick()
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if !valid[e.String()] {
			t.Fatalf("Pick returned unlisted endpoint %v", e)
		}
	}
}

func TestCluster_EmptyStaticListRejectedByResolverUser(t *testing.T) {
	// Cluster.New does not itself enforce non-empty static endpoints --
	// that's a config-time validation concern (internal/config) -- but
	// Pick must still fail safely against an empty snapshot.
	c, err := New(&model.Cluster{
		Name:     "backend",
		Resolver: model.ResolverStatic,
		LBPolicy: model.LBRoundRobin,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Pick(); !errors.Is(err, ErrNoEndpointsAvailable) {
		t.Fatalf("Pick error = %v, want ErrNoEndpointsAvailable", err)
	}
}

func TestCluster_DNSRefreshFailureKeepsPriorSnapshot(t *testing.T) {
	calls := 0
	c := &Cluster{
		Name: "dns-backend",
		resolver: DNSResolver{
			Host: "backend.internal",
			Port: 80,
			Lookup: func(ctx context.Context, host string) ([]string, error) {
				calls++
				if calls == 1 {
					return []string{"10.2.2.1"}, nil
				}
				return nil, errors.New("temporary dns failure")
			},
		},
		policy: &RoundRobin{},
	}

	endpoints, err := c.resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("initial resolve: %v", err)
	}
	c.snapshot.Store(&EndpointSet{Endpoints: endpoints})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c.refreshInterval = 5 * time.Millisecond
	done := make(chan struct{})
	go func() {
		c.refreshLoop(ctx)
		close(done)
	}()
	<-done

	if calls < 2 {
		t.Fatalf("expected refresh loop to attempt at least 2 lookups, got %d", calls)
	}

	e, err := c.Pick()
	if err != nil {
		t.Fatalf("Pick after failed refresh: %v", err)
	}
	if e.Host != "10.2.2.1" {
		t.Fatalf("Pick = %v, want prior snapshot endpoint 10.2.2.1", e)
	}
}

func TestCluster_DNSInitialResolveFailureDegradesInsteadOfErroring(t *testing.T) {
	calls := 0
	resolver := DNSResolver{
		Host: "backend.internal",
		Port: 80,
		Lookup: func(ctx context.Context, host string) ([]string, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("no such host")
			}
			return []string{"10.3.3.1"}, nil
		},
	}

	c, err := newFromResolver("dns-backend", resolver, &RoundRobin{}, true, 5*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New should degrade rather than error on initial DNS failure, got: %v", err)
	}
	defer c.Close()

	if _, err := c.Pick(); !errors.Is(err, ErrNoEndpointsAvailable) {
		t.Fatalf("Pick before refresh succeeds = %v, want ErrNoEndpointsAvailable", err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if e, err := c.Pick(); err == nil {
			if e.Host != "10.3.3.1" {
				t.Fatalf("Pick after recovery = %v, want 10.3.3.1", e)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("cluster never recovered a non-empty snapshot after the refresh loop ran")
}

func TestCluster_StaticResolverFailureStillErrorsNew(t *testing.T) {
	// The degrade-on-failure behavior is specific to Dns clusters; a
	// resolver that fails outside of that case (dns=false) is still
	// reported as a hard error from New.
	failing := DNSResolver{
		Host:   "backend.internal",
		Port:   80,
		Lookup: func(ctx context.Context, host string) ([]string, error) { return nil, errors.New("boom") },
	}
	_, err := newFromResolver("backend", failing, &RoundRobin{}, false, time.Second, nil)
	if err == nil {
		t.Fatal("expected error when dns=false and the resolver fails")
	}
}

func TestCluster_RandomPolicySelected(t *testing.T) {
	c, err := New(&model.Cluster{
		Name:     "backend",
		Resolver: model.ResolverStatic,
		LBPolicy: model.LBRandom,
		StaticEndpoints: []model.StaticEndpoint{
			{Host: "10.0.0.1", Port: 80},
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok := c.policy.(Random); !ok {
		t.Fatalf("policy = %T, want Random", c.policy)
	}
}
