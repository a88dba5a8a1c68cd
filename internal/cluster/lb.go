package cluster

import (
	"math/rand/v2"
	"sync/atomic"
)

// LBPolicy selects one endpoint from a snapshot. Implementations must
// be safe for concurrent use; a cluster shares a single policy across
// all request goroutines.
type LBPolicy interface {
	Pick(endpoints []Endpoint) Endpoint
}

// RoundRobin cycles through endpoints in order, wrapping around.
// Selection state is a single atomic counter so concurrent Pick calls
// never contend on a lock.
type RoundRobin struct {
	counter atomic.Uint64
}

// Pick returns the next endpoint in rotation. Panics if endpoints is
// empty; callers must check EndpointSet.Empty first.
func (r *RoundRobin) Pick(endpoints []Endpoint) Endpoint {
	n := r.counter.Add(1) - 1
	return endpoints[n%uint64(len(endpoints))]
}

// Random picks a uniformly random endpoint on every call.
type Random struct{}

// Pick returns a random endpoint. Panics if endpoints is empty.
func (Random) Pick(endpoints []Endpoint) Endpoint {
	return endpoints[rand.IntN(len(endpoints))]
}
