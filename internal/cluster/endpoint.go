// Package cluster owns per-cluster endpoint state: resolution
// (static or DNS), immutable snapshot publication, and load-balancing
// policy selection (spec §4.6). Cluster is the runtime counterpart of
// model.Cluster, built once per service at gateway assembly time.
package cluster

import (
	"errors"
	"fmt"
)

// ErrNoEndpointsAvailable is returned by Pick when a cluster's current
// snapshot is empty.
var ErrNoEndpointsAvailable = errors.New("cluster: no endpoints available")

// Endpoint is a concrete backend address selectable for proxying.
type Endpoint struct {
	Host string
	Port int
}

// String returns the endpoint as a dialable host:port string.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// EndpointSet is an immutable snapshot of a cluster's currently
// resolved endpoints. Never mutated after construction; the cluster
// publishes a new snapshot by swapping the pointer, never by editing
// one in place.
type EndpointSet struct {
	Endpoints []Endpoint
}

// Empty reports whether the snapshot has no endpoints.
func (s *EndpointSet) Empty() bool {
	return s == nil || len(s.Endpoints) == 0
}
