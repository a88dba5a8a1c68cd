// Package gateway assembles a validated model.Config into runtime
// services: each service binds a route matcher, a plugin pipeline, and
// a set of clusters into an http.Handler that implements the request
// lifecycle of spec §4.5/§6 (match -> request_filter -> pick_endpoint
// -> proxy -> response_filter).
package gateway

import (
	"go.uber.org/zap"

	"github.com/edgegate/edgegate/internal/cluster"
	"github.com/edgegate/edgegate/internal/matcher"
	"github.com/edgegate/edgegate/internal/model"
	"github.com/edgegate/edgegate/internal/pipeline"
)

// Service is the runtime counterpart of model.Service: a bound matcher,
// resolved clusters, and one combined plugin chain per route (service
// plugins followed by that route's own plugins).
type Service struct {
	Name            string
	Matcher         *matcher.Matcher
	Clusters        cluster.Set
	RoutePipelines  map[string]*pipeline.Chain // service_plugins ++ route_plugins, keyed by route name
	RouteClusterRef map[string]string          // route name -> cluster name
	Listeners       []*model.Listener
	logger          *zap.Logger
}

// Set is every built service, keyed by name.
type Set map[string]*Service

// Build constructs runtime Services for every service in cfg. On error
// it closes any clusters already built.
func Build(cfg *model.Config, logger *zap.Logger) (Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make(Set, len(cfg.Services))
	for _, svc := range cfg.Services {
		clusters, err := cluster.Build(svc.Clusters, logger)
		if err != nil {
			out.CloseAll()
			return nil, err
		}

		routePipelines := make(map[string]*pipeline.Chain, len(svc.Routes))
		routeClusterRef := make(map[string]string, len(svc.Routes))
		for _, route := range svc.Routes {
			// Effective chain per spec §4.5: service_plugins ++ route_plugins,
			// same order for every lifecycle stage.
			effective := make([]*model.PluginInstance, 0, len(svc.ServicePlugins)+len(route.RoutePlugins))
			effective = append(effective, svc.ServicePlugins...)
			effective = append(effective, route.RoutePlugins...)
			routePipelines[route.Name] = pipeline.Build(effective)
			routeClusterRef[route.Name] = route.ClusterRef
		}

		out[svc.Name] = &Service{
			Name:            svc.Name,
			Matcher:         matcher.Build(svc.Routes),
			Clusters:        clusters,
			RoutePipelines:  routePipelines,
			RouteClusterRef: routeClusterRef,
			Listeners:       svc.Listeners,
			logger:          logger.With(zap.String("service", svc.Name)),
		}
	}
	return out, nil
}

// CloseAll closes every service's clusters (stopping DNS refresh loops).
func (s Set) CloseAll() {
	for _, svc := range s {
		svc.Clusters.CloseAll()
	}
}
