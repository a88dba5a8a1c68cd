package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/edgegate/edgegate/internal/model"
	"github.com/edgegate/edgegate/internal/pluginreg"
)

// build transforms a parsed raw schema tree into a validated,
// cross-referenced model.Config, instantiating every plugin along the
// way. It is total: either every field checks out and every
// constructor succeeds, or the first failure is returned as a
// *ConfigError naming the offending field path.
func build(raw *rawConfig, registry *pluginreg.Registry) (*model.Config, error) {
	cfg := &model.Config{Services: make([]*model.Service, 0, len(raw.Services))}
	seenAddrs := make(map[string]string) // address -> "service.listener" that claimed it

	for i, rs := range raw.Services {
		path := fmt.Sprintf("services[%d]", i)
		svc, err := buildService(path, rs, registry, seenAddrs)
		if err != nil {
			return nil, err
		}
		cfg.Services = append(cfg.Services, svc)
	}
	return cfg, nil
}

func buildService(path string, rs rawService, registry *pluginreg.Registry, seenAddrs map[string]string) (*model.Service, error) {
	if rs.Name == "" {
		return nil, fieldErrorf(path+".name", "service name must not be empty")
	}
	path = fmt.Sprintf("%s[%s]", path, rs.Name)

	svc := &model.Service{Name: rs.Name}

	listeners, err := buildListeners(path, rs.Listeners, seenAddrs)
	if err != nil {
		return nil, err
	}
	svc.Listeners = listeners

	clusters, order, err := buildClusters(path, rs.Clusters)
	if err != nil {
		return nil, err
	}
	svc.Clusters = clusters
	svc.ClusterNames = order

	servicePlugins, err := buildPluginInstances(fmt.Sprintf("%s.service_plugins", path), rs.ServicePlugins, registry)
	if err != nil {
		return nil, err
	}
	svc.ServicePlugins = servicePlugins

	routes, err := buildRoutes(path, rs.Routes, registry, clusters)
	if err != nil {
		return nil, err
	}
	svc.Routes = routes

	return svc, nil
}

func buildListeners(path string, raws []rawListener, seenAddrs map[string]string) ([]*model.Listener, error) {
	listeners := make([]*model.Listener, 0, len(raws))
	names := make(map[string]bool, len(raws))

	for i, rl := range raws {
		lpath := fmt.Sprintf("%s.listeners[%d]", path, i)
		if rl.Name == "" {
			return nil, fieldErrorf(lpath+".name", "listener name must not be empty")
		}
		if names[rl.Name] {
			return nil, fieldErrorf(lpath+".name", "duplicate listener name %q", rl.Name)
		}
		names[rl.Name] = true

		if rl.Address == "" {
			return nil, fieldErrorf(lpath+".address", "listener address must not be empty")
		}
		if owner, exists := seenAddrs[rl.Address]; exists {
			return nil, fieldErrorf(lpath+".address", "address %q already bound by %s", rl.Address, owner)
		}
		seenAddrs[rl.Address] = fmt.Sprintf("%s.%s", path, rl.Name)

		var protocol model.Protocol
		switch rl.Protocol {
		case "http":
			protocol = model.ProtocolHTTP
		case "https":
			protocol = model.ProtocolHTTPS
		default:
			return nil, fieldErrorf(lpath+".protocol", "protocol must be \"http\" or \"https\", got %q", rl.Protocol)
		}

		listener := &model.Listener{Name: rl.Name, Address: rl.Address, Protocol: protocol}
		if protocol == model.ProtocolHTTPS {
			if rl.SSL == nil || rl.SSL.CertPath == "" || rl.SSL.KeyPath == "" {
				return nil, fieldErrorf(lpath+".ssl", "https listener requires ssl.cert_path and ssl.key_path")
			}
			listener.SSL = &model.SSLConfig{CertPath: rl.SSL.CertPath, KeyPath: rl.SSL.KeyPath}
		} else if rl.SSL != nil {
			return nil, fieldErrorf(lpath+".ssl", "ssl config is only valid for protocol \"https\"")
		}

		listeners = append(listeners, listener)
	}
	return listeners, nil
}

func buildClusters(path string, raws []rawCluster) (map[string]*model.Cluster, []string, error) {
	clusters := make(map[string]*model.Cluster, len(raws))
	order := make([]string, 0, len(raws))

	for i, rc := range raws {
		cpath := fmt.Sprintf("%s.clusters[%d]", path, i)
		if rc.Name == "" {
			return nil, nil, fieldErrorf(cpath+".name", "cluster name must not be empty")
		}
		if _, exists := clusters[rc.Name]; exists {
			return nil, nil, fieldErrorf(cpath+".name", "duplicate cluster name %q", rc.Name)
		}
		cpath = fmt.Sprintf("%s[%s]", cpath, rc.Name)

		cluster := &model.Cluster{Name: rc.Name}

		switch rc.LBPolicy {
		case "round_robin":
			cluster.LBPolicy = model.LBRoundRobin
		case "random":
			cluster.LBPolicy = model.LBRandom
		default:
			return nil, nil, fieldErrorf(cpath+".lb_policy", "lb_policy must be \"round_robin\" or \"random\", got %q", rc.LBPolicy)
		}

		switch rc.Resolver {
		case "static":
			if rc.Static == nil || len(rc.Static.Endpoints) == 0 {
				return nil, nil, fieldErrorf(cpath+".static.endpoints", "static cluster requires a non-empty endpoint list")
			}
			cluster.Resolver = model.ResolverStatic
			endpoints := make([]model.StaticEndpoint, 0, len(rc.Static.Endpoints))
			for j, addr := range rc.Static.Endpoints {
				host, port, err := splitHostPort(addr)
				if err != nil {
					return nil, nil, wrapFieldError(fmt.Sprintf("%s.static.endpoints[%d]", cpath, j), err)
				}
				endpoints = append(endpoints, model.StaticEndpoint{Host: host, Port: port})
			}
			cluster.StaticEndpoints = endpoints

		case "dns":
			if rc.DNS == nil || rc.DNS.Host == "" {
				return nil, nil, fieldErrorf(cpath+".dns.host", "dns cluster requires a host")
			}
			if rc.DNS.Port <= 0 {
				return nil, nil, fieldErrorf(cpath+".dns.port", "dns cluster requires a positive port")
			}
			cluster.Resolver = model.ResolverDNS
			cluster.DNSHost = rc.DNS.Host
			cluster.DNSPort = rc.DNS.Port
			if rc.DNS.RefreshInterval == "" {
				cluster.DNSRefreshInterval = model.DefaultDNSRefreshInterval
			} else {
				d, err := time.ParseDuration(rc.DNS.RefreshInterval)
				if err != nil {
					return nil, nil, wrapFieldError(cpath+".dns.refresh_interval", err)
				}
				cluster.DNSRefreshInterval = d
			}

		default:
			return nil, nil, fieldErrorf(cpath+".resolver", "resolver must be \"static\" or \"dns\", got %q", rc.Resolver)
		}

		clusters[rc.Name] = cluster
		order = append(order, rc.Name)
	}
	return clusters, order, nil
}

func buildRoutes(path string, raws []rawRoute, registry *pluginreg.Registry, clusters map[string]*model.Cluster) ([]*model.Route, error) {
	routes := make([]*model.Route, 0, len(raws))
	names := make(map[string]bool, len(raws))

	for i, rr := range raws {
		rpath := fmt.Sprintf("%s.routes[%d]", path, i)
		if rr.Name == "" {
			return nil, fieldErrorf(rpath+".name", "route name must not be empty")
		}
		if names[rr.Name] {
			return nil, fieldErrorf(rpath+".name", "duplicate route name %q", rr.Name)
		}
		names[rr.Name] = true
		rpath = fmt.Sprintf("%s[%s]", rpath, rr.Name)

		match, err := buildMatch(rpath+".match", rr.Match)
		if err != nil {
			return nil, err
		}

		if rr.ClusterRef == "" {
			return nil, fieldErrorf(rpath+".cluster_ref", "cluster_ref must not be empty")
		}
		if _, ok := clusters[rr.ClusterRef]; !ok {
			return nil, fieldErrorf(rpath+".cluster_ref", "cluster_ref %q does not name a cluster in this service", rr.ClusterRef)
		}

		routePlugins, err := buildPluginInstances(rpath+".route_plugins", rr.RoutePlugins, registry)
		if err != nil {
			return nil, err
		}

		routes = append(routes, &model.Route{
			Name:         rr.Name,
			Match:        match,
			RoutePlugins: routePlugins,
			ClusterRef:   rr.ClusterRef,
		})
	}
	return routes, nil
}

func buildMatch(path string, raw rawMatch) (model.MatchRule, error) {
	set := 0
	if raw.URI.Exact != nil {
		set++
	}
	if raw.URI.Prefix != nil {
		set++
	}
	if raw.URI.Regexp != nil {
		set++
	}
	switch set {
	case 0:
		return model.MatchRule{}, fieldErrorf(path+".uri", "exactly one of exact, prefix, or regexp must be set")
	case 1:
		// fall through
	default:
		return model.MatchRule{}, fieldErrorf(path+".uri", "exactly one of exact, prefix, or regexp may be set, got %d", set)
	}

	switch {
	case raw.URI.Exact != nil:
		return model.MatchRule{Kind: model.MatchExact, Exact: *raw.URI.Exact}, nil
	case raw.URI.Prefix != nil:
		return model.MatchRule{Kind: model.MatchPrefix, Prefix: *raw.URI.Prefix}, nil
	default:
		pattern := *raw.URI.Regexp
		re, err := regexp.Compile(pattern)
		if err != nil {
			return model.MatchRule{}, wrapFieldError(path+".uri.regexp", err)
		}
		return model.MatchRule{Kind: model.MatchRegexp, RegexpSrc: pattern, Regexp: re}, nil
	}
}

func buildPluginInstances(path string, raws []rawPluginInstance, registry *pluginreg.Registry) ([]*model.PluginInstance, error) {
	instances := make([]*model.PluginInstance, 0, len(raws))
	for i, rp := range raws {
		ppath := fmt.Sprintf("%s[%d]", path, i)
		if rp.Name == "" {
			return nil, fieldErrorf(ppath+".name", "plugin name must not be empty")
		}
		ctor, ok := registry.Lookup(rp.Name)
		if !ok {
			return nil, fieldErrorf(ppath+".name", "unknown plugin %q", rp.Name)
		}

		rawBytes, err := marshalPluginConfig(rp.Config)
		if err != nil {
			return nil, wrapFieldError(ppath+".config", err)
		}

		value, err := ctor(rawBytes)
		if err != nil {
			return nil, wrapFieldError(fmt.Sprintf("%s[%s].config", path, rp.Name), fmt.Errorf("constructor rejected config: %w", err))
		}

		instances = append(instances, &model.PluginInstance{
			Name:      rp.Name,
			RawConfig: rawBytes,
			Value:     value,
		})
	}
	return instances, nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in address %q: %w", addr, err)
	}
	return host, port, nil
}
