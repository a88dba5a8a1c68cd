package config

import (
	"fmt"

	"github.com/edgegate/edgegate/internal/model"
	"gopkg.in/yaml.v3"
)

// ToYAML re-serializes a validated Config to its structural YAML form.
// Used by the load -> serialize -> reload round-trip property (spec
// §8): loading the result with LoadBytes against the same registry
// must yield a model.Config that is StructuralEqual to cfg.
func ToYAML(cfg *model.Config) ([]byte, error) {
	raw := rawConfig{Services: make([]rawService, 0, len(cfg.Services))}
	for _, svc := range cfg.Services {
		rs, err := serviceToRaw(svc)
		if err != nil {
			return nil, err
		}
		raw.Services = append(raw.Services, rs)
	}
	return yaml.Marshal(raw)
}

func serviceToRaw(svc *model.Service) (rawService, error) {
	rs := rawService{Name: svc.Name}

	for _, l := range svc.Listeners {
		rl := rawListener{Name: l.Name, Address: l.Address, Protocol: string(l.Protocol)}
		if l.SSL != nil {
			rl.SSL = &rawSSL{CertPath: l.SSL.CertPath, KeyPath: l.SSL.KeyPath}
		}
		rs.Listeners = append(rs.Listeners, rl)
	}

	for _, name := range svc.ClusterNames {
		c := svc.Clusters[name]
		rc := rawCluster{Name: c.Name, Resolver: string(c.Resolver), LBPolicy: string(c.LBPolicy)}
		switch c.Resolver {
		case model.ResolverStatic:
			endpoints := make([]string, 0, len(c.StaticEndpoints))
			for _, e := range c.StaticEndpoints {
				endpoints = append(endpoints, fmt.Sprintf("%s:%d", e.Host, e.Port))
			}
			rc.Static = &rawStatic{Endpoints: endpoints}
		case model.ResolverDNS:
			rc.DNS = &rawDNS{Host: c.DNSHost, Port: c.DNSPort, RefreshInterval: c.DNSRefreshInterval.String()}
		}
		rs.Clusters = append(rs.Clusters, rc)
	}

	var err error
	rs.ServicePlugins, err = pluginsToRaw(svc.ServicePlugins)
	if err != nil {
		return rawService{}, err
	}

	for _, r := range svc.Routes {
		rr := rawRoute{Name: r.Name, ClusterRef: r.ClusterRef, Match: matchToRaw(r.Match)}
		rr.RoutePlugins, err = pluginsToRaw(r.RoutePlugins)
		if err != nil {
			return rawService{}, err
		}
		rs.Routes = append(rs.Routes, rr)
	}

	return rs, nil
}

func matchToRaw(m model.MatchRule) rawMatch {
	switch m.Kind {
	case model.MatchExact:
		return rawMatch{URI: rawMatchURI{Exact: &m.Exact}}
	case model.MatchPrefix:
		return rawMatch{URI: rawMatchURI{Prefix: &m.Prefix}}
	default:
		return rawMatch{URI: rawMatchURI{Regexp: &m.RegexpSrc}}
	}
}

func pluginsToRaw(instances []*model.PluginInstance) ([]rawPluginInstance, error) {
	out := make([]rawPluginInstance, 0, len(instances))
	for _, p := range instances {
		var cfg map[string]any
		if len(p.RawConfig) > 0 {
			if err := yaml.Unmarshal(p.RawConfig, &cfg); err != nil {
				return nil, fmt.Errorf("re-decoding plugin %q config: %w", p.Name, err)
			}
		}
		out = append(out, rawPluginInstance{Name: p.Name, Config: cfg})
	}
	return out, nil
}
