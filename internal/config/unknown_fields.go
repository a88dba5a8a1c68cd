package config

import "fmt"

// Known keys at each schema level that accepts strict validation.
// Plugin `config` subtrees are deliberately excluded: those fields are
// opaque and belong to the plugin's own constructor (spec §4.1, §6).
var (
	topLevelKeys   = keySet("services")
	serviceKeys    = keySet("name", "listeners", "service_plugins", "routes", "clusters")
	listenerKeys   = keySet("name", "address", "protocol", "ssl")
	sslKeys        = keySet("cert_path", "key_path")
	pluginKeys     = keySet("name", "config")
	routeKeys      = keySet("name", "match", "route_plugins", "cluster_ref")
	matchKeys      = keySet("uri")
	matchURIKeys   = keySet("exact", "prefix", "regexp")
	clusterKeys    = keySet("name", "resolver", "lb_policy", "static", "dns")
	staticKeys     = keySet("endpoints")
	dnsKeys        = keySet("host", "port", "refresh_interval")
)

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// checkUnknownFields walks the generic settings tree Viper produced
// and rejects any field not named in the schema at that level, other
// than inside a plugin's `config` fragment.
func checkUnknownFields(settings map[string]any) error {
	if err := checkKeys("", settings, topLevelKeys); err != nil {
		return err
	}
	servicesRaw, ok := settings["services"]
	if !ok {
		return nil
	}
	services, ok := toMapSlice(servicesRaw)
	if !ok {
		return nil // malformed shape is caught by mapstructure decoding instead
	}
	for i, svc := range services {
		path := fmt.Sprintf("services[%d]", i)
		if err := checkKeys(path, svc, serviceKeys); err != nil {
			return err
		}
		if err := checkListeners(path, svc); err != nil {
			return err
		}
		if err := checkPluginList(path+".service_plugins", svc["service_plugins"]); err != nil {
			return err
		}
		if err := checkRoutes(path, svc); err != nil {
			return err
		}
		if err := checkClusters(path, svc); err != nil {
			return err
		}
	}
	return nil
}

func checkListeners(path string, svc map[string]any) error {
	listeners, ok := toMapSlice(svc["listeners"])
	if !ok {
		return nil
	}
	for i, l := range listeners {
		lpath := fmt.Sprintf("%s.listeners[%d]", path, i)
		if err := checkKeys(lpath, l, listenerKeys); err != nil {
			return err
		}
		if ssl, ok := l["ssl"].(map[string]any); ok {
			if err := checkKeys(lpath+".ssl", ssl, sslKeys); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkRoutes(path string, svc map[string]any) error {
	routes, ok := toMapSlice(svc["routes"])
	if !ok {
		return nil
	}
	for i, r := range routes {
		rpath := fmt.Sprintf("%s.routes[%d]", path, i)
		if err := checkKeys(rpath, r, routeKeys); err != nil {
			return err
		}
		if match, ok := r["match"].(map[string]any); ok {
			if err := checkKeys(rpath+".match", match, matchKeys); err != nil {
				return err
			}
			if uri, ok := match["uri"].(map[string]any); ok {
				if err := checkKeys(rpath+".match.uri", uri, matchURIKeys); err != nil {
					return err
				}
			}
		}
		if err := checkPluginList(rpath+".route_plugins", r["route_plugins"]); err != nil {
			return err
		}
	}
	return nil
}

func checkClusters(path string, svc map[string]any) error {
	clusters, ok := toMapSlice(svc["clusters"])
	if !ok {
		return nil
	}
	for i, c := range clusters {
		cpath := fmt.Sprintf("%s.clusters[%d]", path, i)
		if err := checkKeys(cpath, c, clusterKeys); err != nil {
			return err
		}
		if static, ok := c["static"].(map[string]any); ok {
			if err := checkKeys(cpath+".static", static, staticKeys); err != nil {
				return err
			}
		}
		if dns, ok := c["dns"].(map[string]any); ok {
			if err := checkKeys(cpath+".dns", dns, dnsKeys); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkPluginList(path string, raw any) error {
	plugins, ok := toMapSlice(raw)
	if !ok {
		return nil
	}
	for i, p := range plugins {
		ppath := fmt.Sprintf("%s[%d]", path, i)
		// "config" is intentionally opaque: plugins validate their own fields.
		if err := checkKeys(ppath, p, pluginKeys); err != nil {
			return err
		}
	}
	return nil
}

func checkKeys(path string, m map[string]any, known map[string]bool) error {
	for k := range m {
		if !known[k] {
			if path == "" {
				return fieldErrorf(k, "unknown top-level field %q", k)
			}
			return fieldErrorf(path+"."+k, "unknown field %q", k)
		}
	}
	return nil
}

// toMapSlice normalizes Viper's decoded shape (either []any of
// map[string]any, or already []map[string]any) into []map[string]any.
func toMapSlice(raw any) ([]map[string]any, bool) {
	switch v := raw.(type) {
	case []map[string]any:
		return v, true
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	default:
		return nil, false
	}
}
