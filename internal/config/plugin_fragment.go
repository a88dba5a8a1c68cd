package config

import "gopkg.in/yaml.v3"

// marshalPluginConfig re-encodes a plugin's generic config map (already
// decoded from the enclosing document by Viper) back into a standalone
// YAML fragment. This is the "opaque YAML fragment" passed to plugin
// constructors per the spec: unknown fields within it are the plugin's
// business, not the loader's.
func marshalPluginConfig(cfg map[string]any) ([]byte, error) {
	if cfg == nil {
		return []byte("{}\n"), nil
	}
	return yaml.Marshal(cfg)
}
