// Package config implements the configuration loader (spec §4.1): it
// parses a YAML document, maps it to the schema, compiles every
// regexp match rule, instantiates every plugin instance through the
// registry, verifies cross-references, and returns either a fully
// validated model.Config or a descriptive *ConfigError. Grounded on
// the teacher's Viper-backed server.LoadConfig / config.ViperConfig,
// scoped here to the gateway's own services: document instead of a
// mixed server/plugin settings tree. The document is read as-is: no
// Viper defaults and no environment overrides are applied; defaults
// for optional fields are filled in during validation.
package config

import (
	"bytes"
	"fmt"

	"github.com/edgegate/edgegate/internal/model"
	"github.com/edgegate/edgegate/internal/pluginreg"
	"github.com/spf13/viper"
)

// LoadFile reads and validates a gateway configuration from path.
func LoadFile(path string, registry *pluginreg.Registry) (*model.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return loadFromViper(v, registry)
}

// LoadBytes reads and validates a gateway configuration from an
// in-memory YAML buffer.
func LoadBytes(data []byte, registry *pluginreg.Registry) (*model.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return loadFromViper(v, registry)
}

func loadFromViper(v *viper.Viper, registry *pluginreg.Registry) (*model.Config, error) {
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := checkUnknownFields(v.AllSettings()); err != nil {
		return nil, err
	}

	cfg, err := build(&raw, registry)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
