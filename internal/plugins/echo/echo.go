// Package echo implements the "echo" reference plugin: it answers every
// request directly from request_filter with a configured body, status
// code, and header map, never reaching an upstream.
package echo

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// Plugin holds the fixed response an instance always returns.
type Plugin struct {
	body       []byte
	statusCode int
	headers    map[string]string
}

type rawConfig struct {
	Body       string            `yaml:"body"`
	StatusCode int               `yaml:"status_code"`
	Headers    map[string]string `yaml:"headers"`
}

// New is the gwplugin.Constructor for "echo".
func New(raw []byte) (any, error) {
	var cfg rawConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("echo: invalid config: %w", err)
	}
	if cfg.StatusCode < 100 || cfg.StatusCode > 599 {
		return nil, fmt.Errorf("echo: status_code must be between 100 and 599, got %d", cfg.StatusCode)
	}
	return &Plugin{
		body:       []byte(cfg.Body),
		statusCode: cfg.StatusCode,
		headers:    cfg.Headers,
	}, nil
}

// RequestFilter writes the configured response and short-circuits the
// pipeline.
func (p *Plugin) RequestFilter(ctx context.Context, sess *gwplugin.Session, pc *gwplugin.Ctx) (gwplugin.FilterResult, error) {
	sess.Respond(p.statusCode, p.headers, p.body)
	return gwplugin.Responded, nil
}
