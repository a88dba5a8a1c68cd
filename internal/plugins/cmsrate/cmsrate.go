// Package cmsrate implements the "cms_rate" reference plugin: a
// count-min-sketch rate limiter keyed by a request fingerprint
// (defaulting to client IP), windowed to a configured interval.
package cmsrate

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// Plugin enforces total requests per interval window per fingerprint
// key. The underlying sketch may overestimate a key's count; this is
// an accepted tradeoff of count-min sketches used for rate limiting.
type Plugin struct {
	total    uint32
	interval time.Duration

	mu        sync.Mutex
	windowEnd time.Time
	estimator *sketch
}

type rawConfig struct {
	Total    uint32 `yaml:"total"`
	Interval string `yaml:"interval"`
	Width    int    `yaml:"width"`
	Depth    int    `yaml:"depth"`
}

// New is the gwplugin.Constructor for "cms_rate".
func New(raw []byte) (any, error) {
	var cfg rawConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("cms_rate: invalid config: %w", err)
	}
	if cfg.Total == 0 {
		return nil, fmt.Errorf("cms_rate: total must be > 0")
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("cms_rate: invalid interval %q: %w", cfg.Interval, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("cms_rate: interval must be positive")
	}

	p := &Plugin{
		total:     cfg.Total,
		interval:  interval,
		estimator: newSketch(cfg.Width, cfg.Depth),
	}
	return p, nil
}

// RequestFilter increments the fingerprint's estimate within the
// current window and short-circuits with 429 once it exceeds total.
func (p *Plugin) RequestFilter(ctx context.Context, sess *gwplugin.Session, pc *gwplugin.Ctx) (gwplugin.FilterResult, error) {
	key := fingerprint(sess.Request())

	p.mu.Lock()
	now := time.Now()
	if now.After(p.windowEnd) {
		p.estimator.reset()
		p.windowEnd = now.Truncate(p.interval).Add(p.interval)
	}
	p.mu.Unlock()

	estimate := p.estimator.add(key)
	if estimate > p.total {
		sess.Respond(429, map[string]string{"Retry-After": fmt.Sprintf("%d", int(p.interval.Seconds()))}, []byte("rate limit exceeded"))
		return gwplugin.Responded, nil
	}
	return gwplugin.Continue, nil
}

// fingerprint derives the rate-limit key for a request. Defaults to
// client IP; mirrors the gateway's own clientIP extraction so the
// plugin and the ambient rate-limit middleware agree on identity.
func fingerprint(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.SplitN(xff, ",", 2); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
