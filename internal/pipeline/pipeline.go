// Package pipeline runs a service or route's ordered plugin chain
// through each of the five request/response hook stages (spec §4.5),
// stopping early on a Responded result or a hook error.
package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/edgegate/edgegate/internal/model"
	"github.com/edgegate/edgegate/pkg/gwplugin"
)

// Chain is the ordered list of constructed plugin values bound to a
// service or a single route. Plugins that implement none of the hook
// interfaces are legal (e.g. metadata-only plugins) and are simply
// skipped at every stage.
type Chain struct {
	instances []*model.PluginInstance
}

// Build wires a Chain from a route's configured plugin instances.
func Build(instances []*model.PluginInstance) *Chain {
	return &Chain{instances: instances}
}

// RunRequestFilter runs every plugin's RequestFilter hook in order.
// Stops at the first Responded result or error.
func (c *Chain) RunRequestFilter(ctx context.Context, sess *gwplugin.Session, pc *gwplugin.Ctx) (gwplugin.FilterResult, error) {
	for _, inst := range c.instances {
		rf, ok := inst.Value.(gwplugin.RequestFilter)
		if !ok {
			continue
		}
		result, err := rf.RequestFilter(ctx, sess, pc)
		if err != nil {
			return gwplugin.Continue, fmt.Errorf("plugin %s: request_filter: %w", inst.Name, err)
		}
		if result == gwplugin.Responded {
			return gwplugin.Responded, nil
		}
	}
	return gwplugin.Continue, nil
}

// RunRequestBodyFilter runs every plugin's RequestBodyFilter hook in
// order, passing the same chunk pointer through so earlier plugins'
// mutations are visible to later ones.
func (c *Chain) RunRequestBodyFilter(ctx context.Context, sess *gwplugin.Session, chunk *[]byte, endOfStream bool, pc *gwplugin.Ctx) error {
	for _, inst := range c.instances {
		f, ok := inst.Value.(gwplugin.RequestBodyFilter)
		if !ok {
			continue
		}
		if err := f.RequestBodyFilter(ctx, sess, chunk, endOfStream, pc); err != nil {
			return fmt.Errorf("plugin %s: request_body_filter: %w", inst.Name, err)
		}
	}
	return nil
}

// RunUpstreamRequestFilter runs every plugin's UpstreamRequestFilter
// hook in order against the outbound request header.
func (c *Chain) RunUpstreamRequestFilter(ctx context.Context, sess *gwplugin.Session, header http.Header, pc *gwplugin.Ctx) error {
	for _, inst := range c.instances {
		f, ok := inst.Value.(gwplugin.UpstreamRequestFilter)
		if !ok {
			continue
		}
		if err := f.UpstreamRequestFilter(ctx, sess, header, pc); err != nil {
			return fmt.Errorf("plugin %s: upstream_request_filter: %w", inst.Name, err)
		}
	}
	return nil
}

// RunResponseFilter runs every plugin's ResponseFilter hook in order
// against the downstream-bound response header.
func (c *Chain) RunResponseFilter(ctx context.Context, sess *gwplugin.Session, header http.Header, pc *gwplugin.Ctx) error {
	for _, inst := range c.instances {
		f, ok := inst.Value.(gwplugin.ResponseFilter)
		if !ok {
			continue
		}
		if err := f.ResponseFilter(ctx, sess, header, pc); err != nil {
			return fmt.Errorf("plugin %s: response_filter: %w", inst.Name, err)
		}
	}
	return nil
}

// RunResponseBodyFilter runs every plugin's ResponseBodyFilter hook in
// order.
func (c *Chain) RunResponseBodyFilter(ctx context.Context, sess *gwplugin.Session, chunk *[]byte, endOfStream bool, pc *gwplugin.Ctx) error {
	for _, inst := range c.instances {
		f, ok := inst.Value.(gwplugin.ResponseBodyFilter)
		if !ok {
			continue
		}
		if err := f.ResponseBodyFilter(ctx, sess, chunk, endOfStream, pc); err != nil {
			return fmt.Errorf("plugin %s: response_body_filter: %w", inst.Name, err)
		}
	}
	return nil
}
