// Package pluginreg is the process-wide bridge between plugin names in
// YAML and their constructors. Registration happens at program start,
// before any configuration load, and the registry is read-only
// thereafter -- the same register-then-freeze shape as the teacher
// repo's plugin registry (internal/registry), narrowed to the single
// name-to-constructor mapping the spec's plugin contract calls for.
package pluginreg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/edgegate/edgegate/pkg/gwplugin"
	"go.uber.org/zap"
)

// Registry maps plugin names to constructors.
type Registry struct {
	mu     sync.RWMutex
	ctors  map[string]gwplugin.Constructor
	logger *zap.Logger
}

// New creates an empty registry. logger may be nil, in which case a
// no-op logger is used.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		ctors:  make(map[string]gwplugin.Constructor),
		logger: logger,
	}
}

// Register adds a constructor under name. Returns an error if name is
// empty or already registered.
func (r *Registry) Register(name string, ctor gwplugin.Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("pluginreg: empty plugin name")
	}
	if ctor == nil {
		return fmt.Errorf("pluginreg: nil constructor for plugin %q", name)
	}
	if _, exists := r.ctors[name]; exists {
		return fmt.Errorf("pluginreg: plugin %q already registered", name)
	}

	r.ctors[name] = ctor
	r.logger.Info("plugin registered", zap.String("name", name))
	return nil
}

// Lookup returns the constructor registered under name, if any.
func (r *Registry) Lookup(name string) (gwplugin.Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[name]
	return ctor, ok
}

// Names returns all registered plugin names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
