// Package hooks provides the registry the planner's two external queries
// (spec §4.1, §6) go through: a per-node device-type map and a per-node
// storage-scope map, the latter registered under a target-derived string
// key. Grounded on the registration-by-name-at-init pattern used by this
// codebase's internal/intrinsics and internal/modules packages.
package hooks

import (
	"sync"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/target"
)

// DeviceMapFunc computes, once per Plan call, a possibly-partial mapping
// from expression node to device-type integer. Nodes absent from the
// result default to device type 0 ("unannotated").
type DeviceMapFunc func(fn *exprtree.Function) map[exprtree.Node]int

// StorageScopeFunc computes, once per Plan call, a possibly-partial mapping
// from expression node to an ordered list of storage-scope strings — one
// per tensor the node produces. Nodes absent from the result default every
// tensor to "global".
type StorageScopeFunc func(fn *exprtree.Function, devices map[exprtree.Node]int, tm target.Map) map[exprtree.Node][]string

// Registry holds named storage-scope hooks, keyed by the string built from
// target.Map.HookKey.
type Registry struct {
	mu    sync.RWMutex
	scope map[string]StorageScopeFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scope: make(map[string]StorageScopeFunc)}
}

// Default is the process-wide registry that target-specific packages
// populate from their init() functions, mirroring how
// internal/intrinsics registers builtins by name at package load time.
var Default = NewRegistry()

// Register installs fn under key, overwriting any previous registration.
func (r *Registry) Register(key string, fn StorageScopeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scope[key] = fn
}

// Lookup returns the hook registered under key, if any.
func (r *Registry) Lookup(key string) (StorageScopeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.scope[key]

	return fn, ok
}
