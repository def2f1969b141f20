package storage

import (
	"fmt"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planconfig"
	"github.com/orizon-lang/memplan/internal/planlog"
	"github.com/orizon-lang/memplan/internal/storage/hooks"
	"github.com/orizon-lang/memplan/internal/target"
)

// DefaultHookPrefix is the namespace spec §6's storage-scope hook keys are
// built under.
const DefaultHookPrefix = "relay.backend"

// Options configures a single Plan call. Every field has a usable zero
// value: a nil DeviceMap means every node defaults to device type 0, a nil
// ScopeRegistry falls back to hooks.Default, an empty HookPrefix falls back
// to DefaultHookPrefix, a zero-value Config falls back to
// planconfig.Default(), and a nil Log falls back to planlog.Default().
type Options struct {
	DeviceMap     hooks.DeviceMapFunc
	ScopeRegistry *hooks.Registry
	HookPrefix    string
	Config        planconfig.Config
	Log           *planlog.Logger
}

func (o Options) resolve() Options {
	if o.ScopeRegistry == nil {
		o.ScopeRegistry = hooks.Default
	}

	if o.HookPrefix == "" {
		o.HookPrefix = DefaultHookPrefix
	}

	if o.Config.FuzzyRange == 0 && o.Config.ArenaHint == 0 {
		o.Config = planconfig.Default()
	}

	if o.Log == nil {
		o.Log = planlog.Default()
	}

	return o
}

// Plan runs the Liveness Pass, the Assignment Pass, and serialization over
// fn against tm, returning the per-node (storage_ids, device_types,
// storage_scopes) triples spec §2/§6 describe. Errors are fatal: see
// internal/planerrors.
func Plan(fn *exprtree.Function, tm target.Map, opts Options) (map[exprtree.Node]Result, error) {
	opts = opts.resolve()

	if err := tm.CheckDrivers(); err != nil {
		return nil, fmt.Errorf("target map: %w", err)
	}

	var deviceMap map[exprtree.Node]int
	if opts.DeviceMap != nil {
		deviceMap = opts.DeviceMap(fn)
	} else {
		deviceMap = map[exprtree.Node]int{}
	}

	scopeMap := map[exprtree.Node][]string{}

	key := tm.HookKey(opts.HookPrefix)
	if hook, ok := opts.ScopeRegistry.Lookup(key); ok {
		scopeMap = hook(fn, deviceMap, tm)
		opts.Log.Debug(planlog.CatDispatch, "storage-scope hook %q matched", key)
	}

	arena := NewArena(opts.Config.ArenaHint)

	opts.Log.Info(planlog.CatLiveness, "liveness pass: function %s", fn.Name)

	prototypes, err := RunLiveness(fn, arena, deviceMap, scopeMap)
	if err != nil {
		return nil, err
	}

	alloc := NewTokenAllocator(opts.Config.FuzzyRange)

	opts.Log.Info(planlog.CatAssign, "assignment pass: function %s (%d prototype nodes)", fn.Name, len(prototypes))

	assigned, producers, err := RunAssignment(fn, prototypes, alloc)
	if err != nil {
		return nil, err
	}

	opts.Log.Info(planlog.CatDispatch, "serializing %d producer nodes (%d storage ids allocated)",
		len(producers), alloc.counter.next)

	return Serialize(assigned, producers)
}
