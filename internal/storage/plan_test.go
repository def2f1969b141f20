package storage

import (
	"testing"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
	"github.com/orizon-lang/memplan/internal/storage/hooks"
	"github.com/orizon-lang/memplan/internal/target"
)

func TestPlanBasic(t *testing.T) {
	x := param("x", 4)
	a := call([]exprtree.Node{x}, 4)
	b := call([]exprtree.Node{a}, 4)
	f := fn("plan-basic", []*exprtree.VarNode{x}, b)

	result, err := Plan(f, target.Map{}, Options{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	for _, node := range []exprtree.Node{x, a, b} {
		r, ok := result[node]
		if !ok {
			t.Fatalf("missing result for node %v", node)
		}

		if len(r.StorageIDs) != 1 || r.StorageIDs[0] < 0 {
			t.Errorf("node %v: StorageIDs = %v, want one non-negative id", node, r.StorageIDs)
		}
	}
}

func TestPlanMixedDeviceAnnotation(t *testing.T) {
	x := param("x", 4)
	a := call([]exprtree.Node{x}, 4)
	b := call([]exprtree.Node{a}, 4)
	f := fn("plan-mixed", []*exprtree.VarNode{x}, b)

	deviceMap := func(fn *exprtree.Function) map[exprtree.Node]int {
		return map[exprtree.Node]int{a: 1}
	}

	_, err := Plan(f, target.Map{}, Options{DeviceMap: deviceMap})

	perr, ok := err.(*planerrors.PlannerError)
	if !ok || perr.Kind != planerrors.MixedDeviceAnnotation {
		t.Fatalf("err = %v, want MixedDeviceAnnotation", err)
	}
}

func TestPlanUsesRegisteredStorageScopeHook(t *testing.T) {
	x := param("x", 1, 8, 8, 4)
	a := exprtree.NewCall(freshID("a"), exprtree.NewOpRef(freshID("op"), "op"), []exprtree.Node{x}, tt(f32, 1, 8, 8, 4))
	f := fn("plan-hook", []*exprtree.VarNode{x}, a)

	tm := target.Map{0: {Kind: "opencl", DeviceAttr: "adreno"}}

	reg := hooks.NewRegistry()
	key := tm.HookKey(DefaultHookPrefix)
	reg.Register(key, func(_ *exprtree.Function, _ map[exprtree.Node]int, _ target.Map) map[exprtree.Node][]string {
		return map[exprtree.Node][]string{a: {"texture"}}
	})

	result, err := Plan(f, tm, Options{ScopeRegistry: reg})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if result[a].StorageScopes[0] != "texture" {
		t.Fatalf("StorageScopes = %v, want [texture]", result[a].StorageScopes)
	}
}

func TestPlanRejectsUnmetDriverConstraint(t *testing.T) {
	x := param("x", 4)
	f := fn("plan-driver", []*exprtree.VarNode{x}, x)

	tm := target.Map{0: {Kind: "opencl", MinDriverVer: mustConstraint(t, ">=2.0.0"), DriverVer: mustVersion(t, "1.0.0")}}

	if _, err := Plan(f, tm, Options{}); err == nil {
		t.Fatal("expected a driver-version error")
	}
}
