package storage

import (
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/memplan/internal/exprtree"
)

func mustVersion(t *testing.T, s string) *semver.Version {
	t.Helper()

	v, err := semver.NewVersion(s)
	if err != nil {
		t.Fatalf("semver.NewVersion(%q): %v", s, err)
	}

	return v
}

func mustConstraint(t *testing.T, s string) *semver.Constraints {
	t.Helper()

	c, err := semver.NewConstraint(s)
	if err != nil {
		t.Fatalf("semver.NewConstraint(%q): %v", s, err)
	}

	return c
}

// f32 is the dtype used throughout these tests unless a scenario cares
// about dtype-keyed reuse, in which case a second dtype is introduced
// explicitly.
var f32 = exprtree.DType{Bits: 32, Lanes: 1}

func dims(vs ...int64) []exprtree.Dim {
	out := make([]exprtree.Dim, len(vs))
	for i, v := range vs {
		out[i] = exprtree.Dim{Value: v}
	}

	return out
}

func tt(dt exprtree.DType, shape ...int64) exprtree.TensorType {
	return exprtree.TensorType{Shape: dims(shape...), DType: dt}
}

var nextID int

func freshID(prefix string) exprtree.NodeID {
	nextID++
	return exprtree.NodeID(fmt.Sprintf("%s%d", prefix, nextID))
}

func param(name string, shape ...int64) *exprtree.VarNode {
	return exprtree.NewVar(freshID("p-"+name), name, tt(f32, shape...))
}

func constant(shape ...int64) *exprtree.ConstantNode {
	return exprtree.NewConstant(freshID("c"), tt(f32, shape...))
}

func call(args []exprtree.Node, shape ...int64) *exprtree.CallNode {
	op := exprtree.NewOpRef(freshID("op"), "op")
	return exprtree.NewCall(freshID("call"), op, args, tt(f32, shape...))
}

func fn(name string, params []*exprtree.VarNode, body exprtree.Node) *exprtree.Function {
	return &exprtree.Function{Name: name, Params: params, Body: body}
}
