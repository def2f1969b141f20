package exprtree

import (
	"reflect"
	"testing"
)

func scalarTT() TensorType {
	return TensorType{Shape: []Dim{{Value: 4}}, DType: DType{Bits: 32, Lanes: 1}}
}

func TestConstantNode(t *testing.T) {
	ty := scalarTT()
	n := NewConstant("c0", ty)

	if n.Kind() != KindConstant {
		t.Errorf("Kind() = %v, want KindConstant", n.Kind())
	}

	if n.ID() != "c0" {
		t.Errorf("ID() = %q, want %q", n.ID(), "c0")
	}

	if !reflect.DeepEqual(n.ResolvedType(), ty) {
		t.Errorf("ResolvedType() = %v, want %v", n.ResolvedType(), ty)
	}
}

func TestVarNode(t *testing.T) {
	ty := scalarTT()
	n := NewVar("v0", "x", ty)

	if n.Kind() != KindVar {
		t.Errorf("Kind() = %v, want KindVar", n.Kind())
	}

	if n.Name != "x" {
		t.Errorf("Name = %q, want %q", n.Name, "x")
	}
}

func TestCallNode(t *testing.T) {
	x := NewVar("v0", "x", scalarTT())
	op := NewOpRef("op0", "add")
	n := NewCall("call0", op, []Node{x}, scalarTT())

	if n.Kind() != KindCall {
		t.Errorf("Kind() = %v, want KindCall", n.Kind())
	}

	if len(n.Args) != 1 || n.Args[0] != Node(x) {
		t.Errorf("Args = %v, want [x]", n.Args)
	}
}

func TestTupleNodeAggregatesFieldTypes(t *testing.T) {
	a := NewConstant("c0", scalarTT())
	b := NewConstant("c1", scalarTT())

	tup := NewTuple("t0", []Node{a, b})

	tt, ok := tup.ResolvedType().(TupleType)
	if !ok {
		t.Fatalf("ResolvedType() = %T, want TupleType", tup.ResolvedType())
	}

	if len(tt.Fields) != 2 {
		t.Errorf("len(Fields) = %d, want 2", len(tt.Fields))
	}
}

func TestTupleGetItemResolvesFieldType(t *testing.T) {
	a := NewConstant("c0", scalarTT())
	tup := NewTuple("t0", []Node{a})

	get := NewTupleGetItem("g0", tup, 0)
	if !reflect.DeepEqual(get.ResolvedType(), scalarTT()) {
		t.Errorf("ResolvedType() = %v, want field 0's type", get.ResolvedType())
	}

	outOfRange := NewTupleGetItem("g1", tup, 5)
	if outOfRange.ResolvedType() != nil {
		t.Errorf("out-of-range index: ResolvedType() = %v, want nil", outOfRange.ResolvedType())
	}
}

func TestLetNodeForwardsBodyType(t *testing.T) {
	x := NewVar("v0", "x", scalarTT())
	value := NewConstant("c0", scalarTT())
	body := NewVar("v1", "y", scalarTT())

	let := NewLet("l0", x, value, body)
	if !reflect.DeepEqual(let.ResolvedType(), scalarTT()) {
		t.Errorf("ResolvedType() = %v, want body's type", let.ResolvedType())
	}

	if let.Kind() != KindLet {
		t.Errorf("Kind() = %v, want KindLet", let.Kind())
	}
}

func TestLeafNodeKinds(t *testing.T) {
	if (NewIf("i0", nil, nil, nil)).Kind() != KindIf {
		t.Error("IfNode.Kind() != KindIf")
	}

	if (NewGlobalVar("g0", "relu")).Kind() != KindGlobalVar {
		t.Error("GlobalVarNode.Kind() != KindGlobalVar")
	}

	if (NewOpRef("o0", "add")).Kind() != KindOpRef {
		t.Error("OpRefNode.Kind() != KindOpRef")
	}

	fn := &Function{Name: "f", Params: nil, Body: NewConstant("c0", scalarTT())}
	if (NewFunctionNode("fn0", fn)).Kind() != KindFunction {
		t.Error("FunctionNode.Kind() != KindFunction")
	}
}

func TestNodeKindString(t *testing.T) {
	cases := map[NodeKind]string{
		KindConstant:     "Constant",
		KindVar:          "Var",
		KindCall:         "Call",
		KindTuple:        "Tuple",
		KindTupleGetItem: "TupleGetItem",
		KindLet:          "Let",
		KindIf:           "If",
		KindGlobalVar:    "GlobalVar",
		KindOpRef:        "OpRef",
		KindFunction:     "Function",
	}

	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}

	if got := NodeKind(99).String(); got != "Unknown" {
		t.Errorf("unrecognized kind String() = %q, want %q", got, "Unknown")
	}
}
