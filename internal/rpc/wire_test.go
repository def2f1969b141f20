package rpc

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/storage"
	"github.com/orizon-lang/memplan/internal/target"
)

func scalarTT() exprtree.TensorType {
	return exprtree.TensorType{Shape: []exprtree.Dim{{Value: 4}}, DType: exprtree.DType{Bits: 32, Lanes: 1}}
}

func TestWireRequestRoundTrip(t *testing.T) {
	x := exprtree.NewVar("v0", "x", scalarTT())
	op := exprtree.NewOpRef("op0", "relu")
	body := exprtree.NewCall("call0", op, []exprtree.Node{x}, scalarTT())

	fn := &exprtree.Function{Name: "f", Params: []*exprtree.VarNode{x}, Body: body}

	req := WireRequest{
		ID:       NewRequestID(),
		Function: fn,
		Targets:  target.Map{0: {Kind: "llvm"}},
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&req); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got WireRequest
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != req.ID {
		t.Errorf("ID = %q, want %q", got.ID, req.ID)
	}

	if got.Function.Name != "f" {
		t.Errorf("Function.Name = %q, want %q", got.Function.Name, "f")
	}

	call, ok := got.Function.Body.(*exprtree.CallNode)
	if !ok {
		t.Fatalf("Body decoded as %T, want *exprtree.CallNode", got.Function.Body)
	}

	if len(call.Args) != 1 {
		t.Fatalf("Args decoded with %d entries, want 1", len(call.Args))
	}
}

func TestLabelResultsKeysByNodeID(t *testing.T) {
	a := exprtree.NewConstant("c0", scalarTT())
	b := exprtree.NewConstant("c1", scalarTT())

	results := map[exprtree.Node]storage.Result{
		a: {StorageIDs: []int{0}},
		b: {StorageIDs: []int{1}},
	}

	got := labelResults(results)

	if len(got) != 2 {
		t.Fatalf("labelResults returned %d entries, want 2", len(got))
	}

	if got["c0"].StorageIDs[0] != 0 || got["c1"].StorageIDs[0] != 1 {
		t.Errorf("labelResults = %v, want keyed by NodeID", got)
	}
}

func TestWireResponseRoundTripWithError(t *testing.T) {
	resp := WireResponse{ID: "req1", Err: "boom"}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&resp); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got WireResponse
	if err := gob.NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Err != "boom" || got.ID != "req1" {
		t.Errorf("got %+v, want ID=req1 Err=boom", got)
	}
}
