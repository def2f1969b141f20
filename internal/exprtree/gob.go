package exprtree

import "encoding/gob"

// init registers every concrete Node and Type implementation so values
// stored behind the Node and Type interfaces survive a gob round trip —
// required by internal/rpc's wire format, which carries whole expression
// trees through interface-typed fields. cmd/memplan reads JSON instead
// (see json.go).
func init() {
	gob.Register(&ConstantNode{})
	gob.Register(&VarNode{})
	gob.Register(&CallNode{})
	gob.Register(&TupleNode{})
	gob.Register(&TupleGetItemNode{})
	gob.Register(&LetNode{})
	gob.Register(&IfNode{})
	gob.Register(&GlobalVarNode{})
	gob.Register(&OpRefNode{})
	gob.Register(&FunctionNode{})
	gob.Register(TensorType{})
	gob.Register(TupleType{})
}
