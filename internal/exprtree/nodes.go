package exprtree

// NodeKind identifies the variant of an expression node. The planner's two
// passes only recognize the kinds below; any other kind it encounters while
// recursing into a function body is either a no-op leaf or, for If, a hard
// error (see internal/storage).
type NodeKind int

const (
	KindConstant NodeKind = iota
	KindVar
	KindCall
	KindTuple
	KindTupleGetItem
	KindLet
	KindIf
	KindGlobalVar
	KindOpRef
	KindFunction
)

func (k NodeKind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindVar:
		return "Var"
	case KindCall:
		return "Call"
	case KindTuple:
		return "Tuple"
	case KindTupleGetItem:
		return "TupleGetItem"
	case KindLet:
		return "Let"
	case KindIf:
		return "If"
	case KindGlobalVar:
		return "GlobalVar"
	case KindOpRef:
		return "OpRef"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// NodeID is a stable, human-readable label attached to every node for
// diagnostics; it is not used as a map key (identity is), but shows up in
// error messages and log lines.
type NodeID string

// Node is implemented by every expression-tree node. Identity (not NodeID)
// is what the planner keys its prototype/assignment maps on: two distinct
// Node values with the same label are distinct producers.
type Node interface {
	ID() NodeID
	Kind() NodeKind
	// ResolvedType is nil for nodes that produce no tensor (GlobalVar,
	// OpRef, nested Function, If before it errors out).
	ResolvedType() Type
}

type base struct {
	id NodeID
	ty Type
}

func (b *base) ID() NodeID        { return b.id }
func (b *base) ResolvedType() Type { return b.ty }

// ConstantNode is a compile-time constant tensor.
type ConstantNode struct {
	base
}

func NewConstant(id NodeID, ty TensorType) *ConstantNode {
	return &ConstantNode{base{id: id, ty: ty}}
}

func (*ConstantNode) Kind() NodeKind { return KindConstant }

// VarNode is a function parameter or a let-bound name.
type VarNode struct {
	base
	Name string
}

func NewVar(id NodeID, name string, ty Type) *VarNode {
	return &VarNode{base: base{id: id, ty: ty}, Name: name}
}

func (*VarNode) Kind() NodeKind { return KindVar }

// CallNode applies an operator (or indirect callee) to an ordered argument
// list. Op is typically an *OpRefNode but may be any Node producing a
// callable; the planner never inspects Op's type, only Args'.
type CallNode struct {
	base
	Op   Node
	Args []Node
}

func NewCall(id NodeID, op Node, args []Node, resultTy Type) *CallNode {
	return &CallNode{base: base{id: id, ty: resultTy}, Op: op, Args: args}
}

func (*CallNode) Kind() NodeKind { return KindCall }

// TupleNode aggregates its fields' outputs without producing new storage.
type TupleNode struct {
	base
	Fields []Node
}

func NewTuple(id NodeID, fields []Node) *TupleNode {
	tys := make([]TensorType, 0, len(fields))
	for _, f := range fields {
		tys = append(tys, Tensors(f.ResolvedType())...)
	}

	return &TupleNode{base: base{id: id, ty: TupleType{Fields: tys}}, Fields: fields}
}

func (*TupleNode) Kind() NodeKind { return KindTuple }

// TupleGetItemNode projects a single field out of a tuple-typed node. Index
// range is validated by the planner at visit time (spec: TupleIndexOutOfRange),
// not here, so malformed trees can still be constructed for error-path tests.
type TupleGetItemNode struct {
	base
	Tuple Node
	Index int
}

func NewTupleGetItem(id NodeID, tuple Node, index int) *TupleGetItemNode {
	ty := Type(nil)

	if tt, ok := tuple.ResolvedType().(TupleType); ok && index >= 0 && index < len(tt.Fields) {
		ty = tt.Fields[index]
	}

	return &TupleGetItemNode{base: base{id: id, ty: ty}, Tuple: tuple, Index: index}
}

func (*TupleGetItemNode) Kind() NodeKind { return KindTupleGetItem }

// LetNode binds Value to Var for use within Body; its type and tokens are
// those of Body (pure forwarding).
type LetNode struct {
	base
	Var   *VarNode
	Value Node
	Body  Node
}

func NewLet(id NodeID, v *VarNode, value, body Node) *LetNode {
	return &LetNode{base: base{id: id, ty: body.ResolvedType()}, Var: v, Value: value, Body: body}
}

func (*LetNode) Kind() NodeKind { return KindLet }

// IfNode is unsupported by the planner; it exists only so the core can
// recognize and reject it with a clear error rather than panicking on an
// unknown kind.
type IfNode struct {
	base
	Cond, Then, Else Node
}

func NewIf(id NodeID, cond, then, els Node) *IfNode {
	return &IfNode{base: base{id: id}, Cond: cond, Then: then, Else: els}
}

func (*IfNode) Kind() NodeKind { return KindIf }

// GlobalVarNode references a global function or constant by name; it is a
// no-op leaf for the planner.
type GlobalVarNode struct {
	base
	Name string
}

func NewGlobalVar(id NodeID, name string) *GlobalVarNode {
	return &GlobalVarNode{base: base{id: id}, Name: name}
}

func (*GlobalVarNode) Kind() NodeKind { return KindGlobalVar }

// OpRefNode references a registered operator by name; a no-op leaf.
type OpRefNode struct {
	base
	Name string
}

func NewOpRef(id NodeID, name string) *OpRefNode {
	return &OpRefNode{base: base{id: id}, Name: name}
}

func (*OpRefNode) Kind() NodeKind { return KindOpRef }

// FunctionNode is a nested function definition; the planner treats it as an
// opaque leaf and never recurses into its body (cross-function planning is
// out of scope).
type FunctionNode struct {
	base
	Fn *Function
}

func NewFunctionNode(id NodeID, fn *Function) *FunctionNode {
	return &FunctionNode{base: base{id: id}, Fn: fn}
}

func (*FunctionNode) Kind() NodeKind { return KindFunction }

// Function is the top-level unit passed to the planner: a typed parameter
// list and a body expression whose value(s) are the function's outputs.
type Function struct {
	Name   string
	Params []*VarNode
	Body   Node
}
