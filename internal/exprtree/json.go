package exprtree

import (
	"encoding/json"
	"fmt"
	"io"
)

// This file is the on-disk JSON counterpart of gob.go's wire registration:
// the Node and Type interfaces need a tagged-union encoding to survive
// encoding/json the same way they need gob.Register to survive gob,
// since neither encoder can guess a concrete type from an interface
// field. Grounded on internal/packagemanager/lockfile.go's struct-tagged
// encoding/json usage (LockEntry/Lockfile) — the only JSON convention
// this codebase's pack actually demonstrates.

// typeJSON is the on-disk encoding of Type: exactly one field is set.
type typeJSON struct {
	Tensor *TensorType `json:"tensor,omitempty"`
	Tuple  *TupleType  `json:"tuple,omitempty"`
}

func typeToJSON(t Type) *typeJSON {
	switch v := t.(type) {
	case TensorType:
		return &typeJSON{Tensor: &v}
	case TupleType:
		return &typeJSON{Tuple: &v}
	default:
		return nil
	}
}

func typeFromJSON(j *typeJSON) (Type, error) {
	if j == nil {
		return nil, nil
	}

	switch {
	case j.Tensor != nil:
		return *j.Tensor, nil
	case j.Tuple != nil:
		return *j.Tuple, nil
	default:
		return nil, fmt.Errorf("type object has neither \"tensor\" nor \"tuple\" set")
	}
}

// nodeJSON is the on-disk encoding of Node: Kind selects which of the
// remaining fields are meaningful, mirroring NodeKind.String().
type nodeJSON struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`

	Type *typeJSON `json:"type,omitempty"` // Constant, Var, Call

	Name string `json:"name,omitempty"` // Var, GlobalVar, OpRef

	Op   *nodeJSON   `json:"op,omitempty"`   // Call
	Args []*nodeJSON `json:"args,omitempty"` // Call

	Fields []*nodeJSON `json:"fields,omitempty"` // Tuple

	Tuple *nodeJSON `json:"tuple,omitempty"` // TupleGetItem
	Index int       `json:"index,omitempty"` // TupleGetItem

	Var   *nodeJSON `json:"var,omitempty"`   // Let
	Value *nodeJSON `json:"value,omitempty"` // Let

	Body *nodeJSON `json:"body,omitempty"` // Let

	Cond *nodeJSON `json:"cond,omitempty"` // If
	Then *nodeJSON `json:"then,omitempty"` // If
	Else *nodeJSON `json:"else,omitempty"` // If

	Fn *functionJSON `json:"fn,omitempty"` // Function (nested)
}

// functionJSON is the on-disk encoding of Function.
type functionJSON struct {
	Name   string      `json:"name"`
	Params []*nodeJSON `json:"params"`
	Body   *nodeJSON   `json:"body"`
}

func nodeFromJSON(n *nodeJSON) (Node, error) {
	if n == nil {
		return nil, nil
	}

	id := NodeID(n.ID)

	switch n.Kind {
	case "Constant":
		ty, err := typeFromJSON(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}

		tt, ok := ty.(TensorType)
		if !ok {
			return nil, fmt.Errorf("node %s: Constant requires a tensor type", n.ID)
		}

		return NewConstant(id, tt), nil

	case "Var":
		ty, err := typeFromJSON(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}

		return NewVar(id, n.Name, ty), nil

	case "Call":
		op, err := nodeFromJSON(n.Op)
		if err != nil {
			return nil, fmt.Errorf("node %s: op: %w", n.ID, err)
		}

		args := make([]Node, len(n.Args))

		for i, a := range n.Args {
			arg, err := nodeFromJSON(a)
			if err != nil {
				return nil, fmt.Errorf("node %s: arg %d: %w", n.ID, i, err)
			}

			args[i] = arg
		}

		ty, err := typeFromJSON(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}

		return NewCall(id, op, args, ty), nil

	case "Tuple":
		fields := make([]Node, len(n.Fields))

		for i, f := range n.Fields {
			field, err := nodeFromJSON(f)
			if err != nil {
				return nil, fmt.Errorf("node %s: field %d: %w", n.ID, i, err)
			}

			fields[i] = field
		}

		return NewTuple(id, fields), nil

	case "TupleGetItem":
		tup, err := nodeFromJSON(n.Tuple)
		if err != nil {
			return nil, fmt.Errorf("node %s: tuple: %w", n.ID, err)
		}

		return NewTupleGetItem(id, tup, n.Index), nil

	case "Let":
		v, err := nodeFromJSON(n.Var)
		if err != nil {
			return nil, fmt.Errorf("node %s: var: %w", n.ID, err)
		}

		vn, ok := v.(*VarNode)
		if !ok {
			return nil, fmt.Errorf("node %s: Let's \"var\" must be a Var node", n.ID)
		}

		value, err := nodeFromJSON(n.Value)
		if err != nil {
			return nil, fmt.Errorf("node %s: value: %w", n.ID, err)
		}

		body, err := nodeFromJSON(n.Body)
		if err != nil {
			return nil, fmt.Errorf("node %s: body: %w", n.ID, err)
		}

		return NewLet(id, vn, value, body), nil

	case "If":
		cond, err := nodeFromJSON(n.Cond)
		if err != nil {
			return nil, fmt.Errorf("node %s: cond: %w", n.ID, err)
		}

		then, err := nodeFromJSON(n.Then)
		if err != nil {
			return nil, fmt.Errorf("node %s: then: %w", n.ID, err)
		}

		els, err := nodeFromJSON(n.Else)
		if err != nil {
			return nil, fmt.Errorf("node %s: else: %w", n.ID, err)
		}

		return NewIf(id, cond, then, els), nil

	case "GlobalVar":
		return NewGlobalVar(id, n.Name), nil

	case "OpRef":
		return NewOpRef(id, n.Name), nil

	case "Function":
		fn, err := functionFromJSON(n.Fn)
		if err != nil {
			return nil, fmt.Errorf("node %s: fn: %w", n.ID, err)
		}

		return NewFunctionNode(id, fn), nil

	default:
		return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
	}
}

func functionFromJSON(f *functionJSON) (*Function, error) {
	if f == nil {
		return nil, fmt.Errorf("missing function object")
	}

	params := make([]*VarNode, len(f.Params))

	for i, p := range f.Params {
		n, err := nodeFromJSON(p)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}

		vn, ok := n.(*VarNode)
		if !ok {
			return nil, fmt.Errorf("param %d: must be a Var node", i)
		}

		params[i] = vn
	}

	body, err := nodeFromJSON(f.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	return &Function{Name: f.Name, Params: params, Body: body}, nil
}

// DecodeFunction reads one JSON-encoded function (nodes + types, per this
// file's tagged-union schema) from r.
func DecodeFunction(r io.Reader) (*Function, error) {
	var fj functionJSON
	if err := json.NewDecoder(r).Decode(&fj); err != nil {
		return nil, fmt.Errorf("decode function: %w", err)
	}

	return functionFromJSON(&fj)
}

func nodeToJSON(n Node) *nodeJSON {
	if n == nil {
		return nil
	}

	out := &nodeJSON{Kind: n.Kind().String(), ID: string(n.ID())}

	switch v := n.(type) {
	case *ConstantNode:
		out.Type = typeToJSON(v.ResolvedType())
	case *VarNode:
		out.Type = typeToJSON(v.ResolvedType())
		out.Name = v.Name
	case *CallNode:
		out.Type = typeToJSON(v.ResolvedType())
		out.Op = nodeToJSON(v.Op)

		out.Args = make([]*nodeJSON, len(v.Args))
		for i, a := range v.Args {
			out.Args[i] = nodeToJSON(a)
		}
	case *TupleNode:
		out.Fields = make([]*nodeJSON, len(v.Fields))
		for i, f := range v.Fields {
			out.Fields[i] = nodeToJSON(f)
		}
	case *TupleGetItemNode:
		out.Tuple = nodeToJSON(v.Tuple)
		out.Index = v.Index
	case *LetNode:
		out.Var = nodeToJSON(v.Var)
		out.Value = nodeToJSON(v.Value)
		out.Body = nodeToJSON(v.Body)
	case *IfNode:
		out.Cond = nodeToJSON(v.Cond)
		out.Then = nodeToJSON(v.Then)
		out.Else = nodeToJSON(v.Else)
	case *GlobalVarNode:
		out.Name = v.Name
	case *OpRefNode:
		out.Name = v.Name
	case *FunctionNode:
		out.Fn = functionToJSON(v.Fn)
	}

	return out
}

func functionToJSON(fn *Function) *functionJSON {
	if fn == nil {
		return nil
	}

	params := make([]*nodeJSON, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = nodeToJSON(p)
	}

	return &functionJSON{Name: fn.Name, Params: params, Body: nodeToJSON(fn.Body)}
}

// EncodeFunction writes fn to w using this file's JSON schema, the inverse
// of DecodeFunction.
func EncodeFunction(w io.Writer, fn *Function) error {
	return json.NewEncoder(w).Encode(functionToJSON(fn))
}
