package storage

import (
	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
)

// PrototypeMap is the output of the Liveness Pass: for every recognized
// producing node, the ordered StorageTokens it produces.
type PrototypeMap = map[exprtree.Node][]*StorageToken

type livenessPass struct {
	arena      *Arena
	deviceMap  map[exprtree.Node]int
	scopeMap   map[exprtree.Node][]string
	prototypes PrototypeMap
}

// RunLiveness walks fn's body once, building the prototype map: one fresh
// token list per producer (parameters, constants, call results), with
// ref_counter populated by argument consumption and the outputs-are-kept
// pin (spec §4.1).
func RunLiveness(
	fn *exprtree.Function,
	arena *Arena,
	deviceMap map[exprtree.Node]int,
	scopeMap map[exprtree.Node][]string,
) (PrototypeMap, error) {
	lp := &livenessPass{
		arena:      arena,
		deviceMap:  deviceMap,
		scopeMap:   scopeMap,
		prototypes: make(PrototypeMap),
	}

	for _, p := range fn.Params {
		toks, perr := lp.create(p, p.ResolvedType())
		if perr != nil {
			return nil, perr
		}

		lp.prototypes[p] = toks
	}

	bodyToks, err := lp.visit(fn.Body)
	if err != nil {
		return nil, err
	}

	for _, t := range bodyToks {
		t.RefCounter++
	}

	return lp.prototypes, nil
}

// create allocates a fresh token list for node and records it, guarding
// against the node already having a prototype entry (TokenAlreadyAssigned)
// — an invariant that should never trip during ordinary traversal since
// visit() memoizes before recursing, but is enforced directly so a broken
// tree (e.g. a node wrongly shared between two binding sites) fails loudly
// rather than silently double-allocating.
func (lp *livenessPass) create(node exprtree.Node, ty exprtree.Type) ([]*StorageToken, *planerrors.PlannerError) {
	if _, exists := lp.prototypes[node]; exists {
		return nil, planerrors.AlreadyAssigned(string(node.ID()))
	}

	toks, perr := newTokens(lp.arena, ty, lp.deviceMap[node], lp.scopeMap[node])
	if perr != nil {
		return nil, perr
	}

	lp.prototypes[node] = toks

	return toks, nil
}

func (lp *livenessPass) visit(node exprtree.Node) ([]*StorageToken, error) {
	if toks, ok := lp.prototypes[node]; ok {
		return toks, nil
	}

	switch n := node.(type) {
	case *exprtree.ConstantNode:
		toks, perr := lp.create(n, n.ResolvedType())
		if perr != nil {
			return nil, perr
		}

		return toks, nil

	case *exprtree.VarNode:
		// A variable reference with no existing binding is a no-op: it
		// contributes no tokens (spec §4.1).
		return nil, nil

	case *exprtree.CallNode:
		toks, perr := lp.create(n, n.ResolvedType())
		if perr != nil {
			return nil, perr
		}

		for _, arg := range n.Args {
			argToks, err := lp.visit(arg)
			if err != nil {
				return nil, err
			}

			for _, t := range argToks {
				t.RefCounter++
			}
		}

		return toks, nil

	case *exprtree.TupleNode:
		var toks []*StorageToken

		for _, f := range n.Fields {
			ft, err := lp.visit(f)
			if err != nil {
				return nil, err
			}

			toks = append(toks, ft...)
		}

		lp.prototypes[n] = toks

		return toks, nil

	case *exprtree.TupleGetItemNode:
		tupToks, err := lp.visit(n.Tuple)
		if err != nil {
			return nil, err
		}

		if n.Index < 0 || n.Index >= len(tupToks) {
			return nil, planerrors.TupleIndex(n.Index, len(tupToks))
		}

		toks := []*StorageToken{tupToks[n.Index]}
		lp.prototypes[n] = toks

		return toks, nil

	case *exprtree.LetNode:
		valToks, err := lp.visit(n.Value)
		if err != nil {
			return nil, err
		}

		lp.prototypes[n.Var] = valToks

		bodyToks, err := lp.visit(n.Body)
		if err != nil {
			return nil, err
		}

		lp.prototypes[n] = bodyToks

		return bodyToks, nil

	case *exprtree.IfNode:
		return nil, planerrors.Unsupported(n.Kind().String())

	case *exprtree.GlobalVarNode, *exprtree.OpRefNode, *exprtree.FunctionNode:
		return nil, nil

	default:
		return nil, planerrors.Unsupported(node.Kind().String())
	}
}
