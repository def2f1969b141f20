package storage

import (
	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
)

// AssignmentMap is the output of the Assignment Pass: for every node the
// Liveness Pass recognized, the final token list with storage ids set.
type AssignmentMap = map[exprtree.Node][]*StorageToken

type assignPass struct {
	prototypes PrototypeMap
	assigned   AssignmentMap
	alloc      *TokenAllocator
	// producers records, in visit order, every node that independently
	// produced storage (as opposed to aliasing another node's tokens) —
	// exactly the set Serialize reports (spec §4.6).
	producers []exprtree.Node
}

// RunAssignment walks fn's body a second time, in the same order as
// RunLiveness, consulting prototypes to request or allocate a buffer for
// every producer and releasing argument buffers whose ref_counter reaches
// zero (spec §4.2). The returned producer list is Serialize's input.
func RunAssignment(fn *exprtree.Function, prototypes PrototypeMap, alloc *TokenAllocator) (AssignmentMap, []exprtree.Node, error) {
	ap := &assignPass{prototypes: prototypes, assigned: make(AssignmentMap), alloc: alloc}

	for _, p := range fn.Params {
		toks, err := ap.allocateParamLike(p)
		if err != nil {
			return nil, nil, err
		}

		ap.assigned[p] = toks
		ap.producers = append(ap.producers, p)
	}

	if _, err := ap.visit(fn.Body); err != nil {
		return nil, nil, err
	}

	return ap.assigned, ap.producers, nil
}

// allocateParamLike implements the "Function parameter, constant" rule: a
// fresh buffer for every prototype token, no reuse, pinned so it is never
// released.
func (ap *assignPass) allocateParamLike(node exprtree.Node) ([]*StorageToken, error) {
	protos := ap.prototypes[node]
	out := make([]*StorageToken, len(protos))

	for i, p := range protos {
		tok, err := ap.alloc.Allocate(p)
		if err != nil {
			return nil, err
		}

		tok.RefCounter++
		out[i] = tok
	}

	return out, nil
}

func (ap *assignPass) visit(node exprtree.Node) ([]*StorageToken, error) {
	if toks, ok := ap.assigned[node]; ok {
		return toks, nil
	}

	switch n := node.(type) {
	case *exprtree.ConstantNode:
		toks, err := ap.allocateParamLike(n)
		if err != nil {
			return nil, err
		}

		ap.assigned[n] = toks
		ap.producers = append(ap.producers, n)

		return toks, nil

	case *exprtree.VarNode:
		// Parameters are seeded before traversal; any other reference
		// with no prior binding is a no-op (spec §4.1/§4.2).
		return ap.assigned[n], nil

	case *exprtree.CallNode:
		argResults := make([][]*StorageToken, len(n.Args))

		for i, arg := range n.Args {
			at, err := ap.visit(arg)
			if err != nil {
				return nil, err
			}

			argResults[i] = at
		}

		protos := ap.prototypes[n]
		out := make([]*StorageToken, len(protos))

		for i, p := range protos {
			tok, err := ap.request(p)
			if err != nil {
				return nil, err
			}

			out[i] = tok
		}

		ap.assigned[n] = out
		ap.producers = append(ap.producers, n)

		for _, t := range out {
			if err := ap.alloc.CheckForRelease(t); err != nil {
				return nil, err
			}
		}

		for _, at := range argResults {
			for _, t := range at {
				t.RefCounter--

				if err := ap.alloc.CheckForRelease(t); err != nil {
					return nil, err
				}
			}
		}

		return out, nil

	case *exprtree.TupleNode:
		var toks []*StorageToken

		for _, f := range n.Fields {
			ft, err := ap.visit(f)
			if err != nil {
				return nil, err
			}

			toks = append(toks, ft...)
		}

		ap.assigned[n] = toks

		return toks, nil

	case *exprtree.TupleGetItemNode:
		tupToks, err := ap.visit(n.Tuple)
		if err != nil {
			return nil, err
		}

		if n.Index < 0 || n.Index >= len(tupToks) {
			return nil, planerrors.TupleIndex(n.Index, len(tupToks))
		}

		toks := []*StorageToken{tupToks[n.Index]}
		ap.assigned[n] = toks

		return toks, nil

	case *exprtree.LetNode:
		valToks, err := ap.visit(n.Value)
		if err != nil {
			return nil, err
		}

		ap.assigned[n.Var] = valToks

		bodyToks, err := ap.visit(n.Body)
		if err != nil {
			return nil, err
		}

		ap.assigned[n] = bodyToks

		return bodyToks, nil

	case *exprtree.IfNode:
		return nil, planerrors.Unsupported(n.Kind().String())

	case *exprtree.GlobalVarNode, *exprtree.OpRefNode, *exprtree.FunctionNode:
		return nil, nil

	default:
		return nil, planerrors.Unsupported(node.Kind().String())
	}
}

// request implements the "Allocate vs Request" routing of spec §4.2: 2D
// (texture-scoped) tokens always attempt reuse; 1D tokens only attempt
// reuse when storage_scope is exactly "global", falling straight through
// to Allocate for any other (opaque) scope.
func (ap *assignPass) request(p *StorageToken) (*StorageToken, error) {
	if p.Is2D() || p.StorageScope == "global" {
		return ap.alloc.Request(p)
	}

	return ap.alloc.Allocate(p)
}
