package storage

import (
	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
)

// Result is the serialized per-node output of the planner: three
// equal-length slices, one entry per tensor the node produces (spec §4.6).
type Result struct {
	StorageIDs    []int
	DeviceTypes   []int
	StorageScopes []string
}

// Serialize turns the assignment map into the final node -> Result
// mapping, restricted to producers — the nodes RunAssignment recorded as
// independently producing storage rather than aliasing another node's
// tokens (Tuple, TupleGetItem, Let, and let-bound variable references all
// forward some producer's tokens verbatim and are excluded here) — and
// enforcing the all-or-none device-annotation invariant (spec §3/§4.6)
// over the tokens that remain.
func Serialize(assigned AssignmentMap, producers []exprtree.Node) (map[exprtree.Node]Result, error) {
	out := make(map[exprtree.Node]Result, len(producers))

	annotated, total := 0, 0

	for _, node := range producers {
		toks := assigned[node]

		ids := make([]int, len(toks))
		devs := make([]int, len(toks))
		scopes := make([]string, len(toks))

		for i, t := range toks {
			ids[i] = t.StorageID
			devs[i] = t.DeviceType
			scopes[i] = t.StorageScope

			total++

			if t.DeviceType != 0 {
				annotated++
			}
		}

		out[node] = Result{StorageIDs: ids, DeviceTypes: devs, StorageScopes: scopes}
	}

	if annotated != 0 && annotated != total {
		return nil, planerrors.MixedDevice(annotated, total)
	}

	return out, nil
}
