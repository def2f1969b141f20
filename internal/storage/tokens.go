package storage

import (
	"github.com/orizon-lang/memplan/internal/exprtree"
	"github.com/orizon-lang/memplan/internal/planerrors"
)

// newTokens allocates a fresh token for every tensor ty produces (1 for a
// tensor type, k for a k-tuple), applying device and the per-tensor scope
// list. A nil scopes defaults every tensor to "global" (spec §4.1 "absent
// entry => global default"); a non-nil scopes whose length disagrees with
// the tensor count is a ScopeArityMismatch.
func newTokens(arena *Arena, ty exprtree.Type, device int, scopes []string) ([]*StorageToken, *planerrors.PlannerError) {
	tensors := exprtree.Tensors(ty)

	if scopes != nil && len(scopes) != len(tensors) {
		return nil, planerrors.ArityMismatch(len(scopes), len(tensors))
	}

	out := make([]*StorageToken, len(tensors))

	for i, tt := range tensors {
		scope := "global"
		if scopes != nil {
			scope = scopes[i]
		}

		tok := arena.New()
		tok.TType = tt
		tok.DeviceType = device
		tok.StorageScope = scope
		tok.is2D = is2DScope(scope)
		out[i] = tok
	}

	return out, nil
}
