// Package storage implements the planner's core: liveness analysis over a
// typed expression tree, storage-id assignment with buffer reuse, and the
// 1D/2D allocation strategies backing it. Everything here runs
// single-threaded and synchronous (spec §5): one Plan call, one arena, no
// locking.
package storage

import (
	"strings"

	"github.com/orizon-lang/memplan/internal/exprtree"
)

// Unassigned is the sentinel StorageID of a token that has not yet been
// handed a buffer.
const Unassigned = -1

// StorageToken is the planner's unit of reservation: one per producer
// tensor. Two tokens sharing a StorageID share the same underlying buffer.
type StorageToken struct {
	TType        exprtree.TensorType
	DeviceType   int
	StorageScope string
	RefCounter   int
	MaxBytes     int64
	StorageID    int

	// is2D is precomputed once at creation (spec §9: "implementers may
	// precompute it on token creation rather than re-scanning the string
	// at every request").
	is2D bool
}

// Is2D reports whether this token's storage scope routes through the 2D
// image allocator (its scope string contains "texture").
func (t *StorageToken) Is2D() bool { return t.is2D }

func is2DScope(scope string) bool { return strings.Contains(scope, "texture") }

// Arena is a bump-style allocator for StorageTokens. Tokens are allocated
// from fixed-capacity chunks so that pointers handed out remain stable for
// the planner's lifetime even as the arena grows — the same contract the
// teacher's bump arena (internal/allocator/arena.go) provides for raw
// bytes, specialized here to a typed Go value since nothing in this
// package needs unsafe memory.
type Arena struct {
	chunks    [][]StorageToken
	chunkSize int
	count     int
}

const defaultChunkSize = 64

// NewArena creates an arena pre-sized (in token count) to hint, which is
// purely an allocation-amortization hint, not a hard capacity.
func NewArena(hint int) *Arena {
	size := defaultChunkSize
	if hint > size {
		size = hint
	}

	return &Arena{chunkSize: size}
}

// New returns a freshly zeroed token with StorageID set to Unassigned.
func (a *Arena) New() *StorageToken {
	if len(a.chunks) == 0 || len(a.chunks[len(a.chunks)-1]) == cap(a.chunks[len(a.chunks)-1]) {
		a.chunks = append(a.chunks, make([]StorageToken, 0, a.chunkSize))
	}

	last := len(a.chunks) - 1
	a.chunks[last] = append(a.chunks[last], StorageToken{StorageID: Unassigned})
	a.count++

	return &a.chunks[last][len(a.chunks[last])-1]
}

// Len returns the number of tokens ever allocated from this arena.
func (a *Arena) Len() int { return a.count }
