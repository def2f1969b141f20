package storage

// TokenAllocator is the thin dispatch façade of spec §4.5: it owns both
// sub-allocators and the shared storage-id counter, routing each request by
// whether the token's scope contains "texture". Grounded on
// internal/allocator/allocator.go's top-level Allocator façade that owns
// sub-allocators and dispatches by request shape.
type TokenAllocator struct {
	counter *idCounter
	one     *TokenAllocator1D
	two     *TokenAllocator2D
}

// NewTokenAllocator creates a dispatch façade with the given 1D fuzzy-match
// range (spec's fixed constant of 16, made configurable via planconfig).
func NewTokenAllocator(fuzzyRange int) *TokenAllocator {
	c := &idCounter{}

	return &TokenAllocator{
		counter: c,
		one:     newTokenAllocator1D(fuzzyRange, c),
		two:     newTokenAllocator2D(c),
	}
}

// Allocate creates a brand-new storage id for proto, skipping any reuse
// search, routed to the 1D or 2D sub-allocator by scope.
func (t *TokenAllocator) Allocate(proto *StorageToken) (*StorageToken, error) {
	if proto.Is2D() {
		return t.two.Allocate(proto)
	}

	return t.one.Allocate(proto)
}

// Request searches the routed sub-allocator's free list and falls back to
// Allocate on miss, guaranteeing a non-nil return.
func (t *TokenAllocator) Request(proto *StorageToken) (*StorageToken, error) {
	if proto.Is2D() {
		return t.two.Request(proto)
	}

	return t.one.Request(proto)
}

// CheckForRelease releases tok back to its sub-allocator's free list when
// its ref_counter has reached zero; a no-op otherwise.
func (t *TokenAllocator) CheckForRelease(tok *StorageToken) error {
	if tok.RefCounter != 0 {
		return nil
	}

	if tok.Is2D() {
		return t.two.Release(tok)
	}

	return t.one.Release(tok)
}

// TotalAllocBytes reports the 1D sub-allocator's cumulative allocation
// size, exposed for diagnostics/tests.
func (t *TokenAllocator) TotalAllocBytes() int64 { return t.one.TotalAllocBytes() }
