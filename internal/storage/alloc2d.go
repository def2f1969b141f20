package storage

// block2D tracks a 2D image buffer's current dimensions, which may grow
// across reuses beyond the shape of any single tensor it has served.
type block2D struct {
	token *StorageToken
	w, h  int64
}

// TokenAllocator2D manages 2D image buffers keyed by storage id, choosing
// on reuse the free block minimizing expansion waste (spec §4.4). There is
// no example in this codebase's ancestry for a 2D image-block allocator;
// this is new code written in the teacher's allocator idiom (plain struct
// + map, no locking since planning is single-threaded per spec §5).
type TokenAllocator2D struct {
	counter *idCounter
	blocks  map[int]*block2D
	free    []int // free storage ids
}

func newTokenAllocator2D(counter *idCounter) *TokenAllocator2D {
	return &TokenAllocator2D{counter: counter, blocks: make(map[int]*block2D)}
}

// Request flattens proto's shape, attempts reuse, and falls back to
// Allocate on miss. 2D always attempts reuse (spec §4.2).
func (a *TokenAllocator2D) Request(proto *StorageToken) (*StorageToken, error) {
	w, h, _, perr := flatten(proto.TType, proto.StorageScope)
	if perr != nil {
		return nil, perr
	}

	if tok := a.reuse(w, h, proto); tok != nil {
		return tok, nil
	}

	return a.allocateSized(proto, w, h)
}

// reuse implements spec §4.4: among free blocks of identical dtype, pick
// the one minimizing expansion (added), breaking ties by minimizing waste,
// and accept only if added <= requested area.
func (a *TokenAllocator2D) reuse(w, h int64, proto *StorageToken) *StorageToken {
	requested := w * h

	bestIdx := -1

	var bestAdded, bestWasted int64

	for i, id := range a.free {
		b := a.blocks[id]
		if !b.token.TType.DType.Equal(proto.TType.DType) {
			continue
		}

		nw, nh := maxI64(b.w, w), maxI64(b.h, h)
		expanded := nw * nh
		added := expanded - b.w*b.h
		wasted := expanded - w*h

		if bestIdx == -1 || added < bestAdded || (added == bestAdded && wasted < bestWasted) {
			bestIdx, bestAdded, bestWasted = i, added, wasted
		}
	}

	if bestIdx == -1 || bestAdded > requested {
		return nil
	}

	id := a.free[bestIdx]
	b := a.blocks[id]
	b.w, b.h = maxI64(b.w, w), maxI64(b.h, h)
	b.token.RefCounter = proto.RefCounter

	a.free = append(a.free[:bestIdx], a.free[bestIdx+1:]...)

	return b.token
}

// Allocate flattens proto's shape and records a brand-new block, no reuse
// attempted.
func (a *TokenAllocator2D) Allocate(proto *StorageToken) (*StorageToken, error) {
	w, h, _, perr := flatten(proto.TType, proto.StorageScope)
	if perr != nil {
		return nil, perr
	}

	return a.allocateSized(proto, w, h)
}

func (a *TokenAllocator2D) allocateSized(proto *StorageToken, w, h int64) (*StorageToken, error) {
	proto.StorageID = a.counter.Next()
	a.blocks[proto.StorageID] = &block2D{token: proto, w: w, h: h}

	return proto, nil
}

// Release inserts proto's storage id into the free set once its
// ref_counter reaches zero.
func (a *TokenAllocator2D) Release(tok *StorageToken) error {
	if tok.RefCounter != 0 {
		return nil
	}

	a.free = append(a.free, tok.StorageID)

	return nil
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
