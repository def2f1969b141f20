package storage

import "sort"

// idCounter is the monotonically increasing storage-id counter shared by
// both sub-allocators; the dispatch layer owns it (spec §4.5).
type idCounter struct{ next int }

func (c *idCounter) Next() int {
	id := c.next
	c.next++

	return id
}

// TokenAllocator1D manages linear byte buffers with a size-indexed free
// list and fuzzy size-match reuse, grounded on the size-bucketed free-list
// pool allocator in internal/allocator/pool.go, generalized from exact
// buckets to the fuzzy range spec §4.3 requires.
type TokenAllocator1D struct {
	fuzzyRange int
	counter    *idCounter

	// free is kept sorted ascending by MaxBytes so the fuzzy search can
	// binary-search to the first candidate >= size and scan outward.
	free []*StorageToken
	data []*StorageToken // bookkeeping for TotalAllocBytes, append-only.
}

func newTokenAllocator1D(fuzzyRange int, counter *idCounter) *TokenAllocator1D {
	if fuzzyRange <= 0 {
		fuzzyRange = 16
	}

	return &TokenAllocator1D{fuzzyRange: fuzzyRange, counter: counter}
}

// Request attempts a fuzzy-match reuse; on miss it falls back to Allocate.
func (a *TokenAllocator1D) Request(proto *StorageToken) (*StorageToken, error) {
	size, perr := byteSize(proto.TType)
	if perr != nil {
		return nil, perr
	}

	if tok := a.reuse(size, proto.DeviceType); tok != nil {
		if size > tok.MaxBytes {
			tok.MaxBytes = size
		}

		tok.RefCounter = proto.RefCounter

		return tok, nil
	}

	return a.allocateSized(proto, size)
}

// reuse implements spec §4.3's fuzzy search: scan up from the first entry
// with cached size >= size toward size*range, then down toward size/range,
// returning the first entry whose DeviceType matches.
func (a *TokenAllocator1D) reuse(size int64, device int) *StorageToken {
	if len(a.free) == 0 {
		return nil
	}

	lo := size / int64(a.fuzzyRange)
	hi := size * int64(a.fuzzyRange)

	idx := sort.Search(len(a.free), func(i int) bool { return a.free[i].MaxBytes >= size })

	for i := idx; i < len(a.free) && a.free[i].MaxBytes <= hi; i++ {
		if a.free[i].DeviceType == device {
			return a.takeFree(i)
		}
	}

	for i := idx - 1; i >= 0 && a.free[i].MaxBytes >= lo; i-- {
		if a.free[i].DeviceType == device {
			return a.takeFree(i)
		}
	}

	return nil
}

func (a *TokenAllocator1D) takeFree(i int) *StorageToken {
	tok := a.free[i]
	a.free = append(a.free[:i], a.free[i+1:]...)

	return tok
}

// Allocate computes proto's size, assigns it a fresh storage id, and
// records it for TotalAllocBytes bookkeeping. No reuse is attempted.
func (a *TokenAllocator1D) Allocate(proto *StorageToken) (*StorageToken, error) {
	size, perr := byteSize(proto.TType)
	if perr != nil {
		return nil, perr
	}

	return a.allocateSized(proto, size)
}

func (a *TokenAllocator1D) allocateSized(proto *StorageToken, size int64) (*StorageToken, error) {
	proto.MaxBytes = size
	proto.StorageID = a.counter.Next()
	a.data = append(a.data, proto)

	return proto, nil
}

// Release inserts tok into the free list when its ref_counter has reached
// zero, maintaining the ascending-by-MaxBytes invariant the fuzzy search
// relies on.
func (a *TokenAllocator1D) Release(tok *StorageToken) error {
	if tok.RefCounter != 0 {
		return nil
	}

	idx := sort.Search(len(a.free), func(i int) bool { return a.free[i].MaxBytes >= tok.MaxBytes })
	a.free = append(a.free, nil)
	copy(a.free[idx+1:], a.free[idx:])
	a.free[idx] = tok

	return nil
}

// TotalAllocBytes sums MaxBytes across every token ever allocated (not just
// currently live ones), matching the teacher pool allocator's bookkeeping
// semantics.
func (a *TokenAllocator1D) TotalAllocBytes() int64 {
	var total int64
	for _, t := range a.data {
		total += t.MaxBytes
	}

	return total
}
