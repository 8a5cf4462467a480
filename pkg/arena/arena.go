// Package arena provides bump allocators for values with pixel or sample
// lifetime. Objects placed in an arena are never finalized individually;
// Clear recycles every page at once, so arena-resident types must not own
// resources beyond their own memory.
package arena

import (
	"unsafe"

	"github.com/pkg/errors"
)

const alignment = 16

// Arena is a paged bump allocator. Allocation slices bytes off the active
// page; exhausted pages move to a used list and are recycled by Clear.
type Arena struct {
	defaultPageSize int

	active []byte
	offset int

	used [][]byte
	free [][]byte
}

// New creates an arena with the given default page size in bytes
func New(defaultPageSize int) *Arena {
	return &Arena{defaultPageSize: defaultPageSize}
}

// Alloc returns n bytes (rounded up to 16) from the active page, retiring it
// and picking or allocating another page when it runs out
func (a *Arena) Alloc(n int) []byte {
	n = (n + alignment - 1) &^ (alignment - 1)

	if a.offset+n > len(a.active) {
		a.offset = 0
		if len(a.active) != 0 {
			a.used = append(a.used, a.active)
			a.active = nil
		}

		// Linear search of the free list for a page large enough
		pageIndex := -1
		for i, page := range a.free {
			if len(page) >= n {
				pageIndex = i
				break
			}
		}

		if pageIndex >= 0 {
			a.active = a.free[pageIndex]
			last := len(a.free) - 1
			a.free[pageIndex] = a.free[last]
			a.free = a.free[:last]
		} else {
			a.active = newPage(max(n, a.defaultPageSize))
		}
	}

	p := a.active[a.offset : a.offset+n : a.offset+n]
	a.offset += n
	return p
}

// Clear recycles every page. No destructors run; previously returned memory
// must not be used afterwards.
func (a *Arena) Clear() {
	a.offset = 0
	if len(a.active) != 0 {
		a.free = append(a.free, a.active)
		a.active = nil
	}
	a.free = append(a.free, a.used...)
	a.used = a.used[:0]
}

// newPage allocates page memory backed by uint64 words so every 16-byte
// aligned offset holds any shading type
func newPage(size int) []byte {
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
}

// Make places a zeroed T in the arena
func Make[T any](a *Arena) *T {
	var zero T
	buf := a.Alloc(int(unsafe.Sizeof(zero)))
	p := (*T)(unsafe.Pointer(&buf[0]))
	*p = zero
	return p
}

// MakeSlice places a zeroed []T of length n in the arena
func MakeSlice[T any](a *Arena, n int) []T {
	var zero T
	if n == 0 {
		return nil
	}
	buf := a.Alloc(n * int(unsafe.Sizeof(zero)))
	s := unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n)
	for i := range s {
		s[i] = zero
	}
	return s
}

// Fixed is a single-buffer arena. It exists for sampler streams whose memory
// requirements are known up front; running out indicates a misconfigured
// stream layout and surfaces as an error.
type Fixed struct {
	buffer []byte
	offset int
}

// NewFixed creates a fixed arena of the given capacity in bytes
func NewFixed(capacity int) *Fixed {
	return &Fixed{buffer: newPage(capacity)}
}

// Alloc returns n bytes (rounded up to 16) or an error on exhaustion
func (f *Fixed) Alloc(n int) ([]byte, error) {
	n = (n + alignment - 1) &^ (alignment - 1)
	if f.offset+n > len(f.buffer) {
		return nil, errors.Errorf("fixed arena exhausted: need %d bytes, %d of %d used",
			n, f.offset, len(f.buffer))
	}
	p := f.buffer[f.offset : f.offset+n : f.offset+n]
	f.offset += n
	return p, nil
}

// Clear resets the arena offset
func (f *Fixed) Clear() {
	f.offset = 0
}
