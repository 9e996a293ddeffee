package alloc

import "github.com/pkg/errors"

// DefaultHeapLimit is the largest single request served by Heap if no other limit is set.
const DefaultHeapLimit = 1 << 30 // 1GiB

var _ Allocator = Heap{}

// Heap allocates from the go runtime. Requests larger than Limit bytes fail with ErrOutOfMemory.
type Heap struct {
	// Limit is the maximum byte size of a single request, DefaultHeapLimit is used if zero.
	Limit int64
}

// Allocate allocates zeroed buffer of the requested size.
func (h Heap) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid buffer size: %d", size)
	}
	if int64(size) > h.limit() {
		return nil, errors.Wrapf(ErrOutOfMemory, "requested: %d, limit: %d", size, h.limit())
	}
	return make([]byte, size), nil
}

// Free does nothing, memory is reclaimed by the garbage collector.
func (Heap) Free([]byte) {}

// AllocateSlots allocates slot array.
func (h Heap) AllocateSlots(n int) ([][]byte, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid number of slots: %d", n)
	}
	if err := h.checkSlots(n); err != nil {
		return nil, err
	}
	return make([][]byte, n), nil
}

// ResizeSlots extends slot array to n slots, copying the occupants to the new array.
func (h Heap) ResizeSlots(slots [][]byte, n int) ([][]byte, error) {
	if n < len(slots) {
		return nil, errors.Errorf("shrinking slots from %d to %d", len(slots), n)
	}
	if err := h.checkSlots(n); err != nil {
		return nil, err
	}
	resized := make([][]byte, n)
	copy(resized, slots)
	return resized, nil
}

// FreeSlots does nothing, memory is reclaimed by the garbage collector.
func (Heap) FreeSlots([][]byte) {}

func (h Heap) limit() int64 {
	if h.Limit <= 0 {
		return DefaultHeapLimit
	}
	return h.Limit
}

// checkSlots compares slot count with the limit without multiplying, so huge n can't overflow.
func (h Heap) checkSlots(n int) error {
	if int64(n) > h.limit()/SlotSize {
		return errors.Wrapf(ErrOutOfMemory, "requested slots: %d, limit: %d bytes", n, h.limit())
	}
	return nil
}
