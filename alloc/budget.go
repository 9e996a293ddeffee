package alloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

var _ Allocator = &Budget{}

// Stats reports the accounting of the budget.
type Stats struct {
	InUse       int64
	Peak        int64
	Allocations uint64
	Releases    uint64
	Live        int
}

// Budget simulates bounded memory. Requests exceeding the remaining budget fail with ErrOutOfMemory.
type Budget struct {
	limit int64
	stats Stats
	live  map[unsafe.Pointer]int64
}

// NewBudget returns new budget allowing at most limit bytes to be in use at the same time.
func NewBudget(limit int64) *Budget {
	return &Budget{
		limit: limit,
		live:  map[unsafe.Pointer]int64{},
	}
}

// Stats returns current accounting.
func (b *Budget) Stats() Stats {
	stats := b.stats
	stats.Live = len(b.live)
	return stats
}

// Remaining returns the number of bytes which may still be allocated.
func (b *Budget) Remaining() int64 {
	return b.limit - b.stats.InUse
}

// Allocate allocates buffer of the requested size.
func (b *Budget) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid buffer size: %d", size)
	}
	if err := b.reserve(int64(size)); err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	b.track(unsafe.Pointer(unsafe.SliceData(buf)), int64(size))
	return buf, nil
}

// Free releases buffer previously returned by Allocate.
func (b *Budget) Free(buf []byte) {
	if buf == nil {
		return
	}
	b.untrack(unsafe.Pointer(unsafe.SliceData(buf)))
}

// AllocateSlots allocates slot array of n slots.
func (b *Budget) AllocateSlots(n int) ([][]byte, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid number of slots: %d", n)
	}
	size := int64(n) * SlotSize
	if err := b.reserve(size); err != nil {
		return nil, err
	}

	slots := make([][]byte, n)
	b.track(unsafe.Pointer(unsafe.SliceData(slots)), size)
	return slots, nil
}

// ResizeSlots resizes slot array to n slots. Only the difference is charged against the budget.
func (b *Budget) ResizeSlots(slots [][]byte, n int) ([][]byte, error) {
	key := unsafe.Pointer(unsafe.SliceData(slots))
	size, exists := b.live[key]
	if !exists {
		panic(errors.Errorf("resizing slots which were not allocated by this budget"))
	}
	newSize := int64(n) * SlotSize
	if newSize > size {
		if err := b.reserve(newSize - size); err != nil {
			return nil, err
		}
	} else {
		b.stats.InUse -= size - newSize
	}

	resized := make([][]byte, n)
	copy(resized, slots)

	delete(b.live, key)
	b.live[unsafe.Pointer(unsafe.SliceData(resized))] = newSize
	return resized, nil
}

// FreeSlots releases slot array previously returned by AllocateSlots or ResizeSlots.
func (b *Budget) FreeSlots(slots [][]byte) {
	if slots == nil {
		return
	}
	b.untrack(unsafe.Pointer(unsafe.SliceData(slots)))
}

func (b *Budget) reserve(size int64) error {
	if b.stats.InUse+size > b.limit {
		return errors.Wrapf(ErrOutOfMemory, "requested: %d, remaining: %d", size, b.Remaining())
	}
	b.stats.InUse += size
	if b.stats.InUse > b.stats.Peak {
		b.stats.Peak = b.stats.InUse
	}
	return nil
}

func (b *Budget) track(key unsafe.Pointer, size int64) {
	b.live[key] = size
	b.stats.Allocations++
}

func (b *Budget) untrack(key unsafe.Pointer) {
	size, exists := b.live[key]
	if !exists {
		panic(errors.Errorf("releasing memory which is not allocated by this budget"))
	}
	delete(b.live, key)
	b.stats.InUse -= size
	b.stats.Releases++
}
