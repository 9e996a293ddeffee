package blocks

import (
	"math"

	"github.com/pkg/errors"

	"github.com/outofforest/blocklist/alloc"
)

// GrowthFactor is the factor used to grow the block in place.
const GrowthFactor = 2

// Block is a single link in the chain of blocks. Each occupied slot owns one element buffer.
type Block struct {
	Slots   [][]byte
	NStored int

	Prev *Block
	Next *Block
}

// New creates new block. If slot array of the requested capacity can't be allocated, capacity is halved
// until allocation succeeds. Realized capacity must be read from the returned block.
func New(a alloc.Allocator, capacity int) (*Block, error) {
	slots, err := AllocateWithBackoff(a, capacity)
	if err != nil {
		return nil, err
	}
	return &Block{
		Slots: slots,
	}, nil
}

// AllocateWithBackoff allocates slot array, halving the requested capacity after each failure.
func AllocateWithBackoff(a alloc.Allocator, capacity int) ([][]byte, error) {
	requested := capacity
	for ; capacity > 0; capacity /= 2 {
		slots, err := a.AllocateSlots(capacity)
		if err == nil {
			return slots, nil
		}
		if !errors.Is(err, alloc.ErrOutOfMemory) {
			return nil, err
		}
	}
	return nil, errors.Wrapf(alloc.ErrOutOfMemory, "no slot array could be allocated, requested capacity: %d", requested)
}

// Capacity returns the maximum number of elements the block can store.
func (b *Block) Capacity() int {
	return len(b.Slots)
}

// Full returns true if there is no free slot in the block.
func (b *Block) Full() bool {
	return b.NStored == len(b.Slots)
}

// Grow multiplies the capacity of the block by GrowthFactor. Block is left untouched on failure.
func (b *Block) Grow(a alloc.Allocator) error {
	if len(b.Slots) > math.MaxInt/GrowthFactor {
		return errors.Wrapf(alloc.ErrOutOfMemory, "capacity %d can't be grown", len(b.Slots))
	}
	slots, err := a.ResizeSlots(b.Slots, GrowthFactor*len(b.Slots))
	if err != nil {
		return err
	}
	b.Slots = slots
	return nil
}

// Release frees all the stored elements and the slot array.
func (b *Block) Release(a alloc.Allocator) {
	for i := 0; i < b.NStored; i++ {
		a.Free(b.Slots[i])
		b.Slots[i] = nil
	}
	a.FreeSlots(b.Slots)
	b.Slots = nil
	b.NStored = 0
	b.Prev = nil
	b.Next = nil
}
