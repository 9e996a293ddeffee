package blocklist

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/blocklist/alloc"
	"github.com/outofforest/blocklist/blocks"
)

// List is a randomly indexable sequence of fixed-size elements stored in a chain of blocks.
// Every block before the tail is full. Blocks after the tail are empty and kept as spare capacity until Free.
// List is not safe for concurrent use.
type List struct {
	allocator   alloc.Allocator
	log         *zap.Logger
	elementSize int
	length      int

	head *blocks.Block
	tail *blocks.Block
}

// New creates empty list with one block of initialCapacity slots.
func New(initialCapacity, elementSize int, options ...Option) (*List, error) {
	if elementSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidOperation, "element size must be positive, provided: %d", elementSize)
	}

	l := &List{
		allocator:   alloc.Heap{},
		log:         zap.NewNop(),
		elementSize: elementSize,
	}
	for _, option := range options {
		option(l)
	}

	block, err := blocks.New(l.allocator, initialCapacity)
	if err != nil {
		l.log.Warn("Allocating initial block failed", zap.Int("capacity", initialCapacity), zap.Error(err))
		return nil, errors.Wrapf(ErrAllocationFailure, "allocating initial block of capacity %d: %s", initialCapacity, err)
	}
	if block.Capacity() < initialCapacity {
		l.log.Debug("Initial block capacity degraded",
			zap.Int("requested", initialCapacity),
			zap.Int("realized", block.Capacity()))
	}

	l.head = block
	l.tail = block
	return l, nil
}

// Len returns the number of elements.
func (l *List) Len() int {
	return l.length
}

// ElementSize returns the byte size of every element.
func (l *List) ElementSize() int {
	return l.elementSize
}

// Append stores a copy of data after the last element.
func (l *List) Append(data []byte) error {
	if err := l.checkElement(data); err != nil {
		return err
	}

	element, err := l.duplicate(data)
	if err != nil {
		return err
	}
	if err := l.ensureTailCapacity(); err != nil {
		l.allocator.Free(element)
		return err
	}

	l.tail.Slots[l.tail.NStored] = element
	l.tail.NStored++
	l.length++

	l.verify()
	return nil
}

// Insert stores a copy of data so it becomes the element at index. Elements at index and after are shifted by one.
// Index equal to the length appends.
func (l *List) Insert(data []byte, index int) error {
	if err := l.checkElement(data); err != nil {
		return err
	}

	element, err := l.duplicate(data)
	if err != nil {
		return err
	}
	if index < 0 || index > l.length {
		l.allocator.Free(element)
		return errors.Wrapf(ErrInvalidOperation, "insert at index %d, length: %d", index, l.length)
	}
	if err := l.ensureTailCapacity(); err != nil {
		l.allocator.Free(element)
		return err
	}

	block, offset := l.locate(index)
	if carried := l.carryForward(block, offset, element, 1); carried != nil {
		panic(errors.Errorf("element left after carrying forward from index %d", index))
	}
	l.tail.NStored++
	l.length++

	l.verify()
	return nil
}

// Delete removes the element at index. Elements after index are shifted back by one.
func (l *List) Delete(index int) error {
	if l.head == nil {
		return errors.WithStack(ErrReleased)
	}
	if index < 0 || index >= l.length {
		return errors.Wrapf(ErrInvalidOperation, "delete at index %d, length: %d", index, l.length)
	}

	l.allocator.Free(l.carryBackward(l.length - index))
	l.tail.NStored--
	l.length--

	if l.tail.NStored == 0 && l.tail.Prev != nil {
		l.tail = l.tail.Prev
	}

	l.verify()
	return nil
}

// Get returns the element at index. Returned slice points to the storage of the list, it must not be modified
// and it must not be used after next mutation.
func (l *List) Get(index int) ([]byte, error) {
	if l.head == nil {
		return nil, errors.WithStack(ErrReleased)
	}
	if index < 0 || index >= l.length {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index: %d, length: %d", index, l.length)
	}

	block, offset := l.locate(index)
	return block.Slots[offset], nil
}

// ForEach calls fn for every element in index order. Iteration stops on first error returned by fn.
func (l *List) ForEach(fn func(index int, element []byte) error) error {
	if l.head == nil {
		return errors.WithStack(ErrReleased)
	}

	var index int
	for block := l.head; block != nil; block = block.Next {
		for i := 0; i < block.NStored; i++ {
			if err := fn(index, block.Slots[i]); err != nil {
				return err
			}
			index++
		}
		if block == l.tail {
			break
		}
	}
	return nil
}

// Free releases all the elements and blocks. List can't be used afterwards.
func (l *List) Free() {
	if l == nil {
		return
	}

	for block := l.head; block != nil; {
		next := block.Next
		block.Release(l.allocator)
		block = next
	}
	l.head = nil
	l.tail = nil
	l.length = 0
}

func (l *List) checkElement(data []byte) error {
	if l.head == nil {
		return errors.WithStack(ErrReleased)
	}
	if len(data) != l.elementSize {
		return errors.Wrapf(ErrInvalidOperation, "element size mismatch, expected: %d, provided: %d",
			l.elementSize, len(data))
	}
	return nil
}

func (l *List) duplicate(data []byte) ([]byte, error) {
	element, err := alloc.Duplicate(l.allocator, data)
	if err != nil {
		l.log.Warn("Copying element failed", zap.Int("size", len(data)), zap.Error(err))
		return nil, errors.Wrapf(ErrHeapCopyFailure, "copying %d bytes: %s", len(data), err)
	}
	return element, nil
}

// ensureTailCapacity guarantees that there is a free slot in the tail block. Spare block is used first,
// then in-place growth of the tail is tried, and finally new block of the tail's current capacity is chained.
// List is unchanged on failure.
func (l *List) ensureTailCapacity() error {
	if !l.tail.Full() {
		return nil
	}

	if l.tail.Next != nil {
		l.tail = l.tail.Next
		l.log.Debug("Spare block reused", zap.Int("capacity", l.tail.Capacity()))
		return nil
	}

	capacity := l.tail.Capacity()
	growErr := l.tail.Grow(l.allocator)
	if growErr == nil {
		l.log.Debug("Tail block grown", zap.Int("from", capacity), zap.Int("to", l.tail.Capacity()))
		return nil
	}

	block, err := blocks.New(l.allocator, capacity)
	if err != nil {
		l.log.Warn("Extending list failed",
			zap.Int("length", l.length),
			zap.Int("capacity", capacity),
			zap.NamedError("growError", growErr),
			zap.Error(err))
		return errors.Wrapf(ErrAllocationFailure, "chaining block of capacity %d: %s", capacity, err)
	}

	block.Prev = l.tail
	l.tail.Next = block
	l.tail = block

	l.log.Debug("Block chained",
		zap.Int("requested", capacity),
		zap.Int("realized", block.Capacity()),
		zap.NamedError("growError", growErr))
	return nil
}

// locate translates index into block and offset within that block. Walk subtracts capacities,
// which is valid because all the blocks before the tail are full.
func (l *List) locate(index int) (*blocks.Block, int) {
	block := l.head
	for block != l.tail && index >= block.Capacity() {
		index -= block.Capacity()
		block = block.Next
	}
	return block, index
}

// carryForward shifts elements starting at offset of block by one position towards the tail,
// storing carried in the vacated position. tailExtra slots beyond the stored ones are included in the tail.
// The element carried out of the last visited position is returned.
func (l *List) carryForward(block *blocks.Block, offset int, carried []byte, tailExtra int) []byte {
	for ; block != nil; block, offset = block.Next, 0 {
		n := block.NStored
		if block == l.tail {
			n += tailExtra
		}
		for i := offset; i < n; i++ {
			block.Slots[i], carried = carried, block.Slots[i]
		}
		if block == l.tail {
			break
		}
	}
	return carried
}

// carryBackward shifts the last remaining elements by one position towards the head, starting at the tail.
// The element carried out of the first visited position is returned.
func (l *List) carryBackward(remaining int) []byte {
	var carried []byte
	for block := l.tail; block != nil && remaining > 0; block = block.Prev {
		for i := block.NStored - 1; i >= 0 && remaining > 0; i, remaining = i-1, remaining-1 {
			block.Slots[i], carried = carried, block.Slots[i]
		}
	}
	return carried
}

func (l *List) verify() {
	if !VerifyPacking {
		return
	}
	if err := l.Verify(); err != nil {
		panic(err)
	}
}
