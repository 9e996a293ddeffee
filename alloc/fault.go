package alloc

import "github.com/pkg/errors"

var _ Allocator = &Fault{}

// FailFunc decides if the operation requesting size bytes must fail.
type FailFunc func(op Op, size int) bool

// Fault wraps an allocator failing the operations selected by FailFunc.
type Fault struct {
	upstream Allocator
	fail     FailFunc
}

// NewFault returns new fault injecting allocator. Nil fail func never fails.
func NewFault(upstream Allocator, fail FailFunc) *Fault {
	return &Fault{
		upstream: upstream,
		fail:     fail,
	}
}

// SetFailFunc replaces the fail func.
func (f *Fault) SetFailFunc(fail FailFunc) {
	f.fail = fail
}

// FailOps returns fail func failing every listed operation.
func FailOps(ops ...Op) FailFunc {
	return func(op Op, _ int) bool {
		for _, o := range ops {
			if o == op {
				return true
			}
		}
		return false
	}
}

// FailAbove returns fail func failing operations of the given kind requesting more than size bytes.
func FailAbove(op Op, size int) FailFunc {
	return func(o Op, s int) bool {
		return o == op && s > size
	}
}

// Allocate allocates buffer unless the fail func says otherwise.
func (f *Fault) Allocate(size int) ([]byte, error) {
	if f.injected(OpAllocate, size) {
		return nil, errors.Wrapf(ErrOutOfMemory, "injected failure, op: %s, size: %d", OpAllocate, size)
	}
	return f.upstream.Allocate(size)
}

// Free releases buffer.
func (f *Fault) Free(b []byte) {
	f.upstream.Free(b)
}

// AllocateSlots allocates slot array unless the fail func says otherwise.
func (f *Fault) AllocateSlots(n int) ([][]byte, error) {
	size := n * int(SlotSize)
	if f.injected(OpAllocateSlots, size) {
		return nil, errors.Wrapf(ErrOutOfMemory, "injected failure, op: %s, size: %d", OpAllocateSlots, size)
	}
	return f.upstream.AllocateSlots(n)
}

// ResizeSlots resizes slot array unless the fail func says otherwise.
func (f *Fault) ResizeSlots(slots [][]byte, n int) ([][]byte, error) {
	size := n * int(SlotSize)
	if f.injected(OpResizeSlots, size) {
		return nil, errors.Wrapf(ErrOutOfMemory, "injected failure, op: %s, size: %d", OpResizeSlots, size)
	}
	return f.upstream.ResizeSlots(slots, n)
}

// FreeSlots releases slot array.
func (f *Fault) FreeSlots(slots [][]byte) {
	f.upstream.FreeSlots(slots)
}

func (f *Fault) injected(op Op, size int) bool {
	return f.fail != nil && f.fail(op, size)
}
