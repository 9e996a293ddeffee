package alloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

// SlotSize is the number of bytes accounted for a single slot of a slot array.
const SlotSize = int64(unsafe.Sizeof([]byte(nil)))

// ErrOutOfMemory is returned when allocator is not able to satisfy the request.
var ErrOutOfMemory = errors.New("out of memory")

// Op is the enum representing the allocator operation.
type Op byte

// Allocator operations.
const (
	OpAllocate Op = iota
	OpAllocateSlots
	OpResizeSlots
)

func (op Op) String() string {
	switch op {
	case OpAllocate:
		return "allocate"
	case OpAllocateSlots:
		return "allocate_slots"
	case OpResizeSlots:
		return "resize_slots"
	default:
		return "unknown"
	}
}

// Allocator provides memory for element buffers and slot arrays.
// ResizeSlots either succeeds, preserving the occupants, or returns an error leaving the slots untouched.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(b []byte)
	AllocateSlots(n int) ([][]byte, error)
	ResizeSlots(slots [][]byte, n int) ([][]byte, error)
	FreeSlots(slots [][]byte)
}

// Duplicate copies data onto a buffer owned by the caller.
func Duplicate(a Allocator, data []byte) ([]byte, error) {
	b, err := a.Allocate(len(data))
	if err != nil {
		return nil, err
	}
	copy(b, data)
	return b, nil
}
