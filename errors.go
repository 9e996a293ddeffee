package blocklist

import "github.com/pkg/errors"

var (
	// ErrAllocationFailure is returned if block, slot array or capacity growth can't be allocated.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrHeapCopyFailure is returned if element bytes can't be copied onto owned storage.
	ErrHeapCopyFailure = errors.New("heap copy failure")

	// ErrInvalidOperation is returned if index is outside the range accepted by insert or delete.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrIndexOutOfRange is returned if element at index beyond the length is read.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrReleased is returned if list is used after being freed.
	ErrReleased = errors.New("list has been released")
)
