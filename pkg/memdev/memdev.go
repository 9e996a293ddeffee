package memdev

import (
	"io"

	"github.com/pkg/errors"
)

var _ io.ReadWriteSeeker = &MemDev{}

// MemDev is a fixed-size device kept in memory. Lists saved by tests and the demo driver land here.
type MemDev struct {
	offset int64
	data   []byte
}

// New returns new memdev of size bytes.
func New(size int64) *MemDev {
	return &MemDev{
		data: make([]byte, size),
	}
}

// Seek seeks the position.
func (md *MemDev) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += md.offset
	case io.SeekEnd:
		offset += md.Size()
	default:
		return 0, errors.Errorf("invalid whence: %d", whence)
	}

	if offset < 0 || offset > md.Size() {
		return 0, errors.Errorf("invalid offset: %d", offset)
	}

	md.offset = offset
	return offset, nil
}

// Read reads data from the current position. io.EOF is returned once the end of device is reached.
func (md *MemDev) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := copy(p, md.data[md.offset:])
	md.offset += int64(n)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes data at the current position. io.ErrShortWrite is returned if data don't fit.
func (md *MemDev) Write(p []byte) (int, error) {
	n := copy(md.data[md.offset:], p)
	md.offset += int64(n)
	if n < len(p) {
		return n, errors.WithStack(io.ErrShortWrite)
	}
	return n, nil
}

// Sync does nothing, data are already in their final place.
func (md *MemDev) Sync() error {
	return nil
}

// Size returns the byte size of the device.
func (md *MemDev) Size() int64 {
	return int64(len(md.data))
}

// Bytes returns the content of the device.
func (md *MemDev) Bytes() []byte {
	return md.data
}
