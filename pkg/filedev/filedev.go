package filedev

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

var _ io.ReadWriteSeeker = &FileDev{}

// FileDev uses file of fixed size as a device.
type FileDev struct {
	file *os.File
	size int64
}

// Create creates file of size bytes, truncating the existing one.
func Create(path string, size int64) (*FileDev, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := file.Truncate(size); err != nil {
		_ = file.Close()
		return nil, errors.WithStack(err)
	}
	return &FileDev{
		file: file,
		size: size,
	}, nil
}

// Open opens existing file.
func Open(path string) (*FileDev, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return nil, errors.WithStack(err)
	}
	return &FileDev{
		file: file,
		size: size,
	}, nil
}

// Seek seeks the position.
func (fd *FileDev) Seek(offset int64, whence int) (int64, error) {
	n, err := fd.file.Seek(offset, whence)
	if err != nil {
		return n, errors.WithStack(err)
	}
	return n, nil
}

// Read reads data from the file. io.EOF is returned unwrapped so io.ReadFull recognizes it.
func (fd *FileDev) Read(p []byte) (int, error) {
	n, err := fd.file.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, errors.WithStack(err)
	}
	return n, err
}

// Write writes data to the file. Writing beyond the size of the device is rejected.
func (fd *FileDev) Write(p []byte) (int, error) {
	offset, err := fd.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if offset+int64(len(p)) > fd.size {
		return 0, errors.Errorf("write of %d bytes at offset %d exceeds device size %d", len(p), offset, fd.size)
	}
	n, err := fd.file.Write(p)
	if err != nil {
		return n, errors.WithStack(err)
	}
	return n, nil
}

// Sync syncs data to the file.
func (fd *FileDev) Sync() error {
	if err := fd.file.Sync(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Size returns the byte size of the file.
func (fd *FileDev) Size() int64 {
	return fd.size
}

// Close closes the file.
func (fd *FileDev) Close() error {
	if err := fd.file.Close(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
