package persistence

import (
	"io"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/blocklist"
)

// listSubject defines an identifier used to detect if list has been saved on the device.
const listSubject = 0b0100001000000000100000010010000100010010110000100010010001000110

// HeaderSize is the size of the header preceding the elements on the device.
const HeaderSize = int64(unsafe.Sizeof(header{}))

// Dev is the interface required from the device.
type Dev interface {
	io.ReadWriteSeeker
	Sync() error
	Size() int64
}

var (
	// ErrNotInitialized is returned if there is no list saved on the device.
	ErrNotInitialized = errors.New("no list has been saved on the provided device")

	// ErrChecksumMismatch is returned if loaded elements don't match the checksum stored in the header.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

type header struct {
	Subject     uint64
	ElementSize uint64
	Length      uint64
	Checksum    uint64
}

// Save writes all the elements of the list to the device.
func Save(dev Dev, l *blocklist.List) error {
	required := HeaderSize + int64(l.Len())*int64(l.ElementSize())
	if required > dev.Size() {
		return errors.Errorf("device is too small, required: %d bytes, provided: %d", required, dev.Size())
	}

	if _, err := dev.Seek(HeaderSize, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	digest := xxhash.New()
	w := io.MultiWriter(dev, digest)
	if err := l.ForEach(func(index int, element []byte) error {
		if _, err := w.Write(element); err != nil {
			return errors.Wrapf(err, "writing element %d", index)
		}
		return nil
	}); err != nil {
		return err
	}

	h := photon.NewFromValue(&header{
		Subject:     listSubject,
		ElementSize: uint64(l.ElementSize()),
		Length:      uint64(l.Len()),
		Checksum:    digest.Sum64(),
	})
	if _, err := dev.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := dev.Write(h.B); err != nil {
		return errors.WithStack(err)
	}

	return dev.Sync()
}

// Load reads the list saved on the device. Returned list starts with a block of initialCapacity slots.
func Load(dev Dev, initialCapacity int, options ...blocklist.Option) (*blocklist.List, error) {
	h, err := loadHeader(dev)
	if err != nil {
		return nil, err
	}

	l, err := blocklist.New(initialCapacity, int(h.ElementSize), options...)
	if err != nil {
		return nil, err
	}

	digest := xxhash.New()
	element := make([]byte, h.ElementSize)
	for i := uint64(0); i < h.Length; i++ {
		if _, err := io.ReadFull(dev, element); err != nil {
			l.Free()
			return nil, errors.Wrapf(err, "reading element %d", i)
		}
		_, _ = digest.Write(element)
		if err := l.Append(element); err != nil {
			l.Free()
			return nil, err
		}
	}

	if checksum := digest.Sum64(); checksum != h.Checksum {
		l.Free()
		return nil, errors.Wrapf(ErrChecksumMismatch, "computed: %x, expected: %x", checksum, h.Checksum)
	}
	return l, nil
}

func loadHeader(dev Dev) (header, error) {
	if dev.Size() < HeaderSize {
		return header{}, errors.WithStack(ErrNotInitialized)
	}
	if _, err := dev.Seek(0, io.SeekStart); err != nil {
		return header{}, errors.WithStack(err)
	}

	h := photon.NewFromBytes[header](make([]byte, HeaderSize))
	if _, err := io.ReadFull(dev, h.B); err != nil {
		return header{}, errors.WithStack(err)
	}

	if h.V.Subject != listSubject {
		return header{}, errors.WithStack(ErrNotInitialized)
	}
	if h.V.ElementSize == 0 || h.V.ElementSize > uint64(dev.Size()) {
		return header{}, errors.Errorf("invalid element size: %d", h.V.ElementSize)
	}
	if h.V.Length > uint64(dev.Size()-HeaderSize)/h.V.ElementSize {
		return header{}, errors.Errorf("%d elements of %d bytes don't fit on the device of %d bytes",
			h.V.Length, h.V.ElementSize, dev.Size())
	}

	return *h.V, nil
}
