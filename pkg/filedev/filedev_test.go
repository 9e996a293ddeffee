package filedev

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOpen(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "dev")

	dev, err := Create(path, 8)
	requireT.NoError(err)
	requireT.EqualValues(8, dev.Size())

	n, err := dev.Write([]byte{0x01, 0x02, 0x03})
	requireT.NoError(err)
	requireT.Equal(3, n)

	_, err = dev.Seek(6, io.SeekStart)
	requireT.NoError(err)
	_, err = dev.Write([]byte{0x01, 0x02, 0x03})
	requireT.Error(err)

	requireT.NoError(dev.Sync())
	requireT.NoError(dev.Close())

	dev, err = Open(path)
	requireT.NoError(err)
	defer dev.Close()
	requireT.EqualValues(8, dev.Size())

	_, err = dev.Seek(0, io.SeekStart)
	requireT.NoError(err)
	buf := make([]byte, 8)
	_, err = io.ReadFull(dev, buf)
	requireT.NoError(err)
	requireT.Equal([]byte{0x01, 0x02, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00}, buf)

	_, err = dev.Read(buf)
	requireT.ErrorIs(err, io.EOF)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
