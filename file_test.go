package pagedb

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// memDevice is an in-memory blockDevice that can fake short transfers.
type memDevice struct {
	data       []byte
	pos        int64
	seeks      int
	shortRead  bool
	shortWrite bool
}

func (d *memDevice) Seek(off int64) (int64, error) {
	d.seeks++
	d.pos = off
	return off, nil
}

func (d *memDevice) Read(b []byte) (int, error) {
	if d.pos >= int64(len(d.data)) {
		return 0, nil
	}
	n := copy(b, d.data[d.pos:])
	if d.shortRead && n > 0 {
		n--
	}
	d.pos += int64(n)
	return n, nil
}

func (d *memDevice) Write(b []byte) (int, error) {
	n := len(b)
	if d.shortWrite && n > 0 {
		n--
	}
	if end := d.pos + int64(n); end > int64(len(d.data)) {
		d.data = append(d.data, make([]byte, end-int64(len(d.data)))...)
	}
	copy(d.data[d.pos:], b[:n])
	d.pos += int64(n)
	return n, nil
}

func (d *memDevice) Sync() error { return nil }

func (d *memDevice) Truncate(size int64) error {
	if size <= int64(len(d.data)) {
		d.data = d.data[:size]
	} else {
		d.data = append(d.data, make([]byte, size-int64(len(d.data)))...)
	}
	return nil
}

func (d *memDevice) Size() (int64, error) { return int64(len(d.data)), nil }

func (d *memDevice) Close() error { return nil }

func newMemPageFile(t *testing.T, pages int, pageSize uint32) (*pageFile, *memDevice) {
	dev := &memDevice{data: make([]byte, pages*int(pageSize))}
	f, err := newPageFile(dev, "mem", pageSize)
	require.NoError(t, err)
	return f, dev
}

func TestPageFileOpenMissing(t *testing.T) {
	_, err := openPageFile(filepath.Join(t.TempDir(), "does-not-exist"), os.O_RDONLY, 4096)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrIO))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPageFileBasic(t *testing.T) {
	name := filepath.Join(t.TempDir(), "file.db")
	f, err := openPageFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 4096)
	require.NoError(t, err)
	defer f.close()
	require.Equal(t, uint64(0), f.size())

	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, f.write(0, buf, 1))
	require.Equal(t, uint64(1), f.size())
	require.NoError(t, f.sync())

	buf2, err := f.read(0, 1)
	require.NoError(t, err)
	require.Equal(t, buf, buf2)

	// extend rounds up to the first 64 page slab
	require.NoError(t, f.extend(20))
	require.Equal(t, uint64(64), f.size())
	st, err := os.Stat(name)
	require.NoError(t, err)
	require.Equal(t, int64(64*4096), st.Size())

	require.NoError(t, f.resize(32))
	require.Equal(t, uint64(32), f.size())
	st, err = os.Stat(name)
	require.NoError(t, err)
	require.Equal(t, int64(32*4096), st.Size())

	_, err = f.read(32, 1)
	require.ErrorIs(t, err, ErrReadPastEOF)
	require.ErrorIs(t, err, ErrIO)

	// data before the cut survives
	buf2, err = f.read(0, 1)
	require.NoError(t, err)
	require.Equal(t, buf, buf2)
	require.NoError(t, f.close())
}

func TestPageFileReadPastEOF(t *testing.T) {
	f, _ := newMemPageFile(t, 2, 512)
	_, err := f.read(1, 2)
	require.ErrorIs(t, err, ErrReadPastEOF)
	_, err = f.read(2, 1)
	require.ErrorIs(t, err, ErrReadPastEOF)
	_, err = f.read(1, 1)
	require.NoError(t, err)
}

func TestPageFileShortIO(t *testing.T) {
	f, dev := newMemPageFile(t, 2, 512)
	dev.shortRead = true
	_, err := f.read(0, 1)
	require.ErrorIs(t, err, ErrShortRead)

	dev.shortWrite = true
	err = f.write(0, make([]byte, 512), 1)
	require.ErrorIs(t, err, ErrShortWrite)
}

func TestPageFileSeekCache(t *testing.T) {
	f, dev := newMemPageFile(t, 0, 512)
	page := bytes.Repeat([]byte{7}, 512)
	for i := uint64(0); i < 4; i++ {
		require.NoError(t, f.write(i, page, 1))
	}
	// sequential writes seek once
	require.Equal(t, 1, dev.seeks)

	_, err := f.read(0, 1)
	require.NoError(t, err)
	require.Equal(t, 2, dev.seeks)
	_, err = f.read(1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, dev.seeks)
	_, err = f.read(3, 1)
	require.NoError(t, err)
	require.Equal(t, 3, dev.seeks)
}

func TestPageFileResize(t *testing.T) {
	f, dev := newMemPageFile(t, 10, 512)
	require.NoError(t, f.resize(10))
	require.Equal(t, 0, dev.seeks)
	require.Equal(t, uint64(10), f.size())

	require.NoError(t, f.resize(700))
	require.Equal(t, uint64(700), f.size())
	require.Len(t, dev.data, 700*512)

	require.NoError(t, f.resize(3))
	require.Equal(t, uint64(3), f.size())
	require.Len(t, dev.data, 3*512)
}

func TestExtendTarget(t *testing.T) {
	cases := []struct {
		n, delta, want uint64
	}{
		{0, 1, 64},
		{1, 20, 64},
		{0, 64, 64},
		{64, 1, 128},
		{100, 156, 256},
		{100, 157, 512},
		{1000, 24, 1024},
		{1000, 25, 2048},
		{16000, 384, 16384},
		{16000, 385, 32768},
		{40000, 1, 49152},
	}
	for _, c := range cases {
		require.Equal(t, c.want, extendTarget(c.n, c.delta), "n=%d delta=%d", c.n, c.delta)
	}
}

func TestPageFileExtend(t *testing.T) {
	f, _ := newMemPageFile(t, 300, 512)
	require.NoError(t, f.extend(10))
	require.Equal(t, uint64(512), f.size())
	require.NoError(t, f.extend(0))
	require.Equal(t, uint64(512), f.size())
}
