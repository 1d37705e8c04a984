package pagedb

import (
	"fmt"

	"github.com/nyan233/pagedb/internal/sys"
)

// blockDevice is the raw byte device under a pageFile.
type blockDevice interface {
	Seek(off int64) (int64, error)
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Sync() error
	Truncate(size int64) error
	Size() (int64, error)
	Close() error
}

// slab increments used by extend, largest bracket first
var extendSlabs = [...]struct {
	threshold uint64
	increment uint64
}{
	{16384, 16384},
	{1024, 1024},
	{256, 256},
}

const extendMinSlab = 64

// zero pages written per call while growing
const resizeChunkPages = 256

// pageFile does page-addressed I/O over a blockDevice and tracks its size in
// pages. It remembers the device cursor so sequential I/O skips the seek.
type pageFile struct {
	dev      blockDevice
	name     string
	pageSize uint32
	curPos   int64
	nPages   uint64
	stat     *iStat
}

func openPageFile(name string, flag int, pageSize uint32) (*pageFile, error) {
	dev, err := sys.OpenFile(name, flag, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	f, err := newPageFile(dev, name, pageSize)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return f, nil
}

func newPageFile(dev blockDevice, name string, pageSize uint32) (*pageFile, error) {
	f := &pageFile{
		dev:      dev,
		name:     name,
		pageSize: pageSize,
		curPos:   -1,
		stat:     new(iStat),
	}
	return f, f.setPageCount()
}

func (f *pageFile) setPageCount() error {
	size, err := f.dev.Size()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	f.nPages = uint64(size) / uint64(f.pageSize)
	return nil
}

func (f *pageFile) setPageSize(sz uint32) error {
	f.pageSize = sz
	return f.setPageCount()
}

func (f *pageFile) size() uint64 {
	return f.nPages
}

func (f *pageFile) seek(off int64) error {
	if off == f.curPos {
		return nil
	}
	pos, err := f.dev.Seek(off)
	if err != nil {
		f.curPos = -1
		return fmt.Errorf("%w: seek %s: %w", ErrIO, f.name, err)
	}
	f.curPos = pos
	return nil
}

func (f *pageFile) read(index uint64, count uint32) ([]byte, error) {
	if index+uint64(count) > f.nPages {
		return nil, fmt.Errorf("%w: %s pages [%d,%d) of %d", ErrReadPastEOF, f.name, index, index+uint64(count), f.nPages)
	}
	if err := f.seek(int64(index) * int64(f.pageSize)); err != nil {
		return nil, err
	}
	buf := make([]byte, int(count)*int(f.pageSize))
	n, err := f.dev.Read(buf)
	if err != nil {
		f.curPos = -1
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, f.name, err)
	}
	f.curPos += int64(n)
	if n != len(buf) {
		return nil, fmt.Errorf("%w: %s page %d: %d of %d bytes", ErrShortRead, f.name, index, n, len(buf))
	}
	f.stat.pagesRead.Add(uint64(count))
	return buf, nil
}

// write stores the first count pages of buf at index.
func (f *pageFile) write(index uint64, buf []byte, count uint32) error {
	ioSize := int(count) * int(f.pageSize)
	if len(buf) < ioSize {
		return fmt.Errorf("pagedb: write buffer %d bytes, need %d", len(buf), ioSize)
	}
	if err := f.seek(int64(index) * int64(f.pageSize)); err != nil {
		return err
	}
	n, err := f.dev.Write(buf[:ioSize])
	if err != nil {
		f.curPos = -1
		return fmt.Errorf("%w: write %s: %w", ErrIO, f.name, err)
	}
	f.curPos += int64(n)
	if n != ioSize {
		return fmt.Errorf("%w: %s page %d: %d of %d bytes", ErrShortWrite, f.name, index, n, ioSize)
	}
	if end := index + uint64(count); end > f.nPages {
		f.nPages = end
	}
	f.stat.pagesWritten.Add(uint64(count))
	return nil
}

func (f *pageFile) sync() error {
	if err := f.dev.Sync(); err != nil {
		return fmt.Errorf("%w: fsync %s: %w", ErrIO, f.name, err)
	}
	f.stat.syncs.Add(1)
	return nil
}

// resize grows the file with zero pages or truncates it to n pages, then syncs.
func (f *pageFile) resize(n uint64) error {
	switch {
	case n == f.nPages:
		return nil
	case n > f.nPages:
		chunk := n - f.nPages
		if chunk > resizeChunkPages {
			chunk = resizeChunkPages
		}
		zero := make([]byte, chunk*uint64(f.pageSize))
		for f.nPages < n {
			count := n - f.nPages
			if count > chunk {
				count = chunk
			}
			if err := f.write(f.nPages, zero, uint32(count)); err != nil {
				return err
			}
		}
	default:
		if err := f.dev.Truncate(int64(n) * int64(f.pageSize)); err != nil {
			return fmt.Errorf("%w: truncate %s: %w", ErrIO, f.name, err)
		}
		f.nPages = n
	}
	return f.sync()
}

// extendTarget is the page count extend(delta) grows a file of n pages to:
// n+delta rounded up to the slab increment of its size bracket.
func extendTarget(n, delta uint64) uint64 {
	target := n + delta
	inc := uint64(extendMinSlab)
	for _, s := range extendSlabs {
		if target > s.threshold {
			inc = s.increment
			break
		}
	}
	return (target + inc - 1) / inc * inc
}

func (f *pageFile) extend(delta uint64) error {
	return f.resize(extendTarget(f.nPages, delta))
}

func (f *pageFile) close() error {
	if f.dev == nil {
		return nil
	}
	err := f.dev.Close()
	f.dev = nil
	f.curPos = -1
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, f.name, err)
	}
	return nil
}
