//go:build unix

package sys

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a raw descriptor opened for page I/O. Reads and writes go straight
// to the kernel; the caller owns the cursor.
type File struct {
	fd   int
	name string
}

func OpenFile(path string, flag int, perm uint32) (*File, error) {
	fd, err := unix.Open(path, flag|unix.O_CLOEXEC, perm)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &File{fd: fd, name: path}, nil
}

func (f *File) Name() string {
	return f.name
}

func (f *File) Seek(off int64) (int64, error) {
	pos, err := unix.Seek(f.fd, off, io.SeekStart)
	if err != nil {
		return pos, &os.PathError{Op: "seek", Path: f.name, Err: err}
	}
	return pos, nil
}

func (f *File) Read(b []byte) (int, error) {
	n, err := unix.Read(f.fd, b)
	if err != nil {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: err}
	}
	return n, nil
}

func (f *File) Write(b []byte) (int, error) {
	n, err := unix.Write(f.fd, b)
	if err != nil {
		return 0, &os.PathError{Op: "write", Path: f.name, Err: err}
	}
	return n, nil
}

func (f *File) Sync() error {
	if err := unix.Fsync(f.fd); err != nil {
		return &os.PathError{Op: "fsync", Path: f.name, Err: err}
	}
	return nil
}

func (f *File) Truncate(size int64) error {
	if err := unix.Ftruncate(f.fd, size); err != nil {
		return &os.PathError{Op: "truncate", Path: f.name, Err: err}
	}
	return nil
}

func (f *File) Size() (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return 0, &os.PathError{Op: "fstat", Path: f.name, Err: err}
	}
	return st.Size, nil
}

func (f *File) Close() error {
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	if err != nil {
		return &os.PathError{Op: "close", Path: f.name, Err: err}
	}
	return nil
}

func GetSysPageSize() int {
	return unix.Getpagesize()
}
