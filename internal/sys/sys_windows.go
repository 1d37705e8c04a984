//go:build windows

package sys

import (
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// SYSTEM_INFO defines the Windows SYSTEM_INFO structure.
type SYSTEM_INFO struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

var getSystemInfoProc = windows.NewLazySystemDLL("kernel32").NewProc("GetSystemInfo")

// GetSystemInfo retrieves system information.
func GetSystemInfo() (si SYSTEM_INFO, err error) {
	r1, _, err := getSystemInfoProc.Call(uintptr(unsafe.Pointer(&si)))
	if r1 == 0 {
		return si, err
	}
	return si, nil
}

// File is a handle opened for page I/O.
type File struct {
	file *os.File
}

func OpenFile(path string, flag int, perm uint32) (*File, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	var access uint32 = windows.GENERIC_READ
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		access |= windows.GENERIC_WRITE
	}
	var disposition uint32 = windows.OPEN_EXISTING
	switch {
	case flag&os.O_CREATE != 0 && flag&os.O_TRUNC != 0:
		disposition = windows.CREATE_ALWAYS
	case flag&os.O_CREATE != 0:
		disposition = windows.OPEN_ALWAYS
	case flag&os.O_TRUNC != 0:
		disposition = windows.TRUNCATE_EXISTING
	}
	handle, err := windows.CreateFile(
		pathPtr,
		access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		disposition,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &File{file: os.NewFile(uintptr(handle), path)}, nil
}

func (f *File) Name() string {
	return f.file.Name()
}

func (f *File) Seek(off int64) (int64, error) {
	return f.file.Seek(off, io.SeekStart)
}

func (f *File) Read(b []byte) (int, error) {
	n, err := f.file.Read(b)
	if err == io.EOF {
		err = nil
	}
	return n, err
}

func (f *File) Write(b []byte) (int, error) {
	return f.file.Write(b)
}

func (f *File) Sync() error {
	return f.file.Sync()
}

func (f *File) Truncate(size int64) error {
	return f.file.Truncate(size)
}

func (f *File) Size() (int64, error) {
	stat, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (f *File) Close() error {
	return f.file.Close()
}

// GetSysPageSize returns the system's memory page size.
func GetSysPageSize() int {
	si, err := GetSystemInfo()
	if err != nil {
		return 4096
	}
	return int(si.PageSize)
}
