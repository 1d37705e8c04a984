package pagedb

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nyan233/pagedb/internal/sys"
)

// Options controls how Open treats the file.
type Options struct {
	Read   bool
	Write  bool
	Create bool
	// PageSize is used when a new file is bootstrapped. Zero picks the
	// system page size clamped to the supported range.
	PageSize uint32
	// MaxDirDepth bounds directory descent; deeper or cyclic trees are
	// reported as format errors.
	MaxDirDepth int
	// DirCacheSize is the number of decoded directories kept in memory.
	// Zero disables the cache.
	DirCacheSize int
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Read:         true,
		PageSize:     defaultPageSize,
		MaxDirDepth:  defaultMaxDirDepth,
		DirCacheSize: defaultDirCacheSize,
	}
}

func (o *Options) openFlag() (int, error) {
	var flag int
	switch {
	case o.Read && o.Write:
		flag = os.O_RDWR
	case o.Read:
		flag = os.O_RDONLY
	default:
		return 0, fmt.Errorf("%w: read/write", ErrInvalidOptions)
	}
	if o.Create {
		if !o.Write {
			return 0, fmt.Errorf("%w: create/write", ErrInvalidOptions)
		}
		flag |= os.O_CREATE
	}
	return flag, nil
}

func (o *Options) normalize() error {
	if o.PageSize == 0 {
		o.PageSize = min(max(uint32(sys.GetSysPageSize()), minPageSize), maxPageSize)
	}
	if o.PageSize < minPageSize || o.PageSize > maxPageSize || o.PageSize&(o.PageSize-1) != 0 {
		return fmt.Errorf("%w: page size %d", ErrInvalidOptions, o.PageSize)
	}
	if o.MaxDirDepth <= 0 {
		o.MaxDirDepth = defaultMaxDirDepth
	}
	if o.DirCacheSize < 0 {
		return fmt.Errorf("%w: dir cache size %d", ErrInvalidOptions, o.DirCacheSize)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return nil
}
