package pagedb

import (
	"errors"
	"fmt"
)

var (
	// ErrIO covers device failures: open, seek, read, write, sync and truncate.
	ErrIO          = errors.New("pagedb: i/o error")
	ErrShortRead   = fmt.Errorf("%w: short read", ErrIO)
	ErrShortWrite  = fmt.Errorf("%w: short write", ErrIO)
	ErrReadPastEOF = fmt.Errorf("%w: read past end of file", ErrIO)

	// ErrFormat reports on-disk data that fails validation.
	ErrFormat   = errors.New("pagedb: format error")
	ErrDirDepth = fmt.Errorf("%w: directory tree too deep or cyclic", ErrFormat)

	ErrInvalidOptions  = errors.New("pagedb: invalid options")
	ErrInodeRange      = errors.New("pagedb: inode index out of range")
	ErrInodeTableShort = errors.New("pagedb: inode table shorter than reserved inodes")
	ErrInvalidKey      = errors.New("pagedb: invalid key")
	ErrInvalidRange    = errors.New("pagedb: invalid directory range")
	ErrReadOnly        = errors.New("pagedb: database opened read-only")
	ErrClosed          = errors.New("pagedb: database closed")
)

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, args...)...)
}
