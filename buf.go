package pagedb

import "encoding/binary"

// bufReader walks a decode buffer, tracking how many bytes remain.
type bufReader struct {
	buf []byte
	off int
}

func newBufReader(b []byte) *bufReader {
	return &bufReader{buf: b}
}

func (r *bufReader) remaining() int {
	return len(r.buf) - r.off
}

// next returns the following n bytes and advances past them. what names the
// record for the short read error.
func (r *bufReader) next(n int, what string) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, formatErr("%s short read: need %d bytes, have %d", what, n, r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// bytes is next with the result copied out of the buffer.
func (r *bufReader) bytes(n int, what string) ([]byte, error) {
	b, err := r.next(n, what)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// recordHeader is the magic/count/flags triple shared by the inode table and
// directory headers.
type recordHeader struct {
	magic [8]byte
	count uint32
	flags uint32
}

const recordHeaderSize = 16

func (r *bufReader) recordHeader(what string) (h recordHeader, err error) {
	b, err := r.next(recordHeaderSize, what)
	if err != nil {
		return
	}
	copy(h.magic[:], b[0:8])
	h.count = binary.LittleEndian.Uint32(b[8:12])
	h.flags = binary.LittleEndian.Uint32(b[12:16])
	return
}

func (h recordHeader) appendTo(b []byte) []byte {
	b = append(b, h.magic[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.count)
	return binary.LittleEndian.AppendUint32(b, h.flags)
}

func (h recordHeader) magicIs(m string) bool {
	return string(h.magic[:]) == m
}

func newRecordHeader(magic string, count, flags uint32) (h recordHeader) {
	copy(h.magic[:], magic)
	h.count = count
	h.flags = flags
	return
}

// padToPages grows b with zeros to a whole number of pages, at least one.
func padToPages(b []byte, pageSize uint32) []byte {
	n := pagesFor(len(b), pageSize)
	if n == 0 {
		n = 1
	}
	want := int(n) * int(pageSize)
	if cap(b) >= want {
		old := len(b)
		b = b[:want]
		clear(b[old:])
		return b
	}
	out := make([]byte, want)
	copy(out, b)
	return out
}

func pagesFor(n int, pageSize uint32) uint32 {
	return uint32((n + int(pageSize) - 1) / int(pageSize))
}
