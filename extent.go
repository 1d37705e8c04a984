package pagedb

import "encoding/binary"

const extentSize = 16

// Extent is a contiguous run of pages.
type Extent struct {
	Page  uint64
	Len   uint32
	Flags uint32
}

func newExtent(page uint64, n uint32) Extent {
	return Extent{Page: page, Len: n, Flags: efMBO}
}

// nullExtent marks "no allocation" in an inode table entry.
func nullExtent() Extent {
	return Extent{Flags: efMBO}
}

func (e Extent) isNull() bool {
	return e.Page == 0 && e.Len == 0 && e.Flags == efMBO
}

func (e Extent) valid() bool {
	return e.Page != 0 && e.Len != 0 && e.Flags&efMBO != 0 && e.Flags&efMBZ == 0
}

func (e Extent) end() uint64 {
	return e.Page + uint64(e.Len)
}

func (e Extent) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint64(b, e.Page)
	b = binary.LittleEndian.AppendUint32(b, e.Len)
	return binary.LittleEndian.AppendUint32(b, e.Flags)
}

func (r *bufReader) extent(what string) (e Extent, err error) {
	b, err := r.next(extentSize, what)
	if err != nil {
		return
	}
	e.Page = binary.LittleEndian.Uint64(b[0:8])
	e.Len = binary.LittleEndian.Uint32(b[8:12])
	e.Flags = binary.LittleEndian.Uint32(b[12:16])
	return
}

// extentListPages is the number of pages an encoded list of n data extents needs.
func extentListPages(n int, pageSize uint32) uint32 {
	return pagesFor((n+1)*extentSize, pageSize)
}

func decodeExtentListHeader(buf []byte) (Extent, error) {
	hdr, err := newBufReader(buf).extent("extent list hdr")
	if err != nil {
		return hdr, err
	}
	if hdr.Page != 0 {
		return hdr, formatErr("extent list invalid hdr page %d", hdr.Page)
	}
	if hdr.Flags&efMBO == 0 || hdr.Flags&efMBZ != 0 || hdr.Flags&efHDR == 0 || hdr.Len == 0 {
		return hdr, formatErr("extent list invalid hdr flags %#x", hdr.Flags)
	}
	return hdr, nil
}

func decodeExtentList(buf []byte) ([]Extent, error) {
	hdr, err := decodeExtentListHeader(buf)
	if err != nil {
		return nil, err
	}
	if uint64(len(buf)-extentSize) < uint64(hdr.Len-1)*extentSize {
		return nil, formatErr("extent list truncated: %d extents in %d bytes", hdr.Len-1, len(buf))
	}
	r := newBufReader(buf[extentSize:])
	list := make([]Extent, 0, hdr.Len-1)
	for i := uint32(1); i < hdr.Len; i++ {
		e, err := r.extent("extent list")
		if err != nil {
			return nil, err
		}
		if e.Page == 0 {
			return nil, formatErr("extent list invalid page at record %d", i)
		}
		if e.Flags&efMBO == 0 || e.Flags&efMBZ != 0 || e.Flags&efHDR != 0 {
			return nil, formatErr("extent list invalid flags %#x at record %d", e.Flags, i)
		}
		list = append(list, e)
	}
	return list, nil
}

// encodeExtentList lays list out over maxPages pages.
func encodeExtentList(list []Extent, maxPages, pageSize uint32) ([]byte, error) {
	size := int(maxPages) * int(pageSize)
	if (len(list)+1)*extentSize > size {
		return nil, formatErr("extent list exceeds max: %d extents in %d pages", len(list), maxPages)
	}
	buf := make([]byte, 0, size)
	buf = Extent{Page: 0, Len: uint32(len(list) + 1), Flags: efMBO | efHDR}.appendTo(buf)
	for _, e := range list {
		buf = e.appendTo(buf)
	}
	return buf[:size], nil
}
