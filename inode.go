package pagedb

import "fmt"

// Inode is a logical storage object. An internal inode keeps at most one
// extent inside its inode table entry; an external one points at an extent
// list of EAlloc pages starting at ERef.
type Inode struct {
	ERef   uint64
	EAlloc uint32
	Ext    []Extent
	Unused bool
}

func (ino *Inode) internal() bool {
	return ino.ERef == 0
}

// Size is the number of pages covered by the inode's extents.
func (ino *Inode) Size() (n uint64) {
	for _, e := range ino.Ext {
		n += uint64(e.Len)
	}
	return
}

// InodeTable holds every inode, indexed by inode number. Slot 0 describes the
// table itself and is never encoded into it.
type InodeTable struct {
	inodes []Inode
}

func newInodeTable(self Inode) *InodeTable {
	return &InodeTable{inodes: []Inode{self}}
}

func (t *InodeTable) Len() int {
	return len(t.inodes)
}

func (t *InodeTable) get(idx uint32) (*Inode, error) {
	if int(idx) >= len(t.inodes) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrInodeRange, idx, len(t.inodes))
	}
	return &t.inodes[idx], nil
}

func (t *InodeTable) add(ino Inode) uint32 {
	t.inodes = append(t.inodes, ino)
	return uint32(len(t.inodes) - 1)
}

// decodeInodeTable is the first decode phase: it builds the table skeleton
// from buf alone. External inodes come back with ERef/EAlloc set and no
// extents; resolve fills those in.
func decodeInodeTable(buf []byte, self Inode) (*InodeTable, error) {
	r := newBufReader(buf)
	ith, err := r.recordHeader("inode table hdr")
	if err != nil {
		return nil, err
	}
	if ith.flags&itfMBO == 0 || ith.flags&itfMBZ != 0 || ith.flags&itfHDR == 0 || !ith.magicIs(inodeTabMagic) {
		return nil, formatErr("inode table invalid header")
	}
	if uint64(r.remaining()) < uint64(ith.count)*(recordHeaderSize+extentSize) {
		return nil, formatErr("inode table invalid length %d", ith.count)
	}

	t := &InodeTable{inodes: make([]Inode, 0, ith.count+1)}
	t.inodes = append(t.inodes, self)
	for i := uint32(0); i < ith.count; i++ {
		hdr, err := r.recordHeader("inode table ent")
		if err != nil {
			return nil, err
		}
		if hdr.flags&itfMBO == 0 || hdr.flags&itfMBZ != 0 || hdr.flags&itfHDR != 0 || !hdr.magicIs(inodeEntMagic) {
			return nil, formatErr("inode table ent %d invalid", i+1)
		}
		e, err := r.extent("inode table ent ext")
		if err != nil {
			return nil, err
		}
		var ino Inode
		switch {
		case e.isNull():
		case !e.valid():
			return nil, formatErr("inode table ext %d invalid", i+1)
		case hdr.flags&itfExtInt != 0:
			ino.Ext = []Extent{e}
		default:
			ino.ERef = e.Page
			ino.EAlloc = e.Len
		}
		ino.Unused = hdr.flags&itfUnused != 0
		t.inodes = append(t.inodes, ino)
	}
	return t, nil
}

// resolve is the second decode phase: it reads the extent list of every
// external inode collected by decodeInodeTable.
func (t *InodeTable) resolve(readExtList func(ref uint64, alloc uint32) ([]Extent, error)) error {
	for idx := 1; idx < len(t.inodes); idx++ {
		ino := &t.inodes[idx]
		if ino.internal() {
			continue
		}
		ext, err := readExtList(ino.ERef, ino.EAlloc)
		if err != nil {
			return fmt.Errorf("inode %d: %w", idx, err)
		}
		ino.Ext = ext
	}
	return nil
}

// encode serializes every inode but slot 0, whose extent list the caller
// writes separately.
func (t *InodeTable) encode() ([]byte, error) {
	if len(t.inodes) == 0 {
		return nil, ErrInodeTableShort
	}
	buf := make([]byte, 0, recordHeaderSize+len(t.inodes)*(recordHeaderSize+extentSize))
	buf = newRecordHeader(inodeTabMagic, uint32(len(t.inodes)-1), itfMBO|itfHDR).appendTo(buf)
	for idx := 1; idx < len(t.inodes); idx++ {
		ino := &t.inodes[idx]
		flags := itfMBO
		if ino.Unused {
			flags |= itfUnused
		}
		var e Extent
		if ino.internal() {
			if len(ino.Ext) > 1 {
				return nil, fmt.Errorf("inode %d: internal inode holds %d extents", idx, len(ino.Ext))
			}
			flags |= itfExtInt
			e = nullExtent()
			if len(ino.Ext) == 1 {
				e = ino.Ext[0]
			}
		} else {
			e = newExtent(ino.ERef, ino.EAlloc)
		}
		buf = newRecordHeader(inodeEntMagic, 0, flags).appendTo(buf)
		buf = e.appendTo(buf)
	}
	return buf, nil
}
