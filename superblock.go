package pagedb

import "encoding/binary"

// superblockSize is the encoded record size; the page holding it is
// zero padded up to PageSize.
const superblockSize = 512

// Superblock is the root metadata record stored at page 0.
type Superblock struct {
	Magic    [8]byte
	Version  uint32
	PageSize uint32
	Features uint64
	// InodeTableRef is the page holding the inode table's extent list.
	InodeTableRef uint64
	Reserved      [superblockSize - 32]byte
}

func newSuperblock(pageSize uint32) Superblock {
	sb := Superblock{
		Version:       formatVersion,
		PageSize:      pageSize,
		Features:      sbfMBO,
		InodeTableRef: 1,
	}
	copy(sb.Magic[:], superblockMagic)
	return sb
}

func (sb *Superblock) validate() error {
	if string(sb.Magic[:]) != superblockMagic {
		return formatErr("superblock invalid magic %q", sb.Magic[:])
	}
	if sb.Version < 1 {
		return formatErr("superblock invalid version %d", sb.Version)
	}
	if sb.PageSize < minPageSize || sb.PageSize > maxPageSize {
		return formatErr("superblock page size %d out of range", sb.PageSize)
	}
	if sb.Features&sbfMBO == 0 || sb.Features&sbfMBZ != 0 {
		return formatErr("superblock invalid features %#x", sb.Features)
	}
	if sb.InodeTableRef < 1 {
		return formatErr("superblock invalid inode table ref")
	}
	return nil
}

func decodeSuperblock(buf []byte) (sb Superblock, err error) {
	if len(buf) < superblockSize {
		err = formatErr("superblock short read: %d bytes", len(buf))
		return
	}
	copy(sb.Magic[:], buf[0:8])
	sb.Version = binary.LittleEndian.Uint32(buf[8:12])
	sb.PageSize = binary.LittleEndian.Uint32(buf[12:16])
	sb.Features = binary.LittleEndian.Uint64(buf[16:24])
	sb.InodeTableRef = binary.LittleEndian.Uint64(buf[24:32])
	copy(sb.Reserved[:], buf[32:superblockSize])
	err = sb.validate()
	return
}

// encode returns one page holding the superblock.
func (sb *Superblock) encode() []byte {
	size := int(sb.PageSize)
	if size < superblockSize {
		size = superblockSize
	}
	buf := make([]byte, 0, size)
	buf = append(buf, sb.Magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, sb.Version)
	buf = binary.LittleEndian.AppendUint32(buf, sb.PageSize)
	buf = binary.LittleEndian.AppendUint64(buf, sb.Features)
	buf = binary.LittleEndian.AppendUint64(buf, sb.InodeTableRef)
	buf = append(buf, sb.Reserved[:]...)
	return buf[:size]
}
