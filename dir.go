package pagedb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

type EntryType uint8

const (
	EntryNone EntryType = iota
	// EntryDir delegates the key range [Key, KeyEnd] to another directory.
	EntryDir
	// EntryKey stores its value in the data pages of inode Ino.
	EntryKey
	// EntryKeyValue stores its value inline.
	EntryKeyValue

	entryLast = EntryKeyValue
)

func (t EntryType) String() string {
	switch t {
	case EntryDir:
		return "dir"
	case EntryKey:
		return "key"
	case EntryKeyValue:
		return "key-value"
	default:
		return fmt.Sprintf("EntryType(%d)", uint8(t))
	}
}

// dirEntSize is the fixed part of an on-disk entry: magic, flags, key_len,
// val_len and ino.
const dirEntSize = 24

// DirEntry is one directory record. The on-disk val_len field is shared:
// it is the key_end length for EntryDir and the value length otherwise, so
// the trailer is reached through KeyEnd or Value depending on Type.
type DirEntry struct {
	Type EntryType
	Key  []byte
	Ino  uint32

	trailer []byte
	valLen  uint32
}

func newDirEntry(start, end []byte, ino uint32) DirEntry {
	return DirEntry{Type: EntryDir, Key: start, Ino: ino, trailer: end, valLen: uint32(len(end))}
}

func newKeyEntry(key []byte, ino uint32, valLen uint32) DirEntry {
	return DirEntry{Type: EntryKey, Key: key, Ino: ino, valLen: valLen}
}

func newKeyValueEntry(key, val []byte) DirEntry {
	return DirEntry{Type: EntryKeyValue, Key: key, trailer: val, valLen: uint32(len(val))}
}

// KeyEnd is the inclusive upper bound of an EntryDir range.
func (de *DirEntry) KeyEnd() []byte {
	if de.Type != EntryDir {
		return nil
	}
	return de.trailer
}

// Value is the inline value of an EntryKeyValue.
func (de *DirEntry) Value() []byte {
	if de.Type != EntryKeyValue {
		return nil
	}
	return de.trailer
}

// ValueLen is the value size in bytes for EntryKey and EntryKeyValue.
func (de *DirEntry) ValueLen() uint32 {
	if de.Type == EntryDir {
		return 0
	}
	return de.valLen
}

// Dir is a sorted run of entries over byte-string keys.
type Dir struct {
	Ents []DirEntry
}

func decodeDir(buf []byte) (*Dir, error) {
	r := newBufReader(buf)
	hdr, err := r.recordHeader("dir hdr")
	if err != nil {
		return nil, err
	}
	if hdr.flags&dfMBO == 0 || hdr.flags&dfMBZ != 0 || !hdr.magicIs(dirMagic) {
		return nil, formatErr("dir hdr corrupted")
	}
	if uint64(r.remaining()) < uint64(hdr.count)*dirEntSize {
		return nil, formatErr("dir truncated: %d entries", hdr.count)
	}

	d := &Dir{Ents: make([]DirEntry, 0, hdr.count)}
	for i := uint32(0); i < hdr.count; i++ {
		b, err := r.next(dirEntSize, "dir ent")
		if err != nil {
			return nil, err
		}
		flags := binary.LittleEndian.Uint32(b[8:12])
		typ := EntryType(flags & dfEntType)
		if string(b[0:8]) != dirEntMagic || flags&dfMBO == 0 || flags&dfMBZ != 0 || typ == EntryNone || typ > entryLast {
			return nil, formatErr("dir ent %d corrupted", i)
		}
		keyLen := binary.LittleEndian.Uint32(b[12:16])
		valLen := binary.LittleEndian.Uint32(b[16:20])
		de := DirEntry{
			Type:   typ,
			Ino:    binary.LittleEndian.Uint32(b[20:24]),
			valLen: valLen,
		}
		if de.Key, err = r.bytes(int(keyLen), "dir ent key"); err != nil {
			return nil, err
		}
		switch typ {
		case EntryDir:
			if de.trailer, err = r.bytes(int(valLen), "dir ent key end"); err != nil {
				return nil, err
			}
			if bytes.Compare(de.Key, de.trailer) > 0 {
				return nil, formatErr("dir ent %d range start after end", i)
			}
		case EntryKeyValue:
			if de.trailer, err = r.bytes(int(valLen), "dir ent value"); err != nil {
				return nil, err
			}
		}
		if n := len(d.Ents); n > 0 && !d.Ents[n-1].before(&de) {
			return nil, formatErr("dir ent %d out of order", i)
		}
		d.Ents = append(d.Ents, de)
	}
	return d, nil
}

// before reports whether de sorts strictly ahead of next and, for a range,
// ends ahead of it.
func (de *DirEntry) before(next *DirEntry) bool {
	last := de.Key
	if de.Type == EntryDir {
		last = de.trailer
	}
	return bytes.Compare(last, next.Key) < 0
}

func (d *Dir) encode() []byte {
	size := recordHeaderSize
	for i := range d.Ents {
		size += dirEntSize + len(d.Ents[i].Key) + len(d.Ents[i].trailer)
	}
	buf := make([]byte, 0, size)
	buf = newRecordHeader(dirMagic, uint32(len(d.Ents)), dfMBO).appendTo(buf)
	for i := range d.Ents {
		de := &d.Ents[i]
		var valLen, ino uint32
		switch de.Type {
		case EntryDir:
			valLen, ino = uint32(len(de.trailer)), de.Ino
		case EntryKey:
			valLen, ino = de.valLen, de.Ino
		case EntryKeyValue:
			valLen = uint32(len(de.trailer))
		}
		buf = append(buf, dirEntMagic...)
		buf = binary.LittleEndian.AppendUint32(buf, dfMBO|uint32(de.Type))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(de.Key)))
		buf = binary.LittleEndian.AppendUint32(buf, valLen)
		buf = binary.LittleEndian.AppendUint32(buf, ino)
		buf = append(buf, de.Key...)
		if de.Type != EntryKey {
			buf = append(buf, de.trailer...)
		}
	}
	return buf
}

// match scans for the entry holding key. Entries are ascending, so the scan
// stops at the first entry whose key is greater than the search key. An
// EntryDir match means the key lives in that sub-directory.
func (d *Dir) match(key []byte) (int, bool) {
	for idx := range d.Ents {
		ent := &d.Ents[idx]
		c := bytes.Compare(key, ent.Key)
		if c < 0 {
			return idx, false
		}
		if c == 0 {
			return idx, true
		}
		if ent.Type == EntryDir && bytes.Compare(key, ent.trailer) <= 0 {
			return idx, true
		}
	}
	return len(d.Ents), false
}

// insert places de in key order, replacing an entry with the same key.
func (d *Dir) insert(de DirEntry) {
	idx, found := slices.BinarySearchFunc(d.Ents, de.Key, func(e DirEntry, k []byte) int {
		return bytes.Compare(e.Key, k)
	})
	if found {
		d.Ents[idx] = de
		return
	}
	d.Ents = slices.Insert(d.Ents, idx, de)
}

func (d *Dir) clone() *Dir {
	return &Dir{Ents: slices.Clone(d.Ents)}
}
