package pagedb

import (
	"bytes"
	"fmt"
)

// lookupResult is where a key search ended: the deepest directory whose range
// covers the key, and the matching entry when there is one.
type lookupResult struct {
	ino   uint32
	dir   *Dir
	idx   int
	found bool
	// hi is the upper bound delegated to dir, nil for the root
	hi   []byte
	path stack
}

func (res *lookupResult) entry() *DirEntry {
	return &res.dir.Ents[res.idx]
}

// lookup descends from the root directory through EntryDir ranges covering
// key. The walk is bounded by MaxDirDepth and refuses to revisit a directory.
func (db *DB) lookup(key []byte) (res lookupResult, err error) {
	res.ino = InoRootDir
	for {
		if res.path.contains(res.ino) {
			err = fmt.Errorf("%w: directory inode %d revisited", ErrDirDepth, res.ino)
			return
		}
		if res.path.depth() >= db.opt.MaxDirDepth {
			err = fmt.Errorf("%w: depth %d", ErrDirDepth, res.path.depth())
			return
		}
		res.path.push(stackElement{ino: res.ino})
		db.stat.observeDepth(res.path.depth())

		if res.dir, err = db.readDir(res.ino); err != nil {
			return
		}
		res.idx, res.found = res.dir.match(key)
		if !res.found {
			return
		}
		ent := res.entry()
		if ent.Type != EntryDir {
			return
		}
		res.hi = ent.KeyEnd()
		res.ino = ent.Ino
	}
}

// Get returns the value stored under key.
func (db *DB) Get(key []byte) (val []byte, found bool, err error) {
	if err = db.checkOpen(); err != nil {
		return
	}
	res, err := db.lookup(key)
	if err != nil || !res.found {
		return
	}
	val, err = db.entryValue(res.entry())
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (db *DB) entryValue(ent *DirEntry) ([]byte, error) {
	switch ent.Type {
	case EntryKeyValue:
		return append([]byte{}, ent.Value()...), nil
	case EntryKey:
		data, err := db.readInodeData(ent.Ino)
		if err != nil {
			return nil, err
		}
		n := ent.ValueLen()
		if n == 0 {
			return data, nil
		}
		if uint64(n) > uint64(len(data)) {
			return nil, formatErr("value inode %d holds %d bytes, entry wants %d", ent.Ino, len(data), n)
		}
		return data[:n], nil
	default:
		return nil, formatErr("entry %q has no value", ent.Key)
	}
}

// Range calls fn for every key in ascending order until fn returns false.
func (db *DB) Range(fn func(key, val []byte) bool) error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	root, err := db.readDir(InoRootDir)
	if err != nil {
		return err
	}
	var s stack
	s.push(stackElement{ino: InoRootDir, dir: root})
	for s.depth() > 0 {
		top := s.top()
		if top.idx >= len(top.dir.Ents) {
			s.pop()
			continue
		}
		ent := &top.dir.Ents[top.idx]
		top.idx++
		if ent.Type == EntryDir {
			if s.contains(ent.Ino) || s.depth() >= db.opt.MaxDirDepth {
				return fmt.Errorf("%w: directory inode %d", ErrDirDepth, ent.Ino)
			}
			sub, err := db.readDir(ent.Ino)
			if err != nil {
				return err
			}
			s.push(stackElement{ino: ent.Ino, dir: sub})
			db.stat.observeDepth(s.depth())
			continue
		}
		val, err := db.entryValue(ent)
		if err != nil {
			return err
		}
		if !fn(bytes.Clone(ent.Key), val) {
			return nil
		}
	}
	return nil
}
