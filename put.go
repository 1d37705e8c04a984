package pagedb

import (
	"bytes"
	"fmt"
)

func validKey(key []byte) error {
	if len(key) == 0 || len(key) > maxKeySize {
		return fmt.Errorf("%w: length %d", ErrInvalidKey, len(key))
	}
	return nil
}

// Put stores value under key in the deepest directory covering key. Values
// longer than the inline limit get an inode of their own. A failed write
// reloads the inode table from disk.
func (db *DB) Put(key, value []byte) (err error) {
	if err := db.checkWritable(); err != nil {
		return err
	}
	if err := validKey(key); err != nil {
		return err
	}
	res, err := db.lookup(key)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = db.rollback(err)
		}
	}()
	var old *DirEntry
	if res.found {
		old = res.entry()
	}

	var (
		ent        DirEntry
		tableDirty bool
	)
	key = bytes.Clone(key)
	if len(value) > inlineValueMax {
		var valIno uint32
		if old != nil && old.Type == EntryKey {
			valIno = old.Ino
		} else {
			valIno = db.allocInode()
			tableDirty = true
		}
		changed, err := db.reserve(valIno, pagesFor(len(value), db.sb.PageSize))
		if err != nil {
			return err
		}
		tableDirty = tableDirty || changed
		if err = db.writeInodeData(valIno, value); err != nil {
			return err
		}
		ent = newKeyEntry(key, valIno, uint32(len(value)))
	} else {
		if old != nil && old.Type == EntryKey {
			if err = db.releaseInode(old.Ino); err != nil {
				return err
			}
			tableDirty = true
		}
		ent = newKeyValueEntry(key, bytes.Clone(value))
	}
	if tableDirty {
		if err = db.writeInodeTable(); err != nil {
			return err
		}
	}
	dir := res.dir.clone()
	dir.insert(ent)
	return db.writeDir(res.ino, dir)
}

// Delete removes key, reporting whether it was present. A failed write
// reloads the inode table from disk.
func (db *DB) Delete(key []byte) (deleted bool, err error) {
	if err = db.checkWritable(); err != nil {
		return false, err
	}
	res, err := db.lookup(key)
	if err != nil || !res.found {
		return false, err
	}
	defer func() {
		if err != nil {
			deleted, err = false, db.rollback(err)
		}
	}()
	old := res.entry()
	if old.Type == EntryKey {
		if err = db.releaseInode(old.Ino); err != nil {
			return false, err
		}
		if err = db.writeInodeTable(); err != nil {
			return false, err
		}
	}
	dir := res.dir.clone()
	dir.Ents = append(dir.Ents[:res.idx], dir.Ents[res.idx+1:]...)
	return true, db.writeDir(res.ino, dir)
}

// Mkdir splits the key range [start, end] off into a new sub-directory.
// Keys already stored in the range move with it. The range must sit inside
// a single directory and must not overlap an existing sub-directory. A
// failed write reloads the inode table from disk.
func (db *DB) Mkdir(start, end []byte) (err error) {
	if err := db.checkWritable(); err != nil {
		return err
	}
	if err := validKey(start); err != nil {
		return err
	}
	if err := validKey(end); err != nil {
		return err
	}
	if bytes.Compare(start, end) > 0 {
		return fmt.Errorf("%w: start %q after end %q", ErrInvalidRange, start, end)
	}
	res, err := db.lookup(start)
	if err != nil {
		return err
	}
	if res.hi != nil && bytes.Compare(end, res.hi) > 0 {
		return fmt.Errorf("%w: end %q beyond parent range end %q", ErrInvalidRange, end, res.hi)
	}

	var parent, child Dir
	for _, e := range res.dir.Ents {
		inRange := bytes.Compare(e.Key, start) >= 0 && bytes.Compare(e.Key, end) <= 0
		switch {
		case e.Type == EntryDir && bytes.Compare(e.Key, end) <= 0 && bytes.Compare(e.KeyEnd(), start) >= 0:
			return fmt.Errorf("%w: [%q, %q] overlaps [%q, %q]", ErrInvalidRange, start, end, e.Key, e.KeyEnd())
		case inRange:
			child.Ents = append(child.Ents, e)
		default:
			parent.Ents = append(parent.Ents, e)
		}
	}

	defer func() {
		if err != nil {
			err = db.rollback(err)
		}
	}()
	childIno := db.allocInode()
	if err = db.writeDir(childIno, &child); err != nil {
		return err
	}
	if err = db.writeInodeTable(); err != nil {
		return err
	}
	parent.insert(newDirEntry(bytes.Clone(start), bytes.Clone(end), childIno))
	if err = db.writeDir(res.ino, &parent); err != nil {
		return err
	}
	db.logger.Debug("mkdir", "start", string(start), "end", string(end), "ino", childIno, "moved", len(child.Ents))
	return nil
}

func (db *DB) releaseInode(idx uint32) error {
	if idx <= inoLast {
		return fmt.Errorf("%w: release of reserved inode %d", ErrInodeRange, idx)
	}
	ino, err := db.inodes.get(idx)
	if err != nil {
		return err
	}
	ino.Unused = true
	return nil
}
