package pagedb

import (
	"errors"
	"fmt"
	"log/slog"
)

type dbState uint8

const (
	stateClosed dbState = iota
	stateOpening
	stateBootstrapping
	stateLoading
	stateOpen
)

func (s dbState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpening:
		return "opening"
	case stateBootstrapping:
		return "bootstrapping"
	case stateLoading:
		return "loading"
	case stateOpen:
		return "open"
	default:
		return fmt.Sprintf("dbState(%d)", uint8(s))
	}
}

// DB is a single-file page database. It is not safe for concurrent use and
// owns its file exclusively while open.
type DB struct {
	opt      Options
	path     string
	logger   *slog.Logger
	state    dbState
	f        *pageFile
	sb       Superblock
	inodes   *InodeTable
	nextPage uint64
	cache    *dirCache
	stat     *iStat
}

// Open opens path, bootstrapping a fresh database when the file is empty and
// opt.Create is set. On error nothing stays open.
func Open(path string, opt Options) (*DB, error) {
	flag, err := opt.openFlag()
	if err != nil {
		return nil, err
	}
	if err = opt.normalize(); err != nil {
		return nil, err
	}
	db := &DB{
		opt:    opt,
		path:   path,
		logger: opt.Logger.With("db", path),
		state:  stateOpening,
	}
	// the superblock is read with its own record size until it names the
	// real page size
	db.f, err = openPageFile(path, flag, superblockSize)
	if err != nil {
		return nil, err
	}
	db.stat = db.f.stat
	db.cache = newDirCache(opt.DirCacheSize, db.stat)

	if db.f.size() == 0 && opt.Create {
		db.state = stateBootstrapping
		err = db.bootstrap()
	} else {
		db.state = stateLoading
		err = db.load()
	}
	if err != nil {
		db.logger.Debug("open failed", "state", db.state.String(), "err", err)
		_ = db.f.close()
		db.state = stateClosed
		return nil, err
	}
	db.state = stateOpen
	db.logger.Debug("opened", "pageSize", db.sb.PageSize, "pages", db.f.size(), "inodes", db.inodes.Len())
	return db, nil
}

// bootstrap lays out an empty database:
// page 0 superblock, page 1 inode table extent list, page 2 inode table,
// page 3 root directory.
func (db *DB) bootstrap() (err error) {
	pageSize := db.opt.PageSize
	if err = db.f.setPageSize(pageSize); err != nil {
		return
	}
	db.sb = newSuperblock(pageSize)
	db.inodes = newInodeTable(Inode{
		ERef:   db.sb.InodeTableRef,
		EAlloc: 1,
		Ext:    []Extent{newExtent(2, 1)},
	})
	db.inodes.add(Inode{})
	db.inodes.add(Inode{Ext: []Extent{newExtent(3, 1)}})
	db.nextPage = 4

	if err = db.writeSuperblock(); err != nil {
		return
	}
	if err = db.writeInodeExtList(InoTable); err != nil {
		return
	}
	if err = db.writeInodeTable(); err != nil {
		return
	}
	if err = db.writeDir(InoRootDir, &Dir{}); err != nil {
		return
	}
	if err = db.f.sync(); err != nil {
		return
	}
	db.logger.Debug("bootstrapped", "pageSize", pageSize)
	return nil
}

func (db *DB) load() (err error) {
	if err = db.readSuperblock(); err != nil {
		return
	}
	if err = db.readInodeTable(); err != nil {
		return
	}
	_, err = db.readDir(InoRootDir)
	return
}

func (db *DB) readSuperblock() error {
	buf, err := db.f.read(0, 1)
	if err != nil {
		return err
	}
	sb, err := decodeSuperblock(buf)
	if err != nil {
		return err
	}
	if !bytesIsZero(sb.Reserved[:]) {
		db.logger.Warn("superblock reserved bytes are not zero")
	}
	if err = db.f.setPageSize(sb.PageSize); err != nil {
		return err
	}
	db.sb = sb
	return nil
}

func (db *DB) writeSuperblock() error {
	return db.f.write(0, db.sb.encode(), 1)
}

// readExtList reads the extent list stored in alloc pages at ref.
func (db *DB) readExtList(ref uint64, alloc uint32) ([]Extent, error) {
	if err := db.checkExtent(newExtent(ref, alloc), "extent list"); err != nil {
		return nil, err
	}
	buf, err := db.f.read(ref, alloc)
	if err != nil {
		return nil, err
	}
	return decodeExtentList(buf)
}

func (db *DB) writeExtList(list []Extent, ref uint64, alloc uint32) error {
	buf, err := encodeExtentList(list, alloc, db.sb.PageSize)
	if err != nil {
		return err
	}
	return db.f.write(ref, buf, alloc)
}

func (db *DB) writeInodeExtList(idx uint32) error {
	ino, err := db.inodes.get(idx)
	if err != nil {
		return err
	}
	return db.writeExtList(ino.Ext, ino.ERef, ino.EAlloc)
}

func (db *DB) readInodeTable() error {
	// inode 0 is the table itself: its extent list hangs off the superblock
	// and has to be read before the table can be
	ref := db.sb.InodeTableRef
	if err := db.checkExtent(newExtent(ref, 1), "inode table extent list"); err != nil {
		return err
	}
	first, err := db.f.read(ref, 1)
	if err != nil {
		return err
	}
	hdr, err := decodeExtentListHeader(first)
	if err != nil {
		return fmt.Errorf("inode table extents: %w", err)
	}
	alloc := extentListPages(int(hdr.Len-1), db.sb.PageSize)
	self := Inode{ERef: ref, EAlloc: alloc}
	if alloc == 1 {
		self.Ext, err = decodeExtentList(first)
	} else {
		self.Ext, err = db.readExtList(ref, alloc)
	}
	if err != nil {
		return fmt.Errorf("inode table extents: %w", err)
	}

	buf, err := db.readInodePages(&self)
	if err != nil {
		return err
	}
	t, err := decodeInodeTable(buf, self)
	if err != nil {
		return err
	}
	if err = t.resolve(db.readExtList); err != nil {
		return err
	}
	if t.Len() <= int(inoLast) {
		return fmt.Errorf("%w: %d inodes", ErrInodeTableShort, t.Len())
	}
	db.inodes = t
	db.nextPage = db.highWater()
	return nil
}

// highWater is the first page past every allocation the inode table knows of.
func (db *DB) highWater() uint64 {
	next := db.sb.InodeTableRef + 1
	for i := range db.inodes.inodes {
		ino := &db.inodes.inodes[i]
		if !ino.internal() {
			next = max(next, ino.ERef+uint64(ino.EAlloc))
		}
		for _, e := range ino.Ext {
			next = max(next, e.end())
		}
	}
	return next
}

func (db *DB) writeInodeTable() error {
	buf, err := db.inodes.encode()
	if err != nil {
		return err
	}
	if _, err = db.reserve(InoTable, pagesFor(len(buf), db.sb.PageSize)); err != nil {
		return err
	}
	return db.writeInodeData(InoTable, buf)
}

// checkExtent rejects an on-disk extent reaching past the end of the file.
func (db *DB) checkExtent(e Extent, what string) error {
	size := db.f.size()
	if e.Page >= size || uint64(e.Len) > size-e.Page {
		return formatErr("%s extent [%d,+%d) past end of file at page %d", what, e.Page, e.Len, size)
	}
	return nil
}

func (db *DB) readInodePages(ino *Inode) ([]byte, error) {
	for _, e := range ino.Ext {
		if err := db.checkExtent(e, "inode data"); err != nil {
			return nil, err
		}
	}
	if ino.Size() > db.f.size() {
		return nil, formatErr("inode data of %d pages exceeds file of %d pages", ino.Size(), db.f.size())
	}
	buf := make([]byte, 0, ino.Size()*uint64(db.sb.PageSize))
	for _, e := range ino.Ext {
		b, err := db.f.read(e.Page, e.Len)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// readInodeData returns the full page contents of inode idx.
func (db *DB) readInodeData(idx uint32) ([]byte, error) {
	ino, err := db.inodes.get(idx)
	if err != nil {
		return nil, err
	}
	if ino.Unused {
		return nil, formatErr("inode %d is unused", idx)
	}
	return db.readInodePages(ino)
}

// writeInodeData writes buf over the leading pages of inode idx. The inode
// must already hold enough pages.
func (db *DB) writeInodeData(idx uint32, buf []byte) error {
	ino, err := db.inodes.get(idx)
	if err != nil {
		return err
	}
	pageSize := db.sb.PageSize
	buf = padToPages(buf, pageSize)
	outPages := uint64(len(buf)) / uint64(pageSize)
	if outPages > ino.Size() {
		return fmt.Errorf("pagedb: inode %d holds %d pages, need %d", idx, ino.Size(), outPages)
	}
	for _, e := range ino.Ext {
		if outPages == 0 {
			break
		}
		n := min(uint64(e.Len), outPages)
		if err = db.f.write(e.Page, buf, uint32(n)); err != nil {
			return err
		}
		buf = buf[n*uint64(pageSize):]
		outPages -= n
	}
	return nil
}

// allocExtent hands out n pages past the high water mark, growing the file
// by slabs when needed.
func (db *DB) allocExtent(n uint32) (Extent, error) {
	start := db.nextPage
	end := start + uint64(n)
	if end > db.f.size() {
		if err := db.f.extend(end - db.f.size()); err != nil {
			return Extent{}, err
		}
	}
	db.nextPage = end
	return newExtent(start, n), nil
}

// reserve makes inode idx hold at least need pages. It reports whether the
// inode's table entry changed; the caller then rewrites the inode table.
func (db *DB) reserve(idx uint32, need uint32) (bool, error) {
	ino, err := db.inodes.get(idx)
	if err != nil {
		return false, err
	}
	have := ino.Size()
	if have >= uint64(need) {
		return false, nil
	}
	e, err := db.allocExtent(need - uint32(have))
	if err != nil {
		return false, err
	}
	if n := len(ino.Ext); n > 0 && ino.Ext[n-1].end() == e.Page {
		ino.Ext[n-1].Len += e.Len
	} else {
		ino.Ext = append(ino.Ext, e)
	}
	if ino.internal() && len(ino.Ext) <= 1 {
		return true, nil
	}

	if want := extentListPages(len(ino.Ext), db.sb.PageSize); ino.internal() || want > ino.EAlloc {
		list, err := db.allocExtent(want)
		if err != nil {
			return false, err
		}
		ino.ERef, ino.EAlloc = list.Page, list.Len
	}
	if err = db.writeExtList(ino.Ext, ino.ERef, ino.EAlloc); err != nil {
		return false, err
	}
	if idx == InoTable && db.sb.InodeTableRef != ino.ERef {
		sb := db.sb
		sb.InodeTableRef = ino.ERef
		if err = db.f.write(0, sb.encode(), 1); err != nil {
			return false, err
		}
		db.sb = sb
		db.logger.Debug("inode table extent list moved", "ref", ino.ERef)
	}
	return true, nil
}

// allocInode returns an inode for new data, reusing an unused slot.
func (db *DB) allocInode() uint32 {
	for idx := int(inoLast) + 1; idx < db.inodes.Len(); idx++ {
		ino := &db.inodes.inodes[idx]
		if ino.Unused {
			ino.Unused = false
			return uint32(idx)
		}
	}
	return db.inodes.add(Inode{})
}

func (db *DB) readDir(idx uint32) (*Dir, error) {
	if d, ok := db.cache.get(idx); ok {
		return d, nil
	}
	buf, err := db.readInodeData(idx)
	if err != nil {
		return nil, err
	}
	d, err := decodeDir(buf)
	if err != nil {
		return nil, fmt.Errorf("dir inode %d: %w", idx, err)
	}
	db.cache.put(idx, d)
	return d, nil
}

func (db *DB) writeDir(idx uint32, d *Dir) error {
	buf := d.encode()
	changed, err := db.reserve(idx, max(pagesFor(len(buf), db.sb.PageSize), 1))
	if err != nil {
		return err
	}
	if changed {
		if err = db.writeInodeTable(); err != nil {
			return err
		}
	}
	if err = db.writeInodeData(idx, buf); err != nil {
		db.cache.reset()
		return err
	}
	db.cache.put(idx, d)
	return nil
}

// rollback reloads the inode table after a failed write so in-memory
// metadata matches the disk again. Pages handed out meanwhile stay allocated.
// If the reload fails too the DB is closed.
func (db *DB) rollback(cause error) error {
	next := db.nextPage
	db.cache.reset()
	if err := db.readInodeTable(); err != nil {
		db.logger.Error("reload after failed write", "err", err)
		db.state = stateClosed
		_ = db.f.close()
		return errors.Join(cause, err)
	}
	db.nextPage = max(db.nextPage, next)
	db.logger.Debug("metadata reloaded after failed write", "err", cause)
	return cause
}

func (db *DB) checkOpen() error {
	if db.state != stateOpen {
		return ErrClosed
	}
	return nil
}

func (db *DB) checkWritable() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if !db.opt.Write {
		return ErrReadOnly
	}
	return nil
}

// Superblock returns a copy of the current superblock.
func (db *DB) Superblock() Superblock {
	return db.sb
}

func (db *DB) PageSize() uint32 {
	return db.sb.PageSize
}

func (db *DB) Stat() ExportStat {
	return db.stat.export()
}

// Sync flushes written pages to stable storage.
func (db *DB) Sync() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.f.sync()
}

// Close releases the file. Writable databases are synced first.
func (db *DB) Close() error {
	if db.state != stateOpen {
		return nil
	}
	db.state = stateClosed
	var syncErr error
	if db.opt.Write {
		syncErr = db.f.sync()
	}
	closeErr := db.f.close()
	db.cache.reset()
	db.logger.Debug("closed")
	if syncErr != nil {
		return syncErr
	}
	return closeErr
}
