package pagedb

import (
	cmap "github.com/zbh255/gocode/container/map"
)

// dirCache keeps decoded directories keyed by inode number. It is dropped
// wholesale once full.
type dirCache struct {
	max  int
	n    int
	dirs *cmap.BTreeMap[uint64, *Dir]
	stat *iStat
}

func newDirCache(max int, stat *iStat) *dirCache {
	c := &dirCache{max: max, stat: stat}
	c.reset()
	return c
}

func (c *dirCache) reset() {
	c.n = 0
	if c.max > 0 {
		c.dirs = cmap.NewBtreeMap[uint64, *Dir](32)
	}
}

func (c *dirCache) get(ino uint32) (*Dir, bool) {
	if c.max == 0 {
		c.stat.dirCacheMis.Add(1)
		return nil, false
	}
	d, ok := c.dirs.LoadOk(uint64(ino))
	if ok {
		c.stat.dirCacheHit.Add(1)
	} else {
		c.stat.dirCacheMis.Add(1)
	}
	return d, ok
}

func (c *dirCache) put(ino uint32, d *Dir) {
	if c.max == 0 {
		return
	}
	if _, ok := c.dirs.LoadOk(uint64(ino)); !ok {
		if c.n >= c.max {
			c.reset()
		}
		c.n++
	}
	c.dirs.StoreOk(uint64(ino), d)
}
