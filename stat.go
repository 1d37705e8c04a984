package pagedb

import "sync/atomic"

type ExportStat struct {
	DirCacheHit  uint64
	DirCacheMis  uint64
	PagesRead    uint64
	PagesWritten uint64
	Syncs        uint64
	MaxDirDepth  uint64
}

type iStat struct {
	dirCacheHit  atomic.Uint64
	dirCacheMis  atomic.Uint64
	pagesRead    atomic.Uint64
	pagesWritten atomic.Uint64
	syncs        atomic.Uint64
	maxDirDepth  atomic.Uint64
}

func (s *iStat) observeDepth(d int) {
	for {
		cur := s.maxDirDepth.Load()
		if uint64(d) <= cur || s.maxDirDepth.CompareAndSwap(cur, uint64(d)) {
			return
		}
	}
}

func (s *iStat) export() ExportStat {
	return ExportStat{
		DirCacheHit:  s.dirCacheHit.Load(),
		DirCacheMis:  s.dirCacheMis.Load(),
		PagesRead:    s.pagesRead.Load(),
		PagesWritten: s.pagesWritten.Load(),
		Syncs:        s.syncs.Load(),
		MaxDirDepth:  s.maxDirDepth.Load(),
	}
}
