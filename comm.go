package pagedb

const (
	superblockMagic = "PGDB0000"
	inodeTabMagic   = "PGIT0000"
	inodeEntMagic   = "PGIE0000"
	dirMagic        = "PGDR0000"
	dirEntMagic     = "PGDE0000"
)

// reserved inode numbers
const (
	InoTable    uint32 = 0
	InoFreelist uint32 = 1
	InoRootDir  uint32 = 2

	inoLast = InoRootDir
)

const (
	formatVersion   uint32 = 1
	defaultPageSize uint32 = 4096
	minPageSize     uint32 = 512
	maxPageSize     uint32 = 65536

	// values longer than this are stored in their own inode
	inlineValueMax = 511
	maxKeySize     = 511

	defaultMaxDirDepth  = 64
	defaultDirCacheSize = 64
)

// superblock feature bits
const (
	sbfMBO uint64 = 1 << 63
	sbfMBZ uint64 = 1 << 62
)

// extent flags
const (
	efMBO uint32 = 1 << 31
	efMBZ uint32 = 1 << 30
	efHDR uint32 = 1 << 29
)

// inode table flags
const (
	itfMBO    uint32 = 1 << 31
	itfMBZ    uint32 = 1 << 30
	itfHDR    uint32 = 1 << 29
	itfExtInt uint32 = 1 << 28
	itfUnused uint32 = 1 << 27
)

// directory flags
const (
	dfMBO     uint32 = 1 << 31
	dfMBZ     uint32 = 1 << 30
	dfEntType uint32 = 0xf
)
