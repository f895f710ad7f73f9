package format

// Arena layout constants shared by the grower, the allocator and the tools.
//
// The layout is a 32-bit one: every pointer stored inside the arena is a
// 4-byte linear address and 0 is the null pointer.
const (
	// PageSize is the granularity of heap growth and of every bin page.
	PageSize = 0x1000

	// PageMask masks the in-page offset of an address.
	PageMask = PageSize - 1

	// WordSize is the size of one stored pointer or header field.
	WordSize = 4

	// Null is the null linear address.
	Null = 0
)

// Bin geometry.
const (
	// NumBins is the number of bins, the big bin included.
	NumBins = 11

	// SmallestBinLog is log2 of the smallest cell size (4 bytes).
	SmallestBinLog = 2

	// BigBin is the class index reserved for individually sized blocks.
	BigBin = NumBins - 1

	// SmallestBin is the cell size of class 0.
	SmallestBin = 1 << SmallestBinLog

	// LargestSmallCell is the cell size of the last small class.
	LargestSmallCell = 1 << (SmallestBinLog + BigBin - 1)

	// BinMagic tags every bin page and big block header.
	BinMagic = 0xDEFAD00D
)

// Header field offsets common to bin pages and big block headers.
const (
	HdrNextOffset  = 0x00 // next page in class list, or physical next big block
	HdrHeadOffset  = 0x04 // top of the free-cell stack
	HdrSizeOffset  = 0x08 // class index (bin page) or usable bytes (big block)
	HdrMagicOffset = 0x0C // BinMagic

	// BinHeaderSize is the size of a small bin page header.
	BinHeaderSize = 0x10
)

// Big block header layout.
const (
	// MaxLevel is the highest skip-list level; nodes carry MaxLevel+1 forward links.
	MaxLevel = 6

	BigPrevOffset    = 0x10 // physical previous big block
	BigForwardOffset = 0x14 // forward[0..MaxLevel]

	// BigHeaderSize is the size of a big block header.
	BigHeaderSize = BigForwardOffset + (MaxLevel+1)*WordSize
)
