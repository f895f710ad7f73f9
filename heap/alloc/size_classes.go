package alloc

import (
	"math/bits"

	"github.com/joshuapare/kheapkit/internal/format"
)

// SizeClass returns the bin a request of size bytes is served from: the
// size is rounded up to the next power of two, powers at or below the
// smallest cell map to class 0, and anything above the largest small cell
// maps to format.BigBin. size must be non-zero.
//
//	SizeClass(1)    = 0  (4-byte cells)
//	SizeClass(4)    = 0
//	SizeClass(5)    = 1  (8-byte cells)
//	SizeClass(2048) = 9  (2048-byte cells)
//	SizeClass(2049) = 10 (big bin)
func SizeClass(size uint32) int {
	bin := bits.Len32(size)
	if size&(size-1) != 0 {
		bin++
	}
	if bin <= format.SmallestBinLog {
		return 0
	}
	bin -= format.SmallestBinLog + 1
	if bin > format.BigBin {
		return format.BigBin
	}
	return bin
}

// CellSize returns the fixed cell size of a small class.
func CellSize(class int) uint32 {
	return 1 << (format.SmallestBinLog + class)
}

// CellsPerPage returns how many cells of a small class fit behind a bin page header.
func CellsPerPage(class int) uint32 {
	return (format.PageSize - format.BinHeaderSize) >> (format.SmallestBinLog + class)
}

// BigBlockPages returns the number of pages a fresh big block serving size
// bytes occupies, header included. ok is false when the block would not
// fit in a 32-bit address space.
func BigBlockPages(size uint32) (pages uint32, ok bool) {
	if size > maxBigRequest {
		return 0, false
	}
	return format.PagesFor(size + format.BigHeaderSize), true
}

// maxBigRequest is the largest request whose block still has a 32-bit page-rounded extent.
const maxBigRequest = 0xFFFFF000 - format.BigHeaderSize
