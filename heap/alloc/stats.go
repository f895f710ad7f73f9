package alloc

import "github.com/joshuapare/kheapkit/internal/format"

// Stats holds allocator counters. Byte counts are usable bytes as seen by
// callers: a cell's full size for small blocks, the block size for big ones.
type Stats struct {
	AllocCalls   int // Alloc calls that returned a block
	ZeroAllocs   int // Alloc(0) calls
	FreeCalls    int // Free calls that released a block
	NullFrees    int // Free(0) calls
	IgnoredFrees int // Free calls on pointers without a valid header
	ReallocCalls int // Realloc calls
	ReallocMoves int // Realloc calls that moved the block
	NoSpace      int // requests refused with ErrNoSpace

	SmallAllocs int   // allocations served from a bin page
	BigAllocs   int   // allocations served by a big block
	SkipHits    int   // big allocations reusing a free block
	GrowCalls   int   // heap growths
	GrowBytes   int64 // bytes added by growth

	InUseBytes int64 // usable bytes currently handed out
	InUseCells int   // blocks currently handed out

	BinPages  [format.BigBin]int // bin pages created per class
	BigBlocks int                // big blocks created
	FreeBig   int                // big blocks in the skip list
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	s.BigBlocks = a.chain.count
	s.FreeBig = a.skip.count
	return s
}
