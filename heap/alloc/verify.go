package alloc

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/format"
)

// BlockInfo describes one big block.
type BlockInfo struct {
	Header Addr   // page-aligned header address
	Size   uint32 // usable bytes behind the header
	Free   bool   // listed in the skip list
}

// Blocks calls fn for every big block in address order until fn returns false.
func (a *Allocator) Blocks(fn func(BlockInfo) bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.chain.each(func(h Addr) bool {
		return fn(BlockInfo{
			Header: h,
			Size:   a.ar.size(h),
			Free:   a.ar.head(h) != format.Null,
		})
	})
}

// SkipLevels returns the number of free big blocks linked on each skip-list level.
func (a *Allocator) SkipLevels() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.skip.levelCounts()
}

// Verify walks every allocator structure and returns an error wrapping
// ErrCorrupt for the first broken invariant it finds. Unlike the checks on
// the allocation paths it never halts.
func (a *Allocator) Verify() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.verifyBins(); err != nil {
		return err
	}
	if err := a.chain.verify(); err != nil {
		return err
	}
	return a.verifySkipList()
}

// inHeap reports whether the header h and the page it starts lie below the break.
func (a *Allocator) inHeap(h Addr) bool {
	return h >= a.ar.base && format.IsPageAligned(h) && uint64(h)+format.PageSize <= uint64(a.g.Brk())
}

func (a *Allocator) verifyBins() error {
	for class := range format.BigBin {
		var err error
		n := 0
		a.bins.each(class, func(page Addr) bool {
			switch {
			case n == a.stats.BinPages[class]:
				err = fmt.Errorf("%w: class %d: list longer than %d pages", ErrCorrupt, class, n)
			case !a.inHeap(page):
				err = fmt.Errorf("%w: class %d: page %#x outside heap", ErrCorrupt, class, page)
			case a.ar.magic(page) != format.BinMagic:
				err = fmt.Errorf("%w: class %d: page %#x: bad magic %#x", ErrCorrupt, class, page, a.ar.magic(page))
			case a.ar.size(page) != uint32(class):
				err = fmt.Errorf("%w: class %d: page %#x holds class %d", ErrCorrupt, class, page, a.ar.size(page))
			case a.ar.empty(page):
				err = fmt.Errorf("%w: class %d: listed page %#x has no free cell", ErrCorrupt, class, page)
			default:
				err = a.verifyCells(page, class)
			}
			n++
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// verifyCells checks that every free cell of page sits on a cell boundary.
func (a *Allocator) verifyCells(page Addr, class int) error {
	size := CellSize(class)
	limit := CellsPerPage(class)
	var n uint32
	for cell := a.ar.head(page); cell != format.Null; cell = a.ar.word(cell) {
		if n == limit {
			return fmt.Errorf("%w: page %#x: more than %d free cells", ErrCorrupt, page, limit)
		}
		if cell < page+format.BinHeaderSize || cell >= page+format.PageSize ||
			(cell-page-format.BinHeaderSize)%size != 0 {
			return fmt.Errorf("%w: page %#x: bad free cell %#x", ErrCorrupt, page, cell)
		}
		n++
	}
	return nil
}

func (a *Allocator) verifySkipList() error {
	s := &a.skip
	for i := s.level + 1; i <= format.MaxLevel; i++ {
		if s.head[i] != format.Null {
			return fmt.Errorf("%w: skip list level %d populated above level %d", ErrCorrupt, i, s.level)
		}
	}

	listed := make(map[Addr]bool, s.count)
	var prevSize uint32
	for node := s.head[0]; node != format.Null; node = a.ar.forward(node, 0) {
		if len(listed) == s.count {
			return fmt.Errorf("%w: skip list longer than %d nodes", ErrCorrupt, s.count)
		}
		if !a.inHeap(node) || a.ar.magic(node) != format.BinMagic || !a.ar.isBig(node) {
			return fmt.Errorf("%w: skip list node %#x is not a big block", ErrCorrupt, node)
		}
		size := a.ar.size(node)
		if (size+format.BigHeaderSize)%format.PageSize != 0 {
			return fmt.Errorf("%w: skip list node %#x: size %d not page sized", ErrCorrupt, node, size)
		}
		if a.ar.head(node) != payload(node) {
			return fmt.Errorf("%w: skip list node %#x: head %#x, want payload", ErrCorrupt, node, a.ar.head(node))
		}
		if size < prevSize {
			return fmt.Errorf("%w: skip list node %#x: size %d after %d", ErrCorrupt, node, size, prevSize)
		}
		prevSize = size
		listed[node] = true
	}
	if len(listed) != s.count {
		return fmt.Errorf("%w: skip list has %d nodes, want %d", ErrCorrupt, len(listed), s.count)
	}

	for i := 1; i <= s.level; i++ {
		prevSize = 0
		n := 0
		for node := s.head[i]; node != format.Null; node = a.ar.forward(node, i) {
			if n == s.count {
				return fmt.Errorf("%w: skip list level %d longer than %d nodes", ErrCorrupt, i, s.count)
			}
			n++
			if !listed[node] {
				return fmt.Errorf("%w: skip list level %d: node %#x missing from level 0", ErrCorrupt, i, node)
			}
			if a.ar.size(node) < prevSize {
				return fmt.Errorf("%w: skip list level %d: node %#x out of order", ErrCorrupt, i, node)
			}
			prevSize = a.ar.size(node)
		}
	}

	free := 0
	a.chain.each(func(h Addr) bool {
		if a.ar.head(h) != format.Null {
			free++
		}
		return true
	})
	if free != s.count {
		return fmt.Errorf("%w: %d free big blocks, %d listed", ErrCorrupt, free, s.count)
	}
	return nil
}
