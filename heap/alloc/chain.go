package alloc

import (
	"fmt"

	"github.com/joshuapare/kheapkit/internal/format"
)

// chain links every big block in creation order through the header's
// prev/next fields. Since the heap only grows upward, creation order is
// also address order. Blocks join the chain when they are carved out of
// fresh pages and never leave it.
type chain struct {
	ar     *arena
	oldest Addr
	newest Addr
	count  int
}

// link appends the freshly formatted block h.
func (c *chain) link(h Addr) {
	c.ar.setPrev(h, c.newest)
	c.ar.setNext(h, format.Null)
	if c.newest != format.Null {
		c.ar.setNext(c.newest, h)
	} else {
		c.oldest = h
	}
	c.newest = h
	c.count++
}

// each calls fn for every big block from lowest to highest address until fn returns false.
func (c *chain) each(fn func(h Addr) bool) {
	for h := c.oldest; h != format.Null; h = c.ar.next(h) {
		if !fn(h) {
			return
		}
	}
}

// verify checks link symmetry, ordering and that no two blocks overlap.
func (c *chain) verify() error {
	var prev Addr
	n := 0
	for h := c.oldest; h != format.Null; h = c.ar.next(h) {
		if n == c.count {
			return fmt.Errorf("%w: chain longer than %d blocks", ErrCorrupt, c.count)
		}
		if c.ar.magic(h) != format.BinMagic {
			return fmt.Errorf("%w: big block %#x: bad magic %#x", ErrCorrupt, h, c.ar.magic(h))
		}
		if !c.ar.isBig(h) {
			return fmt.Errorf("%w: big block %#x: size field %d is a bin class", ErrCorrupt, h, c.ar.size(h))
		}
		if c.ar.prev(h) != prev {
			return fmt.Errorf("%w: big block %#x: prev %#x, want %#x", ErrCorrupt, h, c.ar.prev(h), prev)
		}
		if prev != format.Null && c.ar.end(prev) > h {
			return fmt.Errorf("%w: big blocks %#x and %#x overlap", ErrCorrupt, prev, h)
		}
		prev = h
		n++
	}
	if prev != c.newest {
		return fmt.Errorf("%w: chain ends at %#x, newest is %#x", ErrCorrupt, prev, c.newest)
	}
	if n != c.count {
		return fmt.Errorf("%w: chain has %d blocks, want %d", ErrCorrupt, n, c.count)
	}
	return nil
}
