package alloc

import (
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
)

// The free cells of a block form an intrusive stack: the header's head field
// points at the top cell and each free cell's first word points at the cell
// below it. A bin page stacks many fixed-size cells; a big block stacks
// exactly one cell, its whole payload.

// pop removes and returns the top free cell of the block headed by h.
func (ar *arena) pop(h Addr) Addr {
	item := ar.head(h)
	fault.Assert(item != format.Null, "header->head != NULL")
	fault.Assert(item > h, "header->head > header")
	fault.Assert(item < ar.end(h), "header->head < header end")
	if !ar.isBig(h) {
		fault.Assert(item >= h+format.BinHeaderSize, "header->head past bin header")
	}

	ar.setHead(h, ar.word(item))
	return item
}

// push makes cell the top free cell of the block headed by h.
func (ar *arena) push(h, cell Addr) {
	fault.Assert(cell != format.Null, "ptr != NULL")
	fault.Assert(cell > h, "ptr > header")
	fault.Assert(cell < ar.end(h), "ptr < header end")

	ar.setWord(cell, ar.head(h))
	ar.setHead(h, cell)
}

// empty reports whether the block headed by h has no free cell left.
func (ar *arena) empty(h Addr) bool {
	return ar.head(h) == format.Null
}
