package alloc

import (
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
)

// binIndex keeps, per small class, a singly linked list of the bin pages
// that still have free cells. The link lives in each page header's next field.
type binIndex struct {
	ar    *arena
	heads [format.BigBin]Addr
}

// head returns the first page with free cells for class, or 0.
func (b *binIndex) head(class int) Addr {
	return b.heads[class]
}

// insert pushes page to the front of the class list.
func (b *binIndex) insert(class int, page Addr) {
	b.ar.setNext(page, b.heads[class])
	b.heads[class] = page
}

// remove unlinks page, which must be the current head of the class list.
// Pages only ever leave the list right after being found at its head.
func (b *binIndex) remove(class int, page Addr) {
	fault.Assert(b.heads[class] == page, "removed bin page is list head")
	b.heads[class] = b.ar.next(page)
	b.ar.setNext(page, format.Null)
}

// each calls fn for every listed page of class until fn returns false.
func (b *binIndex) each(class int, fn func(page Addr) bool) {
	for page := b.heads[class]; page != format.Null; page = b.ar.next(page) {
		if !fn(page) {
			return
		}
	}
}
