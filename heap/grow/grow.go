// Package grow implements the heap's sbrk: it extends the mapped part of a
// reserved linear range page by page, taking one frame from the page source
// for every new page.
package grow

import (
	"go.uber.org/zap"

	"github.com/joshuapare/kheapkit/heap/frames"
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/internal/logger"
)

// PageSource hands out zeroable physical frames.
type PageSource interface {
	AllocFrame() (frames.Frame, error)
}

// Mapper installs a linear-to-frame mapping and makes the page accessible.
type Mapper interface {
	Map(linear uint32, frame uint32) error
}

// Space is the reserved range being grown: a Mapper that also exposes its bounds and memory.
type Space interface {
	Mapper
	Base() uint32
	Size() uint32
	Bytes() []byte
}

// Grower owns the break of one reserved range. Growth never moves the range
// and never gives memory back.
type Grower struct {
	space Space
	src   PageSource
	brk   uint32

	calls int
}

// New creates a grower whose break starts at the bottom of space.
func New(space Space, src PageSource) *Grower {
	fault.Assert(format.IsPageAligned(space.Base()), "space base page aligned")
	return &Grower{space: space, src: src, brk: space.Base()}
}

// Grow extends the heap by increment bytes and returns the previous break,
// which is the base of the new, zeroed extent.
//
// increment must be a positive multiple of the page size and the new break
// must stay inside the reserved range. A page source that runs dry halts:
// growth has no graceful failure path.
func (g *Grower) Grow(increment uint32) uint32 {
	fault.Assert(increment != 0 && increment%format.PageSize == 0, "increment % PAGE_SIZE == 0")
	fault.Assert(format.IsPageAligned(g.brk), "heap_brk % PAGE_SIZE == 0")
	fault.Assert(g.Fits(increment), "heap_brk + increment <= heap_end")

	addr := g.brk
	for page := addr; page < addr+increment; page += format.PageSize {
		frame, err := g.src.AllocFrame()
		fault.Assertf(err == nil, "alloc frame for %#x: %v", page, err)
		err = g.space.Map(page, frame)
		fault.Assertf(err == nil, "map %#x: %v", page, err)
	}

	off := addr - g.space.Base()
	clear(g.space.Bytes()[off : off+increment])
	g.brk += increment
	g.calls++

	logger.L.Debug("heap grown",
		zap.Uint32("base", addr),
		zap.Uint32("increment", increment),
		zap.Uint32("brk", g.brk),
	)
	return addr
}

// Fits reports whether increment more bytes fit below the end of the range.
func (g *Grower) Fits(increment uint32) bool {
	return uint64(g.brk)+uint64(increment) <= uint64(g.space.Base())+uint64(g.space.Size())
}

// Brk returns the current break (sbrk(0)).
func (g *Grower) Brk() uint32 { return g.brk }

// Base returns the bottom of the heap.
func (g *Grower) Base() uint32 { return g.space.Base() }

// Limit returns the first address past the reserved range.
func (g *Grower) Limit() uint32 { return g.space.Base() + g.space.Size() }

// Remaining returns the bytes still available for growth.
func (g *Grower) Remaining() uint32 { return g.Limit() - g.brk }

// Pages returns the number of pages grown so far.
func (g *Grower) Pages() uint32 { return (g.brk - g.space.Base()) / format.PageSize }

// Calls returns the number of successful Grow calls.
func (g *Grower) Calls() int { return g.calls }

// Bytes returns the memory of the reserved range; index 0 is Base().
func (g *Grower) Bytes() []byte { return g.space.Bytes() }
