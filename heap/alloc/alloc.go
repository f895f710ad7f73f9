package alloc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joshuapare/kheapkit/heap/spin"
	"github.com/joshuapare/kheapkit/internal/buf"
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/internal/logger"
)

// DefaultSeed seeds the skip-list level source when no seed is given.
const DefaultSeed = 0x6b68656170

// vallocPad moves the payload of a fresh big block to the next page boundary.
const vallocPad = format.PageSize - format.BigHeaderSize

// Backing is the growable range the allocator carves blocks from.
// *grow.Grower satisfies it.
type Backing interface {
	Grow(increment uint32) uint32
	Fits(increment uint32) bool
	Brk() uint32
	Base() uint32
	Bytes() []byte
}

// Allocator is the heap's malloc. Small requests are served from bin pages
// of fixed-size cells, large ones from page-granular big blocks indexed by a
// size-ordered skip list. Memory is never returned to the backing range.
//
// Every exported method takes a global spin lock that is not reentrant.
// Callbacks passed to Blocks run with the lock held and must not call back
// into the allocator.
type Allocator struct {
	mu spin.Mutex

	g     Backing
	ar    arena
	bins  binIndex
	skip  skipList
	chain chain

	stats   Stats
	metrics *Metrics
	trace   bool
	seed    uint64
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithSeed seeds the skip-list level source.
func WithSeed(seed uint64) Option {
	return func(a *Allocator) { a.seed = seed }
}

// WithMetrics reports allocator activity to m.
func WithMetrics(m *Metrics) Option {
	return func(a *Allocator) { a.metrics = m }
}

// WithTrace logs every allocation and free at debug level.
// It defaults to on when logger.AllocEnv is set.
func WithTrace(on bool) Option {
	return func(a *Allocator) { a.trace = on }
}

// New creates an allocator over g. g must not have been grown by anyone else.
func New(g Backing, opts ...Option) *Allocator {
	a := &Allocator{
		g:     g,
		ar:    arena{mem: g.Bytes(), base: g.Base()},
		trace: logger.AllocTracing(),
		seed:  DefaultSeed,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.bins = binIndex{ar: &a.ar}
	a.skip = newSkipList(&a.ar, a.seed)
	a.chain = chain{ar: &a.ar}
	return a
}

// Alloc returns a block of at least size bytes. Alloc(0) returns (0, nil).
// When the reserved range cannot hold the growth the request needs, Alloc
// returns ErrNoSpace.
func (a *Allocator) Alloc(size uint32) (Addr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alloc(size)
}

// Free releases the block at p. Freeing 0 does nothing, as does freeing an
// address that does not lead back to a valid block header.
func (a *Allocator) Free(p Addr) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free(p)
}

// Realloc resizes the block at p to size bytes. It follows the C contract:
// Realloc(0, n) allocates, Realloc(p, 0) frees and returns 0. A block that is
// already large enough is returned as is; otherwise the contents move to a
// new block. On failure the old block is left untouched.
func (a *Allocator) Realloc(p Addr, size uint32) (Addr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realloc(p, size)
}

// Calloc allocates count*size zeroed bytes. The product is not checked for overflow.
func (a *Allocator) Calloc(count, size uint32) (Addr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calloc(count, size)
}

// Valloc returns a page-aligned block of at least size bytes. Every call
// burns most of a page on alignment padding.
func (a *Allocator) Valloc(size uint32) (Addr, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valloc(size)
}

// UsableSize returns the bytes usable at p, or 0 if p is null or foreign.
func (a *Allocator) UsableSize(p Addr) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.headerOf(p)
	if !ok {
		return 0
	}
	return a.usable(h, p)
}

// Bytes returns a view of the n bytes at p, or nil if they are not inside
// the grown heap.
func (a *Allocator) Bytes(p Addr, n uint32) []byte {
	if p < a.ar.base {
		return nil
	}
	b, ok := buf.Slice(a.ar.mem[:a.g.Brk()-a.ar.base], int(p-a.ar.base), int(n))
	if !ok {
		return nil
	}
	return b
}

func (a *Allocator) alloc(size uint32) (Addr, error) {
	if size == 0 {
		a.stats.ZeroAllocs++
		return format.Null, nil
	}

	class := SizeClass(size)
	if class < format.BigBin {
		return a.allocSmall(size, class)
	}
	return a.allocBig(size)
}

func (a *Allocator) allocSmall(size uint32, class int) (Addr, error) {
	page := a.bins.head(class)
	if page == format.Null {
		if !a.g.Fits(format.PageSize) {
			return a.noSpace(size)
		}
		page = a.grow(format.PageSize)
		a.formatBinPage(page, class)
		a.bins.insert(class, page)
		a.stats.BinPages[class]++
	}

	cell := a.ar.pop(page)
	if a.ar.empty(page) {
		a.bins.remove(class, page)
	}

	a.stats.SmallAllocs++
	a.onAlloc(cell, CellSize(class))
	return cell, nil
}

func (a *Allocator) allocBig(size uint32) (Addr, error) {
	if h := a.skip.findBestFit(size); h != format.Null {
		fault.Assert(a.skip.delete(h), "skip_list_delete(node)")
		p := a.ar.pop(h)
		fault.Assert(p == payload(h), "big block head == payload")
		fault.Assert(a.ar.empty(h), "big block holds one cell")

		a.stats.BigAllocs++
		a.stats.SkipHits++
		a.onAlloc(p, a.ar.size(h))
		return p, nil
	}

	pages, ok := BigBlockPages(size)
	if !ok || !a.g.Fits(pages*format.PageSize) {
		return a.noSpace(size)
	}
	h := a.grow(pages * format.PageSize)
	a.ar.setNext(h, format.Null)
	a.ar.setHead(h, format.Null)
	a.ar.setSize(h, pages*format.PageSize-format.BigHeaderSize)
	a.ar.setMagic(h)
	a.chain.link(h)

	a.stats.BigAllocs++
	a.onAlloc(payload(h), a.ar.size(h))
	return payload(h), nil
}

// formatBinPage writes a bin page header at page and stacks all of its
// cells so that the lowest address is handed out first.
func (a *Allocator) formatBinPage(page Addr, class int) {
	a.ar.setNext(page, format.Null)
	a.ar.setHead(page, format.Null)
	a.ar.setSize(page, uint32(class))
	a.ar.setMagic(page)

	cell := CellSize(class)
	first := page + format.BinHeaderSize
	for i := CellsPerPage(class); i > 0; i-- {
		a.ar.push(page, first+(i-1)*cell)
	}
}

func (a *Allocator) free(p Addr) {
	if p == format.Null {
		a.stats.NullFrees++
		return
	}

	h, ok := a.headerOf(p)
	if !ok {
		a.stats.IgnoredFrees++
		logger.L.Debug("free of unknown block ignored", zap.Uint32("ptr", p))
		return
	}

	if a.ar.isBig(h) {
		fault.Assert(a.ar.head(h) == format.Null, "header->head == NULL")
		a.onFree(p, a.ar.size(h))
		a.ar.push(h, payload(h))
		a.skip.insert(h)
		return
	}

	class := int(a.ar.size(h))
	fault.Assert(p >= h+format.BinHeaderSize, "ptr past bin header")
	fault.Assert((p-h-format.BinHeaderSize)%CellSize(class) == 0, "ptr on cell boundary")
	a.onFree(p, CellSize(class))
	if a.ar.empty(h) {
		a.bins.insert(class, h)
	}
	a.ar.push(h, p)
}

func (a *Allocator) realloc(p Addr, size uint32) (Addr, error) {
	if p == format.Null {
		return a.alloc(size)
	}
	if size == 0 {
		a.free(p)
		return format.Null, nil
	}

	a.stats.ReallocCalls++
	h, ok := a.headerOf(p)
	fault.Assert(ok, "header->magic == BIN_MAGIC")

	old := a.usable(h, p)
	if old >= size {
		return p, nil
	}

	n, err := a.alloc(size)
	if err != nil {
		return format.Null, err
	}
	copy(a.ar.bytes(n, old), a.ar.bytes(p, old))
	a.free(p)
	a.stats.ReallocMoves++
	return n, nil
}

func (a *Allocator) calloc(count, size uint32) (Addr, error) {
	total := count * size
	p, err := a.alloc(total)
	if err != nil || p == format.Null {
		return p, err
	}
	clear(a.ar.bytes(p, total))
	return p, nil
}

func (a *Allocator) valloc(size uint32) (Addr, error) {
	total, ok := buf.AddOverflowSafe(size, vallocPad)
	if !ok {
		return a.noSpace(size)
	}
	r, err := a.alloc(total)
	if err != nil {
		return format.Null, err
	}
	p := r + vallocPad
	fault.Assert(format.IsPageAligned(p), "out % PAGE_SIZE == 0")
	return p, nil
}

// headerOf finds the header of the block p belongs to. A page-aligned p can
// only be a valloc pointer, which sits one page past its big block header,
// so it is pulled back one byte before rounding down. ok is false when p is
// outside the grown heap, the header carries no magic, or p is page aligned
// above a bin page.
func (a *Allocator) headerOf(p Addr) (h Addr, ok bool) {
	if p <= a.ar.base || p > a.g.Brk() {
		return format.Null, false
	}
	q := p
	if format.IsPageAligned(q) {
		q--
	}
	h = format.PageAlignDown(q)
	if h < a.ar.base || a.ar.magic(h) != format.BinMagic {
		return format.Null, false
	}
	if format.IsPageAligned(p) && !a.ar.isBig(h) {
		return format.Null, false
	}
	return h, true
}

// usable returns the bytes from p to the end of its cell or block.
func (a *Allocator) usable(h, p Addr) uint32 {
	if a.ar.isBig(h) {
		return a.ar.end(h) - p
	}
	return CellSize(int(a.ar.size(h)))
}

func (a *Allocator) grow(increment uint32) Addr {
	addr := a.g.Grow(increment)
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(increment)
	a.metrics.onGrow(a.g.Brk() - a.g.Base())
	return addr
}

func (a *Allocator) noSpace(size uint32) (Addr, error) {
	a.stats.NoSpace++
	a.metrics.onNoSpace()
	logger.L.Debug("allocation refused",
		zap.Uint32("size", size),
		zap.Uint32("brk", a.g.Brk()),
	)
	return format.Null, fmt.Errorf("%w: %d bytes requested", ErrNoSpace, size)
}

func (a *Allocator) onAlloc(p Addr, n uint32) {
	a.stats.AllocCalls++
	a.stats.InUseBytes += int64(n)
	a.stats.InUseCells++
	a.metrics.onAlloc(n)
	if a.trace {
		logger.L.Debug("alloc", zap.Uint32("ptr", p), zap.Uint32("bytes", n))
	}
}

func (a *Allocator) onFree(p Addr, n uint32) {
	a.stats.FreeCalls++
	a.stats.InUseBytes -= int64(n)
	a.stats.InUseCells--
	a.metrics.onFree(n)
	if a.trace {
		logger.L.Debug("free", zap.Uint32("ptr", p), zap.Uint32("bytes", n))
	}
}
