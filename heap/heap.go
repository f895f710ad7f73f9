package heap

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joshuapare/kheapkit/heap/alloc"
	"github.com/joshuapare/kheapkit/heap/frames"
	"github.com/joshuapare/kheapkit/heap/grow"
	"github.com/joshuapare/kheapkit/internal/logger"
	"github.com/joshuapare/kheapkit/internal/vmem"
)

// Heap binds a reserved linear range, its page source, the grower and the
// allocator into one owned context.
type Heap struct {
	cfg    Config
	region *vmem.Region
	frames *frames.Allocator
	grower *grow.Grower
	alloc  *alloc.Allocator
}

// Option configures a Heap.
type Option func(*options)

type options struct {
	metrics *alloc.Metrics
}

// WithMetrics reports allocator activity to m.
func WithMetrics(m *alloc.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New validates cfg and builds a heap over a freshly reserved range.
// Call Close to release the range.
func New(cfg Config, opts ...Option) (*Heap, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	region, err := vmem.Reserve(cfg.Base, cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("heap: %w", err)
	}

	src := frames.New(cfg.FrameCount())
	if err := src.Reserve(cfg.Reserved...); err != nil {
		_ = region.Release()
		return nil, fmt.Errorf("heap: %w", err)
	}

	g := grow.New(region, src)
	allocOpts := []alloc.Option{alloc.WithSeed(cfg.Seed)}
	if cfg.LogAlloc {
		allocOpts = append(allocOpts, alloc.WithTrace(true))
	}
	if o.metrics != nil {
		allocOpts = append(allocOpts, alloc.WithMetrics(o.metrics))
	}

	logger.L.Info("heap ready",
		zap.Uint32("base", cfg.Base),
		zap.Uint32("size", cfg.Size),
		zap.Uint32("frames", src.Free()),
	)
	return &Heap{
		cfg:    cfg,
		region: region,
		frames: src,
		grower: g,
		alloc:  alloc.New(g, allocOpts...),
	}, nil
}

// Close releases the reserved range. The heap must not be used afterwards.
func (h *Heap) Close() error {
	return h.region.Release()
}

// Alloc is malloc.
func (h *Heap) Alloc(size uint32) (alloc.Addr, error) { return h.alloc.Alloc(size) }

// Free is free.
func (h *Heap) Free(p alloc.Addr) { h.alloc.Free(p) }

// Realloc is realloc.
func (h *Heap) Realloc(p alloc.Addr, size uint32) (alloc.Addr, error) {
	return h.alloc.Realloc(p, size)
}

// Calloc is calloc.
func (h *Heap) Calloc(count, size uint32) (alloc.Addr, error) { return h.alloc.Calloc(count, size) }

// Valloc is valloc.
func (h *Heap) Valloc(size uint32) (alloc.Addr, error) { return h.alloc.Valloc(size) }

// Bytes returns a view of the n bytes at p.
func (h *Heap) Bytes(p alloc.Addr, n uint32) []byte { return h.alloc.Bytes(p, n) }

// Allocator returns the underlying allocator.
func (h *Heap) Allocator() *alloc.Allocator { return h.alloc }

// Config returns the config the heap was built from.
func (h *Heap) Config() Config { return h.cfg }

// Brk returns the current top of the heap.
func (h *Heap) Brk() uint32 { return h.grower.Brk() }

// Remaining returns the bytes the heap can still grow by.
func (h *Heap) Remaining() uint32 { return h.grower.Remaining() }

// Translate returns the frame backing the page containing linear.
func (h *Heap) Translate(linear uint32) (frames.Frame, bool) { return h.region.Translate(linear) }

// FrameStats returns the used and free frame counts of the page source.
func (h *Heap) FrameStats() (used, free uint32) { return h.frames.Used(), h.frames.Free() }

// UsedFrames lists the frames in use, reserved ones included.
func (h *Heap) UsedFrames() []frames.Frame { return h.frames.UsedFrames() }
