// Package frames is the physical page source behind the kernel heap: a
// bitmap of page frames that hands out the lowest free frame on demand.
package frames

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

var (
	// ErrOutOfFrames indicates every frame is in use.
	ErrOutOfFrames = errors.New("frames: out of page frames")

	// ErrBadFrame indicates a frame number outside the managed range or not currently allocated.
	ErrBadFrame = errors.New("frames: bad frame")
)

// Frame is a physical page number.
type Frame = uint32

// Allocator tracks which of a fixed number of frames are free.
// It is not safe for concurrent use; the heap grower calls it under the heap lock.
type Allocator struct {
	total uint32
	free  *roaring.Bitmap
}

// New creates an allocator managing frames [0, total).
func New(total uint32) *Allocator {
	free := roaring.New()
	free.AddRange(0, uint64(total))
	return &Allocator{total: total, free: free}
}

// AllocFrame takes the lowest free frame.
func (a *Allocator) AllocFrame() (Frame, error) {
	if a.free.IsEmpty() {
		return 0, ErrOutOfFrames
	}
	f := a.free.Minimum()
	a.free.Remove(f)
	return f, nil
}

// FreeFrame returns f to the pool.
func (a *Allocator) FreeFrame(f Frame) error {
	if f >= a.total || a.free.Contains(f) {
		return fmt.Errorf("free frame %d: %w", f, ErrBadFrame)
	}
	a.free.Add(f)
	return nil
}

// Reserve marks frames as in use without handing them out, e.g. frames
// occupied by the kernel image.
func (a *Allocator) Reserve(frames ...Frame) error {
	for _, f := range frames {
		if f >= a.total {
			return fmt.Errorf("reserve frame %d: %w", f, ErrBadFrame)
		}
		a.free.Remove(f)
	}
	return nil
}

// InUse reports whether f is currently allocated or reserved.
func (a *Allocator) InUse(f Frame) bool {
	return f < a.total && !a.free.Contains(f)
}

// Total returns the number of managed frames.
func (a *Allocator) Total() uint32 { return a.total }

// Free returns the number of free frames.
func (a *Allocator) Free() uint32 { return uint32(a.free.GetCardinality()) }

// Used returns the number of frames in use.
func (a *Allocator) Used() uint32 { return a.total - a.Free() }

// UsedFrames lists the frames in use in ascending order.
func (a *Allocator) UsedFrames() []Frame {
	used := roaring.New()
	used.AddRange(0, uint64(a.total))
	used.AndNot(a.free)
	return used.ToArray()
}
