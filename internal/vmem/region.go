// Package vmem provides the reserved linear address range the kernel heap
// grows into, together with the page table recording which frame backs
// each mapped page.
package vmem

import (
	"errors"
	"fmt"
	"math"

	"github.com/joshuapare/kheapkit/internal/format"
)

var (
	// ErrUnaligned indicates a base, size or linear address that is not page aligned.
	ErrUnaligned = errors.New("vmem: address not page aligned")

	// ErrOutOfRange indicates a linear address outside the reserved range.
	ErrOutOfRange = errors.New("vmem: address outside reserved range")

	// ErrAlreadyMapped indicates a second mapping for the same linear page.
	ErrAlreadyMapped = errors.New("vmem: page already mapped")

	// ErrReleased indicates use of a region after Release.
	ErrReleased = errors.New("vmem: region released")
)

// Region is a reserved, page-aligned linear range [base, base+size).
// Pages are inaccessible until mapped.
type Region struct {
	base  uint32
	mem   []byte
	table map[uint32]uint32 // linear page number -> frame
}

// Reserve reserves size bytes of linear space starting at linear address base.
// base must be non-zero so that no valid address collides with the null pointer.
func Reserve(base, size uint32) (*Region, error) {
	if base == format.Null {
		return nil, fmt.Errorf("reserve at null base: %w", ErrOutOfRange)
	}
	if !format.IsPageAligned(base) || !format.IsPageAligned(size) || size == 0 {
		return nil, fmt.Errorf("reserve base=%#x size=%#x: %w", base, size, ErrUnaligned)
	}
	if uint64(base)+uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("reserve base=%#x size=%#x: %w", base, size, ErrOutOfRange)
	}

	mem, err := reserveMem(int(size))
	if err != nil {
		return nil, fmt.Errorf("reserve %d bytes: %w", size, err)
	}
	return &Region{
		base:  base,
		mem:   mem,
		table: make(map[uint32]uint32),
	}, nil
}

// Base returns the first linear address of the range.
func (r *Region) Base() uint32 { return r.base }

// Size returns the reserved size in bytes.
func (r *Region) Size() uint32 { return uint32(len(r.mem)) }

// Bytes returns the backing memory of the whole range. Only mapped pages may be touched.
func (r *Region) Bytes() []byte { return r.mem }

// Contains reports whether linear lies inside the reserved range.
func (r *Region) Contains(linear uint32) bool {
	return linear >= r.base && linear-r.base < uint32(len(r.mem))
}

// Map installs frame behind the page at linear and makes it readable and writable.
func (r *Region) Map(linear, frame uint32) error {
	if r.mem == nil {
		return ErrReleased
	}
	if !format.IsPageAligned(linear) {
		return fmt.Errorf("map %#x: %w", linear, ErrUnaligned)
	}
	if !r.Contains(linear) {
		return fmt.Errorf("map %#x: %w", linear, ErrOutOfRange)
	}
	page := linear / format.PageSize
	if _, ok := r.table[page]; ok {
		return fmt.Errorf("map %#x: %w", linear, ErrAlreadyMapped)
	}

	off := linear - r.base
	if err := protectRW(r.mem[off : off+format.PageSize]); err != nil {
		return fmt.Errorf("map %#x: %w", linear, err)
	}
	r.table[page] = frame
	return nil
}

// Translate returns the frame backing linear.
func (r *Region) Translate(linear uint32) (frame uint32, ok bool) {
	frame, ok = r.table[linear/format.PageSize]
	return frame, ok
}

// Mapped returns the number of mapped pages.
func (r *Region) Mapped() int { return len(r.table) }

// Release unmaps the whole range. The region must not be used afterwards.
func (r *Region) Release() error {
	if r.mem == nil {
		return nil
	}
	err := releaseMem(r.mem)
	r.mem = nil
	clear(r.table)
	return err
}
