package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/heap/frames"
	"github.com/joshuapare/kheapkit/heap/grow"
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/internal/vmem"
)

const testBase = 0x10000000

// ============================================================================
// Allocator Setup
// ============================================================================

// newTestAllocator builds an allocator over a fresh reserved range of the
// given number of pages, backed by one frame per page.
func newTestAllocator(t testing.TB, pages uint32, opts ...Option) (*Allocator, *grow.Grower) {
	t.Helper()

	region, err := vmem.Reserve(testBase, pages*format.PageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = region.Release() })

	g := grow.New(region, frames.New(pages))
	return New(g, opts...), g
}

// newTestArena returns an arena over plain memory for exercising the
// internal structures without an allocator.
func newTestArena(pages uint32) *arena {
	return &arena{mem: make([]byte, pages*format.PageSize), base: testBase}
}

// ============================================================================
// Assertions
// ============================================================================

// assertInvariants fails the test if Verify finds a broken structure.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Verify())
}

// mustAlloc allocates size bytes and fails the test on error or null.
func mustAlloc(t testing.TB, a *Allocator, size uint32) Addr {
	t.Helper()
	p, err := a.Alloc(size)
	require.NoError(t, err)
	require.NotZero(t, p)
	return p
}

// fill writes b over the n bytes at p.
func fill(a *Allocator, p Addr, n uint32, b byte) {
	buf := a.Bytes(p, n)
	for i := range buf {
		buf[i] = b
	}
}

// pattern writes a recognizable byte sequence over the n bytes at p.
func pattern(a *Allocator, p Addr, n uint32) []byte {
	buf := a.Bytes(p, n)
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	return append([]byte(nil), buf...)
}

// ============================================================================
// Big block fixtures
// ============================================================================

// formatFreeBlock writes a free big block header of the given page count at h.
func formatFreeBlock(ar *arena, h Addr, pages uint32) {
	ar.setNext(h, format.Null)
	ar.setSize(h, pages*format.PageSize-format.BigHeaderSize)
	ar.setMagic(h)
	ar.setHead(h, format.Null)
	ar.push(h, payload(h))
}
