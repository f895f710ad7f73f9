package grow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/heap/frames"
	"github.com/joshuapare/kheapkit/internal/fault"
	"github.com/joshuapare/kheapkit/internal/format"
	"github.com/joshuapare/kheapkit/internal/vmem"
)

const testBase = 0x10000000

func newTestGrower(t *testing.T, pages, nframes uint32) (*Grower, *vmem.Region, *frames.Allocator) {
	t.Helper()
	region, err := vmem.Reserve(testBase, pages*format.PageSize)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, region.Release()) })

	src := frames.New(nframes)
	return New(region, src), region, src
}

func TestGrowReturnsPreviousBreak(t *testing.T) {
	g, region, src := newTestGrower(t, 8, 8)
	require.Equal(t, uint32(testBase), g.Brk())

	first := g.Grow(format.PageSize)
	assert.Equal(t, uint32(testBase), first)
	assert.Equal(t, uint32(testBase+format.PageSize), g.Brk())

	second := g.Grow(3 * format.PageSize)
	assert.Equal(t, uint32(testBase+format.PageSize), second)
	assert.Equal(t, uint32(testBase+4*format.PageSize), g.Brk())

	assert.Equal(t, uint32(4), g.Pages())
	assert.Equal(t, 2, g.Calls())
	assert.Equal(t, uint32(4), src.Used())
	assert.Equal(t, 4, region.Mapped())
	assert.Equal(t, uint32(4*format.PageSize), g.Remaining())
}

func TestGrowMapsOneFramePerPage(t *testing.T) {
	g, region, _ := newTestGrower(t, 4, 4)
	base := g.Grow(2 * format.PageSize)

	for i := uint32(0); i < 2; i++ {
		frame, ok := region.Translate(base + i*format.PageSize)
		require.True(t, ok)
		assert.Equal(t, i, frame)
	}
}

func TestGrowZeroFills(t *testing.T) {
	g, _, _ := newTestGrower(t, 2, 2)
	base := g.Grow(2 * format.PageSize)

	mem := g.Bytes()[base-g.Base() : g.Brk()-g.Base()]
	for i, b := range mem {
		require.Zerof(t, b, "byte %d not zero", i)
	}
}

func TestGrowToExactLimit(t *testing.T) {
	g, _, _ := newTestGrower(t, 2, 2)
	require.True(t, g.Fits(2*format.PageSize))
	require.False(t, g.Fits(3*format.PageSize))

	g.Grow(2 * format.PageSize)
	require.Equal(t, g.Limit(), g.Brk())
	require.Equal(t, uint32(0), g.Remaining())
}

func TestGrowFaults(t *testing.T) {
	tests := []struct {
		name      string
		pages     uint32
		frames    uint32
		increment uint32
		want      string
	}{
		{"zero increment", 2, 2, 0, "increment % PAGE_SIZE == 0"},
		{"unaligned increment", 2, 2, 100, "increment % PAGE_SIZE == 0"},
		{"beyond reserved range", 2, 8, 3 * format.PageSize, "heap_brk + increment <= heap_end"},
		{"page source exhausted", 4, 1, 2 * format.PageSize, "alloc frame for"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGrower(t, tt.pages, tt.frames)
			f := fault.Catch(func() { g.Grow(tt.increment) })
			require.NotNil(t, f)
			assert.Contains(t, f.Desc, tt.want)
		})
	}
}

type failingMapper struct {
	*vmem.Region
}

func (failingMapper) Map(uint32, uint32) error { return errors.New("no page tables") }

func TestGrowMapperFailureIsFatal(t *testing.T) {
	region, err := vmem.Reserve(testBase, format.PageSize)
	require.NoError(t, err)
	defer region.Release()

	g := New(failingMapper{region}, frames.New(1))
	f := fault.Catch(func() { g.Grow(format.PageSize) })
	require.NotNil(t, f)
	assert.Contains(t, f.Desc, "no page tables")
	assert.Equal(t, uint32(testBase), g.Brk(), "break does not move on failure")
}
