package vmem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheapkit/internal/format"
)

const testBase = 0x10000000

func newTestRegion(t *testing.T, pages uint32) *Region {
	t.Helper()
	r, err := Reserve(testBase, pages*format.PageSize)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, r.Release()) })
	return r
}

func TestReserveValidates(t *testing.T) {
	_, err := Reserve(0, format.PageSize)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Reserve(testBase+1, format.PageSize)
	require.ErrorIs(t, err, ErrUnaligned)

	_, err = Reserve(testBase, format.PageSize+4)
	require.ErrorIs(t, err, ErrUnaligned)

	_, err = Reserve(testBase, 0)
	require.ErrorIs(t, err, ErrUnaligned)

	_, err = Reserve(0xFFFFF000, 2*format.PageSize)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestMapMakesPageWritable(t *testing.T) {
	r := newTestRegion(t, 4)
	require.Equal(t, uint32(testBase), r.Base())
	require.Equal(t, uint32(4*format.PageSize), r.Size())

	require.NoError(t, r.Map(testBase+format.PageSize, 7))
	page := r.Bytes()[format.PageSize : 2*format.PageSize]
	page[0], page[len(page)-1] = 0xAA, 0xBB
	require.Equal(t, byte(0xAA), r.Bytes()[format.PageSize])

	frame, ok := r.Translate(testBase + format.PageSize + 123)
	require.True(t, ok)
	require.Equal(t, uint32(7), frame)

	_, ok = r.Translate(testBase)
	require.False(t, ok)
	require.Equal(t, 1, r.Mapped())
}

func TestMapRejectsBadAddresses(t *testing.T) {
	r := newTestRegion(t, 2)

	require.ErrorIs(t, r.Map(testBase+12, 0), ErrUnaligned)
	require.ErrorIs(t, r.Map(testBase+2*format.PageSize, 0), ErrOutOfRange)
	require.ErrorIs(t, r.Map(testBase-format.PageSize, 0), ErrOutOfRange)

	require.NoError(t, r.Map(testBase, 1))
	require.ErrorIs(t, r.Map(testBase, 2), ErrAlreadyMapped)
}

func TestContains(t *testing.T) {
	r := newTestRegion(t, 1)
	require.True(t, r.Contains(testBase))
	require.True(t, r.Contains(testBase+format.PageSize-1))
	require.False(t, r.Contains(testBase+format.PageSize))
	require.False(t, r.Contains(testBase-1))
}

func TestReleaseTwice(t *testing.T) {
	r, err := Reserve(testBase, format.PageSize)
	require.NoError(t, err)
	require.NoError(t, r.Release())
	require.NoError(t, r.Release())
	require.ErrorIs(t, r.Map(testBase, 0), ErrReleased)
}
