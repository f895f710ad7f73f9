package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageAlign(t *testing.T) {
	require.Equal(t, uint32(0x1000), PageAlignDown(0x1000))
	require.Equal(t, uint32(0x1000), PageAlignDown(0x1fff))
	require.True(t, IsPageAligned(0x3000))
	require.False(t, IsPageAligned(0x3004))
}

func TestPagesFor(t *testing.T) {
	require.Equal(t, uint32(0), PagesFor(0))
	require.Equal(t, uint32(1), PagesFor(1))
	require.Equal(t, uint32(1), PagesFor(PageSize))
	require.Equal(t, uint32(2), PagesFor(PageSize+1))
}

func TestLayoutConstants(t *testing.T) {
	require.Equal(t, 48, BigHeaderSize)
	require.Equal(t, 2048, LargestSmallCell)
	require.Equal(t, 10, BigBin)
}

func TestWordRoundTrip(t *testing.T) {
	b := make([]byte, 8)
	PutU32(b, 4, 0xDEFAD00D)
	require.Equal(t, []byte{0, 0, 0, 0, 0x0D, 0xD0, 0xFA, 0xDE}, b)
	require.Equal(t, uint32(BinMagic), ReadU32(b, 4))
}

func TestPagesForNearMax(t *testing.T) {
	require.Equal(t, uint32(0x100000), PagesFor(0xFFFFFFFF))
}
