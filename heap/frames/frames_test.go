package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocFrameLowestFirst(t *testing.T) {
	a := New(4)

	for want := Frame(0); want < 4; want++ {
		f, err := a.AllocFrame()
		require.NoError(t, err)
		assert.Equal(t, want, f)
	}
	_, err := a.AllocFrame()
	require.ErrorIs(t, err, ErrOutOfFrames)
	assert.Equal(t, uint32(4), a.Used())
	assert.Equal(t, uint32(0), a.Free())
}

func TestFreeFrameReuses(t *testing.T) {
	a := New(8)
	for range 3 {
		_, err := a.AllocFrame()
		require.NoError(t, err)
	}
	require.NoError(t, a.FreeFrame(1))

	f, err := a.AllocFrame()
	require.NoError(t, err)
	assert.Equal(t, Frame(1), f, "lowest free frame is handed out first")
}

func TestFreeFrameRejectsBadFrames(t *testing.T) {
	a := New(2)
	require.ErrorIs(t, a.FreeFrame(0), ErrBadFrame, "frame 0 was never allocated")
	require.ErrorIs(t, a.FreeFrame(5), ErrBadFrame)
}

func TestReserve(t *testing.T) {
	a := New(6)
	require.NoError(t, a.Reserve(0, 1, 5))
	require.ErrorIs(t, a.Reserve(6), ErrBadFrame)

	assert.True(t, a.InUse(5))
	assert.False(t, a.InUse(2))
	assert.Equal(t, []Frame{0, 1, 5}, a.UsedFrames())

	f, err := a.AllocFrame()
	require.NoError(t, err)
	assert.Equal(t, Frame(2), f)
	assert.Equal(t, []Frame{0, 1, 2, 5}, a.UsedFrames())
	assert.Equal(t, uint32(6), a.Total())
}
