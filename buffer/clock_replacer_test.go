package buffer

import (
	"testing"

	"pagestore/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockReplacer_VictimOnEmptyIsFalse(t *testing.T) {
	r := NewClockReplacer(4)
	_, ok := r.Victim()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Size())
}

func TestClockReplacer_UnpinMakesFrameACandidate(t *testing.T) {
	r := NewClockReplacer(4)
	r.Unpin(common.FrameID(2))
	assert.Equal(t, 1, r.Size())

	f, ok := r.Victim()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(2), f)
	assert.Equal(t, 0, r.Size())
}

func TestClockReplacer_SecondChanceSparesReferencedFrame(t *testing.T) {
	r := NewClockReplacer(2)
	r.Unpin(common.FrameID(0))
	r.Unpin(common.FrameID(1))

	// frame 0 is referenced (just unpinned); clock must pass over it once,
	// clearing the reference bit, before evicting it on the second lap.
	f, ok := r.Victim()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(0), f)
}

func TestClockReplacer_PinRemovesCandidate(t *testing.T) {
	r := NewClockReplacer(3)
	r.Unpin(common.FrameID(0))
	r.Unpin(common.FrameID(1))
	r.Pin(common.FrameID(0))

	assert.Equal(t, 1, r.Size())
	f, ok := r.Victim()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(1), f)
}

func TestClockReplacer_PinIsIdempotent(t *testing.T) {
	r := NewClockReplacer(2)
	r.Pin(common.FrameID(0))
	r.Pin(common.FrameID(0))
	assert.Equal(t, 0, r.Size())
}

func TestClockReplacer_UnpinIsIdempotent(t *testing.T) {
	r := NewClockReplacer(2)
	r.Unpin(common.FrameID(0))
	r.Unpin(common.FrameID(0))
	assert.Equal(t, 1, r.Size())
}
