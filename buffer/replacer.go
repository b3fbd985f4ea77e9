package buffer

import "pagestore/common"

// Replacer is a victim-selection strategy over the frames of a buffer pool.
// It only ever sees frame-ids, never page content, so alternative policies
// (LRU, LRU-K, ...) can implement this interface and be substituted for
// ClockReplacer without the buffer pool changing.
type Replacer interface {
	// Victim returns a frame eligible for eviction and removes it from the
	// candidate set, or ok=false if no frame is currently evictable.
	Victim() (frameID common.FrameID, ok bool)

	// Pin removes frameID from the candidate set.
	Pin(frameID common.FrameID)

	// Unpin adds frameID to the candidate set with its reference bit set.
	Unpin(frameID common.FrameID)

	// Size returns the number of frames currently eligible for eviction.
	Size() int
}
