package buffer

import (
	"sync"

	"pagestore/common"
)

// ClockReplacer implements the clock (second-chance) replacement policy: an
// approximation of LRU that avoids keeping a full recency order. Each frame
// carries a pinned bit and a referenced bit; a clock hand sweeps the frame
// array looking for an unpinned, unreferenced frame, clearing reference bits
// as it passes them.
type ClockReplacer struct {
	pinned     []bool
	referenced []bool
	hand       int
	size       int
	mu         sync.Mutex
}

var _ Replacer = &ClockReplacer{}

// NewClockReplacer creates a replacer over numFrames frames, all initially
// pinned (matching a freshly constructed buffer pool, where every frame
// starts on the free-list rather than as an eviction candidate).
func NewClockReplacer(numFrames int) *ClockReplacer {
	pinned := make([]bool, numFrames)
	for i := range pinned {
		pinned[i] = true
	}
	return &ClockReplacer{
		pinned:     pinned,
		referenced: make([]bool, numFrames),
	}
}

func (c *ClockReplacer) Victim() (common.FrameID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.size == 0 {
		return 0, false
	}

	for {
		if !c.pinned[c.hand] && !c.referenced[c.hand] {
			victim := c.hand
			c.pinned[victim] = true
			c.referenced[victim] = true
			c.size--
			c.advance()
			return common.FrameID(victim), true
		}

		if !c.pinned[c.hand] && c.referenced[c.hand] {
			c.referenced[c.hand] = false
		}

		c.advance()
	}
}

func (c *ClockReplacer) advance() {
	c.hand = (c.hand + 1) % len(c.pinned)
}

func (c *ClockReplacer) Pin(frameID common.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pinned[frameID] {
		c.size--
	}
	c.pinned[frameID] = true
	c.referenced[frameID] = true
}

func (c *ClockReplacer) Unpin(frameID common.FrameID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pinned[frameID] {
		c.size++
	}
	c.pinned[frameID] = false
	c.referenced[frameID] = true
}

func (c *ClockReplacer) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
