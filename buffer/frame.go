package buffer

import "pagestore/common"

// frame is one fixed-size slot of the buffer pool's in-memory array. It hosts
// at most one page at a time; when pageID is common.InvalidPageID the frame
// is idle and lives on the pool's free-list.
type frame struct {
	data     []byte
	pageID   common.PageID
	pinCount int
	dirty    bool
}

func newFrame() *frame {
	return &frame{
		data:   make([]byte, common.PageSize),
		pageID: common.InvalidPageID,
	}
}

func (f *frame) reset(pageID common.PageID) {
	f.pageID = pageID
	f.pinCount = 0
	f.dirty = false
	for i := range f.data {
		f.data[i] = 0
	}
}

// Frame is the handle a caller receives from Fetch/New. It exposes the raw
// page bytes; mutating them is only safe while the caller holds a pin on the
// page, and the caller must report that mutation through Unpin(dirty=true).
type Frame struct {
	*frame
}

// Data returns the raw page-sized byte buffer backing this frame.
func (f Frame) Data() []byte { return f.data }

// PageID returns the page-id currently resident in this frame.
func (f Frame) PageID() common.PageID { return f.pageID }

// PinCount returns the frame's current pin count.
func (f Frame) PinCount() int { return f.pinCount }

// IsDirty reports whether an Unpin has marked the frame dirty since its page
// was loaded. Flush does not clear it, so it can stay true after the content
// has been written to disk.
func (f Frame) IsDirty() bool { return f.dirty }
