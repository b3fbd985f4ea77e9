// Package buffer implements the buffer pool manager: the single mediator
// between every other component and the on-disk heap. It owns a fixed array
// of page-sized frames, a page table mapping resident page-ids to frames, a
// free-list of idle frames, and a Replacer used once the free-list is empty.
package buffer

import (
	"fmt"
	"sync"

	"pagestore/common"
	"pagestore/disk"
	"pagestore/disk/wal"
)

// CallbackType distinguishes the two points at which a buffer pool operation
// invokes its observer callback, for test instrumentation.
type CallbackType int

const (
	Before CallbackType = iota
	After
)

// Callback is invoked around every public buffer pool operation with the
// page-id the operation concerns (InvalidPageID for New and FlushAll, which
// don't have one until they return).
type Callback func(cb CallbackType, pageID common.PageID)

// Pool is the buffer pool manager surface everything else in the storage
// core, including the hash table, depends on.
type Pool struct {
	poolSize   int
	frames     []*frame
	pageTable  map[common.PageID]common.FrameID
	freeList   []common.FrameID
	replacer   Replacer
	disk       disk.Manager
	logManager wal.LogManager
	mu         sync.Mutex
	Callback   Callback
}

// NewPool creates a buffer pool of poolSize frames backed by diskManager.
// logManager is retained but never called; it is a placeholder for future
// WAL integration (see pagestore/disk/wal). A nil logManager defaults to a noop.
func NewPool(poolSize int, diskManager disk.Manager, logManager wal.LogManager) *Pool {
	if logManager == nil {
		logManager = wal.NoopLM
	}

	frames := make([]*frame, poolSize)
	freeList := make([]common.FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = newFrame()
		freeList[i] = common.FrameID(i)
	}

	return &Pool{
		poolSize:   poolSize,
		frames:     frames,
		pageTable:  make(map[common.PageID]common.FrameID),
		freeList:   freeList,
		replacer:   NewClockReplacer(poolSize),
		disk:       diskManager,
		logManager: logManager,
	}
}

// GetPoolSize returns the number of frames in the pool.
func (p *Pool) GetPoolSize() int {
	return p.poolSize
}

func (p *Pool) invoke(cbType CallbackType, pageID common.PageID) {
	if p.Callback != nil {
		p.Callback(cbType, pageID)
	}
}

// Fetch returns the frame hosting pageID, reading it from disk on a miss.
// It returns (nil, nil) if the page is not resident and no frame is free or
// evictable. A non-nil error means the disk read, or the write-back of a
// dirty page being evicted to make room, failed.
func (p *Pool) Fetch(pageID common.PageID) (*Frame, error) {
	p.invoke(Before, pageID)
	defer p.invoke(After, pageID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.pageTable[pageID]; ok {
		fr := p.frames[frameID]
		if fr.pinCount == 0 {
			p.replacer.Pin(frameID)
		}
		fr.pinCount++
		return &Frame{fr}, nil
	}

	frameID, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}
	if frameID < 0 {
		return nil, nil
	}

	fr := p.frames[frameID]
	fr.reset(pageID)
	fr.pinCount = 1

	if err := p.disk.ReadPage(pageID, fr.data); err != nil {
		fr.reset(common.InvalidPageID)
		p.freeList = append(p.freeList, frameID)
		return nil, fmt.Errorf("buffer: read page %d: %w", pageID, err)
	}

	p.pageTable[pageID] = frameID
	return &Frame{fr}, nil
}

// New allocates a fresh page-id from the disk manager and returns a pinned,
// zeroed frame for it. It returns (nil, InvalidPageID) if no frame is free
// or evictable.
func (p *Pool) New() (*Frame, common.PageID) {
	p.invoke(Before, common.InvalidPageID)

	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, err := p.acquireFrame()
	if err != nil || frameID < 0 {
		p.invoke(After, common.InvalidPageID)
		return nil, common.InvalidPageID
	}

	pageID := p.disk.AllocatePage()

	fr := p.frames[frameID]
	fr.reset(pageID)
	fr.pinCount = 1
	p.pageTable[pageID] = frameID

	p.invoke(After, pageID)
	return &Frame{fr}, pageID
}

// Unpin decrements pageID's pin count and, if it reaches zero, hands the
// frame back to the replacer as an eviction candidate. It returns false if
// the page is not resident or its pin count is already zero.
func (p *Pool) Unpin(pageID common.PageID, isDirty bool) bool {
	p.invoke(Before, pageID)
	defer p.invoke(After, pageID)

	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return false
	}

	fr := p.frames[frameID]
	if fr.pinCount <= 0 {
		return false
	}

	fr.dirty = fr.dirty || isDirty
	fr.pinCount--
	if fr.pinCount == 0 {
		p.replacer.Unpin(frameID)
	}
	return true
}

// Flush writes pageID's frame to disk if it is dirty. It returns false if
// pageID is InvalidPageID or not resident. The dirty flag is deliberately not
// cleared on a successful flush; it stays set until the frame is reset for
// another page or the page is deleted.
func (p *Pool) Flush(pageID common.PageID) (bool, error) {
	p.invoke(Before, pageID)
	defer p.invoke(After, pageID)

	if pageID == common.InvalidPageID {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return false, nil
	}

	fr := p.frames[frameID]
	if fr.dirty {
		if err := p.disk.WritePage(pageID, fr.data); err != nil {
			return false, err
		}
	}
	return true, nil
}

// FlushAll flushes every resident page.
func (p *Pool) FlushAll() error {
	p.invoke(Before, common.InvalidPageID)
	defer p.invoke(After, common.InvalidPageID)

	p.mu.Lock()
	pageIDs := make([]common.PageID, 0, len(p.pageTable))
	for pid := range p.pageTable {
		pageIDs = append(pageIDs, pid)
	}
	p.mu.Unlock()

	for _, pid := range pageIDs {
		if _, err := p.Flush(pid); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes pageID from the pool and deallocates it on disk. It returns
// true (a no-op) if the page isn't resident, and false if it is pinned.
func (p *Pool) Delete(pageID common.PageID) (bool, error) {
	p.invoke(Before, pageID)
	defer p.invoke(After, pageID)

	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.pageTable[pageID]
	if !ok {
		return true, nil
	}

	fr := p.frames[frameID]
	if fr.pinCount > 0 {
		return false, nil
	}

	p.disk.DeallocatePage(pageID)
	if fr.dirty {
		if err := p.disk.WritePage(pageID, fr.data); err != nil {
			return false, err
		}
	}

	delete(p.pageTable, pageID)
	fr.reset(common.InvalidPageID)
	// a free-list frame is not an eviction candidate.
	p.replacer.Pin(frameID)
	p.freeList = append(p.freeList, frameID)
	return true, nil
}

// acquireFrame returns a frame ready to host a new page-id: popped from the
// free-list if one is idle, otherwise evicted via the replacer. It always
// returns the frame it prepared directly, never a stale free-list entry.
// Must be called with p.mu held.
func (p *Pool) acquireFrame() (common.FrameID, error) {
	if n := len(p.freeList); n > 0 {
		frameID := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return frameID, nil
	}

	frameID, ok := p.replacer.Victim()
	if !ok {
		return -1, nil
	}

	fr := p.frames[frameID]
	if fr.pageID != common.InvalidPageID {
		if fr.dirty {
			if err := p.disk.WritePage(fr.pageID, fr.data); err != nil {
				// the frame is still chosen as a victim from the replacer's
				// point of view; leave the page table entry intact so the
				// caller can retry rather than silently losing the page.
				return -1, fmt.Errorf("buffer: evict page %d: %w", fr.pageID, err)
			}
		}
		delete(p.pageTable, fr.pageID)
	}

	return frameID, nil
}
