// Package disk implements the on-disk block manager the buffer pool delegates
// all I/O and page-id allocation to. It is a collaborator at the boundary of
// the storage core: fixed-size pages in, fixed-size pages out.
package disk

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"pagestore/common"
)

// Manager is the disk manager surface the buffer pool depends on.
type Manager interface {
	ReadPage(pageID common.PageID, dest []byte) error
	WritePage(pageID common.PageID, data []byte) error
	AllocatePage() common.PageID
	DeallocatePage(pageID common.PageID)
	Close() error
}

var _ Manager = &FileManager{}

// FileManager is a Manager backed by a single flat file. Page zero is
// reserved for the manager's own bookkeeping (the free-list of deallocated
// pages) and is never handed out as an allocated page-id.
type FileManager struct {
	file       *os.File
	mu         sync.Mutex
	lastPageID common.PageID
	header     *header
}

// NewFileManager opens or creates path and returns a FileManager plus whether
// the file was freshly created.
func NewFileManager(path string) (*FileManager, bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, err
	}

	d := &FileManager{file: f}

	stat, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	if stat.Size() == 0 {
		d.lastPageID = 0 // page 0 is the reserved header page
		d.setHeader(header{freeListHead: common.InvalidPageID, freeListTail: common.InvalidPageID})
		return d, true, nil
	}

	d.lastPageID = common.PageID(stat.Size()/int64(common.PageSize) - 1)
	return d, false, nil
}

func (d *FileManager) ReadPage(pageID common.PageID, dest []byte) error {
	if len(dest) != common.PageSize {
		return fmt.Errorf("disk: destination buffer must be %d bytes, got %d", common.PageSize, len(dest))
	}

	if _, err := d.file.Seek(int64(pageID)*int64(common.PageSize), io.SeekStart); err != nil {
		return err
	}

	// a page that was allocated but never flushed has no bytes on disk yet;
	// reading it back is defined to yield zeros, same as a freshly New'd frame.
	n, err := io.ReadFull(d.file, dest)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		for i := n; i < common.PageSize; i++ {
			dest[i] = 0
		}
		return nil
	}
	if err != nil {
		return err
	}
	if n != common.PageSize {
		panic(fmt.Sprintf("disk: partial page read for page %d", pageID))
	}
	return nil
}

func (d *FileManager) WritePage(pageID common.PageID, data []byte) error {
	if len(data) != common.PageSize {
		return fmt.Errorf("disk: page data must be %d bytes, got %d", common.PageSize, len(data))
	}

	if _, err := d.file.Seek(int64(pageID)*int64(common.PageSize), io.SeekStart); err != nil {
		return err
	}

	n, err := d.file.Write(data)
	if err != nil {
		return err
	}
	if n != common.PageSize {
		panic("disk: written bytes are not equal to page size")
	}
	return nil
}

// AllocatePage returns a fresh page-id, reusing a deallocated one when the
// free-list is non-empty.
func (d *FileManager) AllocatePage() common.PageID {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pid := d.popFreeList(); pid != common.InvalidPageID {
		return pid
	}

	d.lastPageID++
	return d.lastPageID
}

// DeallocatePage returns pageID to the free-list so a later AllocatePage may
// reuse its on-disk slot.
func (d *FileManager) DeallocatePage(pageID common.PageID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.getHeader()
	if h.freeListHead == common.InvalidPageID {
		h.freeListHead = pageID
		h.freeListTail = pageID
		d.setHeader(h)
		return
	}

	buf := make([]byte, common.PageSize)
	common.PanicIfErr(d.ReadPage(h.freeListTail, buf))

	binary.BigEndian.PutUint32(buf, uint32(pageID))
	common.PanicIfErr(d.WritePage(h.freeListTail, buf))

	h.freeListTail = pageID
	d.setHeader(h)
}

func (d *FileManager) Close() error {
	return d.file.Close()
}

func (d *FileManager) popFreeList() common.PageID {
	h := d.getHeader()
	if h.freeListHead == common.InvalidPageID {
		return common.InvalidPageID
	}

	pid := h.freeListHead
	if h.freeListHead == h.freeListTail {
		h.freeListHead, h.freeListTail = common.InvalidPageID, common.InvalidPageID
		d.setHeader(h)
		return pid
	}

	buf := make([]byte, common.PageSize)
	common.PanicIfErr(d.ReadPage(h.freeListHead, buf))

	h.freeListHead = common.PageID(binary.BigEndian.Uint32(buf))
	d.setHeader(h)
	return pid
}

// header is the bookkeeping record persisted in page zero.
type header struct {
	freeListHead common.PageID
	freeListTail common.PageID
}

func (d *FileManager) getHeader() header {
	if d.header != nil {
		return *d.header
	}

	buf := make([]byte, common.PageSize)
	common.PanicIfErr(d.ReadPage(0, buf))

	h := header{
		freeListHead: common.PageID(int32(binary.BigEndian.Uint32(buf))),
		freeListTail: common.PageID(int32(binary.BigEndian.Uint32(buf[4:]))),
	}
	d.header = &h
	return h
}

func (d *FileManager) setHeader(h header) {
	d.header = &h
	buf := make([]byte, common.PageSize)
	binary.BigEndian.PutUint32(buf, uint32(int32(h.freeListHead)))
	binary.BigEndian.PutUint32(buf[4:], uint32(int32(h.freeListTail)))
	common.PanicIfErr(d.WritePage(0, buf))
}
