package hash

import "pagestore/common"

// HeaderPage is the decoded view of the on-disk hash table directory: the
// table's own page-id, its logical size (number of addressable slots), and
// the ordered list of block page-ids that cover those slots.
//
// Layout: [pageID:4][size:4][numBlocks:4][blockID...].
type HeaderPage struct {
	data []byte
}

const (
	headerPageIDOffset   = 0
	headerSizeOffset     = 4
	headerNumBlocksOffset = 8
	headerBlockIDsOffset = 12
)

// MaxBlocksPerHeader is the most block page-ids a single header page can
// hold; Resize must never need more than this for the sizes this index
// supports.
func MaxBlocksPerHeader() int {
	return (common.PageSize - headerBlockIDsOffset) / 4
}

func NewHeaderPage(data []byte) *HeaderPage {
	return &HeaderPage{data: data}
}

func (h *HeaderPage) SetPageID(id common.PageID) {
	putInt32(h.data[headerPageIDOffset:], int32(id))
}

func (h *HeaderPage) GetPageID() common.PageID {
	return common.PageID(getInt32(h.data[headerPageIDOffset:]))
}

func (h *HeaderPage) SetSize(size uint32) {
	putInt32(h.data[headerSizeOffset:], int32(size))
}

func (h *HeaderPage) GetSize() uint32 {
	return uint32(getInt32(h.data[headerSizeOffset:]))
}

func (h *HeaderPage) NumBlocks() uint32 {
	return uint32(getInt32(h.data[headerNumBlocksOffset:]))
}

// AddBlockPageID appends id to the block page-id list and bumps NumBlocks.
func (h *HeaderPage) AddBlockPageID(id common.PageID) {
	n := h.NumBlocks()
	off := headerBlockIDsOffset + int(n)*4
	putInt32(h.data[off:], int32(id))
	putInt32(h.data[headerNumBlocksOffset:], int32(n+1))
}

func (h *HeaderPage) GetBlockPageID(i uint32) common.PageID {
	off := headerBlockIDsOffset + int(i)*4
	return common.PageID(getInt32(h.data[off:]))
}

func putInt32(dst []byte, v int32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func getInt32(src []byte) int32 {
	return int32(src[0])<<24 | int32(src[1])<<16 | int32(src[2])<<8 | int32(src[3])
}
