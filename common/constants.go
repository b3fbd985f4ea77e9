package common

// PageSize is the fixed size, in bytes, of every page the disk manager reads
// and writes and of every frame the buffer pool holds.
const PageSize = 4096

// PageID identifies a logical page on disk. FrameID indexes the in-memory
// frame array of a buffer pool.
type PageID int32
type FrameID int32

// InvalidPageID is the sentinel page-id: never assigned to a real page, used
// to mark a frame that is not currently hosting any page and as a defined
// failure return for operations that take a page-id out-of-band.
const InvalidPageID PageID = -1
