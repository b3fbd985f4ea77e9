package hash

import "pagestore/common"

// BlockPage is the decoded view of one on-disk hash table block: two
// parallel bitmaps (occupied, readable) followed by a packed array of
// (key, value) slots. Bit i of byte b in a bitmap corresponds to slot
// 8*b+i, matching the persisted layout described by the index's wire
// format.
//
// Mutating a BlockPage (Insert/Remove/Clear) is only safe while the caller
// holds the block's per-page lock; see HashTable.blockLocks. Reads
// (IsOccupied/IsReadable/KeyAt/ValueAt) are safe without it because they
// never observe a torn write - every mutation here is a single byte or a
// slot that is not yet marked readable.
type BlockPage[K any, V comparable] struct {
	data   []byte
	keySer Serializer[K]
	valSer Serializer[V]
	slots  int
}

// BlockArraySize returns how many (key, value) slots of the given combined
// size fit in one page alongside their occupied/readable bitmaps.
func BlockArraySize(slotSize int) int {
	n := common.PageSize / slotSize
	for n > 0 && 2*bitmapBytes(n)+n*slotSize > common.PageSize {
		n--
	}
	return n
}

func bitmapBytes(n int) int { return (n + 7) / 8 }

// NewBlockPage wraps a frame's raw bytes as a block page view.
func NewBlockPage[K any, V comparable](data []byte, keySer Serializer[K], valSer Serializer[V]) *BlockPage[K, V] {
	slotSize := keySer.Size() + valSer.Size()
	return &BlockPage[K, V]{
		data:   data,
		keySer: keySer,
		valSer: valSer,
		slots:  BlockArraySize(slotSize),
	}
}

func (b *BlockPage[K, V]) SlotsNum() int { return b.slots }

func (b *BlockPage[K, V]) readableBitmap() []byte {
	off := bitmapBytes(b.slots)
	return b.data[off : 2*off]
}

func (b *BlockPage[K, V]) occupiedBitmap() []byte {
	return b.data[:bitmapBytes(b.slots)]
}

func (b *BlockPage[K, V]) slotOffset(i int) int {
	return 2*bitmapBytes(b.slots) + i*(b.keySer.Size()+b.valSer.Size())
}

func testBit(bitmap []byte, i int) bool {
	return bitmap[i/8]&(1<<(uint(i)%8)) != 0
}

func setBit(bitmap []byte, i int) {
	bitmap[i/8] |= 1 << (uint(i) % 8)
}

func clearBit(bitmap []byte, i int) {
	bitmap[i/8] &^= 1 << (uint(i) % 8)
}

func (b *BlockPage[K, V]) IsOccupied(i int) bool {
	return testBit(b.occupiedBitmap(), i)
}

func (b *BlockPage[K, V]) IsReadable(i int) bool {
	return testBit(b.readableBitmap(), i)
}

func (b *BlockPage[K, V]) KeyAt(i int) K {
	off := b.slotOffset(i)
	return b.keySer.Deserialize(b.data[off : off+b.keySer.Size()])
}

func (b *BlockPage[K, V]) ValueAt(i int) V {
	off := b.slotOffset(i) + b.keySer.Size()
	return b.valSer.Deserialize(b.data[off : off+b.valSer.Size()])
}

// Insert writes (key, value) into slot i, marking it occupied and readable.
// It returns false without writing if the slot is already readable -
// callers are expected to have already checked for the duplicate and
// collision cases that take precedence over this.
func (b *BlockPage[K, V]) Insert(i int, key K, value V) bool {
	if b.IsReadable(i) {
		return false
	}
	off := b.slotOffset(i)
	copy(b.data[off:], b.keySer.Serialize(key))
	copy(b.data[off+b.keySer.Size():], b.valSer.Serialize(value))

	setBit(b.occupiedBitmap(), i)
	setBit(b.readableBitmap(), i)
	return true
}

// Remove tombstones slot i: occupied stays set, readable is cleared.
func (b *BlockPage[K, V]) Remove(i int) {
	if b.IsOccupied(i) {
		clearBit(b.readableBitmap(), i)
	}
}

// Clear resets both bitmaps to all-zero, leaving every slot unoccupied.
func (b *BlockPage[K, V]) Clear() {
	bm := 2 * bitmapBytes(b.slots)
	for i := 0; i < bm; i++ {
		b.data[i] = 0
	}
}
