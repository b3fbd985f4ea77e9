// Package hash implements a disk-resident linear-probing hash table built
// entirely out of pages obtained through a buffer pool: a header page
// holding the directory of block page-ids, and block pages each holding a
// fixed-size array of slots. See HashTable for the operations this
// provides.
package hash

import (
	"sync"

	"pagestore/buffer"
	"pagestore/common"
	"pagestore/transaction"
)

// Comparator orders two keys the way a SQL comparator would: negative if
// a < b, zero if equal, positive if a > b. Only the zero case matters to
// this index; probing never needs an order, only equality.
type Comparator[K any] func(a, b K) int

// HashFunc computes a key's hash. Its low bits, taken modulo the table's
// current logical size, select the key's home slot.
type HashFunc[K any] func(key K) uint32

// HashTable is a linear-probing hash index whose directory and buckets are
// themselves pages managed by a buffer.Pool. A single instance is identified
// by its header page-id, which changes on every Resize - callers must always
// go through the HashTable methods rather than caching the header page-id
// themselves, exactly because Resize replaces it.
type HashTable[K any, V comparable] struct {
	name       string
	pool       *buffer.Pool
	comparator Comparator[K]
	hashFn     HashFunc[K]
	keySer     Serializer[K]
	valSer     Serializer[V]

	latch        sync.RWMutex
	headerPageID common.PageID

	// blockLocks serializes bitmap mutation on a given block page. The index
	// latch is only held in shared mode by Get/Insert/Remove, so without a
	// per-block lock two concurrent inserts into the same block could race
	// on the occupied/readable bitmap bytes.
	blockLocks *common.KeyMutex[common.PageID]
}

// NewHashTable constructs an index with roughly numBuckets initial slots
// (rounded by Resize's doubling) and bootstraps its header page through
// pool.
func NewHashTable[K any, V comparable](
	name string,
	pool *buffer.Pool,
	comparator Comparator[K],
	numBuckets int,
	hashFn HashFunc[K],
	keySer Serializer[K],
	valSer Serializer[V],
) *HashTable[K, V] {
	ht := &HashTable[K, V]{
		name:       name,
		pool:       pool,
		comparator: comparator,
		hashFn:     hashFn,
		keySer:     keySer,
		valSer:     valSer,
		blockLocks: &common.KeyMutex[common.PageID]{},
	}

	fr, pageID := pool.New()
	if fr == nil {
		panic("hash: could not allocate header page for new table")
	}
	hp := NewHeaderPage(fr.Data())
	hp.SetPageID(pageID)
	ht.headerPageID = pageID
	pool.Unpin(pageID, true)

	ht.resize(numBuckets/2 + 1)
	return ht
}

func (ht *HashTable[K, V]) blockArraySize() int {
	return BlockArraySize(ht.keySer.Size() + ht.valSer.Size())
}

// fetchHeader returns the current header page, pinned, along with its
// decoded view. Callers must Unpin(headerPageID, dirty) exactly once.
func (ht *HashTable[K, V]) fetchHeader() (common.PageID, *HeaderPage) {
	headerID := ht.headerPageID
	fr, err := ht.pool.Fetch(headerID)
	common.PanicIfErr(err)
	if fr == nil {
		panic("hash: could not fetch header page")
	}
	return headerID, NewHeaderPage(fr.Data())
}

func (ht *HashTable[K, V]) fetchBlock(pageID common.PageID) *BlockPage[K, V] {
	fr, err := ht.pool.Fetch(pageID)
	common.PanicIfErr(err)
	if fr == nil {
		panic("hash: could not fetch block page")
	}
	return NewBlockPage[K, V](fr.Data(), ht.keySer, ht.valSer)
}

// GetSize returns the table's current logical number of slots.
func (ht *HashTable[K, V]) GetSize() int {
	headerID, hp := ht.fetchHeader()
	size := hp.GetSize()
	ht.pool.Unpin(headerID, false)
	return int(size)
}

// probeLocation resolves a global slot index p to the block page-id that
// owns it and the slot's index within that block.
func (ht *HashTable[K, V]) probeLocation(hp *HeaderPage, p int) (common.PageID, int) {
	arraySize := ht.blockArraySize()
	return hp.GetBlockPageID(uint32(p / arraySize)), p % arraySize
}

// GetValue returns every value stored under key. The second return is true
// iff at least one was found.
func (ht *HashTable[K, V]) GetValue(_ transaction.Transaction, key K) ([]V, bool) {
	ht.latch.RLock()
	defer ht.latch.RUnlock()

	size := ht.GetSize()
	home := int(ht.hashFn(key) % uint32(size))

	var results []V
	p := home
	for {
		cont := ht.probeGet(p, key, &results)
		if !cont {
			break
		}
		p = (p + 1) % size
		if p == home {
			break
		}
	}

	return results, len(results) > 0
}

// probeGet visits slot p, appending key's value to results if present, and
// reports whether the probe chain should continue (false once it hits a
// truly empty slot).
func (ht *HashTable[K, V]) probeGet(p int, key K, results *[]V) bool {
	headerID, hp := ht.fetchHeader()
	blockID, slot := ht.probeLocation(hp, p)
	ht.pool.Unpin(headerID, false)

	bp := ht.fetchBlock(blockID)
	defer ht.pool.Unpin(blockID, false)

	if !bp.IsOccupied(slot) {
		return false
	}
	if bp.IsReadable(slot) && ht.comparator(key, bp.KeyAt(slot)) == 0 {
		*results = append(*results, bp.ValueAt(slot))
	}
	return true
}

// insertOutcome is the result of attempting a slot-level insert, or of a
// whole probe chain that found no free slot (insertFullBlock).
type insertOutcome int

const (
	insertCollision insertOutcome = iota
	insertDuplicate
	insertedOK
	insertFullBlock
)

// Insert adds (key, value) to the table. It returns false without inserting
// if the pair already exists; it grows the table (via Resize) and retries
// if every slot along key's probe chain is occupied and readable by a
// different pair.
func (ht *HashTable[K, V]) Insert(txn transaction.Transaction, key K, value V) bool {
	for {
		ht.latch.RLock()
		size := ht.GetSize()
		home := int(ht.hashFn(key) % uint32(size))

		p := home
		outcome := insertCollision
		for {
			outcome = ht.probeInsert(p, key, value)
			if outcome != insertCollision {
				break
			}
			p = (p + 1) % size
			if p == home {
				outcome = insertFullBlock
				break
			}
		}
		ht.latch.RUnlock()

		switch outcome {
		case insertedOK:
			return true
		case insertDuplicate:
			return false
		default:
			ht.Resize(txn, size)
			// restart from the beginning, as the spec's probe semantics require.
		}
	}
}

func (ht *HashTable[K, V]) probeInsert(p int, key K, value V) insertOutcome {
	headerID, hp := ht.fetchHeader()
	blockID, slot := ht.probeLocation(hp, p)
	ht.pool.Unpin(headerID, false)

	release := ht.blockLocks.Lock(blockID)
	defer release()

	bp := ht.fetchBlock(blockID)

	if bp.IsReadable(slot) && ht.comparator(key, bp.KeyAt(slot)) == 0 && bp.ValueAt(slot) == value {
		ht.pool.Unpin(blockID, false)
		return insertDuplicate
	}

	if !bp.IsReadable(slot) {
		bp.Insert(slot, key, value)
		ht.pool.Unpin(blockID, true)
		return insertedOK
	}

	ht.pool.Unpin(blockID, false)
	return insertCollision
}

// Remove deletes (key, value) from the table. It returns false if the pair
// is not found.
func (ht *HashTable[K, V]) Remove(_ transaction.Transaction, key K, value V) bool {
	ht.latch.RLock()
	defer ht.latch.RUnlock()

	size := ht.GetSize()
	home := int(ht.hashFn(key) % uint32(size))

	p := home
	for {
		removed, stop := ht.probeRemove(p, key, value)
		if removed {
			return true
		}
		if stop {
			return false
		}
		p = (p + 1) % size
		if p == home {
			return false
		}
	}
}

func (ht *HashTable[K, V]) probeRemove(p int, key K, value V) (removed, stop bool) {
	headerID, hp := ht.fetchHeader()
	blockID, slot := ht.probeLocation(hp, p)
	ht.pool.Unpin(headerID, false)

	release := ht.blockLocks.Lock(blockID)
	defer release()

	bp := ht.fetchBlock(blockID)

	if !bp.IsOccupied(slot) {
		ht.pool.Unpin(blockID, false)
		return false, true
	}
	if bp.IsReadable(slot) && ht.comparator(key, bp.KeyAt(slot)) == 0 && bp.ValueAt(slot) == value {
		bp.Remove(slot)
		ht.pool.Unpin(blockID, true)
		return true, false
	}

	ht.pool.Unpin(blockID, false)
	return false, false
}

// Resize grows the table to 2*currentSize slots. It is an exclusive
// operation: every in-flight shared operation must drain before it starts,
// and no Get/Insert/Remove can proceed until it finishes.
func (ht *HashTable[K, V]) Resize(txn transaction.Transaction, currentSize int) {
	ht.latch.Lock()
	defer ht.latch.Unlock()
	ht.resize(currentSize)
}

// resize does the actual work of Resize without taking the exclusive latch,
// so the constructor can call it before the table is visible to anyone else.
func (ht *HashTable[K, V]) resize(currentSize int) {
	newSize := 2 * currentSize
	arraySize := ht.blockArraySize()

	newHeaderFr, newHeaderID := ht.pool.New()
	if newHeaderFr == nil {
		panic("hash: could not allocate new header page during resize")
	}
	newHeader := NewHeaderPage(newHeaderFr.Data())
	newHeader.SetPageID(newHeaderID)

	numBlocks := (newSize + arraySize - 1) / arraySize
	for i := 0; i < numBlocks; i++ {
		blockFr, blockID := ht.pool.New()
		if blockFr == nil {
			panic("hash: could not allocate block page during resize")
		}
		bp := NewBlockPage[K, V](blockFr.Data(), ht.keySer, ht.valSer)
		bp.Clear()
		newHeader.AddBlockPageID(blockID)
		ht.pool.Unpin(blockID, true)
	}
	newHeader.SetSize(uint32(newSize))
	ht.pool.Unpin(newHeaderID, true)

	oldHeaderID := ht.headerPageID
	ht.headerPageID = newHeaderID

	oldHeaderFr, err := ht.pool.Fetch(oldHeaderID)
	common.PanicIfErr(err)
	if oldHeaderFr == nil {
		panic("hash: could not fetch old header page during resize")
	}
	oldHeader := NewHeaderPage(oldHeaderFr.Data())
	oldNumBlocks := oldHeader.NumBlocks()
	oldBlockIDs := make([]common.PageID, oldNumBlocks)
	for i := uint32(0); i < oldNumBlocks; i++ {
		oldBlockIDs[i] = oldHeader.GetBlockPageID(i)
	}
	ht.pool.Unpin(oldHeaderID, false)

	for _, oldBlockID := range oldBlockIDs {
		ht.rehashBlock(oldBlockID, newSize)
		ht.pool.Delete(oldBlockID)
	}
	ht.pool.Delete(oldHeaderID)
}

// rehashBlock walks every readable slot of the old block at oldBlockID and
// reinserts it into the (already-switched-to) new table. The source index
// guarantees every such pair is unique, so no duplicate check is needed.
func (ht *HashTable[K, V]) rehashBlock(oldBlockID common.PageID, newSize int) {
	fr, err := ht.pool.Fetch(oldBlockID)
	common.PanicIfErr(err)
	if fr == nil {
		panic("hash: could not fetch old block page during resize")
	}
	bp := NewBlockPage[K, V](fr.Data(), ht.keySer, ht.valSer)

	type pair struct {
		key K
		val V
	}
	var pairs []pair
	for i := 0; i < bp.SlotsNum(); i++ {
		if bp.IsReadable(i) {
			pairs = append(pairs, pair{bp.KeyAt(i), bp.ValueAt(i)})
		}
	}
	ht.pool.Unpin(oldBlockID, false)

	for _, pr := range pairs {
		home := int(ht.hashFn(pr.key) % uint32(newSize))
		p := home
		for {
			outcome := ht.probeInsert(p, pr.key, pr.val)
			if outcome == insertedOK {
				break
			}
			p = (p + 1) % newSize
		}
	}
}
