package hash

import (
	"os"
	"testing"

	"pagestore/buffer"
	"pagestore/common"
	"pagestore/disk"
	"pagestore/transaction"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, numBuckets int, hashFn HashFunc[int32]) *HashTable[int32, int32] {
	t.Helper()
	path := "test_" + uuid.NewString() + ".db"
	dm, _, err := disk.NewFileManager(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		dm.Close()
		os.Remove(path)
	})

	pool := buffer.NewPool(16, dm, nil)
	comparator := func(a, b int32) int { return int(a - b) }
	return NewHashTable[int32, int32]("test", pool, comparator, numBuckets, hashFn, Int32Serializer{}, Int32Serializer{})
}

func constantHash(bucket uint32) HashFunc[int32] {
	return func(int32) uint32 { return bucket }
}

func identityHash() HashFunc[int32] {
	return func(k int32) uint32 { return uint32(k) }
}

func TestHashTable_InsertThenGetValue(t *testing.T) {
	ht := newTestTable(t, 8, identityHash())
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 5, 500))
	vals, ok := ht.GetValue(txn, 5)
	require.True(t, ok)
	require.Contains(t, vals, int32(500))
}

func TestHashTable_InsertDuplicateFails(t *testing.T) {
	ht := newTestTable(t, 8, identityHash())
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 5, 500))
	require.False(t, ht.Insert(txn, 5, 500))
}

func TestHashTable_SameKeyDifferentValueBothReadable(t *testing.T) {
	ht := newTestTable(t, 8, constantHash(0))
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 1, 10))
	require.True(t, ht.Insert(txn, 1, 20))

	vals, ok := ht.GetValue(txn, 1)
	require.True(t, ok)
	require.ElementsMatch(t, []int32{10, 20}, vals)
}

func TestHashTable_RemoveThenGetValueMisses(t *testing.T) {
	ht := newTestTable(t, 8, identityHash())
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 5, 500))
	require.True(t, ht.Remove(txn, 5, 500))

	vals, ok := ht.GetValue(txn, 5)
	require.False(t, ok)
	require.Empty(t, vals)
}

func TestHashTable_RemoveAbsentFails(t *testing.T) {
	ht := newTestTable(t, 8, identityHash())
	txn := transaction.TxnNoop()
	require.False(t, ht.Remove(txn, 5, 500))
}

func TestHashTable_InsertProbesSameBucketInOrder(t *testing.T) {
	// scenario: four keys A,B,C,D all hash to bucket 0; they should occupy
	// consecutive slots 0..3 in insertion order.
	ht := newTestTable(t, 4, constantHash(0))
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 1, 100)) // A
	require.True(t, ht.Insert(txn, 2, 200)) // B
	require.True(t, ht.Insert(txn, 3, 300)) // C
	require.True(t, ht.Insert(txn, 4, 400)) // D

	vals, ok := ht.GetValue(txn, 4)
	require.True(t, ok)
	require.Contains(t, vals, int32(400))

	headerID, hp := ht.fetchHeader()
	blockID, _ := ht.probeLocation(hp, 0)
	ht.pool.Unpin(headerID, false)
	bp := ht.fetchBlock(blockID)
	for slot, key := range []int32{1, 2, 3, 4} {
		require.Equal(t, key, bp.KeyAt(slot))
	}
	ht.pool.Unpin(blockID, false)
}

func TestHashTable_TombstoneDoesNotBreakProbing(t *testing.T) {
	// A and B both hash to bucket 0; A lands on slot 0, B probes to slot 1.
	// Removing A must not stop a later lookup for B from reaching slot 1.
	ht := newTestTable(t, 8, constantHash(0))
	txn := transaction.TxnNoop()

	require.True(t, ht.Insert(txn, 1, 111)) // A -> slot 0
	require.True(t, ht.Insert(txn, 2, 222)) // B -> slot 1

	require.True(t, ht.Remove(txn, 1, 111))

	vals, ok := ht.GetValue(txn, 2)
	require.True(t, ok)
	require.Contains(t, vals, int32(222))
}

func TestHashTable_ResizeOnFullProbeChain(t *testing.T) {
	ht := newTestTable(t, 2, constantHash(0))
	txn := transaction.TxnNoop()

	sizeBefore := ht.GetSize() // the initial logical size; every key hashes to bucket 0
	for i := int32(0); i < int32(sizeBefore); i++ {
		require.True(t, ht.Insert(txn, i, i*10))
	}

	// every slot along bucket 0's chain for this size is now occupied and
	// readable with a different key, so this insert must grow the table.
	last := int32(sizeBefore)
	require.True(t, ht.Insert(txn, last, last*10))

	require.Equal(t, 2*sizeBefore, ht.GetSize())

	for i := int32(0); i <= last; i++ {
		vals, ok := ht.GetValue(txn, i)
		require.True(t, ok)
		require.Contains(t, vals, i*10)
	}
}

func TestHashTable_ResizeDoublesAndPreservesReadablePairs(t *testing.T) {
	ht := newTestTable(t, 16, identityHash())
	txn := transaction.TxnNoop()

	for i := int32(0); i < 10; i++ {
		require.True(t, ht.Insert(txn, i, i*10))
	}

	sizeBefore := ht.GetSize()
	ht.Resize(txn, sizeBefore)
	require.Equal(t, 2*sizeBefore, ht.GetSize())

	for i := int32(0); i < 10; i++ {
		vals, ok := ht.GetValue(txn, i)
		require.True(t, ok)
		require.Contains(t, vals, i*10)
	}
}

func TestHashTable_NewHeaderPageReplacesOldOnResize(t *testing.T) {
	ht := newTestTable(t, 4, identityHash())
	before := ht.headerPageID

	ht.Resize(transaction.TxnNoop(), ht.GetSize())
	require.NotEqual(t, before, ht.headerPageID)

	// the old header page must have been deallocated, not merely abandoned:
	// it is no longer resident, so Flush reports false.
	ok, err := ht.pool.Flush(before)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlockPage_ReadableImpliesOccupied(t *testing.T) {
	data := make([]byte, common.PageSize)
	bp := NewBlockPage[int32, int32](data, Int32Serializer{}, Int32Serializer{})

	require.True(t, bp.Insert(0, 7, 70))
	require.True(t, bp.IsOccupied(0))
	require.True(t, bp.IsReadable(0))

	bp.Remove(0)
	require.True(t, bp.IsOccupied(0))
	require.False(t, bp.IsReadable(0))
}
