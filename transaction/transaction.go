package transaction

import "sync/atomic"

// Transaction is an opaque handle threaded through index operations. The storage
// core never inspects it; it exists so a future transaction manager can attach
// locking and undo state without changing the signatures of the hash table.
type Transaction interface {
	GetID() TxnID
}

type TxnID uint64

var noOpTxnCounter uint64

// TxnNoop returns a Transaction with a freshly allocated id and no behavior. It
// is what callers pass when there is no surrounding transaction context, such
// as from tests.
func TxnNoop() Transaction {
	id := atomic.AddUint64(&noOpTxnCounter, 1)
	return txnNoop{id: TxnID(id)}
}

var _ Transaction = txnNoop{}

type txnNoop struct {
	id TxnID
}

func (t txnNoop) GetID() TxnID {
	return t.id
}
