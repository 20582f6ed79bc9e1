// Package transaction defines transaction identity and per-transaction
// state tracked while a transaction is active: its locked pages, dirtied
// pages, and the pages it is currently waiting on.
package transaction

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter int64

// TransactionID uniquely identifies a transaction for its lifetime. IDs
// are monotonically increasing and never reused.
type TransactionID struct {
	id int64
}

// NewTransactionID allocates a fresh, unique TransactionID.
func NewTransactionID() *TransactionID {
	return &TransactionID{id: atomic.AddInt64(&transactionCounter, 1)}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("TID-%d", tid.id)
}

// Equals compares by value; nil is only equal to nil.
func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
