package execution

import (
	"fmt"

	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// tupleDeleter is the BufferPool surface Delete needs.
type tupleDeleter interface {
	DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error
}

// Delete drains child exactly once, deleting every tuple via pool, then
// emits a single one-column (count) tuple and ends the stream. Symmetric
// to Insert.
type Delete struct {
	base  *BaseIterator
	tid   *transaction.TransactionID
	child DbIterator
	pool  tupleDeleter

	tupleDesc *tuple.TupleDescription
	called    bool
}

// NewDelete builds a Delete operator that deletes every tuple child
// produces via pool.
func NewDelete(tid *transaction.TransactionID, child DbIterator, pool tupleDeleter) (*Delete, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	del := &Delete{tid: tid, child: child, pool: pool, tupleDesc: insertResultDesc}
	del.base = NewBaseIterator(del.readNext)
	return del, nil
}

func (del *Delete) Open() error {
	if err := del.child.Open(); err != nil {
		return fmt.Errorf("opening delete child: %w", err)
	}
	del.called = false
	del.base.MarkOpened()
	return nil
}

func (del *Delete) readNext() (*tuple.Tuple, error) {
	if del.called {
		return nil, nil
	}
	del.called = true

	var count int32
	for {
		hasNext, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}

		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}

		if err := del.pool.DeleteTuple(del.tid, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(del.tupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTupleDesc returns the single-column (count) result schema.
func (del *Delete) GetTupleDesc() *tuple.TupleDescription { return del.tupleDesc }

func (del *Delete) HasNext() (bool, error)      { return del.base.HasNext() }
func (del *Delete) Next() (*tuple.Tuple, error) { return del.base.Next() }

// Rewind rewinds the child and resets the already-emitted latch, so the
// next HasNext/Next drains the child again and re-deletes its tuples.
func (del *Delete) Rewind() error {
	if err := del.child.Rewind(); err != nil {
		return err
	}
	del.called = false
	del.base.ClearCache()
	return nil
}

func (del *Delete) Close() error {
	if del.child != nil {
		del.child.Close()
	}
	return del.base.Close()
}
