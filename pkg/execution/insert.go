package execution

import (
	"fmt"

	"coredb/pkg/catalog"
	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// tupleInserter is the BufferPool surface Insert needs.
type tupleInserter interface {
	InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error
}

// Insert drains child exactly once, inserting every tuple into tableID via
// pool, then emits a single one-column (count) tuple and ends the stream.
// A second Open/pull latch reset is required before it emits again.
type Insert struct {
	base    *BaseIterator
	tid     *transaction.TransactionID
	child   DbIterator
	tableID primitives.TableID
	pool    tupleInserter

	targetDesc *tuple.TupleDescription
	tupleDesc  *tuple.TupleDescription
	called     bool
}

var insertResultDesc = func() *tuple.TupleDescription {
	td, _ := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"count"})
	return td
}()

// NewInsert builds an Insert operator that inserts child's tuples into
// tableID, rejecting any tuple whose schema does not match the table's.
func NewInsert(tid *transaction.TransactionID, child DbIterator, tableID primitives.TableID, cat *catalog.Catalog, pool tupleInserter) (*Insert, error) {
	if child == nil {
		return nil, fmt.Errorf("child operator cannot be nil")
	}
	targetDesc, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return nil, err
	}
	ins := &Insert{tid: tid, child: child, tableID: tableID, pool: pool, targetDesc: targetDesc, tupleDesc: insertResultDesc}
	ins.base = NewBaseIterator(ins.readNext)
	return ins, nil
}

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return fmt.Errorf("opening insert child: %w", err)
	}
	ins.called = false
	ins.base.MarkOpened()
	return nil
}

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.called {
		return nil, nil
	}
	ins.called = true

	var count int32
	for {
		hasNext, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}

		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if !t.TupleDesc.Equals(ins.targetDesc) {
			return nil, dberrors.New(dberrors.SchemaMismatch, dberrors.CategoryUser,
				"inserted tuple's schema does not match the target table")
		}

		if err := ins.pool.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(ins.tupleDesc)
	if err := result.SetField(0, types.NewIntField(count)); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTupleDesc returns the single-column (count) result schema.
func (ins *Insert) GetTupleDesc() *tuple.TupleDescription { return ins.tupleDesc }

func (ins *Insert) HasNext() (bool, error)      { return ins.base.HasNext() }
func (ins *Insert) Next() (*tuple.Tuple, error) { return ins.base.Next() }

// Rewind rewinds the child and resets the already-emitted latch, so the
// next HasNext/Next drains the child again and re-inserts its tuples.
func (ins *Insert) Rewind() error {
	if err := ins.child.Rewind(); err != nil {
		return err
	}
	ins.called = false
	ins.base.ClearCache()
	return nil
}

func (ins *Insert) Close() error {
	if ins.child != nil {
		ins.child.Close()
	}
	return ins.base.Close()
}
