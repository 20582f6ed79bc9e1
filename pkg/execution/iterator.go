// Package execution implements the pull-based iterator operators that
// compose into query plans: SeqScan, Filter, Join, Aggregate, Insert, and
// Delete, all sharing the same open/hasNext/next/rewind/close contract.
package execution

import (
	dberrors "coredb/pkg/errors"
	"coredb/pkg/tuple"
)

// DbIterator is the uniform pull interface every operator implements.
// Operators compose into a tree; open/close propagate to children, and
// rewind is required on any child that feeds a nested-loop join's inner
// side.
type DbIterator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Rewind() error
	Close() error
	GetTupleDesc() *tuple.TupleDescription
}

// ReadNextFunc produces the next tuple from an operator's underlying
// source, or (nil, nil) at end of stream.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the lookahead caching and open/closed bookkeeping
// shared by every operator, so each operator need only supply a
// readNextFunc.
type BaseIterator struct {
	nextTuple    *tuple.Tuple
	opened       bool
	readNextFunc ReadNextFunc
}

// NewBaseIterator wraps readNextFunc. The iterator starts closed.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{readNextFunc: readNextFunc}
}

// HasNext reports whether another tuple is available, reading ahead and
// caching it if necessary.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "iterator not opened")
	}
	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

// Next returns the next tuple, consuming any cached lookahead.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "iterator not opened")
	}
	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return nil, err
		}
		if it.nextTuple == nil {
			return nil, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "no more tuples")
		}
	}
	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

// ClearCache drops any cached lookahead tuple, used by Rewind.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
}

// MarkOpened transitions the iterator to the open state.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}

// Close marks the iterator closed and drops any cached lookahead.
func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	return nil
}
