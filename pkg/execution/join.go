package execution

import (
	"fmt"

	"coredb/pkg/tuple"
)

// Join is a nested-loop join: for each left tuple it rewinds right and
// emits the concatenation of left and right for every right tuple
// satisfying predicate.
type Join struct {
	base      *BaseIterator
	predicate *JoinPredicate
	left      DbIterator
	right     DbIterator
	tupleDesc *tuple.TupleDescription

	currentLeft *tuple.Tuple
}

// NewJoin wraps left and right, emitting the concatenated schema.
func NewJoin(predicate *JoinPredicate, left, right DbIterator) (*Join, error) {
	if predicate == nil {
		return nil, fmt.Errorf("predicate cannot be nil")
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("join operands cannot be nil")
	}

	j := &Join{
		predicate: predicate,
		left:      left,
		right:     right,
		tupleDesc: tuple.Combine(left.GetTupleDesc(), right.GetTupleDesc()),
	}
	j.base = NewBaseIterator(j.readNext)
	return j, nil
}

func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return fmt.Errorf("opening join left: %w", err)
	}
	if err := j.right.Open(); err != nil {
		return fmt.Errorf("opening join right: %w", err)
	}
	j.currentLeft = nil
	j.base.MarkOpened()
	return nil
}

func (j *Join) readNext() (*tuple.Tuple, error) {
	for {
		if j.currentLeft == nil {
			hasLeft, err := j.left.HasNext()
			if err != nil {
				return nil, err
			}
			if !hasLeft {
				return nil, nil
			}

			j.currentLeft, err = j.left.Next()
			if err != nil {
				return nil, err
			}
			if err := j.right.Rewind(); err != nil {
				return nil, err
			}
		}

		hasRight, err := j.right.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasRight {
			j.currentLeft = nil
			continue
		}

		rightTuple, err := j.right.Next()
		if err != nil {
			return nil, err
		}

		matches, err := j.predicate.Eval(j.currentLeft, rightTuple)
		if err != nil {
			return nil, err
		}
		if !matches {
			continue
		}

		return tuple.CombineTuples(j.currentLeft, rightTuple)
	}
}

// GetTupleDesc returns the concatenation of the left and right schemas.
func (j *Join) GetTupleDesc() *tuple.TupleDescription { return j.tupleDesc }

func (j *Join) HasNext() (bool, error)      { return j.base.HasNext() }
func (j *Join) Next() (*tuple.Tuple, error) { return j.base.Next() }

func (j *Join) Rewind() error {
	if err := j.left.Rewind(); err != nil {
		return err
	}
	if err := j.right.Rewind(); err != nil {
		return err
	}
	j.currentLeft = nil
	j.base.ClearCache()
	return nil
}

func (j *Join) Close() error {
	if j.left != nil {
		j.left.Close()
	}
	if j.right != nil {
		j.right.Close()
	}
	return j.base.Close()
}
