package execution

import (
	"fmt"

	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// Predicate compares one field of a tuple against a constant operand.
type Predicate struct {
	fieldIndex int
	op         types.Predicate
	operand    types.Field
}

// NewPredicate builds a predicate evaluating tuple[fieldIndex] op operand.
func NewPredicate(fieldIndex int, op types.Predicate, operand types.Field) *Predicate {
	return &Predicate{fieldIndex: fieldIndex, op: op, operand: operand}
}

// Eval reports whether t satisfies the predicate.
func (p *Predicate) Eval(t *tuple.Tuple) (bool, error) {
	field, err := t.GetField(p.fieldIndex)
	if err != nil {
		return false, err
	}
	return field.Compare(p.op, p.operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("field[%d] %s %s", p.fieldIndex, p.op, p.operand)
}

// JoinPredicate compares one field of a left-side tuple against one field
// of a right-side tuple.
type JoinPredicate struct {
	leftField  int
	op         types.Predicate
	rightField int
}

// NewJoinPredicate builds a predicate evaluating left[leftField] op
// right[rightField].
func NewJoinPredicate(leftField int, op types.Predicate, rightField int) *JoinPredicate {
	return &JoinPredicate{leftField: leftField, op: op, rightField: rightField}
}

// Eval reports whether the (left, right) pair satisfies the predicate.
func (p *JoinPredicate) Eval(left, right *tuple.Tuple) (bool, error) {
	lf, err := left.GetField(p.leftField)
	if err != nil {
		return false, err
	}
	rf, err := right.GetField(p.rightField)
	if err != nil {
		return false, err
	}
	return lf.Compare(p.op, rf)
}

func (p *JoinPredicate) String() string {
	return fmt.Sprintf("left[%d] %s right[%d]", p.leftField, p.op, p.rightField)
}
