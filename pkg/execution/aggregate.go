package execution

import (
	"fmt"

	dberrors "coredb/pkg/errors"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// NoGrouping is the sentinel gbField value meaning "aggregate over the
// whole input as a single group".
const NoGrouping = -1

// AggregateOp names a supported aggregate function.
type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

type groupState struct {
	count    int
	sum      int64
	min      int32
	max      int32
	hasValue bool
}

func (g *groupState) accumulate(op AggregateOp, v int32) error {
	if !g.hasValue {
		g.min, g.max = v, v
		g.hasValue = true
	} else {
		if v < g.min {
			g.min = v
		}
		if v > g.max {
			g.max = v
		}
	}
	g.sum += int64(v)
	g.count++
	return nil
}

func (g *groupState) result(op AggregateOp) int32 {
	switch op {
	case Min:
		return g.min
	case Max:
		return g.max
	case Sum:
		return int32(g.sum)
	case Avg:
		if g.count == 0 {
			return 0
		}
		return int32(g.sum / int64(g.count))
	case Count:
		return int32(g.count)
	default:
		return 0
	}
}

// Aggregate groups its child's tuples by an optional field and emits one
// result tuple per group (or a single tuple when gbField is NoGrouping).
// Results are computed eagerly when Open is called, since every group must
// see every input tuple before any result can be emitted.
type Aggregate struct {
	base  *BaseIterator
	child DbIterator

	gbField int
	aField  int
	op      AggregateOp

	tupleDesc *tuple.TupleDescription

	results   []*tuple.Tuple
	resultIdx int
}

// NewAggregate builds an aggregate over child's aField, grouped by gbField
// (or NoGrouping). A string aField only supports Count; any other op
// fails with IllegalOp.
func NewAggregate(child DbIterator, gbField, aField int, op AggregateOp) (*Aggregate, error) {
	childTd := child.GetTupleDesc()
	aType, err := childTd.TypeAtIndex(aField)
	if err != nil {
		return nil, err
	}
	if aType == types.StringType && op != Count {
		return nil, dberrors.New(dberrors.IllegalOp, dberrors.CategoryUser,
			fmt.Sprintf("aggregate %s is not supported over a string field", op))
	}

	var td *tuple.TupleDescription
	aggName := fmt.Sprintf("%s(%s)", op, childTd.GetFieldName(aField))
	if gbField == NoGrouping {
		td, err = tuple.NewTupleDesc([]types.Type{types.IntType}, []string{aggName})
	} else {
		gbType, gErr := childTd.TypeAtIndex(gbField)
		if gErr != nil {
			return nil, gErr
		}
		td, err = tuple.NewTupleDesc([]types.Type{gbType, types.IntType}, []string{childTd.GetFieldName(gbField), aggName})
	}
	if err != nil {
		return nil, err
	}

	a := &Aggregate{child: child, gbField: gbField, aField: aField, op: op, tupleDesc: td}
	a.base = NewBaseIterator(a.readNext)
	return a, nil
}

// Open drains child exactly once, builds every group's running state, and
// materializes the result tuples in first-seen group order.
func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return fmt.Errorf("opening aggregate child: %w", err)
	}

	type keyedGroup struct {
		key   types.Field
		state *groupState
	}
	groups := make(map[any]*keyedGroup)
	var order []any

	for {
		hasNext, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}

		t, err := a.child.Next()
		if err != nil {
			return err
		}

		var key any = struct{}{}
		var keyField types.Field
		if a.gbField != NoGrouping {
			keyField, err = t.GetField(a.gbField)
			if err != nil {
				return err
			}
			key, err = fieldMapKey(keyField)
			if err != nil {
				return err
			}
		}

		kg, ok := groups[key]
		if !ok {
			kg = &keyedGroup{key: keyField, state: &groupState{}}
			groups[key] = kg
			order = append(order, key)
		}

		aVal, err := t.GetField(a.aField)
		if err != nil {
			return err
		}
		intVal, ok := aVal.(*types.IntField)
		if !ok {
			// String aggregates only support Count, which needs no value.
			intVal = types.NewIntField(0)
		}
		if err := kg.state.accumulate(a.op, intVal.Value); err != nil {
			return err
		}
	}

	a.results = make([]*tuple.Tuple, 0, len(order))
	for _, key := range order {
		kg := groups[key]
		result := tuple.NewTuple(a.tupleDesc)
		if a.gbField == NoGrouping {
			if err := result.SetField(0, types.NewIntField(kg.state.result(a.op))); err != nil {
				return err
			}
		} else {
			if err := result.SetField(0, kg.key); err != nil {
				return err
			}
			if err := result.SetField(1, types.NewIntField(kg.state.result(a.op))); err != nil {
				return err
			}
		}
		a.results = append(a.results, result)
	}

	a.resultIdx = 0
	a.base.MarkOpened()
	return nil
}

// fieldMapKey reduces a grouping field to a comparable Go value usable as
// a map key.
func fieldMapKey(f types.Field) (any, error) {
	switch v := f.(type) {
	case *types.IntField:
		return v.Value, nil
	case *types.StringField:
		return v.Value, nil
	default:
		return nil, fmt.Errorf("unsupported grouping field type %s", f.Type())
	}
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	if a.resultIdx >= len(a.results) {
		return nil, nil
	}
	t := a.results[a.resultIdx]
	a.resultIdx++
	return t, nil
}

// GetTupleDesc returns (gbType, aggType) when grouped, else (aggType).
func (a *Aggregate) GetTupleDesc() *tuple.TupleDescription { return a.tupleDesc }

func (a *Aggregate) HasNext() (bool, error)      { return a.base.HasNext() }
func (a *Aggregate) Next() (*tuple.Tuple, error) { return a.base.Next() }

// Rewind restarts iteration over the already-computed results without
// re-draining the child.
func (a *Aggregate) Rewind() error {
	a.resultIdx = 0
	a.base.ClearCache()
	return nil
}

func (a *Aggregate) Close() error {
	if a.child != nil {
		a.child.Close()
	}
	return a.base.Close()
}
