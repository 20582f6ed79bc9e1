package execution

import (
	"testing"

	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

func TestJoinNestedLoopEmitsMatchingPairs(t *testing.T) {
	leftTd := mustTupleDesc([]types.Type{types.IntType}, []string{"a"})
	rightTd := mustTupleDesc([]types.Type{types.IntType}, []string{"b"})

	left := newMockIterator(leftTd, []*tuple.Tuple{intRow(leftTd, 1), intRow(leftTd, 2)})
	right := newMockIterator(rightTd, []*tuple.Tuple{intRow(rightTd, 2), intRow(rightTd, 3)})

	pred := NewJoinPredicate(0, types.Equals, 0)
	j, err := NewJoin(pred, left, right)
	if err != nil {
		t.Fatalf("NewJoin: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	var results [][2]int32
	for {
		hasNext, err := j.HasNext()
		if err != nil {
			t.Fatalf("HasNext: %v", err)
		}
		if !hasNext {
			break
		}
		row, err := j.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		a, _ := row.GetField(0)
		b, _ := row.GetField(1)
		results = append(results, [2]int32{a.(*types.IntField).Value, b.(*types.IntField).Value})
	}

	if len(results) != 1 || results[0] != [2]int32{2, 2} {
		t.Fatalf("unexpected join output: %v", results)
	}

	if j.GetTupleDesc().NumFields() != 2 {
		t.Fatalf("expected combined schema with 2 fields, got %d", j.GetTupleDesc().NumFields())
	}
}

func TestJoinRewindResetsBothSides(t *testing.T) {
	leftTd := mustTupleDesc([]types.Type{types.IntType}, []string{"a"})
	rightTd := mustTupleDesc([]types.Type{types.IntType}, []string{"b"})

	left := newMockIterator(leftTd, []*tuple.Tuple{intRow(leftTd, 1)})
	right := newMockIterator(rightTd, []*tuple.Tuple{intRow(rightTd, 1)})

	pred := NewJoinPredicate(0, types.Equals, 0)
	j, err := NewJoin(pred, left, right)
	if err != nil {
		t.Fatalf("NewJoin: %v", err)
	}
	if err := j.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	count := func() int {
		n := 0
		for {
			hasNext, err := j.HasNext()
			if err != nil {
				t.Fatalf("HasNext: %v", err)
			}
			if !hasNext {
				break
			}
			if _, err := j.Next(); err != nil {
				t.Fatalf("Next: %v", err)
			}
			n++
		}
		return n
	}

	if n := count(); n != 1 {
		t.Fatalf("first pass: expected 1 row, got %d", n)
	}
	if err := j.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if n := count(); n != 1 {
		t.Fatalf("second pass: expected 1 row, got %d", n)
	}
}
