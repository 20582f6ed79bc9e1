package execution

import (
	"testing"

	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

func TestFilterPassesOnlyMatchingTuples(t *testing.T) {
	td := mustTupleDesc([]types.Type{types.IntType}, []string{"x"})
	rows := []*tuple.Tuple{
		intRow(td, 1),
		intRow(td, 5),
		intRow(td, 10),
	}
	child := newMockIterator(td, rows)

	pred := NewPredicate(0, types.GreaterThanOrEqual, types.NewIntField(5))
	f, err := NewFilter(pred, child)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var got []int32
	for {
		hasNext, err := f.HasNext()
		if err != nil {
			t.Fatalf("HasNext: %v", err)
		}
		if !hasNext {
			break
		}
		row, err := f.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		field, _ := row.GetField(0)
		got = append(got, field.(*types.IntField).Value)
	}

	if len(got) != 2 || got[0] != 5 || got[1] != 10 {
		t.Fatalf("unexpected filtered rows: %v", got)
	}
}

func TestFilterRewindRestartsChild(t *testing.T) {
	td := mustTupleDesc([]types.Type{types.IntType}, []string{"x"})
	rows := []*tuple.Tuple{intRow(td, 1), intRow(td, 2)}
	child := newMockIterator(td, rows)

	pred := NewPredicate(0, types.Equals, types.NewIntField(2))
	f, err := NewFilter(pred, child)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	drain := func() int {
		count := 0
		for {
			hasNext, err := f.HasNext()
			if err != nil {
				t.Fatalf("HasNext: %v", err)
			}
			if !hasNext {
				break
			}
			if _, err := f.Next(); err != nil {
				t.Fatalf("Next: %v", err)
			}
			count++
		}
		return count
	}

	if n := drain(); n != 1 {
		t.Fatalf("first pass: expected 1 match, got %d", n)
	}
	if err := f.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if n := drain(); n != 1 {
		t.Fatalf("second pass: expected 1 match, got %d", n)
	}
}
