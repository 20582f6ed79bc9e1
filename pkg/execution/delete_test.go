package execution

import (
	"testing"

	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// fakeDeleter records every tuple handed to it without touching a real
// buffer pool.
type fakeDeleter struct {
	deleted []*tuple.Tuple
}

func (f *fakeDeleter) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error {
	f.deleted = append(f.deleted, t)
	return nil
}

func TestDeleteEmitsSingleCountTuple(t *testing.T) {
	td := mustTupleDesc([]types.Type{types.IntType}, []string{"a"})
	rows := []*tuple.Tuple{intRow(td, 1), intRow(td, 2)}
	child := newMockIterator(td, rows)

	registry := transaction.NewRegistry()
	ctx := registry.Begin()
	fake := &fakeDeleter{}
	del, err := NewDelete(ctx.ID, child, fake)
	if err != nil {
		t.Fatalf("NewDelete: %v", err)
	}
	if err := del.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer del.Close()

	result, err := del.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	field, _ := result.GetField(0)
	if got := field.(*types.IntField).Value; got != 2 {
		t.Fatalf("delete count = %d, want 2", got)
	}
	if len(fake.deleted) != 2 {
		t.Fatalf("expected 2 tuples deleted, got %d", len(fake.deleted))
	}

	hasNext, err := del.HasNext()
	if err != nil {
		t.Fatalf("HasNext: %v", err)
	}
	if hasNext {
		t.Fatal("expected end-of-stream after the single count tuple")
	}
}

func TestDeleteTupleDescIsAlwaysCountSchema(t *testing.T) {
	td := mustTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"a", "b"})
	child := newMockIterator(td, nil)

	registry := transaction.NewRegistry()
	ctx := registry.Begin()
	del, err := NewDelete(ctx.ID, child, &fakeDeleter{})
	if err != nil {
		t.Fatalf("NewDelete: %v", err)
	}
	desc := del.GetTupleDesc()
	fieldType, err := desc.TypeAtIndex(0)
	if err != nil {
		t.Fatalf("TypeAtIndex: %v", err)
	}
	if desc.NumFields() != 1 || fieldType != types.IntType {
		t.Fatalf("expected a single INT count column, got %v", desc)
	}
}
