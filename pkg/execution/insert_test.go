package execution

import (
	"path/filepath"
	"testing"

	"coredb/pkg/catalog"
	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// fakeInserter records every tuple handed to it without touching a real
// buffer pool.
type fakeInserter struct {
	inserted []*tuple.Tuple
}

func (f *fakeInserter) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	f.inserted = append(f.inserted, t)
	return nil
}

func newTestCatalog(t *testing.T) (*catalog.Catalog, primitives.TableID, *tuple.TupleDescription) {
	t.Helper()
	dir := t.TempDir()
	td := mustTupleDesc([]types.Type{types.IntType}, []string{"a"})
	path := primitives.Filepath(filepath.Join(dir, "t.dat"))
	f, err := heap.NewFile(path, td)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	c := catalog.NewCatalog()
	if err := c.AddTable(f, "t", ""); err != nil {
		t.Fatalf("AddTable: %v", err)
	}
	tableID, _ := c.GetTableID("t")
	return c, tableID, td
}

func TestInsertEmitsSingleCountTuple(t *testing.T) {
	c, tableID, td := newTestCatalog(t)
	rows := []*tuple.Tuple{intRow(td, 1), intRow(td, 2), intRow(td, 3)}
	child := newMockIterator(td, rows)

	registry := transaction.NewRegistry()
	ctx := registry.Begin()
	ins, err := NewInsert(ctx.ID, child, tableID, c, &fakeInserter{})
	if err != nil {
		t.Fatalf("NewInsert: %v", err)
	}
	if err := ins.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ins.Close()

	hasNext, err := ins.HasNext()
	if err != nil {
		t.Fatalf("HasNext: %v", err)
	}
	if !hasNext {
		t.Fatal("expected a result tuple")
	}
	result, err := ins.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	field, _ := result.GetField(0)
	if got := field.(*types.IntField).Value; got != 3 {
		t.Fatalf("insert count = %d, want 3", got)
	}

	hasNext, err = ins.HasNext()
	if err != nil {
		t.Fatalf("HasNext after first result: %v", err)
	}
	if hasNext {
		t.Fatal("expected end-of-stream after the single count tuple")
	}
}

func TestInsertRejectsSchemaMismatch(t *testing.T) {
	c, tableID, _ := newTestCatalog(t)
	mismatchTd := mustTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"a", "b"})
	child := newMockIterator(mismatchTd, []*tuple.Tuple{intRow(mismatchTd, 1, 2)})

	registry := transaction.NewRegistry()
	ctx := registry.Begin()
	ins, err := NewInsert(ctx.ID, child, tableID, c, &fakeInserter{})
	if err != nil {
		t.Fatalf("NewInsert: %v", err)
	}
	if err := ins.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ins.Close()

	if _, err := ins.HasNext(); err == nil {
		t.Fatal("expected a schema mismatch error")
	}
}

func TestInsertRewindAllowsReinsertion(t *testing.T) {
	c, tableID, td := newTestCatalog(t)
	rows := []*tuple.Tuple{intRow(td, 1)}
	child := newMockIterator(td, rows)

	registry := transaction.NewRegistry()
	ctx := registry.Begin()
	fake := &fakeInserter{}
	ins, err := NewInsert(ctx.ID, child, tableID, c, fake)
	if err != nil {
		t.Fatalf("NewInsert: %v", err)
	}
	if err := ins.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ins.Close()

	if _, err := ins.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := ins.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	hasNext, err := ins.HasNext()
	if err != nil {
		t.Fatalf("HasNext after rewind: %v", err)
	}
	if !hasNext {
		t.Fatal("expected another count tuple after rewind")
	}
	if len(fake.inserted) != 2 {
		t.Fatalf("expected 2 total inserts across both passes, got %d", len(fake.inserted))
	}
}
