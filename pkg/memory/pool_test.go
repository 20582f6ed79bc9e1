package memory

import (
	"path/filepath"
	"testing"

	"coredb/pkg/catalog"
	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/storage/page"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

func newTestPool(t *testing.T, maxPages int) (*BufferPool, *catalog.Catalog, *heap.File, *transaction.Registry) {
	t.Helper()

	dir := t.TempDir()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"a"})
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}

	path := primitives.Filepath(filepath.Join(dir, "t.dat"))
	f, err := heap.NewFile(path, td)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	c := catalog.NewCatalog()
	if err := c.AddTable(f, "t", ""); err != nil {
		t.Fatalf("AddTable: %v", err)
	}

	registry := transaction.NewRegistry()
	bp := NewBufferPool(c, maxPages, registry)
	return bp, c, f, registry
}

func TestBufferPoolInsertsAcrossCommittedTransactions(t *testing.T) {
	bp, c, f, registry := newTestPool(t, 2)

	tableID, _ := c.GetTableID("t")

	mkTuple := func(v int32) *tuple.Tuple {
		td := f.GetTupleDesc()
		tup := tuple.NewTuple(td)
		tup.SetField(0, types.NewIntField(v))
		return tup
	}

	ctx1 := registry.Begin()
	if err := bp.InsertTuple(ctx1.ID, tableID, mkTuple(1)); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if err := bp.InsertTuple(ctx1.ID, tableID, mkTuple(2)); err != nil {
		t.Fatalf("insert 2: %v", err)
	}
	bp.TransactionComplete(ctx1.ID, true)

	ctx2 := registry.Begin()
	if err := bp.InsertTuple(ctx2.ID, tableID, mkTuple(3)); err != nil {
		t.Fatalf("insert 3: %v", err)
	}
	bp.TransactionComplete(ctx2.ID, true)
}

func TestBufferPoolCommitFlushesAndClearsDirty(t *testing.T) {
	bp, c, f, registry := newTestPool(t, 5)
	tableID, _ := c.GetTableID("t")

	td := f.GetTupleDesc()
	tup := tuple.NewTuple(td)
	tup.SetField(0, types.NewIntField(42))

	ctx := registry.Begin()
	if err := bp.InsertTuple(ctx.ID, tableID, tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := bp.TransactionComplete(ctx.ID, true); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := registry.Get(ctx.ID); err == nil {
		t.Fatalf("expected transaction to be removed from registry after commit")
	}

	pid := tup.RecordID.PageID
	bp.mutex.Lock()
	cachedPage, cached := bp.cache.get(pid)
	bp.mutex.Unlock()
	if cached && cachedPage.IsDirty() != nil {
		t.Fatalf("expected cached page to be clean after commit")
	}

	onDisk, err := f.ReadPage(pid)
	if err != nil {
		t.Fatalf("ReadPage after commit: %v", err)
	}
	if got, want := onDisk.(*heap.Page).NumEmptySlots(), heap.NumSlots(td)-1; got != want {
		t.Fatalf("expected committed tuple on disk: %d empty slots, want %d", got, want)
	}
}

func TestBufferPoolAbortDiscardsDirtyPages(t *testing.T) {
	bp, c, f, registry := newTestPool(t, 5)
	tableID, _ := c.GetTableID("t")

	td := f.GetTupleDesc()
	tup := tuple.NewTuple(td)
	tup.SetField(0, types.NewIntField(99))

	ctx := registry.Begin()
	if err := bp.InsertTuple(ctx.ID, tableID, tup); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tup.RecordID == nil {
		t.Fatalf("expected tuple to be assigned a RecordID")
	}
	dirtiedPage := tup.RecordID.PageID

	if err := bp.TransactionComplete(ctx.ID, false); err != nil {
		t.Fatalf("abort: %v", err)
	}

	bp.mutex.Lock()
	_, cached := bp.cache.get(dirtiedPage)
	bp.mutex.Unlock()
	if cached {
		t.Fatalf("expected dirtied page to be discarded from cache after abort")
	}

	ctx2 := registry.Begin()
	p, err := bp.GetPage(ctx2.ID, dirtiedPage, false)
	if err != nil {
		t.Fatalf("re-read after abort: %v", err)
	}
	hp := p.(*heap.Page)
	if hp.NumEmptySlots() != heap.NumSlots(td) {
		t.Fatalf("expected page re-read from disk to be empty after abort, got %d empty slots", hp.NumEmptySlots())
	}
}

func TestBufferPoolEvictionFailsWhenAllDirty(t *testing.T) {
	// Shrink pages to 8 bytes so a single-int-field heap page holds exactly
	// one tuple (heap.NumSlots(td) == 1). That forces the second insert to
	// need a second page, which the 1-page pool cannot evict room for
	// because the only cached page is still dirty.
	page.SetPageSize(8)
	defer page.ResetPageSize()

	bp, c, _, registry := newTestPool(t, 1)
	tableID, _ := c.GetTableID("t")

	f, _ := c.GetDbFile(tableID)
	td := f.GetTupleDesc()
	if heap.NumSlots(td) != 1 {
		t.Fatalf("expected exactly 1 slot per page at this page size, got %d", heap.NumSlots(td))
	}

	ctx := registry.Begin()
	tup := tuple.NewTuple(td)
	tup.SetField(0, types.NewIntField(1))
	if err := bp.InsertTuple(ctx.ID, tableID, tup); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tup2 := tuple.NewTuple(td)
	tup2.SetField(0, types.NewIntField(2))
	err := bp.InsertTuple(ctx.ID, tableID, tup2)
	if err == nil {
		t.Fatalf("expected NoCleanPage when the only cached page is dirty and a second page is needed")
	}
	dbErr, ok := err.(*dberrors.DBError)
	if !ok || dbErr.Code != dberrors.NoCleanPage {
		t.Fatalf("expected NoCleanPage, got %v", err)
	}
}
