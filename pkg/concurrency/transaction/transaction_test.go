package transaction

import (
	"testing"

	"coredb/pkg/primitives"
)

func TestTransactionIDUnique(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()
	if a.Equals(b) {
		t.Fatalf("expected distinct transaction IDs")
	}
	if !a.Equals(a) {
		t.Fatalf("expected self-equality")
	}
}

func TestContextLockTracking(t *testing.T) {
	ctx := NewContext(NewTransactionID())
	pid := primitives.NewPageID(1, 0)

	ctx.RecordPageAccess(pid, ReadOnly)
	perm, held := ctx.GetPagePermission(pid)
	if !held || perm != ReadOnly {
		t.Fatalf("expected ReadOnly permission recorded")
	}

	ctx.RecordPageAccess(pid, ReadWrite)
	perm, _ = ctx.GetPagePermission(pid)
	if perm != ReadWrite {
		t.Fatalf("expected upgrade to ReadWrite")
	}

	ctx.RecordPageAccess(pid, ReadOnly)
	perm, _ = ctx.GetPagePermission(pid)
	if perm != ReadWrite {
		t.Fatalf("ReadWrite grant must not be downgraded by a later ReadOnly access")
	}

	ctx.ReleaseLock(pid)
	if _, held := ctx.GetPagePermission(pid); held {
		t.Fatalf("expected lock released")
	}
}

func TestContextDirtyPages(t *testing.T) {
	ctx := NewContext(NewTransactionID())
	pid := primitives.NewPageID(1, 0)
	ctx.MarkPageDirty(pid)

	dirty := ctx.GetDirtyPages()
	if len(dirty) != 1 || !dirty[0].Equals(pid) {
		t.Fatalf("expected one dirty page, got %v", dirty)
	}
}

func TestRegistryBeginGetRemove(t *testing.T) {
	reg := NewRegistry()
	ctx := reg.Begin()

	got, err := reg.Get(ctx.ID)
	if err != nil || got != ctx {
		t.Fatalf("Get after Begin failed: %v, %v", got, err)
	}

	reg.Remove(ctx.ID)
	if _, err := reg.Get(ctx.ID); err == nil {
		t.Fatalf("expected error after Remove")
	}
}

func TestRegistryActive(t *testing.T) {
	reg := NewRegistry()
	ctx1 := reg.Begin()
	ctx2 := reg.Begin()
	ctx2.SetStatus(Committed)

	active := reg.Active()
	if len(active) != 1 || active[0] != ctx1 {
		t.Fatalf("expected exactly ctx1 active, got %v", active)
	}
}
