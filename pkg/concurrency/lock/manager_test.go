package lock

import (
	"testing"
	"time"

	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
)

func TestSharedLocksCoexist(t *testing.T) {
	m := NewManager(nil)
	pid := primitives.NewPageID(1, 0)
	t1 := transaction.NewTransactionID()
	t2 := transaction.NewTransactionID()

	if err := m.LockPage(t1, pid, false); err != nil {
		t.Fatalf("t1 shared lock: %v", err)
	}
	if err := m.LockPage(t2, pid, false); err != nil {
		t.Fatalf("t2 shared lock: %v", err)
	}
}

func TestExclusiveLockBlocksOthers(t *testing.T) {
	m := NewManager(nil)
	pid := primitives.NewPageID(1, 0)
	t1 := transaction.NewTransactionID()
	t2 := transaction.NewTransactionID()

	if err := m.LockPage(t1, pid, true); err != nil {
		t.Fatalf("t1 exclusive lock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.LockPage(t2, pid, false)
	}()

	select {
	case <-done:
		t.Fatalf("t2 should not acquire lock while t1 holds exclusive")
	case <-time.After(50 * time.Millisecond):
	}

	m.UnlockPage(t1, pid)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("t2 lock after release: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("t2 never acquired lock after release")
	}
}

func TestLockUpgrade(t *testing.T) {
	m := NewManager(nil)
	pid := primitives.NewPageID(1, 0)
	t1 := transaction.NewTransactionID()

	if err := m.LockPage(t1, pid, false); err != nil {
		t.Fatalf("shared: %v", err)
	}
	if err := m.LockPage(t1, pid, true); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
}

func TestDeadlockDetected(t *testing.T) {
	m := NewManager(nil)
	p1 := primitives.NewPageID(1, 0)
	p2 := primitives.NewPageID(1, 1)
	t1 := transaction.NewTransactionID()
	t2 := transaction.NewTransactionID()

	if err := m.LockPage(t1, p1, true); err != nil {
		t.Fatalf("t1 lock p1: %v", err)
	}
	if err := m.LockPage(t2, p2, true); err != nil {
		t.Fatalf("t2 lock p2: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.LockPage(t2, p1, true)
	}()

	time.Sleep(10 * time.Millisecond)
	err := m.LockPage(t1, p2, true)
	if err == nil {
		t.Fatalf("expected deadlock error")
	}

	// t1 is the deadlock victim; releasing its locks lets t2's blocked
	// request on p1 be granted.
	m.UnlockAllPages(t1)
	<-errCh
}

func TestBlockedAcquireReturnsWhenOwningTransactionAborts(t *testing.T) {
	registry := transaction.NewRegistry()
	m := NewManager(registry)
	pid := primitives.NewPageID(1, 0)

	ctx1 := registry.Begin()
	ctx2 := registry.Begin()

	if err := m.LockPage(ctx1.ID, pid, true); err != nil {
		t.Fatalf("t1 exclusive lock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.LockPage(ctx2.ID, pid, true)
	}()

	// Give t2's request time to join the wait queue before aborting it.
	time.Sleep(10 * time.Millisecond)
	ctx2.SetStatus(transaction.Aborted)

	select {
	case err := <-done:
		dbErr, ok := err.(*dberrors.DBError)
		if !ok || dbErr.Code != dberrors.TransactionAborted {
			t.Fatalf("expected TransactionAborted error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("blocked acquire never returned after owning transaction aborted")
	}
}

func TestUnlockAllPages(t *testing.T) {
	m := NewManager(nil)
	p1 := primitives.NewPageID(1, 0)
	p2 := primitives.NewPageID(1, 1)
	t1 := transaction.NewTransactionID()

	m.LockPage(t1, p1, true)
	m.LockPage(t1, p2, false)
	m.UnlockAllPages(t1)

	if m.IsPageLocked(p1) || m.IsPageLocked(p2) {
		t.Fatalf("expected all locks released")
	}
}
