package memory

import (
	"fmt"
	"sync"

	"coredb/pkg/concurrency/lock"
	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/storage/page"
	"coredb/pkg/tuple"
)

// TableProvider resolves a table ID to the DbFile backing it. Catalog
// satisfies this interface.
type TableProvider interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
}

// BufferPool is the single point of access for every page in the system:
// it acquires locks before returning a page, caches pages up to a fixed
// capacity with NO-STEAL eviction (a dirty page is never evicted), and
// routes tuple-level insert/delete through the owning DbFile.
type BufferPool struct {
	mutex    sync.Mutex
	cache    *lruPageCache
	lockMgr  *lock.Manager
	tables   TableProvider
	registry *transaction.Registry
}

// NewBufferPool creates a pool bounded at maxPages resident pages.
func NewBufferPool(tables TableProvider, maxPages int, registry *transaction.Registry) *BufferPool {
	return &BufferPool{
		cache:    newLRUPageCache(maxPages),
		lockMgr:  lock.NewManager(registry),
		tables:   tables,
		registry: registry,
	}
}

// GetPage acquires the appropriate lock for tid, then returns the page at
// pid, serving from cache on hit or reading through the owning file
// (evicting first if the cache is full) on miss.
func (bp *BufferPool) GetPage(tid *transaction.TransactionID, pid primitives.PageID, exclusive bool) (page.Page, error) {
	if err := bp.lockMgr.LockPage(tid, pid, exclusive); err != nil {
		if dbErr, ok := err.(*dberrors.DBError); ok && dbErr.Code == dberrors.Deadlock {
			err = &dberrors.DBError{Code: dberrors.TransactionAborted, Category: dberrors.CategoryConcurrency, Message: dbErr.Message, Cause: dbErr}
		}
		return nil, dberrors.Wrap(err, dberrors.TransactionAborted, "GetPage", "BufferPool")
	}

	bp.trackAccess(tid, pid, exclusive)

	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	if p, ok := bp.cache.get(pid); ok {
		return p, nil
	}

	if bp.cache.size() >= bp.cache.maxSize {
		if err := bp.evictCleanPage(); err != nil {
			return nil, err
		}
	}

	dbFile, err := bp.tables.GetDbFile(pid.TableID)
	if err != nil {
		return nil, err
	}

	p, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	if err := bp.cache.put(pid, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (bp *BufferPool) trackAccess(tid *transaction.TransactionID, pid primitives.PageID, exclusive bool) {
	ctx, err := bp.registry.Get(tid)
	if err != nil {
		return
	}
	perm := transaction.ReadOnly
	if exclusive {
		perm = transaction.ReadWrite
	}
	ctx.RecordPageAccess(pid, perm)
}

// evictCleanPage evicts the least-recently-used page that is both clean
// and unlocked. Must be called with bp.mutex held.
func (bp *BufferPool) evictCleanPage() error {
	for _, pid := range bp.cache.oldestToNewest() {
		p, ok := bp.cache.peek(pid)
		if !ok {
			continue
		}
		if p.IsDirty() != nil {
			continue
		}
		if bp.lockMgr.IsPageLocked(pid) {
			continue
		}
		bp.cache.remove(pid)
		return nil
	}
	return dberrors.New(dberrors.NoCleanPage, dberrors.CategoryResource,
		"all cached pages are dirty or locked, cannot evict under NO-STEAL")
}

// InsertTuple routes t's insertion through the table's owning heap file,
// then marks every page it dirtied.
func (bp *BufferPool) InsertTuple(tid *transaction.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	dbFile, err := bp.tables.GetDbFile(tableID)
	if err != nil {
		return err
	}

	hf, ok := dbFile.(*heap.File)
	if !ok {
		return fmt.Errorf("table %d's file does not support tuple insertion", tableID)
	}

	pages, err := hf.InsertTuple(tid, bp, t)
	if err != nil {
		return err
	}

	bp.markDirty(tid, pages)
	return nil
}

// DeleteTuple routes t's deletion through the table's owning heap file,
// then marks the affected page dirty.
func (bp *BufferPool) DeleteTuple(tid *transaction.TransactionID, t *tuple.Tuple) error {
	if t.RecordID == nil {
		return dberrors.New(dberrors.NotOnPage, dberrors.CategoryUser, "tuple has no record ID")
	}

	dbFile, err := bp.tables.GetDbFile(t.RecordID.PageID.TableID)
	if err != nil {
		return err
	}

	hf, ok := dbFile.(*heap.File)
	if !ok {
		return fmt.Errorf("table's file does not support tuple deletion")
	}

	p, err := hf.DeleteTuple(tid, bp, t)
	if err != nil {
		return err
	}

	bp.markDirty(tid, []page.Page{p})
	return nil
}

func (bp *BufferPool) markDirty(tid *transaction.TransactionID, pages []page.Page) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()

	for _, p := range pages {
		p.MarkDirty(true, tid)
		bp.cache.put(p.GetID(), p)
	}

	if ctx, err := bp.registry.Get(tid); err == nil {
		for _, p := range pages {
			ctx.MarkPageDirty(p.GetID())
		}
	}
}

// FlushAllPages writes every dirty cached page to its owning file and
// marks it clean.
func (bp *BufferPool) FlushAllPages() error {
	bp.mutex.Lock()
	pages := bp.cache.all()
	bp.mutex.Unlock()

	for _, p := range pages {
		if p.IsDirty() == nil {
			continue
		}
		if err := bp.flushPage(p); err != nil {
			return err
		}
	}
	return nil
}

func (bp *BufferPool) flushPage(p page.Page) error {
	dbFile, err := bp.tables.GetDbFile(p.GetID().TableID)
	if err != nil {
		return err
	}
	if err := dbFile.WritePage(p); err != nil {
		return dberrors.Wrap(err, dberrors.IOFailure, "flushPage", "BufferPool")
	}
	p.MarkDirty(false, nil)
	p.SetBeforeImage()
	return nil
}

// TransactionComplete finalizes tid: on commit, flushes every page it
// dirtied and snapshots a fresh before-image; on abort, discards every
// page it dirtied from the cache outright (forcing a clean re-read from
// disk on next access) rather than restoring an in-place before-image.
// Either way, every lock tid holds is released.
func (bp *BufferPool) TransactionComplete(tid *transaction.TransactionID, commit bool) error {
	ctx, err := bp.registry.Get(tid)
	if err != nil {
		bp.lockMgr.UnlockAllPages(tid)
		return nil
	}

	dirty := ctx.GetDirtyPages()

	bp.mutex.Lock()
	if commit {
		for _, pid := range dirty {
			if p, ok := bp.cache.get(pid); ok {
				if err := bp.flushPageLocked(p); err != nil {
					bp.mutex.Unlock()
					return err
				}
			}
		}
	} else {
		for _, pid := range dirty {
			bp.cache.remove(pid)
		}
	}
	bp.mutex.Unlock()

	bp.registry.Remove(tid)
	bp.lockMgr.UnlockAllPages(tid)
	return nil
}

func (bp *BufferPool) flushPageLocked(p page.Page) error {
	dbFile, err := bp.tables.GetDbFile(p.GetID().TableID)
	if err != nil {
		return err
	}
	if err := dbFile.WritePage(p); err != nil {
		return dberrors.Wrap(err, dberrors.IOFailure, "TransactionComplete", "BufferPool")
	}
	p.MarkDirty(false, nil)
	p.SetBeforeImage()
	return nil
}

// DiscardPage evicts pid from the cache unconditionally, without writing
// it back. Used by tests and by administrative tooling; transaction abort
// uses TransactionComplete instead.
func (bp *BufferPool) DiscardPage(pid primitives.PageID) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	bp.cache.remove(pid)
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (bp *BufferPool) HoldsLock(tid *transaction.TransactionID, pid primitives.PageID) bool {
	return bp.lockMgr.HoldsLock(tid, pid)
}

// CachedPages returns every page currently resident in the pool, for
// administrative/diagnostic tooling. Order is unspecified.
func (bp *BufferPool) CachedPages() []page.Page {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	return bp.cache.all()
}
