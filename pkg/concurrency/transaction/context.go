package transaction

import (
	"fmt"
	"sync"
	"time"

	"coredb/pkg/primitives"
)

// Status is a transaction's current lifecycle state.
type Status int

const (
	Active Status = iota
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Permission is the access level a transaction requested for a page.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

// Stats is a point-in-time snapshot of a transaction's activity, useful
// for diagnostics and tests.
type Stats struct {
	PagesLocked   int
	PagesDirtied  int
	TuplesRead    int
	TuplesWritten int
	TuplesDeleted int
}

// Context holds everything the buffer pool and lock manager need to know
// about one in-flight transaction: which pages it holds locks on, which
// pages it has dirtied, and which page (if any) it is currently blocked
// waiting for.
type Context struct {
	ID *TransactionID

	mutex     sync.RWMutex
	status    Status
	startTime time.Time
	endTime   time.Time

	lockedPages map[primitives.PageID]Permission
	dirtyPages  map[primitives.PageID]bool
	waitingFor  *primitives.PageID

	tuplesRead    int
	tuplesWritten int
	tuplesDeleted int
}

// NewContext creates a fresh, active transaction context.
func NewContext(tid *TransactionID) *Context {
	return &Context{
		ID:          tid,
		status:      Active,
		startTime:   time.Now(),
		lockedPages: make(map[primitives.PageID]Permission),
		dirtyPages:  make(map[primitives.PageID]bool),
	}
}

func (c *Context) IsActive() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status == Active
}

func (c *Context) GetStatus() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status
}

// SetStatus transitions the transaction's lifecycle state.
func (c *Context) SetStatus(status Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.status = status
	if status == Committed || status == Aborted {
		c.endTime = time.Now()
	}
}

// RecordPageAccess notes that this transaction holds perm on pid. An
// existing ReadWrite grant is never downgraded by a later ReadOnly call.
func (c *Context) RecordPageAccess(pid primitives.PageID, perm Permission) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.lockedPages[pid]; ok && existing == ReadWrite {
		return
	}
	c.lockedPages[pid] = perm
}

// MarkPageDirty records that this transaction has modified pid.
func (c *Context) MarkPageDirty(pid primitives.PageID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dirtyPages[pid] = true
}

// GetDirtyPages returns the set of pages this transaction has modified.
func (c *Context) GetDirtyPages() []primitives.PageID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	pages := make([]primitives.PageID, 0, len(c.dirtyPages))
	for pid := range c.dirtyPages {
		pages = append(pages, pid)
	}
	return pages
}

// GetLockedPages returns the set of pages this transaction currently
// holds a lock on.
func (c *Context) GetLockedPages() []primitives.PageID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	pages := make([]primitives.PageID, 0, len(c.lockedPages))
	for pid := range c.lockedPages {
		pages = append(pages, pid)
	}
	return pages
}

// ReleaseLock forgets that this transaction holds a lock on pid.
func (c *Context) ReleaseLock(pid primitives.PageID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.lockedPages, pid)
}

// GetPagePermission reports the permission level held on pid, if any.
func (c *Context) GetPagePermission(pid primitives.PageID) (perm Permission, held bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	perm, held = c.lockedPages[pid]
	return
}

// SetWaitingFor records the single page this transaction is currently
// blocked trying to lock, for deadlock-detection purposes. A nil value
// means the transaction is not waiting.
func (c *Context) SetWaitingFor(pid *primitives.PageID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.waitingFor = pid
}

func (c *Context) GetWaitingFor() *primitives.PageID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.waitingFor
}

func (c *Context) RecordTupleRead() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tuplesRead++
}

func (c *Context) RecordTupleWrite() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tuplesWritten++
}

func (c *Context) RecordTupleDelete() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tuplesDeleted++
}

// GetStats returns a snapshot of this transaction's activity counters.
func (c *Context) GetStats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return Stats{
		PagesLocked:   len(c.lockedPages),
		PagesDirtied:  len(c.dirtyPages),
		TuplesRead:    c.tuplesRead,
		TuplesWritten: c.tuplesWritten,
		TuplesDeleted: c.tuplesDeleted,
	}
}

// Duration reports how long the transaction has been running, or ran for
// if it has since finished.
func (c *Context) Duration() time.Duration {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	end := c.endTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(c.startTime)
}

func (c *Context) String() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return fmt.Sprintf("Transaction %s [status=%s duration=%v dirty=%d locked=%d]",
		c.ID, c.status, c.Duration(), len(c.dirtyPages), len(c.lockedPages))
}
