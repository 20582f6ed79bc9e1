package lock

import (
	"fmt"
	"sync"
	"time"

	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/errors"
	"coredb/pkg/primitives"
)

// Manager grants and releases page-level shared/exclusive locks under
// strict two-phase locking, detecting deadlocks via a wait-for graph
// rather than timing out blindly. There is no wall-clock timeout: a
// blocked request keeps retrying until it is granted, the transaction it
// belongs to aborts, or a deadlock is detected.
type Manager struct {
	mutex sync.Mutex

	pageLocks        map[primitives.PageID][]*Lock
	transactionLocks map[*transaction.TransactionID]map[primitives.PageID]LockType
	waitQueue        map[primitives.PageID][]*Request
	waitingFor       map[*transaction.TransactionID][]primitives.PageID
	depGraph         *DependencyGraph
	registry         *transaction.Registry
}

// NewManager creates an empty lock manager. registry is consulted on every
// retry of a blocked acquisition so an aborted transaction's wait is
// released immediately instead of continuing to poll for a lock it will
// never use.
func NewManager(registry *transaction.Registry) *Manager {
	return &Manager{
		pageLocks:        make(map[primitives.PageID][]*Lock),
		transactionLocks: make(map[*transaction.TransactionID]map[primitives.PageID]LockType),
		waitQueue:        make(map[primitives.PageID][]*Request),
		waitingFor:       make(map[*transaction.TransactionID][]primitives.PageID),
		depGraph:         NewDependencyGraph(),
		registry:         registry,
	}
}

// aborted reports whether tid's transaction has already been marked
// aborted in the registry. A tid the registry doesn't know about (e.g. a
// manager under test with no registry wired in) is never considered
// aborted.
func (m *Manager) aborted(tid *transaction.TransactionID) bool {
	if m.registry == nil {
		return false
	}
	ctx, err := m.registry.Get(tid)
	if err != nil {
		return false
	}
	return ctx.GetStatus() == transaction.Aborted
}

// LockPage acquires a lock of the requested type for tid on pid, blocking
// until it can be granted, tid's transaction aborts, or a deadlock
// involving tid is detected.
func (m *Manager) LockPage(tid *transaction.TransactionID, pid primitives.PageID, exclusive bool) error {
	if tid == nil {
		return fmt.Errorf("transaction ID cannot be nil")
	}

	lockType := SharedLock
	if exclusive {
		lockType = ExclusiveLock
	}

	m.mutex.Lock()
	if m.alreadyHasLock(tid, pid, lockType) {
		m.mutex.Unlock()
		return nil
	}
	m.mutex.Unlock()

	return m.attemptAcquire(tid, pid, lockType)
}

func (m *Manager) alreadyHasLock(tid *transaction.TransactionID, pid primitives.PageID, want LockType) bool {
	pages, ok := m.transactionLocks[tid]
	if !ok {
		return false
	}
	held, ok := pages[pid]
	if !ok {
		return false
	}
	return held == ExclusiveLock || (held == SharedLock && want == SharedLock)
}

func (m *Manager) attemptAcquire(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) error {
	const maxRetryDelay = 50 * time.Millisecond
	retryDelay := time.Millisecond
	addedToWaitQueue := false

	for attempt := 0; ; attempt++ {
		m.mutex.Lock()

		if m.alreadyHasLock(tid, pid, lockType) {
			m.mutex.Unlock()
			return nil
		}

		if lockType == ExclusiveLock && m.holds(tid, pid, SharedLock) && m.canUpgrade(tid, pid) {
			m.upgrade(tid, pid)
			m.mutex.Unlock()
			return nil
		}

		if m.canGrantImmediately(tid, pid, lockType) {
			m.grant(tid, pid, lockType)
			m.depGraph.RemoveTransaction(tid)
			m.mutex.Unlock()
			return nil
		}

		if !addedToWaitQueue {
			m.addToWaitQueue(tid, pid, lockType)
			m.updateDependencies(tid, pid, lockType)
			addedToWaitQueue = true
		}

		if m.depGraph.HasCycle() {
			m.removeFromWaitQueue(tid, pid)
			m.depGraph.RemoveTransaction(tid)
			m.mutex.Unlock()
			return errors.New(errors.Deadlock, errors.CategoryConcurrency,
				fmt.Sprintf("deadlock detected for transaction %s", tid))
		}

		m.mutex.Unlock()

		if m.aborted(tid) {
			m.mutex.Lock()
			m.removeFromWaitQueue(tid, pid)
			m.depGraph.RemoveTransaction(tid)
			m.mutex.Unlock()
			return errors.New(errors.TransactionAborted, errors.CategoryConcurrency,
				fmt.Sprintf("transaction %s aborted while waiting for a lock on page %s", tid, pid))
		}

		time.Sleep(retryDelayFor(attempt, retryDelay, maxRetryDelay))
	}
}

func retryDelayFor(attempt int, base, max time.Duration) time.Duration {
	factor := attempt / 5
	if factor > 5 {
		factor = 5
	}
	delay := base * time.Duration(1<<uint(factor))
	if delay > max {
		return max
	}
	return delay
}

func (m *Manager) holds(tid *transaction.TransactionID, pid primitives.PageID, want LockType) bool {
	pages, ok := m.transactionLocks[tid]
	if !ok {
		return false
	}
	held, ok := pages[pid]
	return ok && held == want
}

func (m *Manager) canGrantImmediately(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) bool {
	locks := m.pageLocks[pid]
	if len(locks) == 0 {
		return true
	}

	if lockType == ExclusiveLock {
		for _, l := range locks {
			if l.TID != tid {
				return false
			}
		}
		return true
	}

	for _, l := range locks {
		if l.TID != tid && l.Type == ExclusiveLock {
			return false
		}
	}
	return true
}

func (m *Manager) canUpgrade(tid *transaction.TransactionID, pid primitives.PageID) bool {
	for _, l := range m.pageLocks[pid] {
		if l.TID != tid {
			return false
		}
	}
	return true
}

func (m *Manager) upgrade(tid *transaction.TransactionID, pid primitives.PageID) {
	for _, l := range m.pageLocks[pid] {
		if l.TID == tid {
			l.Type = ExclusiveLock
			break
		}
	}
	m.transactionLocks[tid][pid] = ExclusiveLock
}

func (m *Manager) grant(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) {
	m.pageLocks[pid] = append(m.pageLocks[pid], newLock(tid, lockType))

	if m.transactionLocks[tid] == nil {
		m.transactionLocks[tid] = make(map[primitives.PageID]LockType)
	}
	m.transactionLocks[tid][pid] = lockType
	delete(m.waitingFor, tid)
}

func (m *Manager) addToWaitQueue(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) {
	for _, req := range m.waitQueue[pid] {
		if req.TID == tid {
			return
		}
	}
	m.waitQueue[pid] = append(m.waitQueue[pid], newRequest(tid, lockType))
	m.waitingFor[tid] = append(m.waitingFor[tid], pid)
}

func (m *Manager) removeFromWaitQueue(tid *transaction.TransactionID, pid primitives.PageID) {
	if queue, ok := m.waitQueue[pid]; ok {
		filtered := make([]*Request, 0, len(queue))
		for _, r := range queue {
			if r.TID != tid {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) > 0 {
			m.waitQueue[pid] = filtered
		} else {
			delete(m.waitQueue, pid)
		}
	}

	if pages, ok := m.waitingFor[tid]; ok {
		filtered := make([]primitives.PageID, 0, len(pages))
		for _, p := range pages {
			if !p.Equals(pid) {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			m.waitingFor[tid] = filtered
		} else {
			delete(m.waitingFor, tid)
		}
	}
}

func (m *Manager) updateDependencies(tid *transaction.TransactionID, pid primitives.PageID, lockType LockType) {
	for _, l := range m.pageLocks[pid] {
		if l.TID == tid {
			continue
		}
		if lockType == ExclusiveLock || l.Type == ExclusiveLock {
			m.depGraph.AddEdge(tid, l.TID)
		}
	}
}

// UnlockPage releases tid's lock on pid, if any, and grants the lock to
// the next waiter(s) whose request can now be satisfied.
func (m *Manager) UnlockPage(tid *transaction.TransactionID, pid primitives.PageID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if locks, ok := m.pageLocks[pid]; ok {
		filtered := make([]*Lock, 0, len(locks))
		for _, l := range locks {
			if l.TID != tid {
				filtered = append(filtered, l)
			}
		}
		if len(filtered) > 0 {
			m.pageLocks[pid] = filtered
		} else {
			delete(m.pageLocks, pid)
		}
	}

	if pages, ok := m.transactionLocks[tid]; ok {
		delete(pages, pid)
		if len(pages) == 0 {
			delete(m.transactionLocks, tid)
		}
	}

	m.depGraph.RemoveTransaction(tid)
	m.processWaitQueue(pid)
}

func (m *Manager) processWaitQueue(pid primitives.PageID) {
	queue, ok := m.waitQueue[pid]
	if !ok || len(queue) == 0 {
		return
	}

	remaining := make([]*Request, 0)
	for _, req := range queue {
		if m.canGrantImmediately(req.TID, pid, req.Type) {
			m.grant(req.TID, pid, req.Type)
		} else {
			remaining = append(remaining, req)
		}
	}

	if len(remaining) > 0 {
		m.waitQueue[pid] = remaining
	} else {
		delete(m.waitQueue, pid)
	}
}

// IsPageLocked reports whether any transaction currently holds a lock on
// pid.
func (m *Manager) IsPageLocked(pid primitives.PageID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	locks, ok := m.pageLocks[pid]
	return ok && len(locks) > 0
}

// HoldsLock reports whether tid currently holds any lock on pid.
func (m *Manager) HoldsLock(tid *transaction.TransactionID, pid primitives.PageID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	pages, ok := m.transactionLocks[tid]
	if !ok {
		return false
	}
	_, ok = pages[pid]
	return ok
}

// UnlockAllPages releases every lock tid holds, typically called on
// transaction commit or abort.
func (m *Manager) UnlockAllPages(tid *transaction.TransactionID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	pages, ok := m.transactionLocks[tid]
	if !ok {
		return
	}

	pids := make([]primitives.PageID, 0, len(pages))
	for pid := range pages {
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		if locks, ok := m.pageLocks[pid]; ok {
			filtered := make([]*Lock, 0, len(locks))
			for _, l := range locks {
				if l.TID != tid {
					filtered = append(filtered, l)
				}
			}
			if len(filtered) > 0 {
				m.pageLocks[pid] = filtered
			} else {
				delete(m.pageLocks, pid)
			}
		}
	}

	delete(m.transactionLocks, tid)
	m.depGraph.RemoveTransaction(tid)
	delete(m.waitingFor, tid)

	for _, pid := range pids {
		m.processWaitQueue(pid)
	}
}
