// Package memory implements the buffer pool: the page-granularity cache
// that sits between the execution layer and on-disk heap files, acquiring
// locks, evicting under NO-STEAL, and routing tuple mutations through the
// owning file.
package memory

import (
	"fmt"
	"sync"

	"coredb/pkg/primitives"
	"coredb/pkg/storage/page"
)

type node struct {
	pid  primitives.PageID
	page page.Page
	prev *node
	next *node
}

// lruPageCache is a fixed-capacity page cache with least-recently-used
// eviction ordering, implemented as a map plus a doubly linked list for
// O(1) get/put/remove/evict. It holds no opinion on dirtiness; the
// BufferPool decides what is safe to evict.
type lruPageCache struct {
	maxSize int
	cache   map[primitives.PageID]*node
	head    *node
	tail    *node
	mutex   sync.RWMutex
}

func newLRUPageCache(maxSize int) *lruPageCache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &lruPageCache{
		maxSize: maxSize,
		cache:   make(map[primitives.PageID]*node),
		head:    head,
		tail:    tail,
	}
}

func (c *lruPageCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *lruPageCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *lruPageCache) moveToFront(n *node) {
	c.removeNode(n)
	c.addToFront(n)
}

// get returns the page for pid, marking it most-recently-used.
func (c *lruPageCache) get(pid primitives.PageID) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, ok := c.cache[pid]; ok {
		c.moveToFront(n)
		return n.page, true
	}
	return nil, false
}

// peek returns the page for pid without changing its LRU position. Used
// when inspecting a page for eviction eligibility.
func (c *lruPageCache) peek(pid primitives.PageID) (page.Page, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if n, ok := c.cache[pid]; ok {
		return n.page, true
	}
	return nil, false
}

// put inserts or updates pid's page, marking it most-recently-used.
// Returns an error if pid is new and the cache is already at capacity;
// callers must evict first.
func (c *lruPageCache) put(pid primitives.PageID, p page.Page) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, ok := c.cache[pid]; ok {
		n.page = p
		c.moveToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxSize {
		return fmt.Errorf("cache full, cannot add page")
	}

	n := &node{pid: pid, page: p}
	c.cache[pid] = n
	c.addToFront(n)
	return nil
}

func (c *lruPageCache) remove(pid primitives.PageID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, ok := c.cache[pid]; ok {
		delete(c.cache, pid)
		c.removeNode(n)
	}
}

func (c *lruPageCache) size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// oldestToNewest returns every cached page ID, least-recently-used first.
func (c *lruPageCache) oldestToNewest() []primitives.PageID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	pids := make([]primitives.PageID, 0, len(c.cache))
	for cur := c.tail.prev; cur != c.head; cur = cur.prev {
		pids = append(pids, cur.pid)
	}
	return pids
}

func (c *lruPageCache) all() []page.Page {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	pages := make([]page.Page, 0, len(c.cache))
	for _, n := range c.cache {
		pages = append(pages, n.page)
	}
	return pages
}
