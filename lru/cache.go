package lru

import (
	"sync"

	"github.com/avr-labs/digestcache/internal/cacheutil"
)

// noLink is the head index of an empty ring and the index findLocked
// returns on a miss.
const noLink int32 = -1

// node is one arena slot. prev/next are indices into Cache.pool, not
// pointers — see doc.go for why.
type node[K comparable] struct {
	key   K
	value string
	live  bool
	prev  int32
	next  int32
}

// Cache is a bounded, single-ring LRU cache. All methods are safe for
// concurrent use by multiple goroutines, with the documented exception
// of Snapshot.
type Cache[K comparable] struct {
	mu   sync.Mutex
	pool []node[K]
	head int32 // index of the MRU entry; noLink if empty
	len  int
	cap  int

	metrics Metrics

	hits   cacheutil.PaddedAtomicInt64
	misses cacheutil.PaddedAtomicInt64
	evicts cacheutil.PaddedAtomicInt64
}

// Entry is one (key, digest) pair as returned by Snapshot, in
// MRU-to-LRU order.
type Entry[K comparable] struct {
	Key   K
	Value string
}

// New pre-allocates capacity empty slots and an empty ring. Panics if
// capacity <= 0 — a misconfigured cache size is a programmer/operator
// error, not a runtime condition to recover from.
func New[K comparable](capacity int, opts ...Option[K]) *Cache[K] {
	if capacity <= 0 {
		panic("lru: capacity must be > 0")
	}
	c := &Cache[K]{
		cap:     capacity,
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked()
	return c
}

// Get returns the digest for k and a presence flag. On hit, the entry
// is promoted to MRU.
func (c *Cache[K]) Get(k K) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.findLocked(k)
	if idx < 0 {
		c.misses.Add(1)
		c.metrics.Miss()
		return "", false
	}

	c.moveToHeadLocked(idx)
	c.hits.Add(1)
	c.metrics.Hit()
	return c.pool[idx].value, true
}

// Put inserts or updates k -> v and promotes the entry to MRU.
//
// If k is already live, Put updates it in place (an upsert) instead of
// creating a duplicate slot. If the cache is full and k is new, the
// current tail is evicted and overwritten. Otherwise the next unused
// slot is claimed.
func (c *Cache[K]) Put(k K, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.findLocked(k); idx >= 0 {
		c.pool[idx].value = v
		c.moveToHeadLocked(idx)
		c.metrics.Size(c.len)
		return
	}

	var idx int32
	if c.len < c.cap {
		idx = int32(c.len)
		c.pool[idx] = node[K]{key: k, value: v, live: true}
		c.linkAsOnlyOrHeadLocked(idx)
		c.len++
	} else {
		tail := c.pool[c.head].prev
		c.pool[tail].key = k
		c.pool[tail].value = v
		c.evicts.Add(1)
		c.metrics.Evict()
		c.head = tail
	}
	c.metrics.Size(c.len)
}

// Len returns the number of resident entries.
func (c *Cache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.len
}

// Snapshot walks the ring from head for Len() steps and returns the
// entries in MRU-to-LRU order.
//
// Snapshot does NOT take the cache mutex. It is only safe to call once
// every goroutine that could mutate the cache has already exited —
// e.g. after a server has joined all of its workers at shutdown. Taking
// a snapshot under contention would race.
func (c *Cache[K]) Snapshot() []Entry[K] {
	out := make([]Entry[K], 0, c.len)
	if c.len == 0 {
		return out
	}
	idx := c.head
	for i := 0; i < c.len; i++ {
		n := c.pool[idx]
		out = append(out, Entry[K]{Key: n.key, Value: n.value})
		idx = n.next
	}
	return out
}

// Reset destroys the current ring and reinitializes it at the same
// capacity. Used by the flush signal path.
func (c *Cache[K]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Cache[K]) resetLocked() {
	c.pool = make([]node[K], c.cap)
	c.head = noLink
	c.len = 0
	c.metrics.Size(0)
}

// findLocked does a linear scan of the live slots for key == k.
// Intentional: capacity is small and operator-bounded (see doc.go).
func (c *Cache[K]) findLocked(k K) int32 {
	for i := 0; i < c.len; i++ {
		if c.pool[i].key == k {
			return int32(i)
		}
	}
	return noLink
}

// linkAsOnlyOrHeadLocked links a freshly claimed slot just before the
// current head and makes it the new head. If the ring is empty, the
// slot becomes a self-referential ring of one.
func (c *Cache[K]) linkAsOnlyOrHeadLocked(idx int32) {
	if c.head == noLink {
		c.pool[idx].next = idx
		c.pool[idx].prev = idx
		c.head = idx
		return
	}
	tail := c.pool[c.head].prev
	c.pool[idx].next = c.head
	c.pool[idx].prev = tail
	c.pool[tail].next = idx
	c.pool[c.head].prev = idx
	c.head = idx
}

// moveToHeadLocked splices idx out of its current position and
// reinserts it just before the (old) head, in O(1).
func (c *Cache[K]) moveToHeadLocked(idx int32) {
	if idx == c.head {
		return
	}
	n := c.pool[idx]
	// Detach.
	c.pool[n.prev].next = n.next
	c.pool[n.next].prev = n.prev

	// Reinsert before head.
	tail := c.pool[c.head].prev
	c.pool[idx].next = c.head
	c.pool[idx].prev = tail
	c.pool[tail].next = idx
	c.pool[c.head].prev = idx
	c.head = idx
}

// Counters returns the cache's local hit/miss/eviction counts. These
// are kept independently of Metrics so a caller can inspect them
// without wiring an observability backend.
func (c *Cache[K]) Counters() (hits, misses, evicts int64) {
	return c.hits.Load(), c.misses.Load(), c.evicts.Load()
}
