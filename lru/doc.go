// Package lru implements a bounded, single-ring least-recently-used
// cache.
//
// Design
//
//   - Storage: entries live in a fixed-size slice allocated once at
//     New (the "pool"). The ring that orders them by recency is built
//     from integer indices into that slice (prev/next), not pointers —
//     this avoids aliasing hazards and keeps capacity explicit in the
//     type, at the cost of one extra indirection per link.
//
//   - Lookup: Get does a linear scan of the live slots. This is
//     intentional: capacities here are small and operator-bounded, so
//     a hash index would add bookkeeping without changing the
//     asymptotic behavior that matters in practice.
//
//   - Concurrency: every method (except Snapshot) takes a single
//     sync.Mutex. Snapshot is the one operation that may be called
//     without the lock — only safe once every other goroutine that
//     could touch the cache has exited.
//
//   - Metrics: an optional Metrics hook receives Hit/Miss/Evict/Size
//     signals. NoopMetrics is the default.
package lru
