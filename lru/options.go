package lru

// Option configures a Cache at construction time.
type Option[K comparable] func(*Cache[K])

// WithMetrics attaches a Metrics sink. Nil is ignored (NoopMetrics stays
// in effect).
func WithMetrics[K comparable](m Metrics) Option[K] {
	return func(c *Cache[K]) {
		if m != nil {
			c.metrics = m
		}
	}
}
