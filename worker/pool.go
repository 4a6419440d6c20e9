// Package worker implements the pool of goroutines that drain the
// handoff queue, resolve requests against the cache, and reply to
// clients.
package worker

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/avr-labs/digestcache/digest"
	"github.com/avr-labs/digestcache/internal/singleflight"
	"github.com/avr-labs/digestcache/lru"
	"github.com/avr-labs/digestcache/protocol"
	"github.com/avr-labs/digestcache/queue"
)

// connTimeout bounds how long a worker waits on a single client's
// recv/send; it is the idiomatic Go equivalent of the spec's
// SO_RCVTIMEO/SO_SNDTIMEO.
const connTimeout = 1 * time.Second

// Metrics receives one ObserveRequest call per handled connection.
type Metrics interface {
	ObserveRequest(outcome string, d time.Duration)
}

// NoopMetrics is the default Metrics implementation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRequest(string, time.Duration) {}

var _ Metrics = NoopMetrics{}

// Outcome labels passed to Metrics.ObserveRequest.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeTooLong = "too_long"
	OutcomeInvalid = "invalid"
)

// Pool owns the resources a worker goroutine needs: the handoff queue
// it drains, the cache it consults, and the singleflight group that
// coalesces concurrent misses for the same key.
type Pool struct {
	Queue   *queue.Queue[net.Conn]
	Cache   *lru.Cache[string]
	Metrics Metrics

	sf singleflight.Group[string, string]
}

// New returns a Pool wired to the given queue and cache. A nil metrics
// sink falls back to NoopMetrics.
func New(q *queue.Queue[net.Conn], c *lru.Cache[string], m Metrics) *Pool {
	if m == nil {
		m = NoopMetrics{}
	}
	return &Pool{Queue: q, Cache: c, Metrics: m}
}

// Run drains the queue until it is closed. It is designed to be called
// once per worker goroutine, typically via errgroup.Group.Go — Run
// itself never spawns goroutines.
func (p *Pool) Run(ctx context.Context) error {
	for {
		conn, ok := p.Queue.PopBlocking()
		if !ok {
			return nil
		}
		p.handle(ctx, conn)
	}
}

func (p *Pool) handle(ctx context.Context, conn net.Conn) {
	start := time.Now()
	defer conn.Close()

	buf := make([]byte, protocol.MaxRequestSize+1)
	_ = conn.SetDeadline(time.Now().Add(connTimeout))
	n, err := conn.Read(buf)

	if err != nil {
		if ne, isNet := err.(net.Error); isNet && ne.Timeout() {
			writeAndCount(conn, protocol.RespTimeout, p.Metrics, OutcomeTimeout, start)
			return
		}
		// Any other read error (EOF, reset, zero-length): close silently.
		return
	}
	if n == 0 {
		return
	}
	if n > protocol.MaxRequestSize {
		p.drain(conn)
		writeAndCount(conn, protocol.RespTooLong, p.Metrics, OutcomeTooLong, start)
		return
	}

	line := string(bytes.TrimRight(buf[:n], "\r\n\x00"))
	req, err := protocol.ParseRequest(line)
	if err != nil {
		writeAndCount(conn, protocol.RespNotValid, p.Metrics, OutcomeInvalid, start)
		return
	}

	value, err := p.resolve(ctx, req)
	if err != nil {
		// resolve only fails if ctx is cancelled while we were a
		// singleflight follower; treat that like any other soft
		// failure and drop the connection.
		return
	}

	_ = conn.SetDeadline(time.Now().Add(connTimeout))
	_, _ = conn.Write([]byte(value + "\n"))
	p.Metrics.ObserveRequest(OutcomeOK, time.Since(start))
}

// resolve returns the cached digest for req.Msg, computing and caching
// it on miss. Concurrent resolves for the same Msg share one
// compute+sleep: the worker-side "Put only after a miss" precondition
// still holds because only the flight leader ever calls Cache.Put.
func (p *Pool) resolve(ctx context.Context, req protocol.Request) (string, error) {
	if v, ok := p.Cache.Get(req.Msg); ok {
		return v, nil
	}
	return p.sf.Do(ctx, req.Msg, func() (string, error) {
		if v, ok := p.Cache.Get(req.Msg); ok {
			return v, nil
		}
		v := digest.HexString(req.Msg)
		time.Sleep(time.Duration(req.DelayMS) * time.Millisecond)
		p.Cache.Put(req.Msg, v)
		return v, nil
	})
}

// drain discards whatever is left on an oversized request so the
// connection can be closed cleanly instead of leaving bytes the client
// still expects to be read.
func (p *Pool) drain(conn net.Conn) {
	scratch := make([]byte, protocol.MaxRequestSize+1)
	_ = conn.SetDeadline(time.Now().Add(connTimeout))
	for {
		n, err := conn.Read(scratch)
		if n <= 0 || err != nil {
			return
		}
	}
}

func writeAndCount(conn net.Conn, msg string, m Metrics, outcome string, start time.Time) {
	_ = conn.SetDeadline(time.Now().Add(connTimeout))
	_, _ = conn.Write([]byte(msg))
	m.ObserveRequest(outcome, time.Since(start))
}
