// Package server implements the TCP acceptor and signal-driven
// lifecycle: it listens for connections, hands them off to a worker
// pool, reacts to SIGUSR1/SIGTERM/SIGINT, and performs an orderly
// shutdown.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avr-labs/digestcache/config"
	"github.com/avr-labs/digestcache/lifecycle"
	"github.com/avr-labs/digestcache/lru"
	"github.com/avr-labs/digestcache/queue"
	"github.com/avr-labs/digestcache/worker"
)

// acceptTimeout bounds how long Accept blocks per loop iteration so the
// acceptor stays responsive to a flush/terminate request even with no
// incoming connections.
const acceptTimeout = 1 * time.Second

// Server owns every long-lived resource the running process holds: the
// cache, the handoff queue, the listening socket, and the worker pool.
type Server struct {
	settings config.Settings
	cache    *lru.Cache[string]
	queue    *queue.Queue[net.Conn]
	pool     *worker.Pool
	state    *lifecycle.State

	listener *net.TCPListener

	logger *log.Logger
}

// New constructs a Server from validated settings. It does not touch
// the network; call ListenAndServe to start accepting connections.
func New(settings config.Settings, cacheMetrics lru.Metrics, queueMetrics queue.Metrics, workerMetrics worker.Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	var cacheOpts []lru.Option[string]
	if cacheMetrics != nil {
		cacheOpts = append(cacheOpts, lru.WithMetrics[string](cacheMetrics))
	}
	cache := lru.New[string](settings.CacheSize, cacheOpts...)

	var queueOpts []queue.Option[net.Conn]
	if queueMetrics != nil {
		queueOpts = append(queueOpts, queue.WithMetrics[net.Conn](queueMetrics))
	}
	q := queue.New[net.Conn](queueOpts...)

	pool := worker.New(q, cache, workerMetrics)

	return &Server{
		settings: settings,
		cache:    cache,
		queue:    q,
		pool:     pool,
		state:    lifecycle.New(),
		logger:   logger,
	}
}

// Listen binds and listens on the configured port. The listen backlog
// is left to Go's net package; it is not set to the cache size. Safe to
// call before Serve so a caller can discover the bound address (useful
// when Port is 0).
func (s *Server) Listen() error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", s.settings.Port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return fmt.Errorf("server: listener is not a *net.TCPListener")
	}
	s.listener = tcpLn
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ListenAndServe binds the listener (if not already bound via Listen)
// and runs Serve. It blocks until shutdown is complete and the
// farewell snapshot has been logged.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve(ctx)
}

// Serve starts the worker pool and runs the acceptor loop until the
// process is asked to terminate (via an OS signal installed through
// State(), or by calling State().Terminate() directly). Listen must
// have been called first.
func (s *Server) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.settings.Threads; i++ {
		g.Go(func() error { return s.pool.Run(gctx) })
	}

	s.acceptLoop()

	s.queue.Close()
	if err := g.Wait(); err != nil {
		s.logger.Printf("worker pool: %v", err)
	}

	s.farewell()
	s.listener.Close()
	s.logger.Println("Bye!")
	return nil
}

// acceptLoop is the main loop described in spec.md §4.5: flush at the
// top of every iteration if requested, then accept with a bounded
// deadline so the loop stays responsive to Terminating.
func (s *Server) acceptLoop() {
	for s.state.IsEnabled() {
		if s.state.ClearFlush() {
			s.cache.Reset()
			s.logger.Println("Done!")
		}

		s.listener.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := s.listener.Accept()
		if err != nil {
			continue
		}
		s.queue.Push(conn)
	}
}

// farewell logs the cache contents MRU-to-LRU, exactly as spec.md §4.5
// requires, without taking the cache lock — safe here because every
// worker has already been joined.
func (s *Server) farewell() {
	for _, e := range s.cache.Snapshot() {
		s.logger.Printf("Request: '%s' with hash: '%s'\n", e.Key, e.Value)
	}
}

// State returns the process-wide signal bitfield so a caller (main)
// can wire OS signals into it.
func (s *Server) State() *lifecycle.State {
	return s.state
}
