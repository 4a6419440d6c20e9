package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/avr-labs/digestcache/lifecycle"
)

// InstallSignalHandlers starts a goroutine that turns SIGUSR1 into a
// flush request and SIGTERM/SIGINT into a termination request. Unlike
// the C ancestor's sa_handler, Go delivers signals on an ordinary
// goroutine rather than a restricted signal context, so the handler
// here is free to be a normal loop — it still does nothing but flip
// bits in State, keeping the same "only atomics, no I/O" discipline
// spec.md's async-signal-safety note calls for.
//
// The returned stop function releases the underlying signal.Notify
// registration; it does not affect State.
func InstallSignalHandlers(state *lifecycle.State) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				switch sig {
				case syscall.SIGUSR1:
					state.RequestFlush()
				case syscall.SIGTERM, syscall.SIGINT:
					state.Terminate()
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
