// Package config parses the server's command-line surface.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// DefaultThreads is used when -t is missing or outside (0, 1000).
const DefaultThreads = 8

// MaxThreads is the exclusive upper bound for -t.
const MaxThreads = 1000

// ErrHelpRequested is returned by Parse when -h was given; main should
// treat this as a clean exit, not a failure.
var ErrHelpRequested = errors.New("config: help requested")

// Settings holds the validated server configuration.
type Settings struct {
	Port      int
	CacheSize int
	Threads   int

	// MetricsAddr, when non-empty, is the address to serve Prometheus
	// metrics on. Ops-only: absent from the original wire protocol.
	MetricsAddr string
	// PprofAddr, when non-empty, is the address to serve net/http/pprof
	// on. Ops-only, same rationale as MetricsAddr.
	PprofAddr string
}

// Parse parses args (typically os.Args[1:]) against the flag set
// described in spec.md §6, plus the ops-only -metrics/-pprof flags:
//
//	-p <port>        required, > 0
//	-C <cache_size>  required, > 0
//	-t <threads>     optional; default/clamp to DefaultThreads if <= 0 or >= MaxThreads
//	-metrics <addr>  optional; serve Prometheus metrics at addr
//	-pprof <addr>    optional; serve net/http/pprof at addr
//	-h               print usage, return ErrHelpRequested
func Parse(progName string, args []string, stderr io.Writer) (Settings, error) {
	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	port := fs.Int("p", 0, "port")
	cacheSize := fs.Int("C", 0, "cache size")
	threads := fs.Int("t", 0, "number of worker threads (default 8)")
	metricsAddr := fs.String("metrics", "", "serve Prometheus metrics at addr (e.g. :9090); empty = disabled")
	pprofAddr := fs.String("pprof", "", "serve net/http/pprof at addr (e.g. :6060); empty = disabled")
	help := fs.Bool("h", false, "show this help message")

	fs.Usage = func() { printUsage(stderr, progName) }

	if err := fs.Parse(args); err != nil {
		return Settings{}, err
	}
	if *help {
		printUsage(stderr, progName)
		return Settings{}, ErrHelpRequested
	}

	if *port <= 0 {
		fmt.Fprintln(stderr, "Error: A valid '-p' (port) argument is obligatory.")
		printUsage(stderr, progName)
		return Settings{}, errors.New("config: missing or invalid -p")
	}
	if *cacheSize <= 0 {
		fmt.Fprintln(stderr, "Error: A valid '-C' (cache size) argument is obligatory.")
		printUsage(stderr, progName)
		return Settings{}, errors.New("config: missing or invalid -C")
	}

	t := *threads
	if t <= 0 || t >= MaxThreads {
		t = DefaultThreads
	}

	return Settings{
		Port:        *port,
		CacheSize:   *cacheSize,
		Threads:     t,
		MetricsAddr: *metricsAddr,
		PprofAddr:   *pprofAddr,
	}, nil
}

func printUsage(w io.Writer, progName string) {
	fmt.Fprintf(w, "\nUsage: %s [-p port] [-C amount] [-t amount] [-metrics addr] [-pprof addr]\n", progName)
	fmt.Fprintln(w, "    -p  <port>          Port.")
	fmt.Fprintln(w, "    -C  <amount>        Cache size.")
	fmt.Fprintln(w, "    -t  <amount>        Number of threads used as thread pool (8 by default).")
	fmt.Fprintln(w, "    -metrics <addr>     Serve Prometheus metrics at addr (disabled by default).")
	fmt.Fprintln(w, "    -pprof <addr>       Serve net/http/pprof at addr (disabled by default).")
	fmt.Fprintln(w, "    -h                  Show this help message.")
	fmt.Fprintln(w)
}
