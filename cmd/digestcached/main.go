// Command digestcached runs the TCP cache server described by the
// project: clients send "get <msg> <delay_ms>" lines and receive back
// the MD5 digest of msg, optionally after simulating a slow compute via
// the delay.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avr-labs/digestcache/config"
	pmet "github.com/avr-labs/digestcache/metrics/prom"
	"github.com/avr-labs/digestcache/server"
)

func main() {
	log.SetFlags(0)

	settings, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger := log.Default()

	var adapter *pmet.Adapter
	if settings.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		adapter = pmet.New(reg, "digestcache")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Printf("metrics: serving at %s", settings.MetricsAddr)
			logger.Println(http.ListenAndServe(settings.MetricsAddr, mux))
		}()
	}

	if settings.PprofAddr != "" {
		go func() {
			logger.Printf("pprof: serving at %s", settings.PprofAddr)
			logger.Println(http.ListenAndServe(settings.PprofAddr, nil))
		}()
	}

	var srv *server.Server
	if adapter != nil {
		srv = server.New(settings, adapter, adapter, adapter, logger)
	} else {
		srv = server.New(settings, nil, nil, nil, logger)
	}

	stop := server.InstallSignalHandlers(srv.State())
	defer stop()

	logger.Printf("listening on port %d with %d worker(s), cache size %d", settings.Port, settings.Threads, settings.CacheSize)
	if err := srv.ListenAndServe(context.Background()); err != nil {
		logger.Fatalf("server: %v", err)
	}
}
