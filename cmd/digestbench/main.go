// Command digestbench drives synthetic load against a running
// digestcached instance over the real wire protocol, Zipf-distributed
// across a configurable keyspace, and reports throughput and error count.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:9000", "digestcached address")
		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of client goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		delayMS  = flag.Uint64("delay_ms", 0, "delay_ms sent with every request")

		keys  = flag.Int("keys", 10_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	keysMax := uint64(*keys - 1)
	if *keys <= 0 {
		log.Fatal("-keys must be > 0")
	}

	var total, errs uint64
	stop := make(chan struct{})
	time.AfterFunc(*duration, func() { close(stop) })

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		go func(id int) {
			defer wg.Done()
			runWorker(id, *addr, *seed, keysMax, *zipfS, *zipfV, *delayMS, stop, &total, &errs)
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	ops := atomic.LoadUint64(&total)
	failed := atomic.LoadUint64(&errs)
	fmt.Printf("addr=%s workers=%d keys=%d dur=%v seed=%d\n", *addr, *workers, *keys, elapsed, *seed)
	fmt.Printf("ops=%d (%.0f ops/s)  errors=%d\n", ops, float64(ops)/elapsed.Seconds(), failed)
}

// runWorker fires requests for the benchmark's duration. The server
// closes a connection after answering it, so each request is sent on a
// freshly dialed connection; a failed dial, write or read counts as an
// error.
func runWorker(id int, addr string, seedBase int64, keysMax uint64, zipfS, zipfV float64, delayMS uint64, stop <-chan struct{}, total, errs *uint64) {
	r := rand.New(rand.NewSource(seedBase + int64(id)*9973))
	zipf := rand.NewZipf(r, zipfS, zipfV, keysMax)

	var conn net.Conn
	var reader *bufio.Reader
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		if conn == nil {
			c, err := net.Dial("tcp", addr)
			if err != nil {
				atomic.AddUint64(errs, 1)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			conn = c
			reader = bufio.NewReader(conn)
		}

		key := "msg" + strconv.FormatUint(zipf.Uint64(), 10)
		req := fmt.Sprintf("get %s %d", key, delayMS)
		if _, err := conn.Write([]byte(req)); err != nil {
			atomic.AddUint64(errs, 1)
			conn.Close()
			conn = nil
			continue
		}
		if _, err := reader.ReadString('\n'); err != nil {
			atomic.AddUint64(errs, 1)
			conn.Close()
			conn = nil
			continue
		}
		atomic.AddUint64(total, 1)
		conn.Close()
		conn = nil
	}
}
