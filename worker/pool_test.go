package worker

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avr-labs/digestcache/digest"
	"github.com/avr-labs/digestcache/lru"
	"github.com/avr-labs/digestcache/queue"
)

func newPoolForTest() *Pool {
	q := queue.New[net.Conn]()
	c := lru.New[string](16)
	return New(q, c, nil)
}

func roundTrip(t *testing.T, p *Pool, request string) string {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		p.handle(context.Background(), server)
		close(done)
	}()

	if _, err := client.Write([]byte(request)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	<-done
	return resp
}

func TestHandleValidRequestMiss(t *testing.T) {
	p := newPoolForTest()
	resp := roundTrip(t, p, "get hello 0")
	want := digest.HexString("hello") + "\n"
	if resp != want {
		t.Fatalf("response = %q, want %q", resp, want)
	}
}

func TestHandleCachedSecondRequestDoesNotSleep(t *testing.T) {
	p := newPoolForTest()
	roundTrip(t, p, "get test1 500") // miss, sleeps ~500ms and populates cache

	start := time.Now()
	resp := roundTrip(t, p, "get test1 500") // hit, must not sleep
	elapsed := time.Since(start)

	want := digest.HexString("test1") + "\n"
	if resp != want {
		t.Fatalf("response = %q, want %q", resp, want)
	}
	if elapsed > 100*time.Millisecond {
		t.Fatalf("cached request took %v, expected near-instant", elapsed)
	}
}

func TestHandleInvalidRequest(t *testing.T) {
	p := newPoolForTest()
	resp := roundTrip(t, p, "put foo 0")
	if resp != "Request is not valid.\n" {
		t.Fatalf("response = %q", resp)
	}
}

func TestHandleOversizedRequest(t *testing.T) {
	p := newPoolForTest()
	blob := strings.Repeat("a", 5000)
	resp := roundTrip(t, p, blob)
	if resp != "Request is too long.\n" {
		t.Fatalf("response = %q", resp)
	}
}

func TestHandleTimeoutWhenClientSendsNothing(t *testing.T) {
	p := newPoolForTest()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		p.handle(context.Background(), server)
		close(done)
	}()

	resp, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	<-done
	if resp != "Timeout.\n" {
		t.Fatalf("response = %q, want Timeout.\\n", resp)
	}
}

func TestConcurrentMissesForSameKeyShareOneSleep(t *testing.T) {
	p := newPoolForTest()
	const n = 10

	var wg sync.WaitGroup
	results := make([]string, n)
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = roundTrip(t, p, "get shared 300")
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	want := digest.HexString("shared") + "\n"
	for i, r := range results {
		if r != want {
			t.Fatalf("result[%d] = %q, want %q", i, r, want)
		}
	}
	// If each request slept independently this would take ~3s; the
	// singleflight coalescing keeps it near a single 300ms sleep.
	if elapsed > 1500*time.Millisecond {
		t.Fatalf("coalesced misses took %v, expected near 300ms", elapsed)
	}
}
