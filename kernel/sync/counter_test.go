package sync

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestCounterIncAndLoad(t *testing.T) {
	var c Counter

	if got := c.Load(); got != 0 {
		t.Fatalf("expected fresh counter to be 0; got %d", got)
	}

	if exp, got := uint32(1), c.Inc(); exp != got {
		t.Fatalf("expected Inc to return %d; got %d", exp, got)
	}

	if exp, got := uint32(1), c.Load(); exp != got {
		t.Fatalf("expected Load to return %d; got %d", exp, got)
	}
}

func TestCounterWaitReleasesAllWaiters(t *testing.T) {
	var (
		c          Counter
		wg         sync.WaitGroup
		released   uint32
		numWaiters = 8
	)

	wg.Add(numWaiters)
	for i := 0; i < numWaiters; i++ {
		go func() {
			c.Wait(uint32(numWaiters), nil)
			atomic.AddUint32(&released, 1)
			wg.Done()
		}()
	}

	for i := 0; i < numWaiters; i++ {
		c.Inc()
	}
	wg.Wait()

	if exp, got := uint32(numWaiters), atomic.LoadUint32(&released); exp != got {
		t.Fatalf("expected %d waiters to be released; got %d", exp, got)
	}
}

func TestCounterWaitAbort(t *testing.T) {
	var c Counter

	abortCalls := 0
	c.Wait(1, func() bool {
		abortCalls++
		return true
	})

	if exp := 1; abortCalls != exp {
		t.Fatalf("expected abort to be checked %d time(s); got %d", exp, abortCalls)
	}

	if got := c.Load(); got != 0 {
		t.Fatalf("expected aborted wait to leave the counter at 0; got %d", got)
	}
}
