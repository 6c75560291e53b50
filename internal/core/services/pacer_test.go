package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPacer_SequentialOrderAndPause tests in-order execution with pauses between items
func TestPacer_SequentialOrderAndPause(t *testing.T) {
	delay := 20 * time.Millisecond
	p := NewPacer(delay, 1)

	var order []int
	start := time.Now()
	p.Each(context.Background(), 3, func(_ context.Context, i int) {
		order = append(order, i)
	})
	elapsed := time.Since(start)

	assert.Equal(t, []int{0, 1, 2}, order)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}

// TestPacer_ConcurrencyCap tests that no more than the cap run at once
func TestPacer_ConcurrencyCap(t *testing.T) {
	p := NewPacer(0, 2)

	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	seen := map[int]bool{}
	p.Each(context.Background(), 8, func(_ context.Context, i int) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		mu.Lock()
		seen[i] = true
		mu.Unlock()
	})

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, seen, 8)
}

// TestPacer_CancelledContext tests that items are skipped once the context ends
func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	p.Each(ctx, 3, func(_ context.Context, _ int) {
		calls++
		cancel()
	})

	assert.Equal(t, 1, calls)
}

// TestNewPacer_Defaults tests normalisation of a zero concurrency
func TestNewPacer_Defaults(t *testing.T) {
	assert.Equal(t, 1, NewPacer(0, 0).Concurrency())
	assert.Equal(t, 4, NewPacer(time.Second, 4).Concurrency())
}
