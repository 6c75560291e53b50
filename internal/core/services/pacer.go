package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles per-item external calls. Starts are spaced at least delay
// apart, at most concurrency items run at once, and each slot rests for delay
// after its item finishes before the next item may use it.
type Pacer struct {
	delay   time.Duration
	limiter *rate.Limiter
	slots   chan struct{}
}

// NewPacer creates a pacer. A zero delay disables pacing; a concurrency below
// one means items run one at a time.
func NewPacer(delay time.Duration, concurrency int) *Pacer {
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{
		delay:   delay,
		limiter: rate.NewLimiter(limit, 1),
		slots:   make(chan struct{}, concurrency),
	}
}

// Concurrency returns the maximum number of items in flight.
func (p *Pacer) Concurrency() int {
	return cap(p.slots)
}

// Do runs fn once a slot is free and the start spacing allows it.
// It returns the context error if fn could not be started.
func (p *Pacer) Do(ctx context.Context, fn func(context.Context)) error {
	return p.do(ctx, fn, func() bool { return true })
}

// do runs fn in a slot. rest is consulted after fn returns and decides
// whether the slot pauses before being released.
func (p *Pacer) do(ctx context.Context, fn func(context.Context), rest func() bool) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	fn(ctx)

	if p.delay > 0 && rest() {
		t := time.NewTimer(p.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return nil
}

// Each runs fn for every index in [0, n) and returns when all have settled.
// With a concurrency of one the items run strictly in order on the calling
// goroutine. Items that could not start because ctx ended are skipped.
func (p *Pacer) Each(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	if p.Concurrency() == 1 {
		for i := 0; i < n; i++ {
			last := i == n-1
			if err := p.do(ctx, func(ctx context.Context) { fn(ctx, i) }, func() bool { return !last }); err != nil {
				return
			}
		}
		return
	}

	var (
		wg      sync.WaitGroup
		started atomic.Int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.do(ctx, func(ctx context.Context) {
				started.Add(1)
				fn(ctx, i)
			}, func() bool { return started.Load() < int64(n) })
		}(i)
	}
	wg.Wait()
}
