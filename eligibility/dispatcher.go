package eligibility

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// AddressFetcher produces exactly one outcome per address
type AddressFetcher interface {
	Fetch(ctx context.Context, address string) Outcome
}

// DispatcherOption configures the Dispatcher
// ------------------------------------------
type DispatcherOption func(*Dispatcher)

// WithConcurrency sets the worker pool size. Values below 1 mean 1.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) { d.concurrency = max(n, 1) }
}

// WithRateLimit caps how often workers start a fetch, shared across the pool.
// A non-positive rate disables limiting.
func WithRateLimit(r rate.Limit, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if r <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(r, max(burst, 1))
	}
}

// Dispatcher runs fetches over a fixed-size worker pool
// -----------------------------------------------------
type Dispatcher struct {
	fetcher     AddressFetcher
	concurrency int
	limiter     *rate.Limiter
}

// NewDispatcher constructs a Dispatcher. By default, it runs 30 workers without a rate limit.
func NewDispatcher(fetcher AddressFetcher, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run fetches every address and delivers outcomes in completion order.
//
// The channel yields exactly len(addresses) outcomes, duplicates included,
// and is closed once every worker is done. Cancelling ctx does not drop
// addresses: the remaining ones come back as failed outcomes.
//
// Example:
//
//	for outcome := range dispatcher.Run(ctx, addresses) {
//	  ...
//	}
func (d *Dispatcher) Run(ctx context.Context, addresses []string) <-chan Outcome {
	tasks := make(chan string)
	workers := min(d.concurrency, len(addresses))
	outcomes := make(chan Outcome, workers)

	go func() {
		defer close(tasks)
		for _, address := range append([]string(nil), addresses...) {
			tasks <- address
		}
	}()

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for address := range tasks {
				d.wait(ctx)
				outcomes <- d.fetcher.Fetch(ctx, address)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	return outcomes
}

// wait blocks on the shared limiter. A cancelled ctx ends the wait early;
// the fetch that follows then degrades on its own.
func (d *Dispatcher) wait(ctx context.Context) {
	if d.limiter == nil {
		return
	}
	_ = d.limiter.Wait(ctx)
}
