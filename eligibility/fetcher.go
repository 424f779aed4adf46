package eligibility

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/screwyprof/eligibility/pkg/clock"
)

// FetcherOption configures the Fetcher
// ------------------------------------
type FetcherOption func(*Fetcher)

// WithMaxAttempts sets the attempt budget per address. Values below 1 mean 1.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) { f.maxAttempts = max(n, 1) }
}

// WithAttemptTimeout bounds every single attempt
func WithAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.attemptTimeout = d }
}

// WithJitter sets the range of the random pause between attempts, [lo, hi)
func WithJitter(lo, hi time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.jitterMin = max(lo, 0)
		f.jitterMax = max(hi, f.jitterMin)
	}
}

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) FetcherOption {
	return func(f *Fetcher) { f.clock = c }
}

// Fetcher checks one address with a bounded number of attempts
// ------------------------------------------------------------
type Fetcher struct {
	client         Client
	proxies        ProxySelector
	clock          Clock
	maxAttempts    int
	attemptTimeout time.Duration
	jitterMin      time.Duration
	jitterMax      time.Duration
}

// NewFetcher constructs a Fetcher with required dependencies and options.
// By default, it makes 3 attempts of up to 6s each with a 200-600ms pause in between.
func NewFetcher(client Client, proxies ProxySelector, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:         client,
		proxies:        proxies,
		clock:          clock.SystemClock{},
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		jitterMin:      DefaultJitterMin,
		jitterMax:      DefaultJitterMax,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch always returns an outcome for the address.
//
// Every attempt picks a proxy of its own. Any failure is retried after a
// jittered pause until the budget is spent or ctx is done; then the
// outcome is marked failed with status network_failed and an empty raw object.
func (f *Fetcher) Fetch(ctx context.Context, address string) Outcome {
	var lastErr error
	attempts := 0

	for attempts < f.maxAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		attempts++
		proxy, _ := f.proxies.Next()

		payload, err := f.attempt(ctx, address, proxy)
		if err == nil {
			return Outcome{
				Address:  address,
				Proxy:    proxyLabel(proxy),
				Record:   Classify(address, payload),
				Attempts: attempts,
			}
		}
		lastErr = err

		if attempts == f.maxAttempts {
			break
		}
		if err := f.clock.Sleep(ctx, f.jitter()); err != nil {
			break
		}
	}

	return failedOutcome(address, attempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, address, proxy string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	return f.client.Check(ctx, address, proxy)
}

func (f *Fetcher) jitter() time.Duration {
	if f.jitterMax <= f.jitterMin {
		return f.jitterMin
	}
	return f.jitterMin + rand.N(f.jitterMax-f.jitterMin)
}

func proxyLabel(proxy string) string {
	if proxy == "" {
		return ProxyDirect
	}
	return proxy
}

func failedOutcome(address string, attempts int, err error) Outcome {
	return Outcome{
		Address: address,
		Proxy:   ProxyFailed,
		Record: Record{
			Address:  address,
			Eligible: false,
			Status:   StatusNetworkFailed,
			Raw:      map[string]any{},
		},
		Attempts: attempts,
		Err:      err,
	}
}
