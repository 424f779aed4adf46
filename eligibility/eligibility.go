// Package eligibility checks wallet addresses against the registration
// eligibility endpoint and normalizes the answers into records.
package eligibility

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for failure cases
var (
	ErrAddressesUnavailable = errors.New("address list unavailable")
)

// Default configuration values
const (
	DefaultConcurrency    = 30
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 6 * time.Second
	DefaultJitterMin      = 200 * time.Millisecond
	DefaultJitterMax      = 600 * time.Millisecond
)

// Proxy labels used in place of a proxy URI
const (
	ProxyDirect = "direct"
	ProxyFailed = "failed"
)

// Status tells how a record was obtained
type Status string

const (
	StatusNormal         Status = "normal"
	StatusFallbackFormat Status = "fallback_format"
	StatusUnknownFormat  Status = "unknown_format"
	StatusNetworkFailed  Status = "network_failed"
)

// Record is the normalized answer for one address
// -----------------------------------------------
type Record struct {
	Address  string `json:"address"`
	Eligible bool   `json:"eligible"`
	Status   Status `json:"status"`
	Raw      any    `json:"raw"`
}

// Outcome is produced exactly once per submitted address.
// Attempts and Err are diagnostics and never serialized.
type Outcome struct {
	Address string `json:"address"`
	Proxy   string `json:"proxy"`
	Record  Record `json:"parsed"`

	Attempts int   `json:"-"`
	Err      error `json:"-"`
}

// Summary aggregates a finished run
type Summary struct {
	Total        int
	Eligible     int
	ByStatus     map[Status]int
	SinkFailures int
}

// Client performs a single upstream request
// -----------------------------------------
type Client interface {
	// Check returns the decoded payload for the address. An empty proxy means a direct connection.
	Check(ctx context.Context, address, proxy string) (any, error)
}

// ProxySelector picks a proxy for the next attempt
type ProxySelector interface {
	// Next returns false when there is no proxy to use
	Next() (string, bool)
}

// Sink receives every outcome of a run. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, outcome Outcome) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, outcome Outcome) error

// Append calls f(ctx, outcome)
func (f SinkFunc) Append(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
