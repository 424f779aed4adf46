package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for eligibility acceptance tests
// NOTE: All values are test-optimized (smaller, faster) compared to production
type Config struct {
	Concurrency    int           `env:"CHECKER_TEST_CONCURRENCY" envDefault:"8"`        // vs 30 in production
	MaxAttempts    int           `env:"CHECKER_TEST_MAX_ATTEMPTS" envDefault:"2"`       // vs 3 in production
	RequestTimeout time.Duration `env:"CHECKER_TEST_REQUEST_TIMEOUT" envDefault:"1s"`   // vs 6s in production
	RetryJitterMax time.Duration `env:"CHECKER_TEST_RETRY_JITTER_MAX" envDefault:"5ms"` // vs 600ms in production
	MigrationsDir  string        `env:"CHECKER_TEST_MIGRATIONS_DIR" envDefault:"../../../migrations"`

	// Test execution timeouts
	RunTimeout time.Duration `env:"CHECKER_TEST_RUN_TIMEOUT" envDefault:"10s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
