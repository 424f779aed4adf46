package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/screwyprof/eligibility/pkg/irys"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	// Input and output files
	WalletsFile string `env:"CHECKER_WALLETS_FILE" envDefault:"wallets.txt"`
	ProxyFile   string `env:"CHECKER_PROXY_FILE" envDefault:"proxy.txt"`
	ProxyScheme string `env:"CHECKER_PROXY_SCHEME" envDefault:"http"`
	ResultFile  string `env:"CHECKER_RESULT_FILE" envDefault:"eligibility_result.jsonl"`

	// Upstream endpoint
	EndpointURL string `env:"CHECKER_ENDPOINT_URL" envDefault:"https://registration.irys.xyz/api/eligibility"`
	HostHeader  string `env:"CHECKER_HOST_HEADER" envDefault:"registration.irys.xyz"`
	Referer     string `env:"CHECKER_REFERER" envDefault:"https://registration.irys.xyz/"`
	UserAgent   string `env:"CHECKER_USER_AGENT"`

	// Worker pool and retries
	Concurrency    int           `env:"CHECKER_CONCURRENCY" envDefault:"30"`
	MaxAttempts    int           `env:"CHECKER_MAX_ATTEMPTS" envDefault:"3"`
	RequestTimeout time.Duration `env:"CHECKER_REQUEST_TIMEOUT" envDefault:"6s"`
	RetryJitterMin time.Duration `env:"CHECKER_RETRY_JITTER_MIN" envDefault:"200ms"`
	RetryJitterMax time.Duration `env:"CHECKER_RETRY_JITTER_MAX" envDefault:"600ms"`
	RateLimit      float64       `env:"CHECKER_RATE_LIMIT" envDefault:"0"` // requests per second, 0 disables
	RateBurst      int           `env:"CHECKER_RATE_BURST" envDefault:"1"`

	// Optional PostgreSQL copy of the results
	DatabaseURL   string `env:"CHECKER_DATABASE_URL"`
	MigrationsDir string `env:"CHECKER_MIGRATIONS_DIR" envDefault:"migrations"`

	// Optional Prometheus endpoint, e.g. ":9090"
	MetricsAddr string `env:"CHECKER_METRICS_ADDR"`

	// Logging configuration
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = irys.DefaultUserAgent
	}
	return cfg, nil
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
