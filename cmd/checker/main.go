package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/screwyprof/eligibility/cmd/checker/config"
	"github.com/screwyprof/eligibility/eligibility"
	"github.com/screwyprof/eligibility/eligibility/metrics"
	"github.com/screwyprof/eligibility/eligibility/sink/console"
	"github.com/screwyprof/eligibility/eligibility/sink/jsonl"
	"github.com/screwyprof/eligibility/eligibility/store/pgxstore"
	"github.com/screwyprof/eligibility/migrator"
	"github.com/screwyprof/eligibility/pkg/irys"
	"github.com/screwyprof/eligibility/pkg/logger"
	"github.com/screwyprof/eligibility/pkg/pgxdb"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "Eligibility check failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	runID := uuid.New()
	log = log.With(slog.String("runID", runID.String()))

	log.InfoContext(ctx, "Eligibility checker starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	// Inputs
	addresses, err := eligibility.LoadAddresses(cfg.WalletsFile)
	if err != nil {
		return err
	}
	proxies := eligibility.LoadProxies(cfg.ProxyFile, cfg.ProxyScheme)

	log.InfoContext(ctx, "Inputs loaded",
		slog.Int("addresses", len(addresses)),
		slog.Int("proxies", len(proxies)),
	)
	if len(proxies) == 0 {
		log.WarnContext(ctx, "No proxies loaded, connecting directly", slog.String("proxyFile", cfg.ProxyFile))
	}

	// Sinks, the result file first since it is the authoritative log
	resultFile, err := jsonl.Open(cfg.ResultFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := resultFile.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close result file", slog.Any("error", err))
		}
	}()

	reporter := console.NewReporter(os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sinks := []eligibility.Sink{resultFile, reporter, metrics.New(reg), failureLog(log)}

	var store *pgxstore.Store
	if cfg.DatabaseURL != "" {
		var closer func()
		store, closer, err = openStore(ctx, cfg, runID, log)
		if err != nil {
			return err
		}
		defer closer()
		sinks = append(sinks, store)
	}

	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(ctx, cfg.MetricsAddr, reg, log)
		defer shutdown()
	}

	// Pipeline
	client := irys.NewClient(cfg.EndpointURL,
		irys.WithHeaders(irys.Headers{
			Host:      cfg.HostHeader,
			Referer:   cfg.Referer,
			UserAgent: cfg.UserAgent,
		}),
		irys.WithDialTimeout(cfg.RequestTimeout),
	)

	fetcher := eligibility.NewFetcher(client, eligibility.NewRandomSelector(proxies),
		eligibility.WithMaxAttempts(cfg.MaxAttempts),
		eligibility.WithAttemptTimeout(cfg.RequestTimeout),
		eligibility.WithJitter(cfg.RetryJitterMin, cfg.RetryJitterMax),
	)

	dispatcher := eligibility.NewDispatcher(fetcher,
		eligibility.WithConcurrency(cfg.Concurrency),
		eligibility.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	)

	collector := eligibility.NewCollector(sinks,
		eligibility.OnSinkError(func(o eligibility.Outcome, err error) {
			log.ErrorContext(ctx, "Failed to record outcome",
				slog.String("address", o.Address),
				slog.Any("error", err),
			)
		}),
	)

	log.InfoContext(ctx, "Dispatching",
		slog.Int("concurrency", cfg.Concurrency),
		slog.Int("maxAttempts", cfg.MaxAttempts),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
	)

	start := time.Now()
	reporter.Started(len(addresses))

	// Sinks keep writing after a signal so that every address still gets its line
	summary := collector.Collect(context.WithoutCancel(ctx), dispatcher.Run(ctx, addresses))

	reporter.Finished(summary, cfg.ResultFile)
	log.InfoContext(ctx, "Eligibility check completed",
		slog.Int("total", summary.Total),
		slog.Int("eligible", summary.Eligible),
		slog.Int("normal", summary.ByStatus[eligibility.StatusNormal]),
		slog.Int("fallbackFormat", summary.ByStatus[eligibility.StatusFallbackFormat]),
		slog.Int("unknownFormat", summary.ByStatus[eligibility.StatusUnknownFormat]),
		slog.Int("networkFailed", summary.ByStatus[eligibility.StatusNetworkFailed]),
		slog.Int("sinkFailures", summary.SinkFailures),
		slog.Duration("duration", time.Since(start)),
	)

	if store != nil {
		logStoreTally(context.WithoutCancel(ctx), store, summary, log)
	}

	if ctx.Err() != nil {
		log.WarnContext(ctx, "Run interrupted, remaining addresses were marked as failed")
	}
	return nil
}

// openStore connects to PostgreSQL, brings the schema up to date and returns the results store
func openStore(ctx context.Context, cfg config.Config, runID uuid.UUID, log *slog.Logger) (*pgxstore.Store, func(), error) {
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	log.InfoContext(ctx, "Applying database migrations", slog.String("migrationsDir", cfg.MigrationsDir))
	applied, err := migrator.ApplyMigrations(db, cfg.MigrationsDir)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.InfoContext(ctx, "Database ready", slog.Int("migrationsApplied", applied))

	store, closer := pgxstore.New(db, runID)
	return store, closer, nil
}

type statusCounter interface {
	StatusCounts(ctx context.Context) (map[eligibility.Status]int, error)
}

// logStoreTally logs the rows the database holds for this run and warns when
// they disagree with the in-memory summary
func logStoreTally(ctx context.Context, store statusCounter, summary eligibility.Summary, log *slog.Logger) {
	counts, err := store.StatusCounts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read database tally", slog.Any("error", err))
		return
	}

	stored := 0
	for _, n := range counts {
		stored += n
	}

	attrs := []any{
		slog.Int("stored", stored),
		slog.Int("normal", counts[eligibility.StatusNormal]),
		slog.Int("fallbackFormat", counts[eligibility.StatusFallbackFormat]),
		slog.Int("unknownFormat", counts[eligibility.StatusUnknownFormat]),
		slog.Int("networkFailed", counts[eligibility.StatusNetworkFailed]),
	}
	if stored != summary.Total {
		log.WarnContext(ctx, "Database tally differs from run summary", append(attrs, slog.Int("total", summary.Total))...)
		return
	}
	log.InfoContext(ctx, "Database tally", attrs...)
}

// serveMetrics exposes /metrics in the background and returns a shutdown function
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(reg))

	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.InfoContext(ctx, "Metrics server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Metrics server failed", slog.Any("error", err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Metrics server forced to shutdown", slog.Any("error", err))
		}
	}
}

// failureLog logs why an address could not be checked
func failureLog(log *slog.Logger) eligibility.Sink {
	return eligibility.SinkFunc(func(ctx context.Context, o eligibility.Outcome) error {
		if o.Record.Status != eligibility.StatusNetworkFailed {
			return nil
		}
		log.DebugContext(ctx, "Address check failed",
			slog.String("address", o.Address),
			slog.Int("attempts", o.Attempts),
			slog.Any("error", o.Err),
		)
		return nil
	})
}
