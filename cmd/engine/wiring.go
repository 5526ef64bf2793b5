package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sawpanic/tradingengine/internal/audit"
	"github.com/sawpanic/tradingengine/internal/clock"
	"github.com/sawpanic/tradingengine/internal/config"
	"github.com/sawpanic/tradingengine/internal/engine"
	"github.com/sawpanic/tradingengine/internal/market"
	"github.com/sawpanic/tradingengine/internal/metrics"
	"github.com/sawpanic/tradingengine/internal/normalize"
	"github.com/sawpanic/tradingengine/internal/store"
)

func engineVersionString() string {
	return config.EngineVersion
}

// components bundles everything a subcommand needs to run a decision.
// Built once per invocation; serve/decide/audit each use the pieces they
// need.
type components struct {
	registry   *config.Registry
	clk        clock.Clock
	stores     engine.Stores
	normalizer *normalize.Normalizer
	eng        *engine.Engine
	auditLog   *audit.Log
	metrics    *metrics.Registry
	log        zerolog.Logger
}

// wire builds the process-wide singletons from environment/flag
// configuration. configPath may be empty to use the frozen defaults.
func wire(configPath string, log zerolog.Logger) (*components, error) {
	registry, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	clk := clock.RealClock{}

	var backend store.Backend
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		backend = store.NewRedisBackend(redisAddr, 0)
	} else {
		backend = store.NewMemoryBackend(clk)
	}

	stores := engine.Stores{
		Timeframe: store.NewTimeframeStore(backend),
		Phase:     store.NewPhaseStore(backend),
		Trend:     store.NewTrendStore(backend),
	}

	builder := market.NewBuilder(
		market.NewHTTPProvider("options", envOrDefault("OPTIONS_PROVIDER_URL", "https://options.invalid"), os.Getenv("OPTIONS_API_KEY")),
		market.NewHTTPProvider("stats", envOrDefault("STATS_PROVIDER_URL", "https://stats.invalid"), os.Getenv("STATS_API_KEY")),
		market.NewHTTPProvider("liquidity", envOrDefault("LIQUIDITY_PROVIDER_URL", "https://liquidity.invalid"), os.Getenv("LIQUIDITY_API_KEY")),
	)

	normalizer := normalize.New(clk.Now)
	auditLog := audit.NewLog(audit.DefaultCapacity)

	var sink audit.Sink
	if pgDSN := os.Getenv("AUDIT_POSTGRES_DSN"); pgDSN != "" {
		s, err := newPostgresSink(pgDSN)
		if err != nil {
			log.Warn().Err(err).Msg("audit postgres sink disabled")
		} else {
			sink = s
		}
	}

	metricsRegistry := metrics.NewRegistry(prometheus.DefaultRegisterer)

	eng := engine.New(stores, builder, registry, clk, auditLog, sink, metricsRegistry, log)

	return &components{
		registry:   registry,
		clk:        clk,
		stores:     stores,
		normalizer: normalizer,
		eng:        eng,
		auditLog:   auditLog,
		metrics:    metricsRegistry,
		log:        log,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
