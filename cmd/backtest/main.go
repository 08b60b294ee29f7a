// Command backtest replays one day-ordered spot series through the configured
// strategy variant and writes the trade ledgers, summary, and aggregate.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"options-replay-lab/internal/config"
	"options-replay-lab/internal/engine"
	"options-replay-lab/internal/ledger"
	"options-replay-lab/internal/replay"
	"options-replay-lab/internal/reporting"
	"options-replay-lab/internal/storage"
	chstore "options-replay-lab/internal/storage/clickhouse"
	"options-replay-lab/internal/storage/csvdir"
	"options-replay-lab/internal/storage/migrations"
	pgstore "options-replay-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML run configuration")
	variant := flag.String("variant", "", "Strategy variant override: buying or selling")
	runID := flag.String("run-id", "", "Run identifier for durable storage (defaults to variant)")

	spotFile := flag.String("spot", "", "Spot bar CSV override")
	optionsDir := flag.String("options-dir", "", "Option contract CSV directory override")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse series source override")

	detailsDir := flag.String("details-dir", "", "Trade detail CSV directory override")
	summaryFile := flag.String("summary", "", "Summary CSV path override")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL trade store override")

	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)
	defer logger.Sync()

	// DSNs may come from a .env file; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	applyOverrides(cfg, *variant, *spotFile, *optionsDir, *clickhouseDSN, *detailsDir, *summaryFile, *postgresDSN)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if *runID == "" {
		*runID = cfg.Variant
	}

	ctx := context.Background()

	policy, err := cfg.BuildPolicy()
	if err != nil {
		logger.Fatal("build policy", zap.Error(err))
	}

	series, closeSeries, err := openSeriesSource(ctx, cfg)
	if err != nil {
		logger.Fatal("open series source", zap.Error(err))
	}
	defer closeSeries()

	rec, closeRec, err := openRecorder(ctx, cfg, *runID)
	if err != nil {
		logger.Fatal("open recorder", zap.Error(err))
	}
	defer closeRec()

	machine := engine.New(policy, series, rec)
	runner := replay.NewRunner(csvdir.NewSpotSource(cfg.Data.SpotFile))

	logger.Info("replay starting",
		zap.String("variant", cfg.Variant),
		zap.String("run_id", *runID),
		zap.String("spot", cfg.Data.SpotFile),
	)

	bars, err := runner.Run(ctx, machine)
	if err != nil {
		logger.Fatal("replay failed", zap.Error(err))
	}
	if err := machine.Finish(ctx); err != nil {
		logger.Fatal("finalize run", zap.Error(err))
	}

	summaries := machine.Summaries()
	logger.Info("replay finished",
		zap.Int("bars", bars),
		zap.Int("trades", len(summaries)),
		zap.Bool("open_position", machine.OpenPosition()),
	)

	fmt.Print(reporting.RenderText(reporting.Aggregated(summaries)))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyOverrides lets CLI flags and the environment win over the config file.
func applyOverrides(cfg *config.Config, variant, spot, optionsDir, chDSN, detailsDir, summary, pgDSN string) {
	if variant != "" {
		cfg.Variant = variant
	}
	if spot != "" {
		cfg.Data.SpotFile = spot
	}
	if optionsDir != "" {
		cfg.Data.OptionsDir = optionsDir
	}
	if chDSN != "" {
		cfg.Data.ClickhouseDSN = chDSN
	} else if env := os.Getenv("CLICKHOUSE_DSN"); env != "" && cfg.Data.ClickhouseDSN == "" {
		cfg.Data.ClickhouseDSN = env
	}
	if detailsDir != "" {
		cfg.Output.DetailsDir = detailsDir
	}
	if summary != "" {
		cfg.Output.SummaryFile = summary
	}
	if pgDSN != "" {
		cfg.Output.PostgresDSN = pgDSN
	} else if env := os.Getenv("POSTGRES_DSN"); env != "" && cfg.Output.PostgresDSN == "" {
		cfg.Output.PostgresDSN = env
	}
}

func openSeriesSource(ctx context.Context, cfg *config.Config) (storage.ContractSeriesSource, func(), error) {
	if cfg.Data.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Data.ClickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return chstore.NewSeriesSource(conn), func() { conn.Close() }, nil
	}
	return csvdir.NewSeriesSource(cfg.Data.OptionsDir), func() {}, nil
}

func openRecorder(ctx context.Context, cfg *config.Config, runID string) (ledger.Recorder, func(), error) {
	csvRec, err := ledger.NewCSVRecorder(cfg.Output.DetailsDir, cfg.Output.SummaryFile)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Output.PostgresDSN == "" {
		return csvRec, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Output.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	store := pgstore.NewTradeStore(pool)
	rec := ledger.Multi(csvRec, ledger.NewStoreRecorder(store, runID))
	return rec, pool.Close, nil
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
