// Command report reads stored trade summaries for a run and renders the
// aggregate or the summary CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/reporting"
	"options-replay-lab/internal/storage/migrations"
	pgstore "options-replay-lab/internal/storage/postgres"
)

func main() {
	runID := flag.String("run-id", "", "Run identifier to report on (required)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (or POSTGRES_DSN env)")
	format := flag.String("format", "text", "Output format: text or csv")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(*logLevel)
	defer logger.Sync()

	_ = godotenv.Load()

	if *runID == "" {
		logger.Fatal("--run-id is required")
	}
	if *postgresDSN == "" {
		*postgresDSN = os.Getenv("POSTGRES_DSN")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn or POSTGRES_DSN is required")
	}
	if *format != "text" && *format != "csv" {
		logger.Fatal("invalid format", zap.String("format", *format))
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	store := pgstore.NewTradeStore(pool)
	rows, err := store.GetSummaries(ctx, *runID)
	if err != nil {
		logger.Fatal("load summaries", zap.Error(err))
	}

	summaries := make([]domain.TradeSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, *r)
	}

	switch *format {
	case "csv":
		fmt.Print(reporting.RenderCSV(summaries))
	default:
		fmt.Print(reporting.RenderText(reporting.Aggregated(summaries)))
	}
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
