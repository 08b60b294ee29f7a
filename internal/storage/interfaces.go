package storage

import (
	"context"

	"options-replay-lab/internal/domain"
)

// ContractSeriesSource loads one option contract's raw historical series.
// Implementations may return samples unsorted, with duplicate timestamps, and
// with timezone-annotated times; the series cache owns normalization. A
// missing contract is ErrNotFound, which callers treat as "no data yet", not
// as a failure.
type ContractSeriesSource interface {
	// LoadSeries retrieves all samples for a scrip code.
	// Returns ErrNotFound if the contract has no backing series.
	LoadSeries(ctx context.Context, scripCode string) ([]domain.Sample, error)
}

// SpotSource loads the underlying bar series that drives a replay.
type SpotSource interface {
	// LoadBars retrieves the full spot series ordered by timestamp ASC.
	LoadBars(ctx context.Context) ([]domain.UnderlyingBar, error)
}

// TradeStore provides durable storage for closed trades: one summary row and
// one step-ledger batch per trade. Both are append-only.
type TradeStore interface {
	// InsertSummary adds a closed trade's summary row.
	// Returns ErrDuplicateKey if the trade id already exists for the run.
	InsertSummary(ctx context.Context, runID string, s *domain.TradeSummary) error

	// InsertSteps adds the full step ledger of a closed trade.
	InsertSteps(ctx context.Context, runID string, key domain.TradeKey, rows []domain.StepRecord) error

	// GetSummaries retrieves all summaries for a run, ordered by trade id ASC.
	GetSummaries(ctx context.Context, runID string) ([]*domain.TradeSummary, error)

	// GetSteps retrieves the step ledger of one trade, in recorded order.
	GetSteps(ctx context.Context, runID string, tradeID int) ([]domain.StepRecord, error)
}
