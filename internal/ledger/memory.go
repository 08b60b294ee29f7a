package ledger

import (
	"context"

	"options-replay-lab/internal/domain"
)

// MemoryRecorder keeps flushed ledgers and the finalized summary in memory.
// Used by tests and by runs that only want the printed aggregate.
type MemoryRecorder struct {
	Trades    []FlushedTrade
	Summaries []domain.TradeSummary
	Finalized bool
}

// FlushedTrade is one closed trade's ledger as handed to Flush.
type FlushedTrade struct {
	Key  domain.TradeKey
	Rows []domain.StepRecord
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Flush stores a copy of the rows.
func (r *MemoryRecorder) Flush(_ context.Context, key domain.TradeKey, rows []domain.StepRecord) error {
	copied := make([]domain.StepRecord, len(rows))
	copy(copied, rows)
	r.Trades = append(r.Trades, FlushedTrade{Key: key, Rows: copied})
	return nil
}

// Finalize stores a copy of the summaries.
func (r *MemoryRecorder) Finalize(_ context.Context, summaries []domain.TradeSummary) error {
	r.Summaries = make([]domain.TradeSummary, len(summaries))
	copy(r.Summaries, summaries)
	r.Finalized = true
	return nil
}

var _ Recorder = (*MemoryRecorder)(nil)
