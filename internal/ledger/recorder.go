// Package ledger persists the per-trade step ledgers and the run summary.
// The state machine records steps in memory while a position is open; Flush
// is invoked exactly once per closed trade, Finalize exactly once per run.
package ledger

import (
	"context"

	"options-replay-lab/internal/domain"
)

// Recorder is the persistence collaborator for closed trades. No row is ever
// mutated after being handed over.
type Recorder interface {
	// Flush durably stores one closed trade's ordered step ledger, keyed by
	// trade sequence number, scrip code, and entry date.
	Flush(ctx context.Context, key domain.TradeKey, rows []domain.StepRecord) error

	// Finalize durably stores the ordered summary of the whole replay.
	Finalize(ctx context.Context, summaries []domain.TradeSummary) error
}

// Multi fans out to several recorders in order, stopping at the first error.
func Multi(recorders ...Recorder) Recorder {
	return multi(recorders)
}

type multi []Recorder

func (m multi) Flush(ctx context.Context, key domain.TradeKey, rows []domain.StepRecord) error {
	for _, r := range m {
		if err := r.Flush(ctx, key, rows); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Finalize(ctx context.Context, summaries []domain.TradeSummary) error {
	for _, r := range m {
		if err := r.Finalize(ctx, summaries); err != nil {
			return err
		}
	}
	return nil
}
