package ledger

import (
	"context"
	"fmt"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// StoreRecorder persists ledgers and summaries through a storage.TradeStore,
// scoped to one run id.
type StoreRecorder struct {
	store storage.TradeStore
	runID string
}

// NewStoreRecorder creates a recorder over a trade store.
func NewStoreRecorder(store storage.TradeStore, runID string) *StoreRecorder {
	return &StoreRecorder{store: store, runID: runID}
}

// Flush inserts the step ledger of one closed trade.
func (r *StoreRecorder) Flush(ctx context.Context, key domain.TradeKey, rows []domain.StepRecord) error {
	if err := r.store.InsertSteps(ctx, r.runID, key, rows); err != nil {
		return fmt.Errorf("store trade %d steps: %w", key.TradeID, err)
	}
	return nil
}

// Finalize inserts all summary rows in order.
func (r *StoreRecorder) Finalize(ctx context.Context, summaries []domain.TradeSummary) error {
	for i := range summaries {
		if err := r.store.InsertSummary(ctx, r.runID, &summaries[i]); err != nil {
			return fmt.Errorf("store trade %d summary: %w", summaries[i].TradeID, err)
		}
	}
	return nil
}

var _ Recorder = (*StoreRecorder)(nil)
