package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
	"options-replay-lab/internal/storage/memory"
)

func TestStoreRecorderScopesRunID(t *testing.T) {
	store := memory.NewTradeStore()
	ctx := context.Background()

	key := domain.TradeKey{TradeID: 1, ScripCode: "CE", EntryDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	rows := []domain.StepRecord{{Event: domain.EventEntry, ScripCode: "CE", Price: 100}}
	sums := []domain.TradeSummary{{TradeID: 1, ScripCode: "CE", Side: domain.SideCall, Direction: domain.Long}}

	for _, runID := range []string{"run-a", "run-b"} {
		rec := NewStoreRecorder(store, runID)
		if err := rec.Flush(ctx, key, rows); err != nil {
			t.Fatalf("Flush(%s): %v", runID, err)
		}
		if err := rec.Finalize(ctx, sums); err != nil {
			t.Fatalf("Finalize(%s): %v", runID, err)
		}
	}

	for _, runID := range []string{"run-a", "run-b"} {
		got, err := store.GetSummaries(ctx, runID)
		if err != nil {
			t.Fatalf("GetSummaries(%s): %v", runID, err)
		}
		if len(got) != 1 {
			t.Errorf("run %s: want 1 summary, got %d", runID, len(got))
		}
		steps, err := store.GetSteps(ctx, runID, 1)
		if err != nil {
			t.Fatalf("GetSteps(%s): %v", runID, err)
		}
		if len(steps) != 1 {
			t.Errorf("run %s: want 1 step, got %d", runID, len(steps))
		}
	}
}

func TestStoreRecorderPropagatesDuplicate(t *testing.T) {
	store := memory.NewTradeStore()
	rec := NewStoreRecorder(store, "run-a")
	ctx := context.Background()

	key := domain.TradeKey{TradeID: 1, ScripCode: "CE"}
	rows := []domain.StepRecord{{Event: domain.EventEntry}}

	if err := rec.Flush(ctx, key, rows); err != nil {
		t.Fatalf("first Flush: %v", err)
	}
	err := rec.Flush(ctx, key, rows)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}
