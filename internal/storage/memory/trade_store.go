package memory

import (
	"context"
	"sort"
	"sync"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu        sync.RWMutex
	summaries map[string]map[int]*domain.TradeSummary // run id -> trade id -> summary
	steps     map[string]map[int][]domain.StepRecord  // run id -> trade id -> ledger
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		summaries: make(map[string]map[int]*domain.TradeSummary),
		steps:     make(map[string]map[int][]domain.StepRecord),
	}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// InsertSummary adds a closed trade's summary row.
// Returns ErrDuplicateKey if the trade id already exists for the run.
func (s *TradeStore) InsertSummary(_ context.Context, runID string, t *domain.TradeSummary) error {
	if t == nil || runID == "" || t.TradeID <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.summaries[runID]
	if !ok {
		run = make(map[int]*domain.TradeSummary)
		s.summaries[runID] = run
	}
	if _, exists := run[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copied := *t
	run[t.TradeID] = &copied
	return nil
}

// InsertSteps adds the full step ledger of a closed trade.
func (s *TradeStore) InsertSteps(_ context.Context, runID string, key domain.TradeKey, rows []domain.StepRecord) error {
	if runID == "" || key.TradeID <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.steps[runID]
	if !ok {
		run = make(map[int][]domain.StepRecord)
		s.steps[runID] = run
	}
	if _, exists := run[key.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copied := make([]domain.StepRecord, len(rows))
	copy(copied, rows)
	run[key.TradeID] = copied
	return nil
}

// GetSummaries retrieves all summaries for a run, ordered by trade id ASC.
func (s *TradeStore) GetSummaries(_ context.Context, runID string) ([]*domain.TradeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := s.summaries[runID]
	out := make([]*domain.TradeSummary, 0, len(run))
	for _, t := range run {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TradeID < out[j].TradeID
	})
	return out, nil
}

// GetSteps retrieves the step ledger of one trade, in recorded order.
// Returns ErrNotFound if the trade has no stored ledger.
func (s *TradeStore) GetSteps(_ context.Context, runID string, tradeID int) ([]domain.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.steps[runID][tradeID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.StepRecord, len(rows))
	copy(out, rows)
	return out, nil
}
