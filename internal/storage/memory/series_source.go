package memory

import (
	"context"
	"sync"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// SeriesSource is an in-memory implementation of storage.ContractSeriesSource.
type SeriesSource struct {
	mu   sync.RWMutex
	data map[string][]domain.Sample // keyed by scrip code
}

// NewSeriesSource creates a new in-memory series source.
func NewSeriesSource() *SeriesSource {
	return &SeriesSource{
		data: make(map[string][]domain.Sample),
	}
}

var _ storage.ContractSeriesSource = (*SeriesSource)(nil)

// Put registers a contract's samples, replacing any existing series.
func (s *SeriesSource) Put(scripCode string, samples []domain.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]domain.Sample, len(samples))
	copy(copied, samples)
	s.data[scripCode] = copied
}

// LoadSeries retrieves a copy of the registered samples.
// Returns ErrNotFound for unknown scrip codes.
func (s *SeriesSource) LoadSeries(_ context.Context, scripCode string) ([]domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples, ok := s.data[scripCode]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.Sample, len(samples))
	copy(out, samples)
	return out, nil
}
