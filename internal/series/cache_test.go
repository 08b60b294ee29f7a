package series

import (
	"context"
	"testing"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// countingSource records load calls per scrip.
type countingSource struct {
	data  map[string][]domain.Sample
	loads map[string]int
}

func newCountingSource() *countingSource {
	return &countingSource{
		data:  make(map[string][]domain.Sample),
		loads: make(map[string]int),
	}
}

func (s *countingSource) LoadSeries(_ context.Context, scrip string) ([]domain.Sample, error) {
	s.loads[scrip]++
	samples, ok := s.data[scrip]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.Sample, len(samples))
	copy(out, samples)
	return out, nil
}

func ts(hour, min int) time.Time {
	return time.Date(2024, 1, 15, hour, min, 0, 0, time.UTC)
}

func TestCache_Memoizes(t *testing.T) {
	src := newCountingSource()
	src.data["OPT1"] = []domain.Sample{{Time: ts(9, 15), Close: 100}}
	c := NewCache(src, nil)

	for i := 0; i < 3; i++ {
		if _, ok := c.Load(context.Background(), "OPT1"); !ok {
			t.Fatal("expected series")
		}
	}
	if src.loads["OPT1"] != 1 {
		t.Errorf("expected a single backing load, got %d", src.loads["OPT1"])
	}
}

func TestCache_EvictsOnSwitch(t *testing.T) {
	src := newCountingSource()
	src.data["OPT1"] = []domain.Sample{{Time: ts(9, 15), Close: 100}}
	src.data["OPT2"] = []domain.Sample{{Time: ts(9, 15), Close: 50}}
	c := NewCache(src, nil)

	c.Load(context.Background(), "OPT1")
	c.Load(context.Background(), "OPT2")
	c.Load(context.Background(), "OPT1")

	if src.loads["OPT1"] != 2 {
		t.Errorf("switching contracts must discard the prior series: OPT1 loads = %d", src.loads["OPT1"])
	}
}

func TestCache_ResetForcesReload(t *testing.T) {
	src := newCountingSource()
	src.data["OPT1"] = []domain.Sample{{Time: ts(9, 15), Close: 100}}
	c := NewCache(src, nil)

	c.Load(context.Background(), "OPT1")
	c.Reset()
	c.Load(context.Background(), "OPT1")

	if src.loads["OPT1"] != 2 {
		t.Errorf("reset must force a reload: loads = %d", src.loads["OPT1"])
	}
}

func TestCache_MissingIsUnavailable(t *testing.T) {
	c := NewCache(newCountingSource(), nil)

	if _, ok := c.Load(context.Background(), "NOPE"); ok {
		t.Error("missing contract must be unavailable, not an error")
	}
}

func TestCache_SortsOnLoad(t *testing.T) {
	src := newCountingSource()
	src.data["OPT1"] = []domain.Sample{
		{Time: ts(9, 30), Close: 3},
		{Time: ts(9, 15), Close: 1},
		{Time: ts(9, 20), Close: 2},
	}
	c := NewCache(src, nil)

	s, ok := c.Load(context.Background(), "OPT1")
	if !ok {
		t.Fatal("expected series")
	}
	if !s.Sorted() {
		t.Fatal("series must be sorted after load")
	}
	if s.Samples[0].Close != 1 || s.Samples[2].Close != 3 {
		t.Errorf("unexpected order: %+v", s.Samples)
	}
}

func TestCache_ComputesIndicatorsOnLoad(t *testing.T) {
	src := newCountingSource()
	src.data["OPT1"] = []domain.Sample{
		{Time: ts(9, 15), Close: 10},
		{Time: ts(9, 20), Close: 12},
	}
	called := 0
	c := NewCache(src, func(s *domain.ContractSeries) {
		called++
		for i := range s.Samples {
			s.Samples[i].EMAFastClose = s.Samples[i].Close
		}
	})

	s, _ := c.Load(context.Background(), "OPT1")
	c.Load(context.Background(), "OPT1")

	if called != 1 {
		t.Errorf("indicators computed %d times, want once per load", called)
	}
	if s.Samples[1].EMAFastClose != 12 {
		t.Error("indicator columns missing after load")
	}
}

func TestNormalizeWallClock(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2024, 1, 15, 9, 15, 0, 0, ist)

	got := NormalizeWallClock(in)

	if got.Hour() != 9 || got.Minute() != 15 {
		t.Errorf("wall clock must be preserved, got %v", got)
	}
	if got.Location() != time.UTC {
		t.Errorf("offset must be stripped, got %v", got.Location())
	}
}
