package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"options-replay-lab/internal/domain"
)

type stubSource struct {
	bars []domain.UnderlyingBar
	err  error
}

func (s *stubSource) LoadBars(context.Context) ([]domain.UnderlyingBar, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.UnderlyingBar, len(s.bars))
	copy(out, s.bars)
	return out, nil
}

type collectEngine struct {
	seen []time.Time
	fail error
}

func (e *collectEngine) OnBar(_ context.Context, bar *domain.UnderlyingBar) error {
	if e.fail != nil {
		return e.fail
	}
	e.seen = append(e.seen, bar.Time)
	return nil
}

func at(min int) time.Time {
	return time.Date(2024, 1, 15, 9, min, 0, 0, time.UTC)
}

func TestRunnerSortsBeforeReplay(t *testing.T) {
	src := &stubSource{bars: []domain.UnderlyingBar{
		{Time: at(22)},
		{Time: at(20)},
		{Time: at(21)},
	}}
	eng := &collectEngine{}

	n, err := NewRunner(src).Run(context.Background(), eng)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 bars, got %d", n)
	}
	for i := 1; i < len(eng.seen); i++ {
		if eng.seen[i].Before(eng.seen[i-1]) {
			t.Fatalf("bars delivered out of order: %v", eng.seen)
		}
	}
}

func TestRunnerStableOrderForEqualTimestamps(t *testing.T) {
	src := &stubSource{bars: []domain.UnderlyingBar{
		{Time: at(20), Close: 1},
		{Time: at(20), Close: 2},
	}}
	eng := &collectEngine{}

	if _, err := NewRunner(src).Run(context.Background(), eng); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(eng.seen) != 2 {
		t.Fatalf("want both bars delivered, got %d", len(eng.seen))
	}
}

func TestRunnerPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("boom")
	src := &stubSource{err: wantErr}

	_, err := NewRunner(src).Run(context.Background(), &collectEngine{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("want wrapped source error, got %v", err)
	}
}

func TestRunnerStopsOnEngineError(t *testing.T) {
	src := &stubSource{bars: []domain.UnderlyingBar{{Time: at(20)}, {Time: at(21)}}}
	wantErr := errors.New("engine fault")
	eng := &collectEngine{fail: wantErr}

	n, err := NewRunner(src).Run(context.Background(), eng)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want engine error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("should fail on the first bar, got %d", n)
	}
}
