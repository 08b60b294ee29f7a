// Package replay feeds the underlying bar series to an engine, one bar at a
// time, in chronological order, fully synchronously.
package replay

import (
	"context"
	"fmt"
	"sort"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// Engine processes bars in deterministic order. Each call must fully finish
// before the next bar is delivered.
type Engine interface {
	// OnBar is called once per bar, timestamps non-decreasing.
	OnBar(ctx context.Context, bar *domain.UnderlyingBar) error
}

// Runner loads the spot series and replays it through an engine.
type Runner struct {
	source storage.SpotSource
}

// NewRunner creates a replay runner over a spot source.
func NewRunner(source storage.SpotSource) *Runner {
	return &Runner{source: source}
}

// Run loads all bars, sorts them by timestamp if the source did not, and
// replays them through the engine. Returns the number of bars processed.
func (r *Runner) Run(ctx context.Context, engine Engine) (int, error) {
	bars, err := r.source.LoadBars(ctx)
	if err != nil {
		return 0, fmt.Errorf("load spot series: %w", err)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	for i := range bars {
		if err := engine.OnBar(ctx, &bars[i]); err != nil {
			return i, fmt.Errorf("bar %s: %w", bars[i].Time.Format("2006-01-02 15:04:05"), err)
		}
	}
	return len(bars), nil
}
