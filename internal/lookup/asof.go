// Package lookup resolves time-aligned samples across independently sampled
// series: given an underlying-bar timestamp, find the most recent contract
// sample at or before it, with an optional staleness ceiling.
package lookup

import (
	"sort"
	"time"

	"options-replay-lab/internal/domain"
)

// AsOf returns the latest sample whose timestamp is at or before target
// (floor semantics; ties resolve to the last qualifying sample, never
// interpolation). The second result is false when no such sample exists or,
// with maxStaleness > 0, when the match is older than the ceiling. A match
// exactly at the ceiling is accepted.
func AsOf(series *domain.ContractSeries, target time.Time, maxStaleness time.Duration) (*domain.Sample, bool) {
	if series == nil || len(series.Samples) == 0 {
		return nil, false
	}

	samples := series.Samples

	// First index strictly after target; floor match is the one before it.
	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].Time.After(target)
	})
	if i == 0 {
		return nil, false
	}

	s := &samples[i-1]
	if maxStaleness > 0 && target.Sub(s.Time) > maxStaleness {
		return nil, false
	}
	return s, true
}
