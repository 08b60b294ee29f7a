// Package series loads and memoizes one option contract's time-indexed OHLC
// series at a time. Switching contracts or crossing a day boundary discards
// the cached series; a failed load is "unavailable", never fatal.
package series

import (
	"context"
	"sort"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// Indicate computes indicator columns over a freshly loaded series. Nil when
// the variant needs no contract indicators.
type Indicate func(*domain.ContractSeries)

// Cache holds at most one loaded contract series.
type Cache struct {
	source   storage.ContractSeriesSource
	indicate Indicate

	scrip  string
	series *domain.ContractSeries
}

// NewCache creates a cache over a series source. indicate may be nil.
func NewCache(source storage.ContractSeriesSource, indicate Indicate) *Cache {
	return &Cache{source: source, indicate: indicate}
}

// Load returns the series for a scrip code, reusing the cached one when the
// code matches. The second result is false when the backing series cannot be
// found or fails to parse; callers treat that as "no data yet" and skip the
// step.
func (c *Cache) Load(ctx context.Context, scripCode string) (*domain.ContractSeries, bool) {
	if c.series != nil && c.scrip == scripCode {
		return c.series, true
	}

	samples, err := c.source.LoadSeries(ctx, scripCode)
	if err != nil || len(samples) == 0 {
		return nil, false
	}

	s := &domain.ContractSeries{ScripCode: scripCode, Samples: samples}
	for i := range s.Samples {
		s.Samples[i].Time = NormalizeWallClock(s.Samples[i].Time)
	}
	if !s.Sorted() {
		sort.SliceStable(s.Samples, func(i, j int) bool {
			return s.Samples[i].Time.Before(s.Samples[j].Time)
		})
	}
	if c.indicate != nil {
		c.indicate(s)
	}

	c.scrip = scripCode
	c.series = s
	return s, true
}

// Reset discards the cached series. Called on day rollover: intraday caching
// must not persist across sessions, though the backing data itself reloads
// unchanged.
func (c *Cache) Reset() {
	c.scrip = ""
	c.series = nil
}

// NormalizeWallClock strips any timezone offset while preserving the wall
// clock value, so 09:15+05:30 stays 09:15.
func NormalizeWallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
