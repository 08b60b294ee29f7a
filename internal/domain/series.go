package domain

import "time"

// Sample is one OHLC bar of an option contract series, plus the EMA columns
// computed on load for the variant that needs them. Indicator fields are zero
// when the series was loaded without indicators.
type Sample struct {
	Time  time.Time // local wall clock, no timezone
	Open  float64
	High  float64
	Low   float64
	Close float64

	EMAFastClose float64 // EMA(close, fast span)
	EMASlowHigh  float64 // EMA(high, slow span)
	EMASlowLow   float64 // EMA(low, slow span)
}

// ContractSeries is the full historical series of one option contract,
// ordered by strictly non-decreasing timestamps. It is owned exclusively by
// the series cache; at most one non-terminal series exists at a time.
type ContractSeries struct {
	ScripCode string
	Samples   []Sample
}

// Sorted reports whether the sample timestamps are non-decreasing.
func (s *ContractSeries) Sorted() bool {
	for i := 1; i < len(s.Samples); i++ {
		if s.Samples[i].Time.Before(s.Samples[i-1].Time) {
			return false
		}
	}
	return true
}
