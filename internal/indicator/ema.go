// Package indicator computes exponential moving averages the way the
// simulator needs them: whole-column recurrences over a loaded contract
// series, and an incremental tracker for the streaming spot feed. Both use
// the same recurrence, seeded with the first price:
//
//	ema[0] = price[0]
//	ema[i] = alpha*price[i] + (1-alpha)*ema[i-1],  alpha = 2/(span+1)
package indicator

import "options-replay-lab/internal/domain"

// Alpha returns the smoothing factor for a span.
func Alpha(span int) float64 {
	return 2.0 / (float64(span) + 1.0)
}

// EMA computes the EMA column for a price slice. Returns nil for an empty
// input or a non-positive span.
func EMA(prices []float64, span int) []float64 {
	if len(prices) == 0 || span <= 0 {
		return nil
	}

	alpha := Alpha(span)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

// ContractSpans holds the EMA spans computed on a loaded contract series.
type ContractSpans struct {
	FastSpan int // close column
	SlowSpan int // high and low columns
}

// Apply computes the indicator columns over the full series, left to right,
// before any lookups occur. Recomputed whenever a series is (re)loaded.
func (p ContractSpans) Apply(s *domain.ContractSeries) {
	n := len(s.Samples)
	if n == 0 {
		return
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := range s.Samples {
		closes[i] = s.Samples[i].Close
		highs[i] = s.Samples[i].High
		lows[i] = s.Samples[i].Low
	}

	fastClose := EMA(closes, p.FastSpan)
	slowHigh := EMA(highs, p.SlowSpan)
	slowLow := EMA(lows, p.SlowSpan)
	for i := range s.Samples {
		s.Samples[i].EMAFastClose = fastClose[i]
		s.Samples[i].EMASlowHigh = slowHigh[i]
		s.Samples[i].EMASlowLow = slowLow[i]
	}
}
