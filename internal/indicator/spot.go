package indicator

import "options-replay-lab/internal/domain"

// stream is one incrementally updated EMA.
type stream struct {
	alpha  float64
	value  float64
	primed bool
}

func (s *stream) update(price float64) float64 {
	if !s.primed {
		s.value = price
		s.primed = true
		return s.value
	}
	s.value = s.alpha*price + (1-s.alpha)*s.value
	return s.value
}

// SpotBands tracks the spot-feed EMAs used by the crossover signal:
// EMA(fast) of close against an EMA(band) envelope of high and low.
// Updating one bar at a time yields exactly the column recurrence, so the
// streaming values match a full-series computation bit for bit.
type SpotBands struct {
	fast stream
	high stream
	low  stream

	// Current and previous bar values. Prev* are zero until two bars have
	// been observed; Ready gates signal evaluation until then.
	Fast     float64
	BandHigh float64
	BandLow  float64
	PrevFast float64
	PrevHigh float64
	PrevLow  float64

	bars int
}

// NewSpotBands creates a tracker for the given spans.
func NewSpotBands(fastSpan, bandSpan int) *SpotBands {
	return &SpotBands{
		fast: stream{alpha: Alpha(fastSpan)},
		high: stream{alpha: Alpha(bandSpan)},
		low:  stream{alpha: Alpha(bandSpan)},
	}
}

// Update advances the tracker by one bar.
func (b *SpotBands) Update(bar *domain.UnderlyingBar) {
	b.PrevFast, b.PrevHigh, b.PrevLow = b.Fast, b.BandHigh, b.BandLow
	b.Fast = b.fast.update(bar.Close)
	b.BandHigh = b.high.update(bar.High)
	b.BandLow = b.low.update(bar.Low)
	b.bars++
}

// Ready reports whether previous-bar values exist, i.e. at least two bars
// have been observed.
func (b *SpotBands) Ready() bool {
	return b.bars >= 2
}
