package strategy

import (
	"context"
	"math"

	"options-replay-lab/internal/domain"
)

// BuyingParams configures the option-buying momentum variant.
type BuyingParams struct {
	Quantity        float64
	Window          Window
	MaxTradesPerDay int

	// Stepped trailing stop, in PnL terms.
	TSLTrigger   float64
	TSLStep      float64
	TSLIncrement float64

	// Spot EMA spans for the crossover signal.
	FastSpan int
	BandSpan int

	// Forced close time on expiry day.
	ExpiryCutoff TimeOfDay
}

// DefaultBuying returns the buying variant's production parameters.
func DefaultBuying() BuyingParams {
	return BuyingParams{
		Quantity:        120,
		Window:          Window{Start: TimeOfDay{9, 20}, End: TimeOfDay{11, 0}},
		MaxTradesPerDay: 2,
		TSLTrigger:      3000,
		TSLStep:         500,
		TSLIncrement:    500,
		FastSpan:        5,
		BandSpan:        20,
		ExpiryCutoff:    TimeOfDay{15, 15},
	}
}

// Buying builds the long-momentum policy: spot EMA crossover entries, forced
// expiry exit, stepped trailing stop, spot-EMA reversal exit.
func Buying(p BuyingParams) Policy {
	return Policy{
		Name:            "buying",
		Direction:       domain.Long,
		Quantity:        p.Quantity,
		Window:          p.Window,
		MaxTradesPerDay: p.MaxTradesPerDay,
		Spot:            &SpotSpans{FastSpan: p.FastSpan, BandSpan: p.BandSpan},
		Entry:           crossoverProbe,
		PreHold:         []ExitRule{expiryForce{cutoff: p.ExpiryCutoff}},
		Exits: []ExitRule{
			stopHit{},
			spotReversal{},
		},
		Stop:       &TrailingStop{Trigger: p.TSLTrigger, Step: p.TSLStep, Increment: p.TSLIncrement},
		EntryEvent: domain.EventEntry,
		ExitEvent:  domain.EventExit,
	}
}

// crossoverProbe fires a call signal when the fast EMA crosses above the high
// band between the previous and current bar, a put signal on the symmetric
// cross below the low band. Call is checked before put; the first true signal
// wins and, if its option price is unavailable, no trade occurs this bar.
func crossoverProbe(ctx context.Context, env *EntryEnv) *Entry {
	s := env.Spot
	if s == nil || !s.Ready() {
		return nil
	}

	callSignal := s.PrevFast <= s.PrevHigh && s.Fast > s.BandHigh
	putSignal := s.PrevFast >= s.PrevLow && s.Fast < s.BandLow

	switch {
	case callSignal:
		sample, ok := env.Resolve(ctx, env.Bar.CallScrip)
		if !ok {
			return nil
		}
		return &Entry{Side: domain.SideCall, Scrip: env.Bar.CallScrip, Price: sample.Close, Note: "Signal CE"}
	case putSignal:
		sample, ok := env.Resolve(ctx, env.Bar.PutScrip)
		if !ok {
			return nil
		}
		return &Entry{Side: domain.SidePut, Scrip: env.Bar.PutScrip, Price: sample.Close, Note: "Signal PE"}
	}
	return nil
}

// expiryForce closes at or after the cutoff time on the bar whose date equals
// the held contract's expiry date. Runs before the availability skip, so the
// decision price may be the entry-price fallback.
type expiryForce struct {
	cutoff TimeOfDay
}

func (r expiryForce) Check(env *ExitEnv) *ExitDecision {
	if !env.Bar.IsExpiryDay() {
		return nil
	}
	m := env.Bar.Time.Hour()*60 + env.Bar.Time.Minute()
	if m < r.cutoff.minutes() {
		return nil
	}
	return &ExitDecision{Reason: domain.ExitReasonExpiryForce, Price: env.Price}
}

// stopHit closes at the stop price, not the market price, once the contract
// trades at or below it.
type stopHit struct{}

func (stopHit) Check(env *ExitEnv) *ExitDecision {
	if env.StopMode == domain.StopNone {
		return nil
	}
	if env.Price > env.StopPrice {
		return nil
	}
	return &ExitDecision{Reason: domain.ExitReasonTSLHit, Price: env.StopPrice}
}

// spotReversal closes a call when the fast EMA drops below the low band, a
// put when it rises above the high band.
type spotReversal struct{}

func (spotReversal) Check(env *ExitEnv) *ExitDecision {
	s := env.Spot
	if s == nil {
		return nil
	}
	switch env.Side {
	case domain.SideCall:
		if s.Fast < s.BandLow {
			return &ExitDecision{Reason: domain.ExitReasonEMAReversal, Price: env.Price}
		}
	case domain.SidePut:
		if s.Fast > s.BandHigh {
			return &ExitDecision{Reason: domain.ExitReasonEMAReversal, Price: env.Price}
		}
	}
	return nil
}

// TrailingStop is the stepped trailing stop of the buying variant: once
// profit first reaches Trigger the stop moves to cost; each further full Step
// of high-water excess over the trigger ratchets the stop up by Increment of
// PnL, expressed in price terms. The ratchet is monotonic.
type TrailingStop struct {
	Trigger   float64
	Step      float64
	Increment float64
}

// Update advances the stop state for the current bar's profit.
func (t *TrailingStop) Update(st *StopState, entryPrice, quantity, pnl float64) []string {
	var notes []string

	if st.Mode == domain.StopNone && pnl >= t.Trigger {
		st.Mode = domain.StopAtCost
		st.Price = entryPrice
		st.MaxPnL = pnl
		notes = append(notes, "Moved to Cost")
	}

	if st.Mode == domain.StopAtCost || st.Mode == domain.StopTrailing {
		if pnl > st.MaxPnL {
			st.MaxPnL = pnl
		}
		excess := st.MaxPnL - t.Trigger
		if excess >= t.Step {
			steps := math.Floor(excess / t.Step)
			newStop := entryPrice + (steps*t.Increment)/quantity
			if newStop > st.Price {
				st.Price = newStop
				st.Mode = domain.StopTrailing
				notes = append(notes, "Stepped Up")
			}
		}
	}

	return notes
}

var _ StopPolicy = (*TrailingStop)(nil)
