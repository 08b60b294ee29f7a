package strategy

import (
	"context"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/indicator"
)

// SellingParams configures the option-selling variant.
type SellingParams struct {
	Quantity float64
	Window   Window

	// EMA spans computed on each loaded contract series.
	FastSpan int
	SlowSpan int

	// Contract lookups older than this are rejected.
	MaxStaleness time.Duration

	// Entries stop and open positions force-close this many days before
	// expiry.
	RolloverDays int

	// Take-profit floor: close once the premium drops below this price.
	TargetPrice float64
}

// DefaultSelling returns the selling variant's production parameters.
func DefaultSelling() SellingParams {
	return SellingParams{
		Quantity:     120,
		Window:       Window{Start: TimeOfDay{14, 0}, End: TimeOfDay{15, 30}},
		FastSpan:     19,
		SlowSpan:     50,
		MaxStaleness: 900 * time.Second,
		RolloverDays: 4,
		TargetPrice:  30,
	}
}

// Selling builds the short-premium policy: per-contract EMA condition
// entries, rollover force-close, contract-EMA reversal stop, fixed price
// target. No trailing stop.
func Selling(p SellingParams) Policy {
	return Policy{
		Name:         "selling",
		Direction:    domain.Short,
		Quantity:     p.Quantity,
		Window:       p.Window,
		MaxStaleness: p.MaxStaleness,
		RolloverDays: p.RolloverDays,
		Contract:     &indicator.ContractSpans{FastSpan: p.FastSpan, SlowSpan: p.SlowSpan},
		Entry:        contractConditionProbe,
		Exits: []ExitRule{
			rolloverExit{days: p.RolloverDays},
			contractReversal{},
			targetFloor{price: p.TargetPrice},
		},
		EntryEvent: domain.EventSellEntry,
		ExitEvent:  domain.EventBuyExit,
	}
}

// contractConditionProbe shorts the put when its own series shows
// EMA(fast, close) < EMA(slow, low), otherwise the call under the identical
// condition. Put is checked before call; the first match wins. A leg whose
// series is unavailable or stale is skipped, not an error.
func contractConditionProbe(ctx context.Context, env *EntryEnv) *Entry {
	legs := []struct {
		side  domain.Side
		scrip string
		note  string
	}{
		{domain.SidePut, env.Bar.PutScrip, "Signal PE | Short"},
		{domain.SideCall, env.Bar.CallScrip, "Signal CE | Short"},
	}

	for _, leg := range legs {
		sample, ok := env.Resolve(ctx, leg.scrip)
		if !ok {
			continue
		}
		if sample.EMAFastClose < sample.EMASlowLow {
			return &Entry{Side: leg.side, Scrip: leg.scrip, Price: sample.Close, Note: leg.note}
		}
	}
	return nil
}

// rolloverExit force-closes once the bar's date is within the rollover window
// before expiry, regardless of signal state.
type rolloverExit struct {
	days int
}

func (r rolloverExit) Check(env *ExitEnv) *ExitDecision {
	if env.DaysToExpiry > r.days {
		return nil
	}
	return &ExitDecision{Reason: domain.ExitReasonRollover, Price: env.Price}
}

// contractReversal closes the short when the contract's own fast EMA crosses
// above its slow high band.
type contractReversal struct{}

func (contractReversal) Check(env *ExitEnv) *ExitDecision {
	if env.Sample == nil {
		return nil
	}
	if env.Sample.EMAFastClose > env.Sample.EMASlowHigh {
		return &ExitDecision{Reason: domain.ExitReasonEMAReversalSL, Price: env.Price}
	}
	return nil
}

// targetFloor takes profit once the premium drops below the fixed floor.
type targetFloor struct {
	price float64
}

func (t targetFloor) Check(env *ExitEnv) *ExitDecision {
	if env.Price >= t.price {
		return nil
	}
	return &ExitDecision{Reason: domain.ExitReasonTargetLTP, Price: env.Price}
}
