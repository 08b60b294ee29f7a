// Package strategy defines the policy value that parameterizes the position
// state machine: an entry probe, an ordered exit-rule list, a stop-loss
// policy, and the directional sign. The two variants (option buying and
// option selling) are expressed as data over a small closed set of rules
// rather than as separate state machines.
package strategy

import (
	"context"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/indicator"
)

// TimeOfDay is a wall-clock minute within the trading day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Window is an inclusive entry time window.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether the timestamp's time of day falls inside the
// window, inclusive at both ends.
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.Start.minutes() && m <= w.End.minutes()
}

// Entry is an order produced by an entry probe.
type Entry struct {
	Side  domain.Side
	Scrip string
	Price float64
	Note  string
}

// EntryEnv is the data an entry probe may inspect. Resolve performs the
// series-cache/as-of chain for a leg's contract; a false result means the
// signal opens nothing this bar and is not retried.
type EntryEnv struct {
	Bar     *domain.UnderlyingBar
	Spot    *indicator.SpotBands
	Resolve func(ctx context.Context, scripCode string) (*domain.Sample, bool)
}

// EntryProbe evaluates the current bar for an entry signal. Returns nil when
// no trade should open.
type EntryProbe func(ctx context.Context, env *EntryEnv) *Entry

// ExitEnv is the data exit rules may inspect on a held bar.
type ExitEnv struct {
	Bar          *domain.UnderlyingBar
	DaysToExpiry int

	Side       domain.Side
	EntryPrice float64

	// Price is the resolved contract price, or EntryPrice as fallback when
	// PriceOK is false (only forced exits may act on a fallback price).
	Price   float64
	PriceOK bool
	PnL     float64

	StopMode  domain.StopMode
	StopPrice float64

	Spot   *indicator.SpotBands
	Sample *domain.Sample // contract sample with indicator columns, nil when unresolved
}

// ExitDecision closes the position at Price with the given reason code.
type ExitDecision struct {
	Reason string
	Price  float64
}

// ExitRule is one member of a policy's ordered exit-rule list. The first
// non-nil decision wins; no further rules run that bar.
type ExitRule interface {
	Check(env *ExitEnv) *ExitDecision
}

// StopState is the mutable stop-loss state of an open position.
type StopState struct {
	Mode   domain.StopMode
	Price  float64
	MaxPnL float64 // high-water-mark profit
}

// StopPolicy manages stop state on every held bar. Update returns one note
// per stop change; the machine emits a TSL_UPDATE step record for each.
type StopPolicy interface {
	Update(st *StopState, entryPrice, quantity, pnl float64) []string
}

// Policy parameterizes one backtest run.
type Policy struct {
	Name      string
	Direction domain.Direction
	Quantity  float64

	Window          Window
	MaxTradesPerDay int           // 0 = no daily cap
	MaxStaleness    time.Duration // 0 = no staleness ceiling on as-of lookups
	RolloverDays    int           // 0 = disabled; otherwise vetoes entries this close to expiry

	Spot     *SpotSpans               // nil when spot EMAs do not drive signals
	Contract *indicator.ContractSpans // nil when contract series need no indicator columns

	Entry EntryProbe

	// PreHold rules run before the price-availability skip, with the entry
	// price substituted when the live price is unresolved.
	PreHold []ExitRule
	// Exits run after the HOLD record, in strict priority order.
	Exits []ExitRule

	Stop StopPolicy // nil = no stop management

	EntryEvent domain.StepEvent
	ExitEvent  domain.StepEvent
}

// SpotSpans holds the EMA spans computed on the underlying feed.
type SpotSpans struct {
	FastSpan int
	BandSpan int
}
