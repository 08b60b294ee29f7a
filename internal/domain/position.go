package domain

import (
	"math"
	"time"
)

// Side identifies the option leg of a position.
type Side string

// Side constants.
const (
	SideCall Side = "CE"
	SidePut  Side = "PE"
)

// Direction is the trade direction of a variant.
type Direction int

// Direction constants.
const (
	Long  Direction = 1
	Short Direction = -1
)

// PnL returns the signed profit for the direction.
func (d Direction) PnL(entry, current, quantity float64) float64 {
	return (current - entry) * quantity * float64(d)
}

// StopMode is the state of the stepped trailing stop.
type StopMode string

// Stop mode constants.
const (
	StopNone     StopMode = "NONE"
	StopAtCost   StopMode = "COST"
	StopTrailing StopMode = "TRAILING"
)

// StepEvent is the kind of a ledger step record.
type StepEvent string

// Step event constants.
const (
	EventEntry     StepEvent = "ENTRY"
	EventHold      StepEvent = "HOLD"
	EventTSLUpdate StepEvent = "TSL_UPDATE"
	EventSellEntry StepEvent = "SELL_ENTRY"
	EventExit      StepEvent = "EXIT"
	EventBuyExit   StepEvent = "BUY_EXIT"
)

// Exit reason codes.
const (
	ExitReasonExpiryForce   = "EXPIRY_FORCE"
	ExitReasonTSLHit        = "TSL_HIT"
	ExitReasonEMAReversal   = "EMA_REVERSAL"
	ExitReasonRollover      = "ROLLOVER_EXIT"
	ExitReasonEMAReversalSL = "EMA_REVERSAL_SL"
	ExitReasonTargetLTP     = "TARGET_LTP_30"
)

// StepRecord is one append-only entry in a position's step ledger.
// Prices and PnL are rounded to two decimals at recording time; the state
// machine keeps full precision internally.
type StepRecord struct {
	Time      time.Time
	Event     StepEvent
	ScripCode string
	Price     float64
	PnL       float64
	StopPrice float64
	StopMode  StopMode
	Info      string
}

// DailyCounters tracks per-day entry gating state. Reset whenever the bar's
// date differs from Date.
type DailyCounters struct {
	Date        time.Time // date of the counters, zero before the first bar
	TradesToday int
}

// Round2 rounds to two decimals. Applied only at the recording and reporting
// boundary so that ratchet comparisons and threshold checks keep full
// precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
