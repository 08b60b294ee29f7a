package domain

import "time"

// TradeSummary is one row of the run summary, produced per closed position.
// Prices and PnL are rounded to two decimals.
type TradeSummary struct {
	TradeID    int // 1-based trade sequence number within the run
	ScripCode  string
	Side       Side
	Direction  Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	ExitReason string
}

// TradeKey identifies one closed trade's durable step ledger.
type TradeKey struct {
	TradeID   int
	ScripCode string
	EntryDate time.Time // date component of the entry timestamp
}
