// Package reporting computes and renders the run-level aggregate over the
// ordered trade summaries.
package reporting

import (
	"fmt"
	"sort"
	"strings"

	"options-replay-lab/internal/domain"
)

// Aggregate is the run summary rollup.
type Aggregate struct {
	TotalTrades int
	TotalPnL    float64
	Wins        int
	Losses      int
	WinRate     float64

	// ByReason counts closed trades per exit reason code.
	ByReason map[string]int
}

// Aggregated computes the rollup from the ordered summary list.
func Aggregated(summaries []domain.TradeSummary) Aggregate {
	agg := Aggregate{ByReason: make(map[string]int)}
	for _, s := range summaries {
		agg.TotalTrades++
		agg.TotalPnL += s.PnL
		if s.PnL > 0 {
			agg.Wins++
		} else {
			agg.Losses++
		}
		agg.ByReason[s.ExitReason]++
	}
	if agg.TotalTrades > 0 {
		agg.WinRate = float64(agg.Wins) / float64(agg.TotalTrades)
	}
	agg.TotalPnL = domain.Round2(agg.TotalPnL)
	return agg
}

// RenderText renders a human-readable aggregate block.
func RenderText(agg Aggregate) string {
	var sb strings.Builder
	sb.WriteString("=== Run Summary ===\n")
	fmt.Fprintf(&sb, "Total Trades: %d\n", agg.TotalTrades)
	fmt.Fprintf(&sb, "Total PnL:    %.2f\n", agg.TotalPnL)
	fmt.Fprintf(&sb, "Wins/Losses:  %d/%d (%.1f%%)\n", agg.Wins, agg.Losses, agg.WinRate*100)

	reasons := make([]string, 0, len(agg.ByReason))
	for r := range agg.ByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&sb, "  %-16s %d\n", r, agg.ByReason[r])
	}
	return sb.String()
}

// RenderCSV renders the summaries as CSV, one row per closed trade.
func RenderCSV(summaries []domain.TradeSummary) string {
	var sb strings.Builder
	sb.WriteString("trade_id,scrip,side,direction,entry_time,exit_time,entry_price,exit_price,pnl,exit_reason\n")
	for _, s := range summaries {
		dir := "LONG"
		if s.Direction == domain.Short {
			dir = "SHORT"
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%.2f,%.2f,%.2f,%s\n",
			s.TradeID,
			s.ScripCode,
			s.Side,
			dir,
			s.EntryTime.Format("2006-01-02 15:04:05"),
			s.ExitTime.Format("2006-01-02 15:04:05"),
			s.EntryPrice,
			s.ExitPrice,
			s.PnL,
			s.ExitReason,
		))
	}
	return sb.String()
}
