package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"options-replay-lab/internal/domain"
)

// CSVRecorder writes one CSV file per closed trade into a details directory,
// plus a single run summary CSV.
type CSVRecorder struct {
	detailsDir  string
	summaryPath string
}

// NewCSVRecorder creates the details directory if needed.
func NewCSVRecorder(detailsDir, summaryPath string) (*CSVRecorder, error) {
	if err := os.MkdirAll(detailsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create details dir: %w", err)
	}
	return &CSVRecorder{detailsDir: detailsDir, summaryPath: summaryPath}, nil
}

// Flush writes Trade_<id>_<scrip>_<entry date>.csv with the ordered step
// ledger exactly as produced.
func (r *CSVRecorder) Flush(_ context.Context, key domain.TradeKey, rows []domain.StepRecord) error {
	name := fmt.Sprintf("Trade_%d_%s_%s.csv", key.TradeID, key.ScripCode, key.EntryDate.Format("2006-01-02"))
	f, err := os.Create(filepath.Join(r.detailsDir, name))
	if err != nil {
		return fmt.Errorf("create trade ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "Time", "Event", "Ticker", "Price", "PnL", "SL_Price", "SL_Mode", "Info"}); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.Time.Format("2006-01-02"),
			row.Time.Format("15:04:05"),
			string(row.Event),
			row.ScripCode,
			formatPrice(row.Price),
			formatPrice(row.PnL),
			formatPrice(row.StopPrice),
			string(row.StopMode),
			row.Info,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush trade ledger: %w", err)
	}
	return nil
}

// Finalize writes the run summary CSV with one row per closed trade.
func (r *CSVRecorder) Finalize(_ context.Context, summaries []domain.TradeSummary) error {
	f, err := os.Create(r.summaryPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"TradeID", "ScripName", "Type", "Side", "EntryDateTime", "ExitDateTime", "EntryPrice", "ExitPrice", "PnL", "ExitReason"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, s := range summaries {
		rec := []string{
			strconv.Itoa(s.TradeID),
			s.ScripCode,
			string(s.Side),
			directionLabel(s.Direction),
			s.EntryTime.Format("2006-01-02 15:04:05"),
			s.ExitTime.Format("2006-01-02 15:04:05"),
			formatPrice(s.EntryPrice),
			formatPrice(s.ExitPrice),
			formatPrice(s.PnL),
			s.ExitReason,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush summary: %w", err)
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func directionLabel(d domain.Direction) string {
	if d == domain.Short {
		return "SHORT"
	}
	return "LONG"
}

var _ Recorder = (*CSVRecorder)(nil)
