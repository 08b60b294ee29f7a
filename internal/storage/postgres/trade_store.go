package postgres

import (
	"context"
	"fmt"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertSummary adds a closed trade's summary row.
// Returns ErrDuplicateKey if the trade id already exists for the run.
func (s *TradeStore) InsertSummary(ctx context.Context, runID string, t *domain.TradeSummary) error {
	if t == nil || runID == "" || t.TradeID <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_summaries (
			run_id, trade_id, scrip_code, side, direction,
			entry_time, exit_time, entry_price, exit_price,
			pnl, exit_reason
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		runID, t.TradeID, t.ScripCode, string(t.Side), int(t.Direction),
		t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
		t.PnL, t.ExitReason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade summary: %w", err)
	}
	return nil
}

// InsertSteps adds the full step ledger of a closed trade atomically.
func (s *TradeStore) InsertSteps(ctx context.Context, runID string, key domain.TradeKey, rows []domain.StepRecord) error {
	if runID == "" || key.TradeID <= 0 {
		return storage.ErrInvalidInput
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trade_steps (
			run_id, trade_id, scrip_code, entry_date, step_index,
			step_time, event, price, pnl, stop_price, stop_mode, info
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12
		)
	`

	for i, row := range rows {
		_, err := tx.Exec(ctx, query,
			runID, key.TradeID, key.ScripCode, key.EntryDate, i,
			row.Time, string(row.Event), row.Price, row.PnL,
			row.StopPrice, string(row.StopMode), row.Info,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade step %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetSummaries retrieves all summaries for a run, ordered by trade id ASC.
func (s *TradeStore) GetSummaries(ctx context.Context, runID string) ([]*domain.TradeSummary, error) {
	query := `
		SELECT trade_id, scrip_code, side, direction,
		       entry_time, exit_time, entry_price, exit_price,
		       pnl, exit_reason
		FROM trade_summaries
		WHERE run_id = $1
		ORDER BY trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trade summaries: %w", err)
	}
	defer rows.Close()

	var out []*domain.TradeSummary
	for rows.Next() {
		var t domain.TradeSummary
		var side string
		var direction int
		if err := rows.Scan(
			&t.TradeID, &t.ScripCode, &side, &direction,
			&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice,
			&t.PnL, &t.ExitReason,
		); err != nil {
			return nil, fmt.Errorf("scan trade summary: %w", err)
		}
		t.Side = domain.Side(side)
		t.Direction = domain.Direction(direction)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade summaries: %w", err)
	}
	return out, nil
}

// GetSteps retrieves the step ledger of one trade, in recorded order.
// Returns ErrNotFound if the trade has no stored ledger.
func (s *TradeStore) GetSteps(ctx context.Context, runID string, tradeID int) ([]domain.StepRecord, error) {
	query := `
		SELECT scrip_code, step_time, event, price, pnl, stop_price, stop_mode, info
		FROM trade_steps
		WHERE run_id = $1 AND trade_id = $2
		ORDER BY step_index ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, tradeID)
	if err != nil {
		return nil, fmt.Errorf("query trade steps: %w", err)
	}
	defer rows.Close()

	var out []domain.StepRecord
	for rows.Next() {
		var r domain.StepRecord
		var event, stopMode string
		if err := rows.Scan(
			&r.ScripCode, &r.Time, &event, &r.Price, &r.PnL,
			&r.StopPrice, &stopMode, &r.Info,
		); err != nil {
			return nil, fmt.Errorf("scan trade step: %w", err)
		}
		r.Event = domain.StepEvent(event)
		r.StopMode = domain.StopMode(stopMode)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade steps: %w", err)
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}
