package clickhouse

import (
	"context"
	"fmt"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// SeriesSource implements storage.ContractSeriesSource using ClickHouse.
// Bars live in the option_bars table, one row per (scrip_code, ts).
type SeriesSource struct {
	conn *Conn
}

// NewSeriesSource creates a new SeriesSource.
func NewSeriesSource(conn *Conn) *SeriesSource {
	return &SeriesSource{conn: conn}
}

// Compile-time interface check.
var _ storage.ContractSeriesSource = (*SeriesSource)(nil)

// LoadSeries retrieves all bars for a scrip code, ordered by timestamp ASC.
// Returns storage.ErrNotFound when the contract has no rows.
func (s *SeriesSource) LoadSeries(ctx context.Context, scripCode string) ([]domain.Sample, error) {
	if scripCode == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ts, open, high, low, close
		FROM option_bars
		WHERE scrip_code = ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, scripCode)
	if err != nil {
		return nil, fmt.Errorf("query option bars: %w", err)
	}
	defer rows.Close()

	var samples []domain.Sample
	for rows.Next() {
		var (
			ts         time.Time
			o, h, l, c float64
		)
		if err := rows.Scan(&ts, &o, &h, &l, &c); err != nil {
			return nil, fmt.Errorf("scan option bar: %w", err)
		}
		samples = append(samples, domain.Sample{
			Time:  ts,
			Open:  o,
			High:  h,
			Low:   l,
			Close: c,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate option bars: %w", err)
	}
	if len(samples) == 0 {
		return nil, storage.ErrNotFound
	}
	return samples, nil
}

// InsertBars loads bars for a contract in one batch. Re-ingesting the same
// (scrip_code, ts) rows is collapsed by the table engine rather than rejected.
func (s *SeriesSource) InsertBars(ctx context.Context, scripCode string, samples []domain.Sample) error {
	if scripCode == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO option_bars (scrip_code, ts, open, high, low, close, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sm := range samples {
		err = batch.Append(scripCode, sm.Time, sm.Open, sm.High, sm.Low, sm.Close, 0.0)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
