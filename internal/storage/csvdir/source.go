// Package csvdir reads spot and option series from the CSV layout of the
// original dataset: one spot file, and one <scrip>.csv per option contract in
// a directory.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/storage"
)

// Timestamp layouts accepted in source files. Offsets are parsed and later
// stripped to wall clock by the consumer.
var timeLayouts = []string{
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// SeriesSource loads option contract series from <dir>/<scrip>.csv files.
// Expected columns: a "datetime" or "time" column plus open/high/low/close.
type SeriesSource struct {
	dir string
}

// NewSeriesSource creates a source over an options directory.
func NewSeriesSource(dir string) *SeriesSource {
	return &SeriesSource{dir: dir}
}

var _ storage.ContractSeriesSource = (*SeriesSource)(nil)

// LoadSeries reads the contract's CSV. A missing file is ErrNotFound; a
// malformed file is reported as an error, which callers treat as unavailable.
func (s *SeriesSource) LoadSeries(_ context.Context, scripCode string) ([]domain.Sample, error) {
	path := filepath.Join(s.dir, scripCode+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("open series %s: %w", scripCode, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read series header %s: %w", scripCode, err)
	}
	cols, err := indexColumns(header, "open", "high", "low", "close")
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", scripCode, err)
	}
	timeCol, err := timeColumn(header)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", scripCode, err)
	}

	var samples []domain.Sample
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read series row %s: %w", scripCode, err)
		}

		t, err := parseTime(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", scripCode, err)
		}
		sample := domain.Sample{Time: t}
		if sample.Open, err = parseFloat(rec[cols["open"]]); err != nil {
			return nil, fmt.Errorf("series %s open: %w", scripCode, err)
		}
		if sample.High, err = parseFloat(rec[cols["high"]]); err != nil {
			return nil, fmt.Errorf("series %s high: %w", scripCode, err)
		}
		if sample.Low, err = parseFloat(rec[cols["low"]]); err != nil {
			return nil, fmt.Errorf("series %s low: %w", scripCode, err)
		}
		if sample.Close, err = parseFloat(rec[cols["close"]]); err != nil {
			return nil, fmt.Errorf("series %s close: %w", scripCode, err)
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return nil, storage.ErrNotFound
	}
	return samples, nil
}

// timeColumn locates the "datetime" column, falling back to "time".
func timeColumn(header []string) (int, error) {
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "datetime") {
			return i, nil
		}
	}
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "time") {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no datetime or time column")
}

// indexColumns maps required column names to their positions.
func indexColumns(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		out[name] = i
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", raw)
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
