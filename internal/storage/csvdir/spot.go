package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/series"
	"options-replay-lab/internal/storage"
)

// SpotSource loads the underlying bar series from the spot CSV. Expected
// columns: time, open, high, low, close, volume, expiry_day, expiry_month,
// expiry_year, icici_scrip_code_ce, icici_scrip_code_pe.
type SpotSource struct {
	path string
}

// NewSpotSource creates a source over the spot CSV file.
func NewSpotSource(path string) *SpotSource {
	return &SpotSource{path: path}
}

var _ storage.SpotSource = (*SpotSource)(nil)

// LoadBars reads, wall-clock-normalizes, and sorts the full spot series.
func (s *SpotSource) LoadBars(_ context.Context) ([]domain.UnderlyingBar, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open spot file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read spot header: %w", err)
	}
	cols, err := indexColumns(header,
		"time", "open", "high", "low", "close", "volume",
		"expiry_day", "expiry_month", "expiry_year",
		"icici_scrip_code_ce", "icici_scrip_code_pe")
	if err != nil {
		return nil, fmt.Errorf("spot file: %w", err)
	}

	var bars []domain.UnderlyingBar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read spot row: %w", err)
		}

		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("spot row %d: %w", len(bars)+2, err)
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
	return bars, nil
}

func parseBar(rec []string, cols map[string]int) (domain.UnderlyingBar, error) {
	var bar domain.UnderlyingBar

	t, err := parseTime(rec[cols["time"]])
	if err != nil {
		return bar, err
	}
	bar.Time = series.NormalizeWallClock(t)

	floats := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low},
		{"close", &bar.Close}, {"volume", &bar.Volume},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(rec[cols[f.name]]); err != nil {
			return bar, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"expiry_day", &bar.ExpiryDay}, {"expiry_month", &bar.ExpiryMonth}, {"expiry_year", &bar.ExpiryYear},
	}
	for _, f := range ints {
		if *f.dst, err = parseExpiryInt(rec[cols[f.name]]); err != nil {
			return bar, fmt.Errorf("%s: %w", f.name, err)
		}
	}

	bar.CallScrip = strings.TrimSpace(rec[cols["icici_scrip_code_ce"]])
	bar.PutScrip = strings.TrimSpace(rec[cols["icici_scrip_code_pe"]])
	return bar, nil
}

// parseExpiryInt accepts integer or float-formatted values, as exported by
// the upstream dataset.
func parseExpiryInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
