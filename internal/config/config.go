// Package config loads and validates the YAML run configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"options-replay-lab/internal/strategy"
)

// Variant names accepted by Config.Variant.
const (
	VariantBuying  = "buying"
	VariantSelling = "selling"
)

// Config is the root run configuration.
type Config struct {
	// Variant selects the strategy: buying or selling.
	Variant string `yaml:"variant"`
	// Quantity is the contract quantity per trade.
	Quantity float64 `yaml:"quantity"`

	Data    DataConfig    `yaml:"data"`
	Output  OutputConfig  `yaml:"output"`
	Buying  BuyingConfig  `yaml:"buying"`
	Selling SellingConfig `yaml:"selling"`
}

// DataConfig locates the input series.
type DataConfig struct {
	// SpotFile is the underlying bar CSV driving the replay.
	SpotFile string `yaml:"spot_file"`
	// OptionsDir holds one <scrip>.csv per option contract.
	OptionsDir string `yaml:"options_dir"`
	// ClickhouseDSN, when set, reads contract series from ClickHouse
	// instead of OptionsDir.
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// OutputConfig locates run outputs.
type OutputConfig struct {
	// DetailsDir receives one step-ledger CSV per closed trade.
	DetailsDir string `yaml:"details_dir"`
	// SummaryFile is the run summary CSV path.
	SummaryFile string `yaml:"summary_file"`
	// PostgresDSN, when set, also persists trades to Postgres.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BuyingConfig holds the buying variant's parameters.
type BuyingConfig struct {
	EntryStart      string  `yaml:"entry_start"`
	EntryEnd        string  `yaml:"entry_end"`
	MaxTradesPerDay int     `yaml:"max_trades_per_day"`
	TSLTrigger      float64 `yaml:"tsl_trigger"`
	TSLStep         float64 `yaml:"tsl_step"`
	TSLIncrement    float64 `yaml:"tsl_increment"`
	EMAFastSpan     int     `yaml:"ema_fast_span"`
	EMABandSpan     int     `yaml:"ema_band_span"`
}

// SellingConfig holds the selling variant's parameters.
type SellingConfig struct {
	EntryStart          string  `yaml:"entry_start"`
	EntryEnd            string  `yaml:"entry_end"`
	EMAFastSpan         int     `yaml:"ema_fast_span"`
	EMASlowSpan         int     `yaml:"ema_slow_span"`
	MaxStalenessSeconds int     `yaml:"max_staleness_seconds"`
	RolloverDays        int     `yaml:"rollover_days"`
	TargetPrice         float64 `yaml:"target_price"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Variant == "" {
		c.Variant = VariantBuying
	}
	if c.Quantity == 0 {
		c.Quantity = 120
	}

	if c.Output.DetailsDir == "" {
		c.Output.DetailsDir = "trade_details"
	}
	if c.Output.SummaryFile == "" {
		c.Output.SummaryFile = "summary.csv"
	}

	if c.Buying.EntryStart == "" {
		c.Buying.EntryStart = "09:20"
	}
	if c.Buying.EntryEnd == "" {
		c.Buying.EntryEnd = "11:00"
	}
	if c.Buying.MaxTradesPerDay == 0 {
		c.Buying.MaxTradesPerDay = 2
	}
	if c.Buying.TSLTrigger == 0 {
		c.Buying.TSLTrigger = 3000
	}
	if c.Buying.TSLStep == 0 {
		c.Buying.TSLStep = 500
	}
	if c.Buying.TSLIncrement == 0 {
		c.Buying.TSLIncrement = 500
	}
	if c.Buying.EMAFastSpan == 0 {
		c.Buying.EMAFastSpan = 5
	}
	if c.Buying.EMABandSpan == 0 {
		c.Buying.EMABandSpan = 20
	}

	if c.Selling.EntryStart == "" {
		c.Selling.EntryStart = "14:00"
	}
	if c.Selling.EntryEnd == "" {
		c.Selling.EntryEnd = "15:30"
	}
	if c.Selling.EMAFastSpan == 0 {
		c.Selling.EMAFastSpan = 19
	}
	if c.Selling.EMASlowSpan == 0 {
		c.Selling.EMASlowSpan = 50
	}
	if c.Selling.MaxStalenessSeconds == 0 {
		c.Selling.MaxStalenessSeconds = 900
	}
	if c.Selling.RolloverDays == 0 {
		c.Selling.RolloverDays = 4
	}
	if c.Selling.TargetPrice == 0 {
		c.Selling.TargetPrice = 30
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Variant != VariantBuying && c.Variant != VariantSelling {
		return fmt.Errorf("variant must be %q or %q, got %q", VariantBuying, VariantSelling, c.Variant)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", c.Quantity)
	}
	if c.Data.SpotFile == "" {
		return fmt.Errorf("data.spot_file is required")
	}
	if c.Data.OptionsDir == "" && c.Data.ClickhouseDSN == "" {
		return fmt.Errorf("one of data.options_dir or data.clickhouse_dsn is required")
	}

	windows := []struct {
		name       string
		start, end string
	}{
		{"buying", c.Buying.EntryStart, c.Buying.EntryEnd},
		{"selling", c.Selling.EntryStart, c.Selling.EntryEnd},
	}
	for _, w := range windows {
		start, err := parseTimeOfDay(w.start)
		if err != nil {
			return fmt.Errorf("%s.entry_start: %w", w.name, err)
		}
		end, err := parseTimeOfDay(w.end)
		if err != nil {
			return fmt.Errorf("%s.entry_end: %w", w.name, err)
		}
		if start.Hour*60+start.Minute > end.Hour*60+end.Minute {
			return fmt.Errorf("%s entry window start %s is after end %s", w.name, w.start, w.end)
		}
	}

	if c.Buying.MaxTradesPerDay < 0 {
		return fmt.Errorf("buying.max_trades_per_day must not be negative")
	}
	if c.Buying.TSLTrigger < 0 || c.Buying.TSLStep <= 0 || c.Buying.TSLIncrement <= 0 {
		return fmt.Errorf("buying trailing stop parameters must be positive")
	}
	for _, span := range []struct {
		name string
		v    int
	}{
		{"buying.ema_fast_span", c.Buying.EMAFastSpan},
		{"buying.ema_band_span", c.Buying.EMABandSpan},
		{"selling.ema_fast_span", c.Selling.EMAFastSpan},
		{"selling.ema_slow_span", c.Selling.EMASlowSpan},
	} {
		if span.v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", span.name, span.v)
		}
	}
	if c.Selling.MaxStalenessSeconds < 0 {
		return fmt.Errorf("selling.max_staleness_seconds must not be negative")
	}
	if c.Selling.RolloverDays < 0 {
		return fmt.Errorf("selling.rollover_days must not be negative")
	}
	if c.Selling.TargetPrice < 0 {
		return fmt.Errorf("selling.target_price must not be negative")
	}

	return nil
}

// BuildPolicy materializes the configured variant's strategy policy.
func (c *Config) BuildPolicy() (strategy.Policy, error) {
	switch c.Variant {
	case VariantBuying:
		p := strategy.DefaultBuying()
		p.Quantity = c.Quantity
		p.Window = c.buyingWindow()
		p.MaxTradesPerDay = c.Buying.MaxTradesPerDay
		p.TSLTrigger = c.Buying.TSLTrigger
		p.TSLStep = c.Buying.TSLStep
		p.TSLIncrement = c.Buying.TSLIncrement
		p.FastSpan = c.Buying.EMAFastSpan
		p.BandSpan = c.Buying.EMABandSpan
		return strategy.Buying(p), nil
	case VariantSelling:
		p := strategy.DefaultSelling()
		p.Quantity = c.Quantity
		p.Window = c.sellingWindow()
		p.FastSpan = c.Selling.EMAFastSpan
		p.SlowSpan = c.Selling.EMASlowSpan
		p.MaxStaleness = time.Duration(c.Selling.MaxStalenessSeconds) * time.Second
		p.RolloverDays = c.Selling.RolloverDays
		p.TargetPrice = c.Selling.TargetPrice
		return strategy.Selling(p), nil
	default:
		return strategy.Policy{}, fmt.Errorf("unknown variant %q", c.Variant)
	}
}

func (c *Config) buyingWindow() strategy.Window {
	return mustWindow(c.Buying.EntryStart, c.Buying.EntryEnd)
}

func (c *Config) sellingWindow() strategy.Window {
	return mustWindow(c.Selling.EntryStart, c.Selling.EntryEnd)
}

// mustWindow assumes Validate already accepted both bounds.
func mustWindow(start, end string) strategy.Window {
	s, _ := parseTimeOfDay(start)
	e, _ := parseTimeOfDay(end)
	return strategy.Window{Start: s, End: e}
}

// parseTimeOfDay parses "HH:MM".
func parseTimeOfDay(s string) (strategy.TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return strategy.TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return strategy.TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return strategy.TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return strategy.TimeOfDay{Hour: hour, Minute: minute}, nil
}
