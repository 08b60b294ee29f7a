// Package engine implements the position lifecycle state machine: entry/hold/
// exit decisions over the replayed underlying feed, with ledger emission per
// step and summary emission per closed trade. FLAT and OPEN are the only
// states; exactly one machine instance exists per backtest run and at most
// one position is open at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"options-replay-lab/internal/domain"
	"options-replay-lab/internal/indicator"
	"options-replay-lab/internal/ledger"
	"options-replay-lab/internal/lookup"
	"options-replay-lab/internal/series"
	"options-replay-lab/internal/storage"
	"options-replay-lab/internal/strategy"
)

// Invariant violations. These indicate a defect in the replay collaborator's
// contract and abort the run.
var (
	ErrOutOfOrderBar       = errors.New("bar timestamps out of order")
	ErrPositionAlreadyOpen = errors.New("a position is already open")
)

// Machine is the position state machine for one replay.
type Machine struct {
	policy strategy.Policy
	cache  *series.Cache
	rec    ledger.Recorder
	spot   *indicator.SpotBands // nil unless the policy uses spot signals

	pos *openPosition // nil while FLAT
	day domain.DailyCounters

	seq       int
	summaries []domain.TradeSummary
	lastBar   time.Time
	started   bool
}

// openPosition is the OPEN-state payload, created on entry and destroyed on
// close.
type openPosition struct {
	side       domain.Side
	scrip      string
	entryPrice float64
	entryTime  time.Time
	stop       strategy.StopState
	steps      []domain.StepRecord
}

// New creates a machine over a contract series source and a recorder.
func New(policy strategy.Policy, source storage.ContractSeriesSource, rec ledger.Recorder) *Machine {
	var indicate series.Indicate
	if policy.Contract != nil {
		spans := *policy.Contract
		indicate = spans.Apply
	}

	m := &Machine{
		policy: policy,
		cache:  series.NewCache(source, indicate),
		rec:    rec,
	}
	if policy.Spot != nil {
		m.spot = indicator.NewSpotBands(policy.Spot.FastSpan, policy.Spot.BandSpan)
	}
	return m
}

// OnBar processes one underlying bar. Bars must arrive in non-decreasing
// timestamp order; a violation is fatal.
func (m *Machine) OnBar(ctx context.Context, bar *domain.UnderlyingBar) error {
	if m.started && bar.Time.Before(m.lastBar) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrderBar,
			bar.Time.Format(time.DateTime), m.lastBar.Format(time.DateTime))
	}
	m.started = true
	m.lastBar = bar.Time

	// Day rollover: reset the daily trade counter and drop the cached
	// series. Orthogonal to the FLAT/OPEN state.
	if m.day.Date.IsZero() || !domain.SameDate(m.day.Date, bar.Time) {
		m.day = domain.DailyCounters{Date: dateOf(bar.Time)}
		m.cache.Reset()
	}

	if m.spot != nil {
		m.spot.Update(bar)
	}

	if m.pos != nil {
		return m.hold(ctx, bar)
	}
	return m.tryEnter(ctx, bar)
}

// Finish hands the run summary to the recorder. Call exactly once after the
// last bar. A position still open at the end of the feed stays open and is
// not summarized, matching the audit-trail contract of closed trades only.
func (m *Machine) Finish(ctx context.Context) error {
	if err := m.rec.Finalize(ctx, m.summaries); err != nil {
		return fmt.Errorf("finalize summary: %w", err)
	}
	return nil
}

// Summaries returns the closed-trade summaries recorded so far.
func (m *Machine) Summaries() []domain.TradeSummary {
	return m.summaries
}

// OpenPosition reports whether a position is currently open.
func (m *Machine) OpenPosition() bool {
	return m.pos != nil
}

// resolve runs the series-cache/as-of chain for a scrip at the bar's time.
func (m *Machine) resolve(ctx context.Context, scrip string, at time.Time) (*domain.Sample, bool) {
	s, ok := m.cache.Load(ctx, scrip)
	if !ok {
		return nil, false
	}
	return lookup.AsOf(s, at, m.policy.MaxStaleness)
}

// tryEnter evaluates the FLAT -> OPEN transition.
func (m *Machine) tryEnter(ctx context.Context, bar *domain.UnderlyingBar) error {
	if m.policy.RolloverDays > 0 && bar.DaysToExpiry() <= m.policy.RolloverDays {
		return nil
	}
	if !m.policy.Window.Contains(bar.Time) {
		return nil
	}
	if m.policy.MaxTradesPerDay > 0 && m.day.TradesToday >= m.policy.MaxTradesPerDay {
		return nil
	}

	env := &strategy.EntryEnv{
		Bar:  bar,
		Spot: m.spot,
		Resolve: func(ctx context.Context, scrip string) (*domain.Sample, bool) {
			return m.resolve(ctx, scrip, bar.Time)
		},
	}
	entry := m.policy.Entry(ctx, env)
	if entry == nil {
		return nil
	}
	return m.open(bar, entry)
}

// open performs the entry bookkeeping.
func (m *Machine) open(bar *domain.UnderlyingBar, e *strategy.Entry) error {
	if m.pos != nil {
		return ErrPositionAlreadyOpen
	}

	m.seq++
	m.day.TradesToday++
	m.pos = &openPosition{
		side:       e.Side,
		scrip:      e.Scrip,
		entryPrice: e.Price,
		entryTime:  bar.Time,
		stop:       strategy.StopState{Mode: domain.StopNone},
	}
	m.record(bar.Time, m.policy.EntryEvent, e.Price, 0, e.Note)
	return nil
}

// hold processes one bar with a position open: forced exits first, then the
// resolve-or-skip hold step, stop management, and the ordered exit rules.
func (m *Machine) hold(ctx context.Context, bar *domain.UnderlyingBar) error {
	pos := m.pos

	env := &strategy.ExitEnv{
		Bar:          bar,
		DaysToExpiry: bar.DaysToExpiry(),
		Side:         pos.side,
		EntryPrice:   pos.entryPrice,
		StopMode:     pos.stop.Mode,
		StopPrice:    pos.stop.Price,
		Spot:         m.spot,
	}

	sample, ok := m.resolve(ctx, pos.scrip, bar.Time)
	if ok {
		env.Price = sample.Close
		env.PriceOK = true
		env.Sample = sample
		env.PnL = m.policy.Direction.PnL(pos.entryPrice, sample.Close, m.policy.Quantity)
	} else {
		// Forced exits substitute the entry price when the live price is
		// unavailable.
		env.Price = pos.entryPrice
	}

	for _, rule := range m.policy.PreHold {
		if d := rule.Check(env); d != nil {
			return m.close(ctx, bar, d)
		}
	}

	if !ok {
		// Wait for data: no state change, no ledger row.
		return nil
	}

	m.record(bar.Time, domain.EventHold, env.Price, env.PnL, "Monitoring")

	if m.policy.Stop != nil {
		notes := m.policy.Stop.Update(&pos.stop, pos.entryPrice, m.policy.Quantity, env.PnL)
		for _, note := range notes {
			m.record(bar.Time, domain.EventTSLUpdate, env.Price, env.PnL, note)
		}
		env.StopMode = pos.stop.Mode
		env.StopPrice = pos.stop.Price
	}

	for _, rule := range m.policy.Exits {
		if d := rule.Check(env); d != nil {
			return m.close(ctx, bar, d)
		}
	}
	return nil
}

// close performs the OPEN -> FLAT transition: exit step record, summary row,
// ledger flush, state reset.
func (m *Machine) close(ctx context.Context, bar *domain.UnderlyingBar, d *strategy.ExitDecision) error {
	pos := m.pos
	pnl := m.policy.Direction.PnL(pos.entryPrice, d.Price, m.policy.Quantity)

	m.record(bar.Time, m.policy.ExitEvent, d.Price, pnl, d.Reason)

	m.summaries = append(m.summaries, domain.TradeSummary{
		TradeID:    m.seq,
		ScripCode:  pos.scrip,
		Side:       pos.side,
		Direction:  m.policy.Direction,
		EntryTime:  pos.entryTime,
		ExitTime:   bar.Time,
		EntryPrice: domain.Round2(pos.entryPrice),
		ExitPrice:  domain.Round2(d.Price),
		PnL:        domain.Round2(pnl),
		ExitReason: d.Reason,
	})

	key := domain.TradeKey{
		TradeID:   m.seq,
		ScripCode: pos.scrip,
		EntryDate: dateOf(pos.entryTime),
	}
	if err := m.rec.Flush(ctx, key, pos.steps); err != nil {
		return fmt.Errorf("flush trade %d ledger: %w", m.seq, err)
	}

	m.pos = nil
	return nil
}

// record appends one step to the open position's ledger, rounding prices and
// PnL at this boundary only.
func (m *Machine) record(t time.Time, event domain.StepEvent, price, pnl float64, info string) {
	pos := m.pos
	pos.steps = append(pos.steps, domain.StepRecord{
		Time:      t,
		Event:     event,
		ScripCode: pos.scrip,
		Price:     domain.Round2(price),
		PnL:       domain.Round2(pnl),
		StopPrice: domain.Round2(pos.stop.Price),
		StopMode:  pos.stop.Mode,
		Info:      info,
	})
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
