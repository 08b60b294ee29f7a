package strategy

import (
	"context"
	"testing"
	"time"

	"options-replay-lab/internal/domain"
)

func timeAt(hour, min int) time.Time {
	return time.Date(2024, 1, 15, hour, min, 0, 0, time.UTC)
}

func legResolver(samples map[string]*domain.Sample) func(context.Context, string) (*domain.Sample, bool) {
	return func(_ context.Context, scrip string) (*domain.Sample, bool) {
		s, ok := samples[scrip]
		return s, ok
	}
}

func sellingEnv(resolve func(context.Context, string) (*domain.Sample, bool)) *EntryEnv {
	return &EntryEnv{
		Bar:     &domain.UnderlyingBar{CallScrip: "CE", PutScrip: "PE"},
		Resolve: resolve,
	}
}

func TestContractConditionProbePutFirst(t *testing.T) {
	ctx := context.Background()

	// Both legs satisfy the condition: the put wins.
	e := contractConditionProbe(ctx, sellingEnv(legResolver(map[string]*domain.Sample{
		"PE": {Close: 50, EMAFastClose: 50, EMASlowLow: 60},
		"CE": {Close: 40, EMAFastClose: 40, EMASlowLow: 60},
	})))
	if e == nil || e.Side != domain.SidePut || e.Scrip != "PE" || e.Price != 50 {
		t.Fatalf("put should win: %+v", e)
	}

	// Put fails the condition, call passes.
	e = contractConditionProbe(ctx, sellingEnv(legResolver(map[string]*domain.Sample{
		"PE": {Close: 50, EMAFastClose: 70, EMASlowLow: 60},
		"CE": {Close: 40, EMAFastClose: 40, EMASlowLow: 60},
	})))
	if e == nil || e.Side != domain.SideCall {
		t.Fatalf("call should win: %+v", e)
	}

	// An unresolvable put leg is skipped, not fatal.
	e = contractConditionProbe(ctx, sellingEnv(legResolver(map[string]*domain.Sample{
		"CE": {Close: 40, EMAFastClose: 40, EMASlowLow: 60},
	})))
	if e == nil || e.Side != domain.SideCall {
		t.Fatalf("missing put leg should fall through to call: %+v", e)
	}

	// Equality is not a signal.
	e = contractConditionProbe(ctx, sellingEnv(legResolver(map[string]*domain.Sample{
		"PE": {Close: 50, EMAFastClose: 60, EMASlowLow: 60},
		"CE": {Close: 40, EMAFastClose: 60, EMASlowLow: 60},
	})))
	if e != nil {
		t.Fatalf("equal EMAs must not enter: %+v", e)
	}
}

func TestRolloverExitBoundary(t *testing.T) {
	rule := rolloverExit{days: 4}

	if d := rule.Check(&ExitEnv{DaysToExpiry: 5, Price: 50}); d != nil {
		t.Fatalf("five days out: %+v", d)
	}
	d := rule.Check(&ExitEnv{DaysToExpiry: 4, Price: 50})
	if d == nil || d.Reason != domain.ExitReasonRollover || d.Price != 50 {
		t.Fatalf("four days out: %+v", d)
	}
	if d := rule.Check(&ExitEnv{DaysToExpiry: 0, Price: 50}); d == nil {
		t.Fatal("expiry day itself should force")
	}
}

func TestContractReversalRule(t *testing.T) {
	rule := contractReversal{}

	if d := rule.Check(&ExitEnv{Sample: nil, Price: 50}); d != nil {
		t.Fatalf("nil sample: %+v", d)
	}
	if d := rule.Check(&ExitEnv{Sample: &domain.Sample{EMAFastClose: 50, EMASlowHigh: 60}, Price: 50}); d != nil {
		t.Fatalf("fast below slow high: %+v", d)
	}
	if d := rule.Check(&ExitEnv{Sample: &domain.Sample{EMAFastClose: 60, EMASlowHigh: 60}, Price: 50}); d != nil {
		t.Fatalf("equality must hold the position: %+v", d)
	}

	d := rule.Check(&ExitEnv{Sample: &domain.Sample{EMAFastClose: 61, EMASlowHigh: 60}, Price: 50})
	if d == nil || d.Reason != domain.ExitReasonEMAReversalSL {
		t.Fatalf("fast above slow high: %+v", d)
	}
}

func TestTargetFloorBoundary(t *testing.T) {
	rule := targetFloor{price: 30}

	if d := rule.Check(&ExitEnv{Price: 31}); d != nil {
		t.Fatalf("above floor: %+v", d)
	}
	if d := rule.Check(&ExitEnv{Price: 30}); d != nil {
		t.Fatalf("exactly the floor must hold: %+v", d)
	}

	d := rule.Check(&ExitEnv{Price: 29.99})
	if d == nil || d.Reason != domain.ExitReasonTargetLTP || d.Price != 29.99 {
		t.Fatalf("below floor: %+v", d)
	}
}

func TestWindowInclusiveBounds(t *testing.T) {
	w := Window{Start: TimeOfDay{14, 0}, End: TimeOfDay{15, 30}}

	at := func(hour, min int) bool {
		return w.Contains(timeAt(hour, min))
	}
	if at(13, 59) {
		t.Error("13:59 outside")
	}
	if !at(14, 0) {
		t.Error("14:00 inclusive")
	}
	if !at(15, 30) {
		t.Error("15:30 inclusive")
	}
	if at(15, 31) {
		t.Error("15:31 outside")
	}
}
