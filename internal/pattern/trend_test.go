package pattern

import (
	"testing"

	"StockLens/internal/model"
)

func barsWithCloses(closes []float64) []model.Bar {
	bars := flatBars(0, 1000, len(closes))
	for i, c := range closes {
		bars[i].Open, bars[i].Close, bars[i].High, bars[i].Low = c, c, c, c
	}
	return bars
}

func ramp(from, to float64, count int) []float64 {
	out := make([]float64, count)
	step := (to - from) / float64(count-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func TestTrendBefore_Up(t *testing.T) {
	tb := classifyTrendBefore(barsWithCloses(ramp(100, 120, 20)), 20)
	if tb == nil {
		t.Fatal("expected a classification")
	}
	if tb.Direction != model.TrendUp {
		t.Errorf("direction = %s, want up", tb.Direction)
	}
	if !almost(tb.NetChangePct, 20) {
		t.Errorf("net = %v, want 20", tb.NetChangePct)
	}
	if tb.HadDeepDrop {
		t.Error("monotone ramp has no deep drop")
	}
}

func TestTrendBefore_Down(t *testing.T) {
	tb := classifyTrendBefore(barsWithCloses(ramp(120, 100, 20)), 20)
	if tb.Direction != model.TrendDown {
		t.Errorf("direction = %s, want down", tb.Direction)
	}
}

func TestTrendBefore_Sideways(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 101
		}
	}
	tb := classifyTrendBefore(barsWithCloses(closes), 20)
	if tb.Direction != model.TrendSideways {
		t.Errorf("direction = %s, want sideways", tb.Direction)
	}
}

func TestTrendBefore_VolatileWithSubtype(t *testing.T) {
	// Big round trip, tiny net change: up to 120, back to 95, end at 101.
	closes := append(ramp(100, 120, 7), append(ramp(118, 95, 7), ramp(96, 101, 6)...)...)
	tb := classifyTrendBefore(barsWithCloses(closes), 20)
	if tb.Direction != model.TrendVolatile {
		t.Fatalf("direction = %s, want volatile (net %v, range %v)", tb.Direction, tb.NetChangePct, tb.RangePct)
	}
	if tb.VolatileSubtype != "up-down-up" {
		t.Errorf("subtype = %q, want up-down-up", tb.VolatileSubtype)
	}
}

func TestTrendBefore_DeepDropAndRebound(t *testing.T) {
	// Peak 110, trough 95 (-13.6%), recovery to 101 (+6.3%).
	closes := append(ramp(100, 110, 8), append(ramp(108, 95, 6), ramp(96, 101, 6)...)...)
	tb := classifyTrendBefore(barsWithCloses(closes), 20)
	if !tb.HadDeepDrop {
		t.Fatalf("expected a deep drop, max drawdown %v", tb.MaxDrawdownPct)
	}
	if tb.MaxDrawdownPct < 13 || tb.MaxDrawdownPct > 14 {
		t.Errorf("max drawdown = %v, want ~13.6", tb.MaxDrawdownPct)
	}
	if !tb.HadRebound {
		t.Errorf("expected a rebound, got %v%%", tb.ReboundPct)
	}
}

func TestTrendBefore_RoseThenFell(t *testing.T) {
	// Up 100→115, flat-ish middle, down to 97: first segment up, last down.
	closes := append(ramp(100, 115, 7), append(ramp(115, 114, 6), ramp(113, 97, 7)...)...)
	tb := classifyTrendBefore(barsWithCloses(closes), 20)
	if !tb.RoseThenFell {
		t.Error("expected the three-segment up-then-down shape")
	}
}

func TestTrendBefore_InsufficientHistory(t *testing.T) {
	if tb := classifyTrendBefore(barsWithCloses(ramp(100, 110, 10)), 20); tb != nil {
		t.Errorf("expected nil for short history, got %+v", tb)
	}
}
