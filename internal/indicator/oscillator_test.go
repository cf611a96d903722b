package indicator

import (
	"math"
	"testing"
)

func TestKDJ_SeedsFromFifty(t *testing.T) {
	// Nine bars ramping 1..9: first valid RSV lands at index 8 with
	// RSV = (9-1)/(9-1)*100 = 100. K must come from the 50 seed via one
	// recurrence step, not sit at the raw RSV.
	bars := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8, 9)
	k, d, j := KDJ(bars, 9)

	for i := 0; i < 8; i++ {
		if !math.IsNaN(k[i]) || !math.IsNaN(d[i]) || !math.IsNaN(j[i]) {
			t.Fatalf("index %d: expected NaN before the window fills", i)
		}
	}
	wantK := (2*50.0 + 100) / 3 // 66.666...
	wantD := (2*50.0 + wantK) / 3
	if !almostEqual(k[8], wantK) {
		t.Errorf("K[8] = %v, want %v", k[8], wantK)
	}
	if !almostEqual(d[8], wantD) {
		t.Errorf("D[8] = %v, want %v", d[8], wantD)
	}
	if !almostEqual(j[8], 3*wantK-2*wantD) {
		t.Errorf("J[8] = %v, want %v", j[8], 3*wantK-2*wantD)
	}
}

func TestKDJ_DegenerateRange(t *testing.T) {
	// A perfectly flat window has zero range; RSV falls back to 0.
	bars := barsFromCloses(5, 5, 5, 5, 5, 5, 5, 5, 5)
	k, _, _ := KDJ(bars, 9)
	wantK := (2*50.0 + 0) / 3
	if !almostEqual(k[8], wantK) {
		t.Errorf("K[8] = %v, want %v for degenerate range", k[8], wantK)
	}
}

func TestRSI_AllGains(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5, 6, 7)
	rsi := RSI(bars, 5)
	for i := 0; i < 5; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Errorf("RSI[%d] = %v, want NaN", i, rsi[i])
		}
	}
	if !almostEqual(rsi[5], 100) || !almostEqual(rsi[6], 100) {
		t.Errorf("RSI = %v %v, want 100 when avgLoss is zero", rsi[5], rsi[6])
	}
}

func TestRSI_Balanced(t *testing.T) {
	// Alternating +1/-1 deltas over an even window: gains == losses.
	bars := barsFromCloses(10, 11, 10, 11, 10, 11, 10)
	rsi := RSI(bars, 6)
	if !almostEqual(rsi[6], 50) {
		t.Errorf("RSI[6] = %v, want 50 for balanced gains/losses", rsi[6])
	}
}

func TestRSI_ShortSeries(t *testing.T) {
	rsi := RSI(barsFromCloses(1, 2), 14)
	for i, v := range rsi {
		if !math.IsNaN(v) {
			t.Errorf("RSI[%d] = %v, want NaN", i, v)
		}
	}
}
