package indicator

import (
	"math"
	"testing"

	"StockLens/internal/model"
)

func TestDrawdown_Signed(t *testing.T) {
	if got := Drawdown(90, 100); !almostEqual(got, -10.00) {
		t.Errorf("Drawdown(90,100) = %v, want -10.00", got)
	}
	if got := Drawdown(110, 100); !almostEqual(got, 10.00) {
		t.Errorf("Drawdown(110,100) = %v, want 10.00 (never clipped)", got)
	}
	if got := Drawdown(90, 0); !math.IsNaN(got) {
		t.Errorf("Drawdown with zero high = %v, want NaN", got)
	}
}

func TestWindowHelpers_Empty(t *testing.T) {
	if !math.IsNaN(High(nil)) || !math.IsNaN(Low(nil)) || !math.IsNaN(AvgClose(nil)) || !math.IsNaN(AvgVolume(nil)) {
		t.Error("expected NaN for empty windows")
	}
}

func TestWindowHelpers_Values(t *testing.T) {
	bars := []model.Bar{
		{High: 12, Low: 9, Close: 10, Volume: 100},
		{High: 15, Low: 11, Close: 14, Volume: 300},
	}
	if got := High(bars); !almostEqual(got, 15) {
		t.Errorf("High = %v, want 15", got)
	}
	if got := Low(bars); !almostEqual(got, 9) {
		t.Errorf("Low = %v, want 9", got)
	}
	if got := AvgClose(bars); !almostEqual(got, 12) {
		t.Errorf("AvgClose = %v, want 12", got)
	}
	if got := AvgVolume(bars); !almostEqual(got, 200) {
		t.Errorf("AvgVolume = %v, want 200", got)
	}
}

func TestTrailing(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5)
	if got := Trailing(bars, 2); len(got) != 2 || got[0].Close != 4 {
		t.Errorf("Trailing(5 bars, 2) = %v", got)
	}
	if got := Trailing(bars, 10); len(got) != 5 {
		t.Errorf("Trailing should clamp to available bars, got %d", len(got))
	}
	if got := Trailing(bars, 0); got != nil {
		t.Errorf("Trailing with zero window = %v, want nil", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(3.14159); !almostEqual(got, 3.14) {
		t.Errorf("Round2(3.14159) = %v, want 3.14", got)
	}
	if got := Round2(-10.0 / 3); !almostEqual(got, -3.33) {
		t.Errorf("Round2(-10/3) = %v, want -3.33", got)
	}
}
