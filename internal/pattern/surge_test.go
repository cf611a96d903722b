package pattern

import (
	"testing"

	"StockLens/internal/model"
)

// surgeSeries builds: 30 flat bars at 100 (volume 1000), a 10-bar ramp
// to 108 on doubled volume, then the tail bars appended by each test.
func surgeSeries(tail []model.Bar) []model.Bar {
	bars := flatBars(100, 1000, 30)
	rampUp := barsWithCloses(ramp(100.8, 108, 10))
	for i := range rampUp {
		rampUp[i].Volume = 2000
	}
	bars = append(bars, rampUp...)
	return append(bars, tail...)
}

func TestDetectSurges_FlagsWindow(t *testing.T) {
	cfg := DefaultSurgeConfig()
	surges := DetectSurges(surgeSeries(nil), cfg)
	if len(surges) != 1 {
		t.Fatalf("got %d surges, want 1", len(surges))
	}
	s := surges[0]
	if s.Start != 30 || s.End != 39 {
		t.Errorf("window = [%d,%d], want [30,39]", s.Start, s.End)
	}
	// (108-100.8)/100.8 = 7.14%, inside the 5-10 band.
	if !almost(s.PriceChangePct, 7.14) {
		t.Errorf("change = %v, want 7.14", s.PriceChangePct)
	}
	if !almost(s.VolumeRatio, 2.0) {
		t.Errorf("volume ratio = %v, want 2.0", s.VolumeRatio)
	}
	// 7.14% is below the heavy change bar even at 2x volume.
	if s.Intensity != model.SurgeMedium {
		t.Errorf("intensity = %s, want medium", s.Intensity)
	}
}

func TestDetectSurges_QuietSeries(t *testing.T) {
	if surges := DetectSurges(flatBars(100, 1000, 80), DefaultSurgeConfig()); len(surges) != 0 {
		t.Errorf("flat series produced %d surges", len(surges))
	}
}

func TestDetectSurges_ChangeOutsideBand(t *testing.T) {
	bars := flatBars(100, 1000, 30)
	jump := barsWithCloses(ramp(102, 120, 10)) // ~17.6%, beyond the band
	for i := range jump {
		jump[i].Volume = 2500
	}
	bars = append(bars, jump...)
	if surges := DetectSurges(bars, DefaultSurgeConfig()); len(surges) != 0 {
		t.Errorf("out-of-band move produced %d surges", len(surges))
	}
}

func TestDetectSurges_VolumeTooLow(t *testing.T) {
	bars := flatBars(100, 1000, 30)
	quiet := barsWithCloses(ramp(100.8, 108, 10)) // right move, no volume
	for i := range quiet {
		quiet[i].Volume = 1100
	}
	bars = append(bars, quiet...)
	if surges := DetectSurges(bars, DefaultSurgeConfig()); len(surges) != 0 {
		t.Errorf("low-volume move produced %d surges", len(surges))
	}
}

func TestAnalyzeAfterSurge_Consolidation(t *testing.T) {
	// Two gap bars, then ten flat bars: a clean consolidation, nothing after.
	tail := flatBars(108, 800, 12)
	bars := surgeSeries(tail)
	surges := DetectSurges(bars, DefaultSurgeConfig())
	if len(surges) != 1 {
		t.Fatalf("setup: got %d surges", len(surges))
	}
	got := AnalyzeAfterSurge(bars, surges[0], DefaultConsolidationConfig())
	if got != model.AfterSurgeConsolidation {
		t.Errorf("after-surge = %s, want consolidation", got)
	}
}

func TestAnalyzeAfterSurge_WithRebound(t *testing.T) {
	// Consolidation at 108, then a +3.7% push on 1.6x volume.
	tail := flatBars(108, 800, 12)
	rebound := barsWithCloses(ramp(108.4, 112, 10))
	for i := range rebound {
		rebound[i].Volume = 1300
	}
	bars := surgeSeries(append(tail, rebound...))
	surges := DetectSurges(bars, DefaultSurgeConfig())
	if len(surges) != 1 {
		t.Fatalf("setup: got %d surges", len(surges))
	}
	got := AnalyzeAfterSurge(bars, surges[0], DefaultConsolidationConfig())
	if got != model.AfterSurgeWithRebound {
		t.Errorf("after-surge = %s, want consolidation_with_rebound", got)
	}
}

func TestAnalyzeAfterSurge_WithDrop(t *testing.T) {
	tail := flatBars(108, 800, 12)
	drop := barsWithCloses(ramp(107.5, 104, 10)) // -3.7% on volume
	for i := range drop {
		drop[i].Volume = 1300
	}
	bars := surgeSeries(append(tail, drop...))
	surges := DetectSurges(bars, DefaultSurgeConfig())
	if len(surges) != 1 {
		t.Fatalf("setup: got %d surges", len(surges))
	}
	got := AnalyzeAfterSurge(bars, surges[0], DefaultConsolidationConfig())
	if got != model.AfterSurgeWithDrop {
		t.Errorf("after-surge = %s, want consolidation_with_drop", got)
	}
}

func TestAnalyzeAfterSurge_TooFewBars(t *testing.T) {
	bars := surgeSeries(nil)
	surges := DetectSurges(bars, DefaultSurgeConfig())
	if len(surges) != 1 {
		t.Fatalf("setup: got %d surges", len(surges))
	}
	if got := AnalyzeAfterSurge(bars, surges[0], DefaultConsolidationConfig()); got != model.AfterSurgeNone {
		t.Errorf("after-surge = %s, want none without follow-through bars", got)
	}
}
