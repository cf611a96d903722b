package pattern

import (
	"math"

	"StockLens/internal/indicator"
	"StockLens/internal/model"
)

// SurgeConfig holds the bands for volume-surge window detection.
// A window is flagged when the magnitude of its price change sits inside
// [MinChangePct, MaxChangePct] and its average volume exceeds
// MinVolumeRatio times the longer-term average.
type SurgeConfig struct {
	WindowSize       int
	MinChangePct     float64
	MaxChangePct     float64
	MinVolumeRatio   float64
	HeavyVolumeRatio float64
	LookbackPeriod   int // bars used for the longer-term volume baseline
}

// DefaultSurgeConfig returns the stock bands: 10-bar windows, 5–10%
// price moves, 1.5× baseline volume, heavy at 2×, 30-bar baseline.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		WindowSize:       10,
		MinChangePct:     5,
		MaxChangePct:     10,
		MinVolumeRatio:   1.5,
		HeavyVolumeRatio: 2,
		LookbackPeriod:   30,
	}
}

// Fixed thresholds for the after-surge follow-through test.
const (
	afterSurgeGapBars   = 2   // bars skipped between surge end and the test window
	afterSurgeMovePct   = 3.0 // minimum confirmed rebound or renewed drop
	afterSurgeVolRatio  = 1.5 // volume confirmation for the move
	mediumSurgeChange   = 6.5
	mediumSurgeVolRatio = 1.75
	heavySurgeChange    = 8.0
)

// DetectSurges slides a fixed-size window across the series and flags
// price-plus-volume surges. Flagged windows do not overlap: detection
// resumes after the end of each hit.
func DetectSurges(bars []model.Bar, cfg SurgeConfig) []model.SurgeWindow {
	w := cfg.WindowSize
	if w <= 1 || len(bars) < cfg.LookbackPeriod+w {
		return nil
	}

	var surges []model.SurgeWindow
	for start := cfg.LookbackPeriod; start+w <= len(bars); start++ {
		win := bars[start : start+w]
		base := bars[start-cfg.LookbackPeriod : start]

		openClose := win[0].Close
		if openClose == 0 {
			continue
		}
		change := (win[len(win)-1].Close - openClose) / openClose * 100
		mag := math.Abs(change)
		if mag < cfg.MinChangePct || mag > cfg.MaxChangePct {
			continue
		}

		baseVol := indicator.AvgVolume(base)
		if baseVol == 0 || math.IsNaN(baseVol) {
			continue
		}
		ratio := indicator.AvgVolume(win) / baseVol
		if ratio < cfg.MinVolumeRatio {
			continue
		}

		surges = append(surges, model.SurgeWindow{
			Start:          start,
			End:            start + w - 1,
			PriceChangePct: indicator.Round2(change),
			VolumeRatio:    indicator.Round2(ratio),
			Intensity:      surgeIntensity(mag, ratio, cfg),
		})
		start += w - 1 // skip past this hit
	}
	return surges
}

func surgeIntensity(magnitude, ratio float64, cfg SurgeConfig) string {
	switch {
	case magnitude >= heavySurgeChange && ratio >= cfg.HeavyVolumeRatio:
		return model.SurgeHeavy
	case magnitude >= mediumSurgeChange || ratio >= mediumSurgeVolRatio:
		return model.SurgeMedium
	default:
		return model.SurgeLight
	}
}

// AnalyzeAfterSurge tests whether the bars following a surge window
// settled into a consolidation, and if so whether a volume-confirmed
// rebound (or renewed drop) followed it. The test window starts two bars
// after the surge ends.
func AnalyzeAfterSurge(bars []model.Bar, surge model.SurgeWindow, cfg ConsolidationConfig) model.AfterSurge {
	start := surge.End + 1 + afterSurgeGapBars
	consEnd := start + cfg.Period
	if cfg.Period <= 0 || consEnd > len(bars) {
		return model.AfterSurgeNone
	}

	res := DetectConsolidation(bars[:consEnd], cfg)
	if res == nil || !res.Combined.IsConsolidation {
		return model.AfterSurgeNone
	}

	followEnd := consEnd + cfg.Period
	if followEnd > len(bars) {
		return model.AfterSurgeConsolidation
	}
	consWin := bars[start:consEnd]
	follow := bars[consEnd:followEnd]

	ref := consWin[len(consWin)-1].Close
	consVol := indicator.AvgVolume(consWin)
	if ref == 0 || consVol == 0 || math.IsNaN(consVol) {
		return model.AfterSurgeConsolidation
	}
	move := (follow[len(follow)-1].Close - ref) / ref * 100
	volRatio := indicator.AvgVolume(follow) / consVol

	switch {
	case move >= afterSurgeMovePct && volRatio >= afterSurgeVolRatio:
		return model.AfterSurgeWithRebound
	case move <= -afterSurgeMovePct && volRatio >= afterSurgeVolRatio:
		return model.AfterSurgeWithDrop
	default:
		return model.AfterSurgeConsolidation
	}
}
