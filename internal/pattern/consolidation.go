package pattern

import (
	"math"

	"StockLens/internal/indicator"
	"StockLens/internal/model"
)

// ConsolidationConfig holds the thresholds for consolidation detection.
// Thresholds are percentages except VolumeShrinkThreshold, a ratio.
type ConsolidationConfig struct {
	Period                int
	VolatilityThreshold   float64
	MASpreadThreshold     float64
	VolumeShrinkThreshold float64
	TrendPeriod           int
}

// DefaultConsolidationConfig returns the stock defaults: 10-bar window,
// 5% price volatility, 3% MA spread, 0.8 volume-shrink ratio.
func DefaultConsolidationConfig() ConsolidationConfig {
	return ConsolidationConfig{
		Period:                10,
		VolatilityThreshold:   5,
		MASpreadThreshold:     3,
		VolumeShrinkThreshold: 0.8,
		TrendPeriod:           20,
	}
}

// maPeriodsFor picks the MA triple used for convergence testing based on
// the requested window length.
func maPeriodsFor(period int) [3]int {
	switch {
	case period <= 10:
		return [3]int{5, 10, 20}
	case period <= 20:
		return [3]int{10, 20, 30}
	default:
		return [3]int{20, 30, 60}
	}
}

// DetectConsolidation classifies the trailing cfg.Period bars. Returns
// nil when the series is shorter than the window; every other shortfall
// degrades gracefully (NaN measurements, negative verdicts) so callers
// can always run it on whatever history they have.
func DetectConsolidation(bars []model.Bar, cfg ConsolidationConfig) *model.ConsolidationResult {
	if cfg.Period <= 0 || len(bars) < cfg.Period {
		return nil
	}

	res := &model.ConsolidationResult{
		PriceVolatility: priceVolatility(bars, cfg),
		MAConvergence:   maConvergence(bars, cfg),
	}
	res.Combined = model.CombinedVerdict{
		IsConsolidation: res.PriceVolatility.IsConsolidation && res.MAConvergence.IsConsolidation,
		Strength:        indicator.Round2((res.PriceVolatility.Strength + res.MAConvergence.Strength) / 2),
	}
	res.Volume = volumeAnalysis(bars, cfg)
	res.Position = pricePosition(bars, cfg.Period)
	res.TrendBefore = classifyTrendBefore(bars[:len(bars)-cfg.Period], cfg.TrendPeriod)
	return res
}

func priceVolatility(bars []model.Bar, cfg ConsolidationConfig) model.PriceVolatility {
	win := indicator.Trailing(bars, cfg.Period)
	high, low, avg := indicator.High(win), indicator.Low(win), indicator.AvgClose(win)

	var vol float64
	if avg == 0 || math.IsNaN(avg) {
		vol = math.NaN()
	} else {
		vol = indicator.Round2((high - low) / avg * 100)
	}
	return model.PriceVolatility{
		IsConsolidation: vol < cfg.VolatilityThreshold, // strict; NaN compares false
		Volatility:      vol,
		Strength:        strengthOf(vol, cfg.VolatilityThreshold),
	}
}

func maConvergence(bars []model.Bar, cfg ConsolidationConfig) model.MAConvergence {
	periods := maPeriodsFor(cfg.Period)

	var mas [3]float64
	for i, p := range periods {
		mas[i] = indicator.Last(indicator.MA(bars, p))
	}
	avg := (mas[0] + mas[1] + mas[2]) / 3

	var spread float64
	if avg == 0 || math.IsNaN(avg) {
		spread = math.NaN()
	} else {
		maxDev := 0.0
		for _, m := range mas {
			if dev := math.Abs(m - avg); dev > maxDev {
				maxDev = dev
			}
		}
		spread = indicator.Round2(maxDev / avg * 100)
	}
	return model.MAConvergence{
		IsConsolidation: spread < cfg.MASpreadThreshold,
		MASpread:        spread,
		Strength:        strengthOf(spread, cfg.MASpreadThreshold),
		Periods:         periods,
	}
}

func volumeAnalysis(bars []model.Bar, cfg ConsolidationConfig) model.VolumeAnalysis {
	if len(bars) < 2*cfg.Period {
		return model.VolumeAnalysis{AvgVolumeRatio: math.NaN()}
	}
	recent := bars[len(bars)-cfg.Period:]
	prior := bars[len(bars)-2*cfg.Period : len(bars)-cfg.Period]

	priorAvg := indicator.AvgVolume(prior)
	if priorAvg == 0 {
		return model.VolumeAnalysis{AvgVolumeRatio: math.NaN()}
	}
	ratio := indicator.Round2(indicator.AvgVolume(recent) / priorAvg)
	return model.VolumeAnalysis{
		AvgVolumeRatio:    ratio,
		IsVolumeShrinking: ratio < cfg.VolumeShrinkThreshold,
	}
}

func pricePosition(bars []model.Bar, period int) *model.PricePosition {
	win := indicator.Trailing(bars, period)
	if len(win) == 0 {
		return nil
	}
	high, low := indicator.High(win), indicator.Low(win)
	price := win[len(win)-1].Close

	pos := 50.0
	if high > low {
		pos = indicator.Round2((price - low) / (high - low) * 100)
		pos = clamp(pos, 0, 100)
	}
	rise := math.NaN()
	if low != 0 {
		rise = indicator.Round2((price - low) / low * 100)
	}
	return &model.PricePosition{
		DrawdownFromHigh: indicator.Drawdown(price, high),
		RiseFromLow:      rise,
		Position:         pos,
	}
}

// strengthOf maps a measured value against its threshold onto 0..100.
// A value at or above the threshold scores 0; a value of 0 scores 100.
func strengthOf(value, threshold float64) float64 {
	if threshold <= 0 || math.IsNaN(value) {
		return 0
	}
	return clamp(indicator.Round2(100-value/threshold*100), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
