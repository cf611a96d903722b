package indicator

import (
	"math"

	"StockLens/internal/model"
)

// High returns the highest High in the window, NaN when empty.
func High(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}
	h := math.Inf(-1)
	for _, b := range bars {
		if b.High > h {
			h = b.High
		}
	}
	return h
}

// Low returns the lowest Low in the window, NaN when empty.
func Low(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}
	l := math.Inf(1)
	for _, b := range bars {
		if b.Low < l {
			l = b.Low
		}
	}
	return l
}

// AvgClose returns the mean close of the window, NaN when empty.
func AvgClose(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}

// AvgVolume returns the mean volume of the window, NaN when empty.
func AvgVolume(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / float64(len(bars))
}

// Trailing returns the last n bars, or all of them when fewer exist.
func Trailing(bars []model.Bar, n int) []model.Bar {
	if n <= 0 {
		return nil
	}
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

// Drawdown returns the signed percent distance of price below (or above)
// the window high: (price-high)/high·100, rounded to two decimals.
// Never clipped to zero. NaN when the high is zero or NaN.
func Drawdown(price, high float64) float64 {
	if high == 0 || math.IsNaN(high) {
		return math.NaN()
	}
	return Round2((price - high) / high * 100)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Last returns the final element of a series, NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
