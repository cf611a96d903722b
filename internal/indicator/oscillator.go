package indicator

import (
	"math"

	"StockLens/internal/model"
)

// KDJ computes the K, D and J series with the conventional n=9 window.
// RSV[i] = (close-low_n)/(high_n-low_n)·100 over the trailing n bars,
// 0 when the range is degenerate. The first valid position seeds the
// recurrence from K=D=50, so K and D start smoothed rather than at the
// raw RSV.
func KDJ(bars []model.Bar, n int) (k, d, j []float64) {
	k = make([]float64, len(bars))
	d = make([]float64, len(bars))
	j = make([]float64, len(bars))
	if n <= 0 {
		n = 9
	}

	prevK, prevD := 50.0, 50.0
	for i := range bars {
		if i < n-1 {
			k[i], d[i], j[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		win := bars[i-n+1 : i+1]
		highN, lowN := High(win), Low(win)
		rsv := 0.0
		if highN > lowN {
			rsv = (bars[i].Close - lowN) / (highN - lowN) * 100
		}
		k[i] = (2*prevK + rsv) / 3
		d[i] = (2*prevD + k[i]) / 3
		j[i] = 3*k[i] - 2*d[i]
		prevK, prevD = k[i], d[i]
	}
	return k, d, j
}

// RSI computes the relative strength index over the trailing period
// close-to-close deltas, as a plain average of gains and losses.
// Positions with fewer than period deltas behind them carry NaN.
// A window with zero average loss yields 100.
func RSI(bars []model.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := range bars {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			change := bars[j].Close - bars[j-1].Close
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+avgGain/avgLoss)
	}
	return out
}
