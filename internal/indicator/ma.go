package indicator

import (
	"math"

	"StockLens/internal/model"
)

// MA computes the simple moving average of closes over the trailing
// period. Positions before the window fills carry NaN.
func MA(bars []model.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum := 0.0
	for i, b := range bars {
		sum += b.Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA computes an exponential moving average seeded from the first
// element: EMA[i] = (x[i]-EMA[i-1])·k + EMA[i-1] with k = 2/(period+1).
func EMA(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = (series[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// MACD returns the DIF, DEA and MACD histogram series:
// DIF = EMA12-EMA26 of closes, DEA = EMA9 of DIF, MACD = (DIF-DEA)·2.
func MACD(bars []model.Bar) (dif, dea, macd []float64) {
	closes := Closes(bars)
	ema12 := EMA(closes, 12)
	ema26 := EMA(closes, 26)

	dif = make([]float64, len(bars))
	for i := range dif {
		dif[i] = ema12[i] - ema26[i]
	}
	dea = EMA(dif, 9)
	macd = make([]float64, len(bars))
	for i := range macd {
		macd[i] = (dif[i] - dea[i]) * 2
	}
	return dif, dea, macd
}

// Closes extracts the close series from bars.
func Closes(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
