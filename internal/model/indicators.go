package model

// IndicatorSummary holds the latest value of each computed indicator for
// one symbol. Positions the series could not fill carry NaN, never zero.
type IndicatorSummary struct {
	MA5  float64
	MA10 float64
	MA20 float64
	MA60 float64

	DIF  float64
	DEA  float64
	MACD float64

	K float64
	D float64
	J float64

	RSI14 float64

	WindowHigh       float64
	WindowLow        float64
	WindowAvgClose   float64
	DrawdownFromHigh float64 // signed percent from the window high
}
