package model

import "time"

// Period selects the kline granularity for a series fetch.
type Period string

const (
	PeriodIntraday Period = "intraday"
	PeriodDay      Period = "day"
	PeriodWeek     Period = "week"
	PeriodMonth    Period = "month"
	PeriodYear     Period = "year"
)

// Bar represents a single candlestick bar. A series for one symbol is
// strictly increasing in Time. High/Low may violate the usual OHLC
// envelope on bad upstream data; consumers tolerate that.
type Bar struct {
	Time   time.Time
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume float64
	Amount float64
}

// Quote is a current market snapshot. Immutable once fetched.
type Quote struct {
	Code          string
	Name          string
	Price         float64
	Change        float64
	ChangePercent float64
	Open          float64
	PrevClose     float64
	High          float64
	Low           float64
	Volume        float64
	Amount        float64
	Timestamp     time.Time
}

// Detail holds optional fundamentals. A zero field means the upstream
// omitted it; absence is not an error.
type Detail struct {
	Code                 string
	MarketCap            float64
	CirculatingMarketCap float64
	PERatio              float64
	TurnoverRate         float64
}
