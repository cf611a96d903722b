package pattern

import (
	"math"
	"strings"

	"StockLens/internal/indicator"
	"StockLens/internal/model"
)

// Thresholds for classifying the window that precedes a consolidation.
const (
	trendFlatNetPct   = 3.0 // |net change| below this is not a trend
	trendCalmRangePct = 10.0
	deepDropPct       = 8.0 // peak-to-trough retracement counting as a deep drop
	reboundPct        = 5.0 // recovery after the deepest trough counting as a rebound
	segmentFlatPct    = 1.5 // per-segment net change below this reads as flat
)

// classifyTrendBefore examines the trailing trendPeriod bars of the
// pre-consolidation history. Returns nil when fewer bars exist.
func classifyTrendBefore(pre []model.Bar, trendPeriod int) *model.TrendBefore {
	if trendPeriod <= 0 || len(pre) < trendPeriod {
		return nil
	}
	win := indicator.Trailing(pre, trendPeriod)
	closes := indicator.Closes(win)

	first, last := closes[0], closes[len(closes)-1]
	if first == 0 {
		return nil
	}
	net := indicator.Round2((last - first) / first * 100)

	high, low := indicator.High(win), indicator.Low(win)
	rangePct := math.NaN()
	if low > 0 {
		rangePct = indicator.Round2((high - low) / low * 100)
	}

	tb := &model.TrendBefore{
		NetChangePct: net,
		RangePct:     rangePct,
	}

	tb.MaxDrawdownPct, tb.ReboundPct = drawdownAndRebound(closes)
	tb.HadDeepDrop = tb.MaxDrawdownPct > deepDropPct
	tb.HadRebound = tb.HadDeepDrop && tb.ReboundPct > reboundPct

	dirs := segmentDirections(closes, 3)
	tb.RoseThenFell = len(dirs) == 3 && dirs[0] == "up" && dirs[2] == "down"

	switch {
	case math.Abs(net) < trendFlatNetPct && !math.IsNaN(rangePct) && rangePct < trendCalmRangePct:
		tb.Direction = model.TrendSideways
	case math.Abs(net) < trendFlatNetPct:
		tb.Direction = model.TrendVolatile
		tb.VolatileSubtype = strings.Join(dirs, "-")
	case net > 0:
		tb.Direction = model.TrendUp
	default:
		tb.Direction = model.TrendDown
	}
	return tb
}

// drawdownAndRebound returns the deepest peak-to-trough retracement in
// the close series and the largest recovery after that trough, both as
// positive percentages.
func drawdownAndRebound(closes []float64) (drawdown, rebound float64) {
	peak := closes[0]
	troughIdx := 0
	for i, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			dd := (peak - c) / peak * 100
			if dd > drawdown {
				drawdown = dd
				troughIdx = i
			}
		}
	}
	drawdown = indicator.Round2(drawdown)

	trough := closes[troughIdx]
	if trough <= 0 {
		return drawdown, 0
	}
	for _, c := range closes[troughIdx:] {
		if r := (c - trough) / trough * 100; r > rebound {
			rebound = r
		}
	}
	return drawdown, indicator.Round2(rebound)
}

// segmentDirections splits the closes into n equal segments and labels
// each one up, down or flat by its net change.
func segmentDirections(closes []float64, n int) []string {
	if n <= 0 || len(closes) < 2*n {
		return nil
	}
	dirs := make([]string, 0, n)
	segLen := len(closes) / n
	for s := 0; s < n; s++ {
		start := s * segLen
		end := start + segLen - 1
		if s == n-1 {
			end = len(closes) - 1
		}
		first, last := closes[start], closes[end]
		if first == 0 {
			dirs = append(dirs, "flat")
			continue
		}
		change := (last - first) / first * 100
		switch {
		case change > segmentFlatPct:
			dirs = append(dirs, "up")
		case change < -segmentFlatPct:
			dirs = append(dirs, "down")
		default:
			dirs = append(dirs, "flat")
		}
	}
	return dirs
}
