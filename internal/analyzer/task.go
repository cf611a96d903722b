package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"StockLens/internal/batch"
	"StockLens/internal/indicator"
	"StockLens/internal/model"
	"StockLens/internal/pattern"
)

// analyzeSymbol is the body of one per-symbol task: fetch fundamentals
// and the kline series, then run the indicator engine and pattern
// detector. The token is checked around every fetch so a cancelled run
// stops burning upstream requests.
func (a *Analyzer) analyzeSymbol(ctx context.Context, token *batch.CancelToken,
	quote model.Quote, period model.Period, count int) (*model.AnalysisRecord, error) {

	if token.Cancelled() {
		return nil, batch.ErrCancelled
	}

	detail, err := a.src.FetchDetail(ctx, quote.Code)
	if err != nil {
		// Fundamentals are optional; proceed without them.
		log.Printf("[WARN] detail fetch %s: %v", quote.Code, err)
		detail = nil
	}

	if token.Cancelled() {
		return nil, batch.ErrCancelled
	}

	bars, err := a.src.FetchSeries(ctx, quote.Code, period, count)
	if err != nil {
		return nil, fmt.Errorf("kline fetch failed: %w", err)
	}
	if len(bars) == 0 {
		return nil, errors.New("insufficient kline data")
	}

	if token.Cancelled() {
		return nil, batch.ErrCancelled
	}

	return a.compute(quote, detail, bars)
}

// compute runs the pure indicator and pattern functions. A panic on
// malformed input is converted into a per-symbol error so it can never
// take down the run.
func (a *Analyzer) compute(quote model.Quote, detail *model.Detail, bars []model.Bar) (rec *model.AnalysisRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("compute %s: %v", quote.Code, r)
		}
	}()

	rec = &model.AnalysisRecord{
		Quote:      quote,
		Detail:     detail,
		Bars:       len(bars),
		Indicators: a.summarize(quote, bars),
	}

	rec.Consolidation = pattern.DetectConsolidation(bars, a.cfg.Consolidation)
	rec.Surges = pattern.DetectSurges(bars, a.cfg.Surge)
	rec.AfterSurge = model.AfterSurgeNone
	if n := len(rec.Surges); n > 0 {
		rec.AfterSurge = pattern.AnalyzeAfterSurge(bars, rec.Surges[n-1], a.cfg.Consolidation)
	}
	return rec, nil
}

// summarize evaluates every indicator at the latest bar.
func (a *Analyzer) summarize(quote model.Quote, bars []model.Bar) model.IndicatorSummary {
	dif, dea, macd := indicator.MACD(bars)
	k, d, j := indicator.KDJ(bars, 9)

	win := indicator.Trailing(bars, a.cfg.Consolidation.Period)
	high := indicator.High(win)

	return model.IndicatorSummary{
		MA5:  indicator.Last(indicator.MA(bars, 5)),
		MA10: indicator.Last(indicator.MA(bars, 10)),
		MA20: indicator.Last(indicator.MA(bars, 20)),
		MA60: indicator.Last(indicator.MA(bars, 60)),

		DIF:  indicator.Last(dif),
		DEA:  indicator.Last(dea),
		MACD: indicator.Last(macd),

		K: indicator.Last(k),
		D: indicator.Last(d),
		J: indicator.Last(j),

		RSI14: indicator.Last(indicator.RSI(bars, 14)),

		WindowHigh:       high,
		WindowLow:        indicator.Low(win),
		WindowAvgClose:   indicator.AvgClose(win),
		DrawdownFromHigh: indicator.Drawdown(quote.Price, high),
	}
}
