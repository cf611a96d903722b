package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"StockLens/internal/analyzer"
	"StockLens/internal/model"
)

// FormatScanReport formats one analysis run into a Telegram message:
// headline counters, the strongest consolidation candidates and any
// volume-surge hits.
func FormatScanReport(report *analyzer.Report, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔍 <b>StockLens 扫描报告</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	succeeded := report.Succeeded()
	b.WriteString(fmt.Sprintf("成功 %d | 失败 %d | 用时 %s\n",
		succeeded, len(report.Errors), report.Finished.Sub(report.Started).Round(time.Second)))
	if report.Cancelled {
		b.WriteString("⚠️ 扫描被取消，以下为部分结果\n")
	}

	candidates := consolidationCandidates(report.Outcomes)
	if len(candidates) > 0 {
		b.WriteString("\n📉 <b>盘整候选:</b>\n")
		for i, rec := range candidates {
			if i >= topN {
				break
			}
			c := rec.Consolidation
			line := fmt.Sprintf("  %s(%s) %.2f 强度%.0f 波动%.2f%%",
				rec.Quote.Name, rec.Quote.Code, rec.Quote.Price,
				c.Combined.Strength, c.PriceVolatility.Volatility)
			if c.Volume.IsVolumeShrinking {
				line += " 缩量"
			}
			if c.TrendBefore != nil {
				line += " 前趋势:" + c.TrendBefore.Direction
			}
			b.WriteString(line + "\n")
		}
	}

	surged := surgeHits(report.Outcomes)
	if len(surged) > 0 {
		b.WriteString("\n🚀 <b>放量异动:</b>\n")
		for i, rec := range surged {
			if i >= topN {
				break
			}
			last := rec.Surges[len(rec.Surges)-1]
			b.WriteString(fmt.Sprintf("  %s(%s) %+.2f%% 量比%.2f [%s] 后续:%s\n",
				rec.Quote.Name, rec.Quote.Code,
				last.PriceChangePct, last.VolumeRatio, last.Intensity, rec.AfterSurge))
		}
	}

	if len(candidates) == 0 && len(surged) == 0 {
		b.WriteString("\n本次扫描无盘整或异动信号\n")
	}
	return b.String()
}

// FormatErrors formats the flat error list, truncated for chat use.
func FormatErrors(errs []model.SymbolError, maxLines int) string {
	if len(errs) == 0 {
		return "无失败记录"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>失败明细</b> (%d)\n", len(errs)))
	for i, e := range errs {
		if i >= maxLines {
			b.WriteString(fmt.Sprintf("  ... 其余 %d 条省略\n", len(errs)-maxLines))
			break
		}
		b.WriteString(fmt.Sprintf("  %s: %s\n", e.Code, e.Err))
	}
	return b.String()
}

func consolidationCandidates(outcomes []model.Outcome) []*model.AnalysisRecord {
	var recs []*model.AnalysisRecord
	for _, o := range outcomes {
		if o.Failed() || o.Record.Consolidation == nil {
			continue
		}
		if o.Record.Consolidation.Combined.IsConsolidation {
			recs = append(recs, o.Record)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Consolidation.Combined.Strength > recs[j].Consolidation.Combined.Strength
	})
	return recs
}

func surgeHits(outcomes []model.Outcome) []*model.AnalysisRecord {
	var recs []*model.AnalysisRecord
	for _, o := range outcomes {
		if !o.Failed() && len(o.Record.Surges) > 0 {
			recs = append(recs, o.Record)
		}
	}
	return recs
}
