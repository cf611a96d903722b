package model

// AnalysisRecord is the fully populated per-symbol result: quote
// snapshot, optional fundamentals, indicator summary and pattern
// classifications. Read-only once produced.
type AnalysisRecord struct {
	Quote      Quote
	Detail     *Detail // nil when the fundamentals fetch failed or was empty
	Bars       int     // number of bars the computations saw
	Indicators IndicatorSummary

	Consolidation *ConsolidationResult
	Surges        []SurgeWindow
	AfterSurge    AfterSurge
}

// SymbolError is the failure variant of an outcome. The quote-derived
// context fields are best-effort: populated when the quote was known
// before the task failed, zero otherwise.
type SymbolError struct {
	Code   string
	Name   string
	Price  float64
	Volume float64
	Amount float64
	Err    string
}

// Outcome is a two-variant sum: exactly one of Record or Err is set.
// A failed symbol never carries a record; its partial quote context
// lives on the SymbolError instead.
type Outcome struct {
	Record *AnalysisRecord
	Err    *SymbolError
}

// OK wraps a populated record as a success outcome.
func OK(rec *AnalysisRecord) Outcome { return Outcome{Record: rec} }

// Fail wraps a symbol error as a failure outcome.
func Fail(e *SymbolError) Outcome { return Outcome{Err: e} }

// Failed reports whether the outcome is the error variant.
func (o Outcome) Failed() bool { return o.Err != nil }

// Code returns the symbol code regardless of variant.
func (o Outcome) Code() string {
	if o.Err != nil {
		return o.Err.Code
	}
	if o.Record != nil {
		return o.Record.Quote.Code
	}
	return ""
}
