package model

// PriceVolatility is the range-compression verdict over one window.
type PriceVolatility struct {
	IsConsolidation bool
	Volatility      float64 // (high-low)/avgClose × 100
	Strength        float64 // 0..100, 100 = perfectly flat
}

// MAConvergence is the moving-average convergence verdict.
type MAConvergence struct {
	IsConsolidation bool
	MASpread        float64 // max deviation from the MA mean, percent
	Strength        float64
	Periods         [3]int // the MA periods the verdict was computed from
}

// CombinedVerdict merges the price and MA consolidation verdicts.
type CombinedVerdict struct {
	IsConsolidation bool
	Strength        float64
}

// VolumeAnalysis compares trailing-window volume against the window before it.
type VolumeAnalysis struct {
	AvgVolumeRatio    float64
	IsVolumeShrinking bool
}

// PricePosition locates the latest close inside the trailing window range.
type PricePosition struct {
	DrawdownFromHigh float64 // signed percent, typically negative
	RiseFromLow      float64
	Position         float64 // 0..100 within [low, high]
}

// Trend direction labels for the window preceding a consolidation.
const (
	TrendUp       = "up"
	TrendDown     = "down"
	TrendSideways = "sideways"
	TrendVolatile = "volatile"
)

// TrendBefore classifies the bars immediately preceding a consolidation window.
type TrendBefore struct {
	Direction        string  // up / down / sideways / volatile
	NetChangePct     float64 // close-to-close over the whole trend window
	RangePct         float64 // (high-low)/low over the trend window
	HadDeepDrop      bool    // any peak-to-trough retracement > 8%
	MaxDrawdownPct   float64
	HadRebound       bool // > 5% recovery after the deepest trough
	ReboundPct       float64
	RoseThenFell     bool   // three-segment up-then-down shape
	VolatileSubtype  string // segment directions, e.g. "up-down-up"; "" unless volatile
}

// ConsolidationResult is the full consolidation classification for one
// (symbol, parameter-set). Pure value object, recomputable from the same
// bars and parameters. Position and TrendBefore are nil when the series
// is too short for their windows.
type ConsolidationResult struct {
	PriceVolatility PriceVolatility
	MAConvergence   MAConvergence
	Combined        CombinedVerdict
	Volume          VolumeAnalysis
	Position        *PricePosition
	TrendBefore     *TrendBefore
}

// Surge intensity labels.
const (
	SurgeLight  = "light"
	SurgeMedium = "medium"
	SurgeHeavy  = "heavy"
)

// SurgeWindow flags a sliding window whose price move and volume both
// exceeded the configured bands. Start/End are bar indices, inclusive.
type SurgeWindow struct {
	Start          int
	End            int
	PriceChangePct float64
	VolumeRatio    float64
	Intensity      string
}

// AfterSurge classifies what the bars following a surge window did.
type AfterSurge string

const (
	AfterSurgeNone            AfterSurge = "none"
	AfterSurgeConsolidation   AfterSurge = "consolidation"
	AfterSurgeWithRebound     AfterSurge = "consolidation_with_rebound"
	AfterSurgeWithDrop        AfterSurge = "consolidation_with_drop"
)
