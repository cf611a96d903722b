package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"StockLens/internal/model"
	"StockLens/internal/source"
)

// stubSource is a scriptable DataSource: quote calls can fail by call
// index, individual symbols can be omitted from quote batches or made to
// fail their series or detail fetches.
type stubSource struct {
	mu         sync.Mutex
	quoteCalls int

	failQuoteCall map[int]bool // 1-based FetchQuotes call index
	omitQuotes    map[string]bool
	prices        map[string]float64
	failSeries    map[string]bool
	emptySeries   map[string]bool
	failDetail    map[string]bool
	seriesDelay   time.Duration
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) priceOf(code string) float64 {
	if p, ok := s.prices[code]; ok {
		return p
	}
	return 10
}

func (s *stubSource) FetchQuotes(_ context.Context, codes []string) ([]model.Quote, error) {
	s.mu.Lock()
	s.quoteCalls++
	call := s.quoteCalls
	s.mu.Unlock()
	if s.failQuoteCall[call] {
		return nil, errors.New("upstream unavailable")
	}

	quotes := make([]model.Quote, 0, len(codes))
	for _, code := range codes {
		if s.omitQuotes[code] {
			continue
		}
		p := s.priceOf(code)
		quotes = append(quotes, model.Quote{
			Code: code, Name: "n-" + code,
			Price: p, Volume: 5000, Amount: p * 5000,
		})
	}
	return quotes, nil
}

func (s *stubSource) FetchDetail(_ context.Context, code string) (*model.Detail, error) {
	if s.failDetail[code] {
		return nil, errors.New("detail unavailable")
	}
	return &model.Detail{Code: code, PERatio: 12}, nil
}

func (s *stubSource) FetchSeries(_ context.Context, code string, _ model.Period, count int) ([]model.Bar, error) {
	if s.seriesDelay > 0 {
		time.Sleep(s.seriesDelay)
	}
	if s.failSeries[code] {
		return nil, errors.New("boom")
	}
	if s.emptySeries[code] {
		return nil, nil
	}
	return source.GenerateBars(s.priceOf(code), count), nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = 8
	cfg.WaveDelay = 0
	return cfg
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("s%03d", i)
	}
	return out
}

func findOutcome(t *testing.T, report *Report, code string) model.Outcome {
	t.Helper()
	for _, o := range report.Outcomes {
		if o.Code() == code {
			return o
		}
	}
	t.Fatalf("no outcome for %s", code)
	return model.Outcome{}
}

func TestAnalyze_ChunkedRunSurvivesQuoteFailure(t *testing.T) {
	src := &stubSource{failQuoteCall: map[int]bool{2: true}}
	a := New(src, testConfig())

	var mu sync.Mutex
	var snaps []model.ProgressSnapshot
	a.OnProgress(func(s model.ProgressSnapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	syms := symbols(250)
	report := a.Analyze(context.Background(), Request{Symbols: syms, Count: 30}).Wait()

	if report.Cancelled {
		t.Fatal("run was not cancelled")
	}
	if len(report.Outcomes) != 250 {
		t.Fatalf("got %d outcomes, want one per symbol", len(report.Outcomes))
	}
	// Outcomes keep submission order, so index i is symbol i.
	for i, o := range report.Outcomes {
		if o.Code() != syms[i] {
			t.Fatalf("outcome %d is %s, want %s", i, o.Code(), syms[i])
		}
		inDeadChunk := i >= 100 && i < 200
		if inDeadChunk {
			if !o.Failed() || o.Err.Err != "quote fetch failed" {
				t.Fatalf("symbol %s: outcome %+v, want quote fetch failed", syms[i], o)
			}
		} else if o.Failed() {
			t.Fatalf("symbol %s unexpectedly failed: %s", syms[i], o.Err.Err)
		}
	}
	if len(report.Errors) != 100 {
		t.Errorf("got %d errors, want 100", len(report.Errors))
	}
	if got := report.Succeeded(); got != 150 {
		t.Errorf("succeeded = %d, want 150", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(snaps) == 0 {
		t.Fatal("no progress snapshots")
	}
	first := snaps[0]
	if first.Total != 250 || first.Completed != 0 || first.Failed != 0 || first.Percent != 0 {
		t.Errorf("first snapshot = %+v, want zeros over total 250", first)
	}
	final := false
	for _, s := range snaps {
		if s.Total != 250 {
			t.Fatalf("snapshot total drifted: %+v", s)
		}
		if s.Completed+s.Failed > s.Total {
			t.Fatalf("snapshot overshoots total: %+v", s)
		}
		if s.Completed == 150 && s.Failed == 100 && s.Percent == 100 {
			final = true
		}
	}
	if !final {
		t.Error("no snapshot reached 150 completed / 100 failed at 100%")
	}
}

func TestAnalyze_QuoteMissing(t *testing.T) {
	src := &stubSource{omitQuotes: map[string]bool{"s001": true}}
	a := New(src, testConfig())

	report := a.Analyze(context.Background(), Request{Symbols: symbols(3), Count: 30}).Wait()
	if len(report.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(report.Outcomes))
	}
	o := findOutcome(t, report, "s001")
	if !o.Failed() || o.Err.Err != "quote missing" {
		t.Errorf("outcome = %+v, want quote missing", o)
	}
	if len(report.Errors) != 1 {
		t.Errorf("got %d errors, want 1", len(report.Errors))
	}
}

func TestAnalyze_PriceFilterShrinksRun(t *testing.T) {
	src := &stubSource{prices: map[string]float64{"s001": 250}}
	a := New(src, testConfig())

	var mu sync.Mutex
	var last model.ProgressSnapshot
	a.OnProgress(func(s model.ProgressSnapshot) {
		mu.Lock()
		last = s
		mu.Unlock()
	})

	req := Request{
		Symbols:     symbols(3),
		Count:       30,
		PriceFilter: &PriceFilter{Min: 1, Max: 100},
	}
	report := a.Analyze(context.Background(), req).Wait()

	if len(report.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, filtered symbol must leave the run", len(report.Outcomes))
	}
	for _, o := range report.Outcomes {
		if o.Code() == "s001" {
			t.Error("filtered symbol produced an outcome")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if last.Total != 2 || last.Percent != 100 {
		t.Errorf("final snapshot = %+v, want total 2 at 100%%", last)
	}
}

func TestAnalyze_SeriesFailureCarriesQuote(t *testing.T) {
	src := &stubSource{failSeries: map[string]bool{"s000": true}}
	a := New(src, testConfig())

	report := a.Analyze(context.Background(), Request{Symbols: symbols(2), Count: 30}).Wait()
	o := findOutcome(t, report, "s000")
	if !o.Failed() {
		t.Fatal("expected a failed outcome")
	}
	if !strings.HasPrefix(o.Err.Err, "kline fetch failed") {
		t.Errorf("err = %q, want kline fetch failed", o.Err.Err)
	}
	// Failure placeholders keep the best-effort quote fields.
	if o.Err.Name != "n-s000" || o.Err.Price != 10 || o.Err.Volume != 5000 || o.Err.Amount != 50000 {
		t.Errorf("placeholder quote fields = %+v", o.Err)
	}
}

func TestAnalyze_EmptySeries(t *testing.T) {
	src := &stubSource{emptySeries: map[string]bool{"s000": true}}
	a := New(src, testConfig())

	report := a.Analyze(context.Background(), Request{Symbols: symbols(1), Count: 30}).Wait()
	o := findOutcome(t, report, "s000")
	if !o.Failed() || o.Err.Err != "insufficient kline data" {
		t.Errorf("outcome = %+v, want insufficient kline data", o)
	}
}

func TestAnalyze_DetailFailureIsNonFatal(t *testing.T) {
	src := &stubSource{failDetail: map[string]bool{"s000": true}}
	a := New(src, testConfig())

	report := a.Analyze(context.Background(), Request{Symbols: symbols(1), Count: 30}).Wait()
	o := findOutcome(t, report, "s000")
	if o.Failed() {
		t.Fatalf("detail failure must not fail the symbol: %s", o.Err.Err)
	}
	if o.Record.Detail != nil {
		t.Error("record must carry no fundamentals after a failed detail fetch")
	}
	if o.Record.Bars != 30 {
		t.Errorf("bars = %d, want 30", o.Record.Bars)
	}
}

func TestAnalyze_CancelMidRun(t *testing.T) {
	src := &stubSource{seriesDelay: time.Millisecond}
	cfg := testConfig()
	cfg.MaxConcurrency = 1
	cfg.ChunkSize = 10
	a := New(src, cfg)

	var mu sync.Mutex
	var run *Run
	a.OnProgress(func(s model.ProgressSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		if run != nil && s.Completed+s.Failed >= 3 {
			run.Cancel()
		}
	})

	mu.Lock()
	run = a.Analyze(context.Background(), Request{Symbols: symbols(30), Count: 30})
	mu.Unlock()
	report := run.Wait()

	if !report.Cancelled {
		t.Fatal("report must record the cancellation")
	}
	if len(report.Outcomes) == 0 || len(report.Outcomes) >= 30 {
		t.Fatalf("got %d outcomes, want a partial set", len(report.Outcomes))
	}
	// Never-started symbols get no outcome at all, fabricated or otherwise.
	for _, o := range report.Outcomes {
		if o.Failed() && o.Err.Err == "cancelled" {
			t.Errorf("cancelled task leaked into outcomes: %+v", o.Err)
		}
	}
	for _, e := range report.Errors {
		if e.Err == "cancelled" {
			t.Errorf("cancelled task leaked into errors: %+v", e)
		}
	}
}
