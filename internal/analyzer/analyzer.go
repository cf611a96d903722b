// Package analyzer drives the full batch analysis for an arbitrary-size
// symbol list: symbols are chunked to respect the upstream quote batch
// limit, each chunk's quoted symbols fan out onto a fresh wave runner,
// and per-task results and errors merge into one running total with
// globally aggregated progress.
package analyzer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"StockLens/internal/batch"
	"StockLens/internal/model"
	"StockLens/internal/pattern"
	"StockLens/internal/source"

	"github.com/google/uuid"
)

// Config holds the orchestration and analysis knobs.
type Config struct {
	MaxConcurrency int           // tasks started per wave
	WaveDelay      time.Duration // pause between waves
	ChunkSize      int           // upstream quote-API batch limit
	SeriesCount    int           // bars requested per symbol
	Period         model.Period
	Consolidation  pattern.ConsolidationConfig
	Surge          pattern.SurgeConfig
}

// DefaultConfig returns the stock knobs: waves of 4 every 1.1s, chunks
// of 100, 120 daily bars.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		WaveDelay:      1100 * time.Millisecond,
		ChunkSize:      100,
		SeriesCount:    120,
		Period:         model.PeriodDay,
		Consolidation:  pattern.DefaultConsolidationConfig(),
		Surge:          pattern.DefaultSurgeConfig(),
	}
}

// PriceFilter drops quoted symbols outside [Min, Max] before any
// per-symbol task is submitted. Max <= 0 means unbounded above.
type PriceFilter struct {
	Min float64
	Max float64
}

func (f *PriceFilter) keep(price float64) bool {
	if f == nil {
		return true
	}
	if price < f.Min {
		return false
	}
	if f.Max > 0 && price > f.Max {
		return false
	}
	return true
}

// Request describes one analysis run. Zero Period and Count fall back to
// the analyzer config.
type Request struct {
	Symbols     []string
	Period      model.Period
	Count       int
	PriceFilter *PriceFilter
}

// Report is the final result set: exactly one outcome per retained
// symbol, plus the flat error list for reporting. A cancelled run
// carries whatever had settled; never-started symbols get no outcome.
type Report struct {
	RunID     string
	Outcomes  []model.Outcome
	Errors    []model.SymbolError
	Cancelled bool
	Started   time.Time
	Finished  time.Time
}

// Succeeded counts the success-variant outcomes.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Analyzer runs batch analyses against one data source.
type Analyzer struct {
	src        source.DataSource
	cfg        Config
	onProgress func(model.ProgressSnapshot)
}

// New creates an Analyzer.
func New(src source.DataSource, cfg Config) *Analyzer {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 100
	}
	return &Analyzer{src: src, cfg: cfg}
}

// OnProgress registers a snapshot callback, invoked at least once at run
// start and once per settled task. Must be set before Analyze.
func (a *Analyzer) OnProgress(fn func(model.ProgressSnapshot)) { a.onProgress = fn }

// Run is a handle on an in-flight analysis.
type Run struct {
	token  *batch.CancelToken
	done   chan struct{}
	report *Report

	mu            sync.Mutex
	total         int
	baseCompleted int
	baseFailed    int
}

// Cancel requests cooperative cancellation: no new chunk and no new wave
// starts, tasks not yet started are rejected, and already-running
// fetches finish on their own and are discarded.
func (r *Run) Cancel() { r.token.Cancel() }

// Wait blocks until the run finishes and returns its report.
func (r *Run) Wait() *Report {
	<-r.done
	return r.report
}

// Analyze starts an analysis run and returns its handle immediately.
func (a *Analyzer) Analyze(ctx context.Context, req Request) *Run {
	run := &Run{
		token: batch.NewCancelToken(),
		done:  make(chan struct{}),
		total: len(req.Symbols),
	}
	go a.execute(ctx, req, run)
	return run
}

func (a *Analyzer) execute(ctx context.Context, req Request, run *Run) {
	defer close(run.done)

	period := req.Period
	if period == "" {
		period = a.cfg.Period
	}
	count := req.Count
	if count <= 0 {
		count = a.cfg.SeriesCount
	}

	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	run.report = report
	defer func() {
		report.Cancelled = run.token.Cancelled()
		report.Finished = time.Now()
	}()

	a.emit(run) // {total, 0, 0, 0}

	chunks := chunkSymbols(req.Symbols, a.cfg.ChunkSize)
	for ci, chunk := range chunks {
		if run.token.Cancelled() {
			log.Printf("[INFO] run %s cancelled before chunk %d/%d", report.RunID, ci+1, len(chunks))
			return
		}
		a.processChunk(ctx, chunk, period, count, req.PriceFilter, run, report)
	}
}

// processChunk fetches the chunk's quotes, fans quoted symbols out on a
// fresh wave runner and folds the chunk's results into the report. A
// quote failure fails only this chunk's symbols.
func (a *Analyzer) processChunk(ctx context.Context, chunk []string, period model.Period, count int,
	filter *PriceFilter, run *Run, report *Report) {

	quotes, err := a.src.FetchQuotes(ctx, chunk)
	if err != nil || len(quotes) == 0 {
		if err != nil {
			log.Printf("[WARN] quote fetch for %d symbols: %v", len(chunk), err)
		}
		run.mu.Lock()
		run.baseFailed += len(chunk)
		run.mu.Unlock()
		for _, code := range chunk {
			symErr := &model.SymbolError{Code: code, Err: "quote fetch failed"}
			report.Outcomes = append(report.Outcomes, model.Fail(symErr))
			report.Errors = append(report.Errors, *symErr)
		}
		a.emit(run)
		return
	}

	byCode := make(map[string]model.Quote, len(quotes))
	for _, q := range quotes {
		byCode[q.Code] = q
	}

	runner := batch.NewRunner[*model.AnalysisRecord](a.cfg.MaxConcurrency, a.cfg.WaveDelay, run.token)
	runner.OnProgress(func(p batch.Progress) {
		run.mu.Lock()
		snap := model.ProgressSnapshot{
			Total:     run.total,
			Completed: run.baseCompleted + p.Completed,
			Failed:    run.baseFailed + p.Failed,
		}
		snap.Percent = batch.Percent(snap.Completed+snap.Failed, snap.Total)
		run.mu.Unlock()
		if a.onProgress != nil {
			a.onProgress(snap)
		}
	})

	missing := make([]*model.SymbolError, 0)
	for _, code := range chunk {
		quote, ok := byCode[code]
		if !ok {
			missing = append(missing, &model.SymbolError{Code: code, Err: "quote missing"})
			continue
		}
		if !filter.keep(quote.Price) {
			run.mu.Lock()
			run.total-- // filtered symbols leave the run entirely
			run.mu.Unlock()
			continue
		}
		q := quote
		runner.Submit(batch.Task[*model.AnalysisRecord]{
			ID: code,
			Run: func(taskCtx context.Context) (*model.AnalysisRecord, error) {
				return a.analyzeSymbol(taskCtx, run.token, q, period, count)
			},
		})
	}

	if len(missing) > 0 {
		run.mu.Lock()
		run.baseFailed += len(missing)
		run.mu.Unlock()
		a.emit(run)
	}

	results, taskErrs := runner.Run(ctx)

	// Fold the chunk back in input order: one outcome per symbol that
	// was actually started, none for cancelled-before-start tasks.
	outcomes := make(map[string]model.Outcome, len(chunk))
	for _, m := range missing {
		outcomes[m.Code] = model.Fail(m)
		report.Errors = append(report.Errors, *m)
	}
	for _, res := range results {
		outcomes[res.ID] = model.OK(res.Value)
	}
	for _, te := range taskErrs {
		if errors.Is(te.Err, batch.ErrCancelled) {
			continue
		}
		q := byCode[te.ID]
		symErr := &model.SymbolError{
			Code:   te.ID,
			Name:   q.Name,
			Price:  q.Price,
			Volume: q.Volume,
			Amount: q.Amount,
			Err:    te.Err.Error(),
		}
		outcomes[te.ID] = model.Fail(symErr)
		report.Errors = append(report.Errors, *symErr)
	}
	for _, code := range chunk {
		if o, ok := outcomes[code]; ok {
			report.Outcomes = append(report.Outcomes, o)
		}
	}

	completed, failed := runner.Counts()
	run.mu.Lock()
	run.baseCompleted += completed
	run.baseFailed += failed
	run.mu.Unlock()
}

// emit publishes the run's aggregated counters.
func (a *Analyzer) emit(run *Run) {
	if a.onProgress == nil {
		return
	}
	run.mu.Lock()
	snap := model.ProgressSnapshot{
		Total:     run.total,
		Completed: run.baseCompleted,
		Failed:    run.baseFailed,
	}
	snap.Percent = batch.Percent(snap.Completed+snap.Failed, snap.Total)
	run.mu.Unlock()
	a.onProgress(snap)
}

func chunkSymbols(symbols []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[start:end])
	}
	return chunks
}
