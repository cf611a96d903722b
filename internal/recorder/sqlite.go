package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"

	"StockLens/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists analysis runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the scanner writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id     TEXT PRIMARY KEY,
			started    INTEGER NOT NULL,
			finished   INTEGER NOT NULL,
			total      INTEGER,
			completed  INTEGER,
			failed     INTEGER,
			cancelled  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			code              TEXT NOT NULL,
			name              TEXT,
			price             REAL,
			change_percent    REAL,
			volume            REAL,
			amount            REAL,
			pe_ratio          REAL,
			turnover_rate     REAL,
			ma5               REAL,
			ma20              REAL,
			rsi14             REAL,
			kdj_j             REAL,
			macd              REAL,
			volatility        REAL,
			ma_spread         REAL,
			is_consolidation  INTEGER,
			strength          REAL,
			volume_ratio      REAL,
			volume_shrinking  INTEGER,
			trend_before      TEXT,
			surge_count       INTEGER,
			after_surge       TEXT,
			error             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON scan_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_code ON scan_results(code)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run header and one row per outcome in a single
// transaction.
func (r *SQLiteRecorder) RecordRun(run *RunSummary, outcomes []model.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO scan_runs
		(run_id, started, finished, total, completed, failed, cancelled)
		VALUES (?,?,?,?,?,?,?)`,
		run.RunID, run.Started.Unix(), run.Finished.Unix(),
		run.Total, run.Completed, run.Failed, boolInt(run.Cancelled),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_results
		(run_id, code, name, price, change_percent, volume, amount,
		 pe_ratio, turnover_rate, ma5, ma20, rsi14, kdj_j, macd,
		 volatility, ma_spread, is_consolidation, strength,
		 volume_ratio, volume_shrinking, trend_before, surge_count, after_surge, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if err := insertOutcome(stmt, run.RunID, o); err != nil {
			return fmt.Errorf("insert result %s: %w", o.Code(), err)
		}
	}
	return tx.Commit()
}

func insertOutcome(stmt *sql.Stmt, runID string, o model.Outcome) error {
	if o.Err != nil {
		e := o.Err
		_, err := stmt.Exec(runID, e.Code, e.Name, e.Price, nil, e.Volume, e.Amount,
			nil, nil, nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil, nil, nil, e.Err)
		return err
	}

	rec := o.Record
	q, ind := rec.Quote, rec.Indicators

	var peRatio, turnover interface{}
	if rec.Detail != nil {
		peRatio, turnover = rec.Detail.PERatio, rec.Detail.TurnoverRate
	}

	var volatility, maSpread, isCons, strength, volRatio, shrinking, trend interface{}
	if c := rec.Consolidation; c != nil {
		volatility = nanNil(c.PriceVolatility.Volatility)
		maSpread = nanNil(c.MAConvergence.MASpread)
		isCons = boolInt(c.Combined.IsConsolidation)
		strength = c.Combined.Strength
		volRatio = nanNil(c.Volume.AvgVolumeRatio)
		shrinking = boolInt(c.Volume.IsVolumeShrinking)
		if c.TrendBefore != nil {
			trend = c.TrendBefore.Direction
		}
	}

	_, err := stmt.Exec(runID, q.Code, q.Name, q.Price, q.ChangePercent, q.Volume, q.Amount,
		peRatio, turnover,
		nanNil(ind.MA5), nanNil(ind.MA20), nanNil(ind.RSI14), nanNil(ind.J), nanNil(ind.MACD),
		volatility, maSpread, isCons, strength,
		volRatio, shrinking, trend, len(rec.Surges), string(rec.AfterSurge), nil)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nanNil maps the NaN sentinel to SQL NULL.
func nanNil(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
