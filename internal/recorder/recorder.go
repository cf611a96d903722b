package recorder

import (
	"time"

	"StockLens/internal/model"
)

// RunSummary holds the header row for one analysis run.
type RunSummary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Total     int
	Completed int
	Failed    int
	Cancelled bool
}

// Recorder persists analysis runs for later inspection.
type Recorder interface {
	RecordRun(run *RunSummary, outcomes []model.Outcome) error
	Close() error
}
