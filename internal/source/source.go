package source

import (
	"context"

	"StockLens/internal/model"
)

// DataSource defines the interface for fetching market data. A batch
// quote fetch may return fewer entries than requested; a missing entry
// means the symbol is unknown, not an empty quote. A detail fetch may
// come back nil without being an error. A series fetch returns bars
// ascending by time and may be empty.
type DataSource interface {
	FetchQuotes(ctx context.Context, codes []string) ([]model.Quote, error)
	FetchDetail(ctx context.Context, code string) (*model.Detail, error)
	FetchSeries(ctx context.Context, code string, period model.Period, count int) ([]model.Bar, error)
	Name() string
}
