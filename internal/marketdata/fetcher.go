package marketdata

import (
	"context"
	"errors"
	"time"

	"SwingSentinel/internal/model"
)

// ErrDataUnavailable reports that every data source was exhausted, retries
// included. The symbol is excluded from the rest of the run; sibling symbols
// are unaffected.
var ErrDataUnavailable = errors.New("market data unavailable")

// Fetcher defines a single market data provider. Implementations return bars
// sorted by ascending date within [start, end].
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}
