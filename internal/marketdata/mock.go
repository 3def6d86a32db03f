package marketdata

import (
	"context"
	"sync"
	"time"

	"SwingSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars []model.OHLCV
	Err  error

	mu    sync.Mutex
	calls int
}

func NewMockFetcher(bars []model.OHLCV) *MockFetcher {
	return &MockFetcher{Bars: bars}
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchBars was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchBars(_ context.Context, _ string, _ model.Timeframe, start, end time.Time) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.OHLCV, 0, len(m.Bars))
	for _, b := range m.Bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GenerateBars produces a gently trending synthetic daily series ending at
// end, for tests and dry runs.
func GenerateBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Date:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
