package marketdata

import (
	"fmt"
	"sync"
	"time"

	"SwingSentinel/internal/model"
)

// CacheKey identifies one cached price series. The bucket is the as_of date
// (YYYY-MM-DD) so backtest fetches never collide with live ones.
type CacheKey struct {
	Symbol    string
	Timeframe model.Timeframe
	Bucket    string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Symbol, k.Timeframe, k.Bucket)
}

// Store is the minimal cache contract the acquisition service depends on.
// Entries are written whole: a Put fully replaces any previous entry for the
// key, so concurrent writers are safe under last-writer-wins.
type Store interface {
	Get(key CacheKey) (*model.PriceSeries, bool)
	Put(key CacheKey, series *model.PriceSeries, ttl time.Duration) error
	Close() error
}

// MemoryStore is a concurrency-safe in-process Store, used in tests and as a
// fallback when the on-disk cache cannot be opened.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	series    model.PriceSeries
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(key CacheKey) (*model.PriceSeries, bool) {
	s.mu.RLock()
	e, ok := s.entries[key.String()]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	out := e.series
	out.Bars = append([]model.OHLCV(nil), e.series.Bars...)
	return &out, true
}

func (s *MemoryStore) Put(key CacheKey, series *model.PriceSeries, ttl time.Duration) error {
	copied := *series
	copied.Bars = append([]model.OHLCV(nil), series.Bars...)
	s.mu.Lock()
	s.entries[key.String()] = memoryEntry{series: copied, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
