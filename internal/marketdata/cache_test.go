package marketdata

import (
	"testing"
	"time"

	"SwingSentinel/internal/model"
)

func cacheSeries(symbol string, bars []model.OHLCV) *model.PriceSeries {
	return &model.PriceSeries{
		Symbol:    symbol,
		Timeframe: model.TimeframeDaily,
		Bars:      bars,
		Source:    "mock",
		FetchedAt: time.Now().UTC(),
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	key := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-02"}
	bars := GenerateBars(100, 5, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	if _, ok := store.Get(key); ok {
		t.Fatal("expected miss on empty store")
	}
	if err := store.Put(key, cacheSeries("A.NS", bars), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := store.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got.Bars) != 5 || got.Symbol != "A.NS" {
		t.Errorf("unexpected entry: %d bars, symbol %q", len(got.Bars), got.Symbol)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	key := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-02"}
	bars := GenerateBars(100, 5, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))

	if err := store.Put(key, cacheSeries("A.NS", bars), -time.Second); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := store.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestMemoryStore_KeyIsolation(t *testing.T) {
	store := NewMemoryStore()
	bars := GenerateBars(100, 5, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	daily := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-02"}
	weekly := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeWeekly, Bucket: "2025-06-02"}
	otherDay := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-03"}

	if err := store.Put(daily, cacheSeries("A.NS", bars), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := store.Get(weekly); ok {
		t.Error("weekly key must not hit a daily entry")
	}
	if _, ok := store.Get(otherDay); ok {
		t.Error("a different as-of bucket must not hit")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	key := CacheKey{Symbol: "A.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-02"}
	bars := GenerateBars(100, 5, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err := store.Put(key, cacheSeries("A.NS", bars), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, _ := store.Get(key)
	first.Bars[0].Close = -1

	second, _ := store.Get(key)
	if second.Bars[0].Close == -1 {
		t.Error("mutating a returned series must not affect the cached entry")
	}
}
