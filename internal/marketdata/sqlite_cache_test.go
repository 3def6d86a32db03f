package marketdata

import (
	"path/filepath"
	"testing"
	"time"

	"SwingSentinel/internal/model"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	end := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	key := CacheKey{Symbol: "RELIANCE.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-06"}
	series := &model.PriceSeries{
		Symbol:    "RELIANCE.NS",
		Timeframe: model.TimeframeDaily,
		Bars:      GenerateBars(2950, 10, end),
		Source:    "yahoo",
		FetchedAt: end,
	}

	if _, ok := store.Get(key); ok {
		t.Fatal("expected miss before put")
	}
	if err := store.Put(key, series, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := store.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Source != "yahoo" || len(got.Bars) != 10 {
		t.Errorf("unexpected entry: source %q, %d bars", got.Source, len(got.Bars))
	}
	if !got.Bars[9].Date.Equal(end) {
		t.Errorf("expected last bar %v, got %v", end, got.Bars[9].Date)
	}
	if got.Bars[9].Close != series.Bars[9].Close {
		t.Errorf("close mismatch: %.4f vs %.4f", got.Bars[9].Close, series.Bars[9].Close)
	}
}

func TestSQLiteStore_ReplaceAndExpiry(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	end := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	key := CacheKey{Symbol: "TCS.NS", Timeframe: model.TimeframeDaily, Bucket: "2025-06-06"}
	series := &model.PriceSeries{
		Symbol: "TCS.NS", Timeframe: model.TimeframeDaily,
		Bars: GenerateBars(3900, 5, end), Source: "nse", FetchedAt: end,
	}

	// A whole-entry replace wins over the previous write.
	if err := store.Put(key, series, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	replacement := *series
	replacement.Bars = GenerateBars(3900, 8, end)
	if err := store.Put(key, &replacement, time.Hour); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, ok := store.Get(key)
	if !ok || len(got.Bars) != 8 {
		t.Fatalf("expected replaced entry with 8 bars, got ok=%v bars=%d", ok, len(got.Bars))
	}

	// Expired entries miss.
	if err := store.Put(key, series, -time.Second); err != nil {
		t.Fatalf("put expired: %v", err)
	}
	if _, ok := store.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}
