package marketdata

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"SwingSentinel/internal/model"
)

// SQLiteStore persists cached price series to a SQLite database so repeated
// scans within the TTL window make no network calls.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the cache database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// WAL mode for concurrent readers while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	stmt := `CREATE TABLE IF NOT EXISTS market_data_cache (
		symbol     TEXT NOT NULL,
		timeframe  TEXT NOT NULL,
		bucket     TEXT NOT NULL,
		source     TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		bars       TEXT NOT NULL,
		PRIMARY KEY (symbol, timeframe, bucket)
	)`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// cachedBar keeps the serialized form compact and stable.
type cachedBar struct {
	Date   string  `json:"d"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

func (s *SQLiteStore) Get(key CacheKey) (*model.PriceSeries, bool) {
	var source, barsJSON string
	var fetchedAt, expiresAt int64
	err := s.db.QueryRow(
		`SELECT source, fetched_at, expires_at, bars FROM market_data_cache
		 WHERE symbol = ? AND timeframe = ? AND bucket = ?`,
		key.Symbol, string(key.Timeframe), key.Bucket,
	).Scan(&source, &fetchedAt, &expiresAt, &barsJSON)
	if err != nil {
		return nil, false
	}
	if time.Now().Unix() > expiresAt {
		return nil, false
	}

	var raw []cachedBar
	if err := json.Unmarshal([]byte(barsJSON), &raw); err != nil {
		return nil, false
	}
	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		d, err := time.Parse(time.RFC3339, b.Date)
		if err != nil {
			return nil, false
		}
		bars[i] = model.OHLCV{Date: d, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}

	return &model.PriceSeries{
		Symbol:    key.Symbol,
		Timeframe: key.Timeframe,
		Bars:      bars,
		Source:    source,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, true
}

func (s *SQLiteStore) Put(key CacheKey, series *model.PriceSeries, ttl time.Duration) error {
	raw := make([]cachedBar, len(series.Bars))
	for i, b := range series.Bars {
		raw[i] = cachedBar{
			Date: b.Date.Format(time.RFC3339),
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	barsJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal bars: %w", err)
	}

	now := time.Now()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO market_data_cache
		 (symbol, timeframe, bucket, source, fetched_at, expires_at, bars)
		 VALUES (?,?,?,?,?,?,?)`,
		key.Symbol, string(key.Timeframe), key.Bucket,
		series.Source, series.FetchedAt.Unix(), now.Add(ttl).Unix(), string(barsJSON),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
