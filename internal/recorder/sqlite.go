package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"SwingSentinel/internal/model"
)

// SQLiteRecorder persists scan runs, detected setups, and per-symbol
// failures to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			scan_id     TEXT PRIMARY KEY,
			as_of       TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			candidates  INTEGER,
			failures    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS trade_setups (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id          TEXT NOT NULL,
			symbol           TEXT NOT NULL,
			setup_type       TEXT NOT NULL,
			score            REAL,
			price            REAL,
			trigger_price    REAL,
			volume_ratio     REAL,
			rsi14            REAL,
			atr14            REAL,
			atr_percent      REAL,
			ema20            REAL,
			ema50            REAL,
			ema200           REAL,
			macd_histogram   REAL,
			entry_range_low  REAL,
			entry_range_high REAL,
			stop_loss        REAL,
			stop_distance    REAL,
			target1          REAL,
			target2          REAL,
			risk_reward      REAL,
			position_size    INTEGER,
			position_value   REAL,
			max_loss         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_scan ON trade_setups(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_symbol ON trade_setups(symbol)`,

		`CREATE TABLE IF NOT EXISTS scan_failures (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			reason  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_scan ON scan_failures(scan_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes the run row, every setup record, and every failure in
// one transaction.
func (r *SQLiteRecorder) RecordScan(result *model.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO scan_runs
		(scan_id, as_of, started_at, duration_ms, candidates, failures)
		VALUES (?,?,?,?,?,?)`,
		result.ScanID, result.AsOf.Format("2006-01-02"),
		result.StartedAt.Unix(), result.Duration.Milliseconds(),
		len(result.Records), len(result.Failures),
	); err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}

	for _, rec := range result.Records {
		c, snap, plan := rec.Candidate, rec.Snapshot, rec.Plan
		if _, err := tx.Exec(`INSERT INTO trade_setups
			(scan_id, symbol, setup_type, score, price, trigger_price, volume_ratio,
			 rsi14, atr14, atr_percent, ema20, ema50, ema200, macd_histogram,
			 entry_range_low, entry_range_high, stop_loss, stop_distance,
			 target1, target2, risk_reward, position_size, position_value, max_loss)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			result.ScanID, c.Symbol, string(c.Type), c.Score, c.Price, c.TriggerPrice, c.VolumeRatio,
			snap.RSI14, snap.ATR14, snap.ATRPercent, snap.EMA20, snap.EMA50, snap.EMA200, snap.MACDHistogram,
			plan.EntryRangeLow, plan.EntryRangeHigh, plan.StopLoss, plan.StopDistance,
			plan.Target1, plan.Target2, plan.RiskRewardRatio, plan.PositionSize, plan.PositionValue, plan.MaxLoss,
		); err != nil {
			return fmt.Errorf("insert setup %s/%s: %w", c.Symbol, c.Type, err)
		}
	}

	for symbol, reason := range result.Failures {
		if _, err := tx.Exec(`INSERT INTO scan_failures (scan_id, symbol, reason) VALUES (?,?,?)`,
			result.ScanID, symbol, string(reason),
		); err != nil {
			return fmt.Errorf("insert failure %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
