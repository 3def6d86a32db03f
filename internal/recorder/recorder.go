package recorder

import "SwingSentinel/internal/model"

// Recorder persists scan output for later review and backtest comparison.
type Recorder interface {
	RecordScan(result *model.ScanResult) error
	Close() error
}
