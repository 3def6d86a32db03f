package model

import "time"

// SetupType classifies a detected swing-trade setup.
type SetupType string

const (
	SetupBreakout      SetupType = "BREAKOUT"
	SetupPullback      SetupType = "PULLBACK"
	SetupMomentum      SetupType = "MOMENTUM"
	SetupConsolidation SetupType = "CONSOLIDATION"
)

// SetupCandidate is a single detected setup for one symbol. Immutable once
// emitted; a symbol may produce candidates of several types in one scan.
type SetupCandidate struct {
	Symbol       string
	Type         SetupType
	Score        float64 // 0-100, deterministic for identical inputs
	AsOf         time.Time
	Price        float64 // latest close at detection
	TriggerPrice float64 // rule-specific reference level (prior high, EMA50, range high)
	VolumeRatio  float64
	Snapshot     IndicatorPoint // indicators on the triggering bar
}

// RiskPlan is the stop/target/position plan derived for a candidate.
type RiskPlan struct {
	EntryRangeLow   float64
	EntryRangeHigh  float64
	StopLoss        float64
	StopDistance    float64
	Target1         float64
	Target2         float64
	RiskRewardRatio float64
	PositionSize    int
	PositionValue   float64
	MaxLoss         float64
}

// ScanRecord bundles everything downstream collaborators need for one
// accepted candidate.
type ScanRecord struct {
	Candidate SetupCandidate
	Snapshot  IndicatorPoint
	Plan      RiskPlan
}

// FailureReason classifies why a symbol produced no output in a scan.
type FailureReason string

const (
	FailureDataUnavailable     FailureReason = "DATA_UNAVAILABLE"
	FailureInsufficientHistory FailureReason = "INSUFFICIENT_HISTORY"
	FailureInvalidRisk         FailureReason = "INVALID_RISK"
)

// ScanResult is the full output of one scan run.
type ScanResult struct {
	ScanID    string
	AsOf      time.Time
	StartedAt time.Time
	Duration  time.Duration
	Records   []ScanRecord
	Failures  map[string]FailureReason
}
