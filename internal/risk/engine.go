package risk

import (
	"errors"
	"fmt"
	"math"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/model"
)

// ErrInvalidRisk reports a degenerate stop/entry/size. The candidate is
// dropped with the reason recorded, never coerced into a zero-valued plan.
var ErrInvalidRisk = errors.New("invalid risk")

// Size derives the stop/target/position plan for an accepted candidate.
// Pure function of the candidate's entry price, its ATR snapshot, and the
// risk configuration.
func Size(c model.SetupCandidate, cfg config.RiskConfig) (model.RiskPlan, error) {
	entry := c.Price
	if entry <= 0 {
		return model.RiskPlan{}, fmt.Errorf("entry %.2f: %w", entry, ErrInvalidRisk)
	}

	stopDistance := clampStop(cfg.StopATRMultiplier*c.Snapshot.ATR14, entry, cfg)
	if stopDistance <= 0 {
		return model.RiskPlan{}, fmt.Errorf("stop distance %.4f: %w", stopDistance, ErrInvalidRisk)
	}

	targets := make([]float64, 0, len(cfg.TargetRatios))
	for _, ratio := range cfg.TargetRatios {
		targets = append(targets, entry+ratio*stopDistance)
	}
	target1 := targets[0]
	target2 := target1
	if len(targets) > 1 {
		target2 = targets[1]
	}

	accountRisk := cfg.AccountSize * cfg.RiskPerTradePercent / 100
	positionSize := math.Floor(accountRisk / stopDistance)

	// Cap exposure at the configured share of the account.
	maxValue := cfg.MaxPositionPercent / 100 * cfg.AccountSize
	if positionSize*entry > maxValue {
		positionSize = math.Floor(maxValue / entry)
	}
	if positionSize <= 0 {
		return model.RiskPlan{}, fmt.Errorf("position size %.0f: %w", positionSize, ErrInvalidRisk)
	}

	entryRange := cfg.EntryRangePercent / 100

	return model.RiskPlan{
		EntryRangeLow:   entry * (1 - entryRange),
		EntryRangeHigh:  entry * (1 + entryRange),
		StopLoss:        entry - stopDistance,
		StopDistance:    stopDistance,
		Target1:         target1,
		Target2:         target2,
		RiskRewardRatio: (target1 - entry) / stopDistance,
		PositionSize:    int(positionSize),
		PositionValue:   positionSize * entry,
		MaxLoss:         positionSize * stopDistance,
	}, nil
}

// clampStop bounds the ATR-derived stop distance between the configured
// minimum and maximum percentages of the entry price.
func clampStop(distance, entry float64, cfg config.RiskConfig) float64 {
	min := cfg.StopMinPercent / 100 * entry
	max := cfg.StopMaxPercent / 100 * entry
	if distance < min {
		return min
	}
	if distance > max {
		return max
	}
	return distance
}
