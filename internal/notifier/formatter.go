package notifier

import (
	"fmt"
	"strings"
	"time"

	"SwingSentinel/internal/model"
)

// FormatScanReport renders a scan result into a Telegram message. Records
// are assumed ranked already; topN limits how many setups are expanded
// (0 shows all).
func FormatScanReport(result *model.ScanResult, topN int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Swing Scan</b> | %s\n", result.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%d setups, %d symbols failed, %s\n\n",
		len(result.Records), len(result.Failures), result.Duration.Round(time.Second)))

	if len(result.Records) == 0 {
		b.WriteString("No setups passed the filters today.\n")
	}

	shown := len(result.Records)
	if topN > 0 && shown > topN {
		shown = topN
	}
	for i := 0; i < shown; i++ {
		rec := result.Records[i]
		c, p := rec.Candidate, rec.Plan
		b.WriteString(fmt.Sprintf("<b>%s</b> %s | score %.0f\n", c.Symbol, c.Type, c.Score))
		b.WriteString(fmt.Sprintf("  entry %.2f–%.2f | stop %.2f\n", p.EntryRangeLow, p.EntryRangeHigh, p.StopLoss))
		b.WriteString(fmt.Sprintf("  targets %.2f / %.2f (R:R %.1f)\n", p.Target1, p.Target2, p.RiskRewardRatio))
		b.WriteString(fmt.Sprintf("  size %d (₹%.0f, max loss ₹%.0f)\n\n", p.PositionSize, p.PositionValue, p.MaxLoss))
	}
	if shown < len(result.Records) {
		b.WriteString(fmt.Sprintf("…and %d more.\n", len(result.Records)-shown))
	}

	if len(result.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ skipped: %s\n", formatFailures(result.Failures)))
	}
	return b.String()
}

// formatFailures groups failed symbols by reason into one compact line.
func formatFailures(failures map[string]model.FailureReason) string {
	byReason := make(map[model.FailureReason]int)
	for _, reason := range failures {
		byReason[reason]++
	}
	parts := make([]string, 0, len(byReason))
	for _, reason := range []model.FailureReason{
		model.FailureDataUnavailable,
		model.FailureInsufficientHistory,
		model.FailureInvalidRisk,
	} {
		if n := byReason[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(reason))))
		}
	}
	return strings.Join(parts, ", ")
}
