package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/stats"
)

// ToolProportions holds the three parallel representations of a run's tool
// usage distribution.
type ToolProportions struct {
	// Log is log10(original proportion + 1) per tool. The +1 offset maps
	// every proportion into a finite positive range and compresses large
	// values, so rarely used tools stay distinguishable from zero.
	Log map[string]float64
	// Normalized renormalizes Log so the values sum to 100. This is a
	// proportion of proportions, not a distribution over raw usage.
	Normalized map[string]float64
	// Original is the plain 100*v/total proportion per tool, kept for
	// reference displays.
	Original map[string]float64
	// SumLog is the renormalization denominator.
	SumLog float64
}

// DeriveToolProportions computes the log-compressed tool usage distribution
// from per-tool usage counts. When total usage is zero there is no
// distribution to renormalize; all maps come back empty rather than dividing
// by zero, and callers should treat the run as having no tool usage.
func DeriveToolProportions(toolsUsed map[string]float64) ToolProportions {
	tp := ToolProportions{
		Log:        make(map[string]float64),
		Normalized: make(map[string]float64),
		Original:   make(map[string]float64),
	}

	var total float64
	for _, v := range toolsUsed {
		total += v
	}
	if total == 0 {
		return tp
	}

	for k, v := range toolsUsed {
		proportion := v / total * 100
		logProportion := 0.0
		if proportion > 0 {
			logProportion = math.Log10(proportion + 1)
		}
		tp.Log[k] = round3(logProportion)
		tp.Original[k] = round1(proportion)
	}

	for _, v := range tp.Log {
		tp.SumLog += v
	}
	for k, v := range tp.Log {
		tp.Normalized[k] = round1(v / tp.SumLog * 100)
	}
	return tp
}

// Derive computes one execution's metadata from its run report and session
// log. The report supplies totals and the harness's resolution verdicts; the
// sessions supply the timeout census and the underlying data carried forward
// for downstream consumers.
func Derive(runName string, report *stats.RunReport, sessions []*session.SessionData) (RunMetadata, error) {
	if len(sessions) == 0 {
		return RunMetadata{}, fmt.Errorf("%s: %w", runName, ErrNoSessions)
	}

	timedOut := 0
	for _, s := range sessions {
		if s.Killed && s.KilledReason == session.KilledTimeout {
			timedOut++
		}
	}
	timeoutRate := round1(float64(timedOut) / float64(len(sessions)) * 100)

	totalToolsUsed := 0
	for _, st := range report.Stats {
		for _, c := range st.Counts.ToolsUsed {
			totalToolsUsed += c
		}
	}

	internal := report.SweBenchInternalReport
	if internal == nil {
		return RunMetadata{}, fmt.Errorf("%s: run report has no harness report", runName)
	}
	if internal.TotalInstances == 0 {
		return RunMetadata{}, fmt.Errorf("%s: harness report has zero total instances", runName)
	}

	resolvedCounts := make(map[string]int, len(internal.ResolvedIDs))
	for _, id := range internal.ResolvedIDs {
		resolvedCounts[id] = 1 // presence indicator, not an attempt count
	}
	passCounts := map[string]int{strconv.Itoa(internal.ResolvedInstances): 1}
	passRate := round1(float64(internal.ResolvedInstances) / float64(internal.TotalInstances) * 100)

	avgDuration := round1(report.AvgStats.Timing.TotalDurationMS / 1000 / 60)
	avgTokens := round1(report.AvgStats.Tokens.Sum() / 1000)

	toolsUsed := make(map[string]float64, len(report.AvgStats.Counts.ToolsUsed))
	for k, v := range report.AvgStats.Counts.ToolsUsed {
		toolsUsed[k] = v
	}
	// "invalid" marks malformed tool calls, not a real tool.
	delete(toolsUsed, "invalid")

	var avgToolsUsed float64
	for _, v := range toolsUsed {
		avgToolsUsed += v
	}
	avgToolsUsed = round1(avgToolsUsed)

	tp := DeriveToolProportions(toolsUsed)

	return RunMetadata{
		RunName:                runName,
		AvgDurationInMinutes:   avgDuration,
		ResolvedInstanceCounts: resolvedCounts,
		TotalToolsUsed:         totalToolsUsed,
		AvgTokens:              avgTokens,
		AvgToolsUsed:           avgToolsUsed,
		ToolProportions:        tp.Normalized,
		PassRate:               passRate,
		TimeoutRate:            timeoutRate,
		ToolProportionsLog:     tp.Log,
		SumLogProportions:      tp.SumLog,
		OriginalProportions:    tp.Original,
		ToolsUsed:              toolsUsed,
		PassCounts:             passCounts,
		Sessions:               sessions,
	}, nil
}
