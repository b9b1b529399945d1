// Package analysis computes cross-run metrics: per-execution metadata derived
// from run reports and session logs, the averaged view across repeated
// executions of the same run variant, and the diff/file-access correlation.
package analysis

import (
	"errors"
	"math"

	"github.com/lunarfall/swevals/internal/session"
)

// ErrNoSessions is returned when an execution has an empty session list.
// There is no sensible rate to report for zero sessions, so this is an input
// contract violation rather than a zero.
var ErrNoSessions = errors.New("execution has no sessions")

// ErrNoExecutions is returned when averaging an empty metadata list.
var ErrNoExecutions = errors.New("no executions to average")

// RunMetadata is the aggregate view of one run variant: either a single
// execution's metrics or the average across repeated executions of the same
// variant (IsAgg true).
type RunMetadata struct {
	RunName                string             `json:"run_name"`
	AvgDurationInMinutes   float64            `json:"avg_duration_in_minutes"`
	ResolvedInstanceCounts map[string]int     `json:"resolved_instances_counts"`
	TotalToolsUsed         int                `json:"total_tools_used"`
	AvgTokens              float64            `json:"avg_tokens"`
	AvgToolsUsed           float64            `json:"avg_tools_used"`
	ToolProportions        map[string]float64 `json:"tool_proportions"`
	PassRate               float64            `json:"pass_rate"`
	TimeoutRate            float64            `json:"timeout_rate"`
	ToolProportionsLog     map[string]float64 `json:"tool_proportions_log"`
	SumLogProportions      float64            `json:"sum_log_proportions"`
	OriginalProportions    map[string]float64 `json:"original_proportions"`
	ToolsUsed              map[string]float64 `json:"tools_used_dict"`
	PassCounts             map[string]int     `json:"pass_counts"`
	IsAgg                  bool               `json:"is_agg"`

	Sessions []*session.SessionData `json:"-"`
}

// Average reduces repeated executions of one variant to their mean. Dict
// fields merge over the union of keys, with absent keys contributing zero.
// ResolvedInstanceCounts and PassCounts sum rather than average: they are
// cumulative counts. Session lists concatenate without deduplication.
// Averaging a single execution returns its values unchanged apart from IsAgg.
func Average(items []RunMetadata) (RunMetadata, error) {
	if len(items) == 0 {
		return RunMetadata{}, ErrNoExecutions
	}
	n := float64(len(items))

	out := RunMetadata{
		RunName:                items[0].RunName,
		ResolvedInstanceCounts: make(map[string]int),
		ToolProportions:        make(map[string]float64),
		ToolProportionsLog:     make(map[string]float64),
		OriginalProportions:    make(map[string]float64),
		ToolsUsed:              make(map[string]float64),
		PassCounts:             make(map[string]int),
		IsAgg:                  true,
	}

	for _, it := range items {
		out.AvgDurationInMinutes += it.AvgDurationInMinutes
		out.AvgTokens += it.AvgTokens
		out.AvgToolsUsed += it.AvgToolsUsed
		out.PassRate += it.PassRate
		out.TimeoutRate += it.TimeoutRate
		out.TotalToolsUsed += it.TotalToolsUsed
		out.SumLogProportions += it.SumLogProportions

		for k, v := range it.ResolvedInstanceCounts {
			out.ResolvedInstanceCounts[k] += v
		}
		for k, v := range it.PassCounts {
			out.PassCounts[k] += v
		}
		for k, v := range it.ToolProportions {
			out.ToolProportions[k] += v
		}
		for k, v := range it.ToolProportionsLog {
			out.ToolProportionsLog[k] += v
		}
		for k, v := range it.OriginalProportions {
			out.OriginalProportions[k] += v
		}
		for k, v := range it.ToolsUsed {
			out.ToolsUsed[k] += v
		}

		out.Sessions = append(out.Sessions, it.Sessions...)
	}

	out.AvgDurationInMinutes /= n
	out.AvgTokens /= n
	out.AvgToolsUsed /= n
	out.PassRate /= n
	out.TimeoutRate /= n
	for k := range out.ToolProportions {
		out.ToolProportions[k] /= n
	}
	for k := range out.ToolProportionsLog {
		out.ToolProportionsLog[k] /= n
	}
	for k := range out.OriginalProportions {
		out.OriginalProportions[k] /= n
	}
	for k := range out.ToolsUsed {
		out.ToolsUsed[k] /= n
	}

	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
