package stats

import "errors"

// ErrNoStatistics is returned when averaging an empty statistics list.
var ErrNoStatistics = errors.New("no statistics to average")

// AvgCounts is the per-session mean of Counts. Map values average with the
// union of keys across sessions; a session missing a key contributes zero.
type AvgCounts struct {
	TotalItems        float64            `json:"total_items"`
	AssistantMessages float64            `json:"assistant_messages"`
	UserMessages      float64            `json:"user_messages"`
	MessageParts      float64            `json:"message_parts"`
	PartsByType       map[string]float64 `json:"parts_by_type"`
	ToolsUsed         map[string]float64 `json:"tools_used"`
}

// AvgCost is the per-session mean of Cost.
type AvgCost struct {
	Total      float64 `json:"total"`
	PerMessage float64 `json:"per_message"`
}

// AvgTokens is the per-session mean of Tokens.
type AvgTokens struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	Reasoning  float64 `json:"reasoning"`
	CacheRead  float64 `json:"cache_read"`
	CacheWrite float64 `json:"cache_write"`
	Total      float64 `json:"total"`
}

// Sum returns the sum of every token field, the figure the cross-run
// aggregator reduces to kilotokens.
func (t AvgTokens) Sum() float64 {
	return t.Input + t.Output + t.Reasoning + t.CacheRead + t.CacheWrite + t.Total
}

// AvgTiming is the per-session mean of Timing.
type AvgTiming struct {
	TotalDurationMS float64 `json:"total_duration_ms"`
}

// AvgStatistics is the arithmetic mean of many sessions' statistics, written
// into the per-run report as avg_stats.
type AvgStatistics struct {
	Sessions int       `json:"sessions"`
	Counts   AvgCounts `json:"counts"`
	Cost     AvgCost   `json:"cost"`
	Tokens   AvgTokens `json:"tokens"`
	Timing   AvgTiming `json:"timing"`
	IsAgg    bool      `json:"is_agg"`
}

// Average reduces per-session statistics to their arithmetic mean. Averaging
// a single element returns that element's values unchanged.
func Average(all []Statistics) (AvgStatistics, error) {
	if len(all) == 0 {
		return AvgStatistics{}, ErrNoStatistics
	}
	n := float64(len(all))

	avg := AvgStatistics{
		Sessions: len(all),
		IsAgg:    true,
		Counts: AvgCounts{
			PartsByType: make(map[string]float64),
			ToolsUsed:   make(map[string]float64),
		},
	}

	for _, s := range all {
		avg.Counts.TotalItems += float64(s.Counts.TotalItems)
		avg.Counts.AssistantMessages += float64(s.Counts.AssistantMessages)
		avg.Counts.UserMessages += float64(s.Counts.UserMessages)
		avg.Counts.MessageParts += float64(s.Counts.MessageParts)
		for k, v := range s.Counts.PartsByType {
			avg.Counts.PartsByType[k] += float64(v)
		}
		for k, v := range s.Counts.ToolsUsed {
			avg.Counts.ToolsUsed[k] += float64(v)
		}

		avg.Cost.Total += s.Cost.Total
		avg.Cost.PerMessage += s.Cost.PerMessage

		avg.Tokens.Input += float64(s.Tokens.Input)
		avg.Tokens.Output += float64(s.Tokens.Output)
		avg.Tokens.Reasoning += float64(s.Tokens.Reasoning)
		avg.Tokens.CacheRead += float64(s.Tokens.CacheRead)
		avg.Tokens.CacheWrite += float64(s.Tokens.CacheWrite)
		avg.Tokens.Total += float64(s.Tokens.Total)

		avg.Timing.TotalDurationMS += float64(s.Timing.TotalDurationMS)
	}

	avg.Counts.TotalItems /= n
	avg.Counts.AssistantMessages /= n
	avg.Counts.UserMessages /= n
	avg.Counts.MessageParts /= n
	for k := range avg.Counts.PartsByType {
		avg.Counts.PartsByType[k] /= n
	}
	for k := range avg.Counts.ToolsUsed {
		avg.Counts.ToolsUsed[k] /= n
	}
	avg.Cost.Total /= n
	avg.Cost.PerMessage /= n
	avg.Tokens.Input /= n
	avg.Tokens.Output /= n
	avg.Tokens.Reasoning /= n
	avg.Tokens.CacheRead /= n
	avg.Tokens.CacheWrite /= n
	avg.Tokens.Total /= n
	avg.Timing.TotalDurationMS /= n

	return avg, nil
}
