// Package stats reduces session transcripts into per-session statistics and
// the averaged statistics written into per-run reports.
package stats

import (
	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/transcript"
)

// Counts holds the record census of one session.
type Counts struct {
	TotalItems        int            `json:"total_items"`
	AssistantMessages int            `json:"assistant_messages"`
	UserMessages      int            `json:"user_messages"`
	MessageParts      int            `json:"message_parts"`
	PartsByType       map[string]int `json:"parts_by_type"`
	ToolsUsed         map[string]int `json:"tools_used"`
}

// Cost is the session's cost rollup. PerMessage divides by the assistant
// message count, floored at one so empty sessions stay finite.
type Cost struct {
	Total      float64 `json:"total"`
	PerMessage float64 `json:"per_message"`
}

// Tokens is the session's token rollup. Total deliberately excludes cache
// tokens: they are reused, not newly generated.
type Tokens struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	Reasoning  int `json:"reasoning"`
	CacheRead  int `json:"cache_read"`
	CacheWrite int `json:"cache_write"`
	Total      int `json:"total"`
}

// MessageTiming is the timing row for one assistant message. DurationMS is
// nil when the message never completed.
type MessageTiming struct {
	ID         string `json:"id"`
	Created    int64  `json:"created"`
	Completed  *int64 `json:"completed"`
	DurationMS *int64 `json:"duration_ms"`
}

// Timing holds per-message durations and their sum. Messages without a
// completed timestamp are excluded from the sum, not counted as zero.
type Timing struct {
	AssistantMessages []MessageTiming `json:"assistant_messages_with_timing"`
	TotalDurationMS   int64           `json:"total_duration_ms"`
}

// Statistics is the full per-session reduction.
type Statistics struct {
	SessionID string `json:"session_id"`
	Counts    Counts `json:"counts"`
	Cost      Cost   `json:"cost"`
	Tokens    Tokens `json:"tokens"`
	Timing    Timing `json:"timing"`
	IsAgg     bool   `json:"is_agg"`
}

// Compute reduces one session's record list into statistics. It is a pure
// function of the transcript: no I/O, and the session is not mutated.
func Compute(s *session.SessionData) Statistics {
	records := s.Records
	assistant := transcript.AssistantMessages(records)
	users := transcript.UserMessages(records)

	counts := Counts{
		TotalItems:        len(records),
		AssistantMessages: len(assistant),
		UserMessages:      len(users),
		MessageParts:      len(records) - len(assistant) - len(users),
		PartsByType:       make(map[string]int),
		ToolsUsed:         make(map[string]int),
	}

	for _, rec := range records {
		switch p := rec.(type) {
		case *transcript.UserMessage, *transcript.AssistantMessage:
			continue
		case *transcript.ToolCallPart:
			counts.PartsByType[p.Kind()]++
			// Every invocation counts, whatever state it ended in.
			counts.ToolsUsed[p.Tool]++
		case *transcript.RawRecord:
			kind := p.Kind()
			if kind == "" {
				kind = "unknown"
			}
			counts.PartsByType[kind]++
		default:
			counts.PartsByType[rec.Kind()]++
		}
	}

	// Assistant messages and step-finish parts both contribute cost and
	// tokens; the two views are additive, not alternatives.
	var totalCost float64
	var tokens transcript.TokenUsage
	for _, rec := range records {
		switch r := rec.(type) {
		case *transcript.AssistantMessage:
			totalCost += r.Cost
			tokens = tokens.Add(r.Tokens)
		case *transcript.StepFinishPart:
			totalCost += r.Cost
			tokens = tokens.Add(r.Tokens)
		}
	}

	timing := Timing{}
	for _, m := range assistant {
		row := MessageTiming{ID: m.ID, Created: m.Time.Created, Completed: m.Time.Completed}
		if d, ok := m.Duration(); ok {
			dur := d
			row.DurationMS = &dur
			timing.TotalDurationMS += d
		}
		timing.AssistantMessages = append(timing.AssistantMessages, row)
	}

	return Statistics{
		SessionID: s.SessionID,
		Counts:    counts,
		Cost: Cost{
			Total:      totalCost,
			PerMessage: totalCost / float64(max(len(assistant), 1)),
		},
		Tokens: Tokens{
			Input:      tokens.Input,
			Output:     tokens.Output,
			Reasoning:  tokens.Reasoning,
			CacheRead:  tokens.Cache.Read,
			CacheWrite: tokens.Cache.Write,
			Total:      tokens.Input + tokens.Output + tokens.Reasoning,
		},
		Timing: timing,
	}
}
