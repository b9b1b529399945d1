package stats

import (
	"errors"
	"testing"
)

func TestAverageEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Average(nil); !errors.Is(err, ErrNoStatistics) {
		t.Errorf("Average(nil) error = %v, want ErrNoStatistics", err)
	}
}

func TestAverageSingleElement(t *testing.T) {
	t.Parallel()

	in := Statistics{
		SessionID: "ses_1",
		Counts: Counts{
			TotalItems:        10,
			AssistantMessages: 3,
			UserMessages:      1,
			MessageParts:      6,
			PartsByType:       map[string]int{"tool": 4, "text": 2},
			ToolsUsed:         map[string]int{"read": 3, "edit": 1},
		},
		Cost:   Cost{Total: 1.5, PerMessage: 0.5},
		Tokens: Tokens{Input: 100, Output: 50, Reasoning: 10, CacheRead: 7, CacheWrite: 3, Total: 160},
		Timing: Timing{TotalDurationMS: 9000},
	}

	avg, err := Average([]Statistics{in})
	if err != nil {
		t.Fatalf("Average() error = %v", err)
	}

	// Averaging one element keeps its values, only the aggregate marker flips.
	if !avg.IsAgg || avg.Sessions != 1 {
		t.Errorf("is_agg/sessions = %v/%d", avg.IsAgg, avg.Sessions)
	}
	if avg.Counts.TotalItems != 10 || avg.Counts.MessageParts != 6 {
		t.Errorf("counts = %+v", avg.Counts)
	}
	if avg.Counts.ToolsUsed["read"] != 3 {
		t.Errorf("tools used = %v", avg.Counts.ToolsUsed)
	}
	if avg.Cost.Total != 1.5 || avg.Tokens.Total != 160 || avg.Timing.TotalDurationMS != 9000 {
		t.Errorf("avg = %+v", avg)
	}
}

func TestAverageUnionKeys(t *testing.T) {
	t.Parallel()

	a := Statistics{
		Counts: Counts{ToolsUsed: map[string]int{"read": 4}, PartsByType: map[string]int{"tool": 4}},
	}
	b := Statistics{
		Counts: Counts{ToolsUsed: map[string]int{"read": 2, "grep": 6}, PartsByType: map[string]int{"tool": 8}},
	}

	avg, err := Average([]Statistics{a, b})
	if err != nil {
		t.Fatalf("Average() error = %v", err)
	}

	if got := avg.Counts.ToolsUsed["read"]; got != 3 {
		t.Errorf("read = %v, want 3", got)
	}
	// A session without the key contributes zero, not a skipped denominator.
	if got := avg.Counts.ToolsUsed["grep"]; got != 3 {
		t.Errorf("grep = %v, want 3", got)
	}
	if got := avg.Counts.PartsByType["tool"]; got != 6 {
		t.Errorf("tool parts = %v, want 6", got)
	}
}
