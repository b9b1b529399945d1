package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// marshalMetadata renders the metadata map as indented JSON. Session lists
// are excluded by the struct tags; only the metrics are persisted.
func marshalMetadata(metadata map[string]RunMetadata) ([]byte, error) {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis output: %w", err)
	}
	return data, nil
}

// FormatTerminal writes a human-readable summary of one run's metadata.
func FormatTerminal(w io.Writer, m RunMetadata) {
	sep := strings.Repeat("-", 32)
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "%s pass counts: %s\n", m.RunName, indentJSON(m.PassCounts))
	fmt.Fprintf(w, "%s pass rate: %.1f%%\n", m.RunName, m.PassRate)
	fmt.Fprintf(w, "%s timeout rate: %.1f%%\n", m.RunName, m.TimeoutRate)
	fmt.Fprintf(w, "%s avg duration: %.1f minutes\n", m.RunName, m.AvgDurationInMinutes)
	fmt.Fprintf(w, "%s avg tokens: %.1f kTokens\n", m.RunName, m.AvgTokens)
	fmt.Fprintf(w, "%s total tools used: %d\n", m.RunName, m.TotalToolsUsed)
	fmt.Fprintf(w, "%s resolved instances counts: %s\n", m.RunName, indentJSON(m.ResolvedInstanceCounts))
	fmt.Fprintf(w, "%s: %.1f avg tools used\n", m.RunName, m.AvgToolsUsed)
	fmt.Fprintln(w, "Tool usage proportions (log10 scale):")
	fmt.Fprintf(w, "%s: %s\n", m.RunName, indentJSON(m.ToolProportions))
	fmt.Fprintf(w, "%s: %.3f sum log proportions\n", m.RunName, m.SumLogProportions)
	fmt.Fprintln(w, "Tool usage proportions (original %):")
	fmt.Fprintf(w, "%s: %s\n", m.RunName, indentJSON(m.OriginalProportions))
	fmt.Fprintln(w, sep)
}

// FormatAll writes every run's summary in stable name order.
func FormatAll(w io.Writer, metadata map[string]RunMetadata) {
	names := make([]string, 0, len(metadata))
	for name := range metadata {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		FormatTerminal(w, metadata[name])
	}
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
