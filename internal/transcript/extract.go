package transcript

// AssistantMessages filters the typed assistant messages out of a record
// list, preserving order.
func AssistantMessages(records []Record) []*AssistantMessage {
	var out []*AssistantMessage
	for _, rec := range records {
		if m, ok := rec.(*AssistantMessage); ok {
			out = append(out, m)
		}
	}
	return out
}

// UserMessages filters the typed user messages out of a record list,
// preserving order.
func UserMessages(records []Record) []*UserMessage {
	var out []*UserMessage
	for _, rec := range records {
		if m, ok := rec.(*UserMessage); ok {
			out = append(out, m)
		}
	}
	return out
}

// Parts returns every typed record that is not a message, preserving order.
// RawRecords are excluded: they carry no typed shape to query.
func Parts(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		switch rec.(type) {
		case *UserMessage, *AssistantMessage, *RawRecord:
			continue
		default:
			out = append(out, rec)
		}
	}
	return out
}

// ToolCall is a lightweight view of one completed tool invocation, the input
// to file-access reconstruction.
type ToolCall struct {
	Tool  string
	State ToolState
}

// CompletedToolCalls returns a view of every tool-call part whose state is
// completed, preserving order.
func CompletedToolCalls(records []Record) []ToolCall {
	var out []ToolCall
	for _, rec := range records {
		p, ok := rec.(*ToolCallPart)
		if !ok || p.State.Status != ToolCompleted {
			continue
		}
		out = append(out, ToolCall{Tool: p.Tool, State: p.State})
	}
	return out
}
