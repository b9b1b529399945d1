// Package transcript defines the typed data model for one agent run's log
// stream: user/assistant messages and the part records interleaved with them
// (text, reasoning, tool calls, step markers, files, snapshots, patches).
package transcript

import (
	"encoding/json"
	"fmt"
)

// Record is one entry in a session transcript. Concrete types are the two
// message kinds, the part kinds below, and RawRecord for payloads the decoder
// keeps but does not understand.
type Record interface {
	// Kind returns the record's discriminator: the role for messages
	// ("user", "assistant"), the part type for parts, or whatever
	// discriminator a RawRecord carried.
	Kind() string
}

// CacheTokens counts prompt-cache reads and writes.
type CacheTokens struct {
	Read  int `json:"read"`
	Write int `json:"write"`
}

// TokenUsage holds the token accounting attached to assistant messages and
// step-finish parts. All fields are non-negative; totals are computed by
// summing contributing records, never by subtraction.
type TokenUsage struct {
	Input     int         `json:"input"`
	Output    int         `json:"output"`
	Reasoning int         `json:"reasoning"`
	Cache     CacheTokens `json:"cache"`
}

// Add returns the elementwise sum of u and v.
func (u TokenUsage) Add(v TokenUsage) TokenUsage {
	return TokenUsage{
		Input:     u.Input + v.Input,
		Output:    u.Output + v.Output,
		Reasoning: u.Reasoning + v.Reasoning,
		Cache: CacheTokens{
			Read:  u.Cache.Read + v.Cache.Read,
			Write: u.Cache.Write + v.Cache.Write,
		},
	}
}

// MessageTime records when a message was created and, once the provider
// finished streaming it, completed. Timestamps are unix milliseconds.
type MessageTime struct {
	Created   int64  `json:"created"`
	Completed *int64 `json:"completed,omitempty"`
}

// TimeInfo records the start and optional end of an operation, in unix
// milliseconds.
type TimeInfo struct {
	Start int64  `json:"start"`
	End   *int64 `json:"end,omitempty"`
}

// PathInfo describes the working directory context of an assistant message.
type PathInfo struct {
	Cwd  string `json:"cwd"`
	Root string `json:"root"`
}

// MessageError is the provider error attached to a failed assistant message.
type MessageError struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// UserMessage is a prompt sent to the agent.
type UserMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	SessionID string      `json:"sessionID"`
	Time      MessageTime `json:"time"`
}

// Kind implements Record.
func (*UserMessage) Kind() string { return RoleUser }

// AssistantMessage is one model turn, with its cost and token accounting.
type AssistantMessage struct {
	ID         string        `json:"id"`
	Role       string        `json:"role"`
	SessionID  string        `json:"sessionID"`
	Time       MessageTime   `json:"time"`
	Error      *MessageError `json:"error,omitempty"`
	System     []string      `json:"system,omitempty"`
	ModelID    string        `json:"modelID"`
	ProviderID string        `json:"providerID"`
	Mode       string        `json:"mode,omitempty"`
	Path       *PathInfo     `json:"path,omitempty"`
	Summary    bool          `json:"summary,omitempty"`
	Cost       float64       `json:"cost"`
	Tokens     TokenUsage    `json:"tokens"`
}

// Kind implements Record.
func (*AssistantMessage) Kind() string { return RoleAssistant }

// Duration returns the message duration in milliseconds, or false when the
// message never completed.
func (m *AssistantMessage) Duration() (int64, bool) {
	if m.Time.Completed == nil {
		return 0, false
	}
	return *m.Time.Completed - m.Time.Created, true
}

// PartMeta carries the fields shared by every part record.
type PartMeta struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionID,omitempty"`
	MessageID string `json:"messageID,omitempty"`
	Type      string `json:"type"`
}

// TextPart is free text emitted by the agent.
type TextPart struct {
	PartMeta
	Text      string    `json:"text"`
	Synthetic bool      `json:"synthetic,omitempty"`
	Time      *TimeInfo `json:"time,omitempty"`
}

// Kind implements Record.
func (*TextPart) Kind() string { return TypeText }

// ReasoningPart is a reasoning trace with timing.
type ReasoningPart struct {
	PartMeta
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Time     TimeInfo       `json:"time"`
}

// Kind implements Record.
func (*ReasoningPart) Kind() string { return TypeReasoning }

// ToolStatus discriminates the lifecycle state of a tool call.
type ToolStatus string

// Tool call lifecycle states.
const (
	ToolPending   ToolStatus = "pending"
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
	ToolError     ToolStatus = "error"
)

// ToolState is the state variant of a tool call. Which fields are populated
// depends on Status; Validate enforces the per-status requirements.
type ToolState struct {
	Status   ToolStatus     `json:"status"`
	Input    map[string]any `json:"input,omitempty"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Title    string         `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Time     *TimeInfo      `json:"time,omitempty"`
}

// Validate checks that the fields required by the state's status are present.
func (s *ToolState) Validate() error {
	switch s.Status {
	case ToolPending:
		return nil
	case ToolRunning:
		if s.Input == nil {
			return fmt.Errorf("running tool state missing input")
		}
		if s.Time == nil {
			return fmt.Errorf("running tool state missing time")
		}
		return nil
	case ToolCompleted:
		if s.Input == nil {
			return fmt.Errorf("completed tool state missing input")
		}
		if s.Time == nil || s.Time.End == nil {
			return fmt.Errorf("completed tool state missing time range")
		}
		return nil
	case ToolError:
		if s.Input == nil {
			return fmt.Errorf("errored tool state missing input")
		}
		if s.Error == "" {
			return fmt.Errorf("errored tool state missing error")
		}
		return nil
	default:
		return fmt.Errorf("unknown tool status %q", s.Status)
	}
}

// ToolCallPart is a single tool invocation and its state.
type ToolCallPart struct {
	PartMeta
	CallID string    `json:"callID"`
	Tool   string    `json:"tool"`
	State  ToolState `json:"state"`
}

// Kind implements Record.
func (*ToolCallPart) Kind() string { return TypeTool }

// StepStartPart marks the start of one agent reasoning step.
type StepStartPart struct {
	PartMeta
}

// Kind implements Record.
func (*StepStartPart) Kind() string { return TypeStepStart }

// StepFinishPart marks the end of one agent reasoning step and carries that
// step's cost and token accounting, additive with the per-message totals.
type StepFinishPart struct {
	PartMeta
	Cost   float64    `json:"cost"`
	Tokens TokenUsage `json:"tokens"`
}

// Kind implements Record.
func (*StepFinishPart) Kind() string { return TypeStepFinish }

// FilePart is a file attachment. The source payload is kept opaque.
type FilePart struct {
	PartMeta
	Mime     string          `json:"mime"`
	Filename string          `json:"filename,omitempty"`
	URL      string          `json:"url"`
	Source   json.RawMessage `json:"source,omitempty"`
}

// Kind implements Record.
func (*FilePart) Kind() string { return TypeFile }

// AgentPart is content attributed to a named sub-agent.
type AgentPart struct {
	PartMeta
	Name   string          `json:"name"`
	Source json.RawMessage `json:"source,omitempty"`
}

// Kind implements Record.
func (*AgentPart) Kind() string { return TypeAgent }

// SnapshotPart references a workspace snapshot.
type SnapshotPart struct {
	PartMeta
	Snapshot string `json:"snapshot"`
}

// Kind implements Record.
func (*SnapshotPart) Kind() string { return TypeSnapshot }

// PatchPart records a patch the agent produced, as a content hash plus the
// files it touches.
type PatchPart struct {
	PartMeta
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
}

// Kind implements Record.
func (*PatchPart) Kind() string { return TypePatch }

// RawRecord preserves a record the decoder kept but did not recognize: a
// message with a role outside user/assistant, or a part with an unknown type.
// It round-trips byte-for-byte and is excluded from all typed queries.
type RawRecord struct {
	Raw json.RawMessage
}

// Kind implements Record. It returns the role or type discriminator found in
// the raw payload, or "" when neither is present.
func (r *RawRecord) Kind() string {
	var probe struct {
		Role string `json:"role"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(r.Raw, &probe); err != nil {
		return ""
	}
	if probe.Role != "" {
		return probe.Role
	}
	return probe.Type
}

// MarshalJSON emits the original payload unchanged.
func (r *RawRecord) MarshalJSON() ([]byte, error) {
	return r.Raw, nil
}

// Discriminator values for the known record kinds.
const (
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	TypeText       = "text"
	TypeReasoning  = "reasoning"
	TypeTool       = "tool"
	TypeStepStart  = "step-start"
	TypeStepFinish = "step-finish"
	TypeFile       = "file"
	TypeAgent      = "agent"
	TypeSnapshot   = "snapshot"
	TypePatch      = "patch"
)
