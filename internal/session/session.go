package session

import (
	"encoding/json"
	"fmt"

	"github.com/lunarfall/swevals/internal/transcript"
)

// Killed reasons recorded on a session.
const (
	KilledTimeout = "timeout"
	KilledError   = "error"
)

// Patch is the unified diff produced by one successfully completed agent run,
// in the shape the external scoring harness expects. Immutable once produced.
type Patch struct {
	InstanceID      string `json:"instance_id"`
	ModelNameOrPath string `json:"model_name_or_path"`
	ModelPatch      string `json:"model_patch"`
}

// SessionData is one agent run: the fixture it ran against, the patch it
// produced, and the full ordered transcript. FileAccessOrder and PatchPaths
// are derived during cross-run analysis, not reported by the agent, and are
// not persisted.
type SessionData struct {
	SessionID    string
	Fixture      MaterializedFixture
	Patch        Patch
	Records      []transcript.Record
	Killed       bool
	KilledReason string

	FileAccessOrder []string
	PatchPaths      []string
}

// wireSession is the persisted JSONL shape of a session.
type wireSession struct {
	SessionID    string              `json:"session_id"`
	Fixture      MaterializedFixture `json:"fixture"`
	Patch        Patch               `json:"patch"`
	Messages     []transcript.Record `json:"messages"`
	Killed       bool                `json:"killed"`
	KilledReason string              `json:"killed_reason"`
}

// MarshalJSON encodes the session in its persisted form. Derived analysis
// fields are regenerated on load and deliberately left out.
func (s *SessionData) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSession{
		SessionID:    s.SessionID,
		Fixture:      s.Fixture,
		Patch:        s.Patch,
		Messages:     s.Records,
		Killed:       s.Killed,
		KilledReason: s.KilledReason,
	})
}

// Decode parses one persisted session object, running every transcript record
// through the typed decoder. A malformed record fails the whole session.
func Decode(data []byte, dec *transcript.Decoder) (*SessionData, error) {
	var wire struct {
		SessionID    string              `json:"session_id"`
		Fixture      MaterializedFixture `json:"fixture"`
		Patch        Patch               `json:"patch"`
		Messages     []json.RawMessage   `json:"messages"`
		Killed       bool                `json:"killed"`
		KilledReason string              `json:"killed_reason"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding session envelope: %w", err)
	}
	records, err := dec.DecodeRecords(wire.Messages)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", wire.SessionID, err)
	}
	return &SessionData{
		SessionID:    wire.SessionID,
		Fixture:      wire.Fixture,
		Patch:        wire.Patch,
		Records:      records,
		Killed:       wire.Killed,
		KilledReason: wire.KilledReason,
	}, nil
}
