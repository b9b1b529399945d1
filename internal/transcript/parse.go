package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Decoder classifies raw transcript records into their typed variants.
//
// Dispatch rule: a record with a "role" key is a message; "user" and
// "assistant" decode into their typed shapes and any other role is passed
// through unmodified as a RawRecord. A record with a "type" key dispatches on
// the value: known types decode with required-field validation and a decode
// failure is fatal, while an unknown type is kept as a RawRecord with a
// warning. A record with neither key violates the input contract and fails
// the whole decode.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder. A nil logger falls back to slog.Default.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// partDecoders maps each known part type to its decode arm.
var partDecoders = map[string]func(json.RawMessage) (Record, error){
	TypeText:       decodeTextPart,
	TypeReasoning:  decodeReasoningPart,
	TypeTool:       decodeToolCallPart,
	TypeStepStart:  decodeStepStartPart,
	TypeStepFinish: decodeStepFinishPart,
	TypeFile:       decodeFilePart,
	TypeAgent:      decodeAgentPart,
	TypeSnapshot:   decodeSnapshotPart,
	TypePatch:      decodePatchPart,
}

// DecodeRecord decodes a single raw record.
func (d *Decoder) DecodeRecord(raw json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}

	if roleRaw, ok := fields["role"]; ok {
		var role string
		if err := json.Unmarshal(roleRaw, &role); err != nil {
			return nil, fmt.Errorf("decoding role: %w", err)
		}
		switch role {
		case RoleUser:
			return decodeUserMessage(raw)
		case RoleAssistant:
			return decodeAssistantMessage(raw, fields)
		default:
			// Roles outside user/assistant pass through untouched.
			return &RawRecord{Raw: raw}, nil
		}
	}

	if typeRaw, ok := fields["type"]; ok {
		var typ string
		if err := json.Unmarshal(typeRaw, &typ); err != nil {
			return nil, fmt.Errorf("decoding type: %w", err)
		}
		decode, ok := partDecoders[typ]
		if !ok {
			d.logger.Warn("unrecognized part type, keeping raw record", "type", typ)
			return &RawRecord{Raw: raw}, nil
		}
		rec, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %q part: %w", typ, err)
		}
		return rec, nil
	}

	return nil, fmt.Errorf("record has neither role nor type")
}

// DecodeRecords decodes a flat list of raw records, preserving input order.
// The first fatal decode error aborts the whole list.
func (d *Decoder) DecodeRecords(raws []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := d.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeUserMessage(raw json.RawMessage) (Record, error) {
	var m UserMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("user message missing id")
	}
	if m.SessionID == "" {
		return nil, fmt.Errorf("user message missing sessionID")
	}
	return &m, nil
}

func decodeAssistantMessage(raw json.RawMessage, fields map[string]json.RawMessage) (Record, error) {
	var m AssistantMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("assistant message missing id")
	}
	if m.SessionID == "" {
		return nil, fmt.Errorf("assistant message missing sessionID")
	}
	if m.ModelID == "" {
		return nil, fmt.Errorf("assistant message missing modelID")
	}
	if m.ProviderID == "" {
		return nil, fmt.Errorf("assistant message missing providerID")
	}
	// Zero is a valid cost and a valid token count, so presence is checked
	// on the raw keys rather than the decoded values.
	if _, ok := fields["cost"]; !ok {
		return nil, fmt.Errorf("assistant message missing cost")
	}
	if _, ok := fields["tokens"]; !ok {
		return nil, fmt.Errorf("assistant message missing tokens")
	}
	return &m, nil
}

func decodeTextPart(raw json.RawMessage) (Record, error) {
	var p TextPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "text"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeReasoningPart(raw json.RawMessage) (Record, error) {
	var p ReasoningPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "text", "time"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeToolCallPart(raw json.RawMessage) (Record, error) {
	var p ToolCallPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "callID", "tool", "state"); err != nil {
		return nil, err
	}
	if err := p.State.Validate(); err != nil {
		return nil, fmt.Errorf("tool %q: %w", p.Tool, err)
	}
	return &p, nil
}

func decodeStepStartPart(raw json.RawMessage) (Record, error) {
	var p StepStartPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeStepFinishPart(raw json.RawMessage) (Record, error) {
	var p StepFinishPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "cost", "tokens"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeFilePart(raw json.RawMessage) (Record, error) {
	var p FilePart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "mime", "url"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeAgentPart(raw json.RawMessage) (Record, error) {
	var p AgentPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "name"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeSnapshotPart(raw json.RawMessage) (Record, error) {
	var p SnapshotPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "snapshot"); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodePatchPart(raw json.RawMessage) (Record, error) {
	var p PatchPart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "id", "hash", "files"); err != nil {
		return nil, err
	}
	return &p, nil
}

// requireKeys fails when any of the named keys is absent from the raw object.
// Presence is what matters: zero values are legitimate field values.
func requireKeys(raw json.RawMessage, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return fmt.Errorf("missing required field %q", k)
		}
	}
	return nil
}
