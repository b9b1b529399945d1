package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lunarfall/swevals/internal/transcript"
)

// Session logs can carry whole unified diffs inline, so lines get large.
const maxLineBytes = 64 * 1024 * 1024

// WriteJSONL writes sessions as newline-delimited JSON, one session per line.
func WriteJSONL(path string, sessions []*SessionData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, s := range sessions {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding session %s: %w", s.SessionID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing session log: %w", err)
	}
	return f.Close()
}

// AppendJSONL appends a single session to a session log, creating it if
// needed. The agent step uses this so a crash mid-batch loses at most the
// in-flight session.
func AppendJSONL(path string, s *SessionData) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encoding session %s: %w", s.SessionID, err)
	}
	return f.Close()
}

// ReadJSONL reads a newline-delimited session log back into typed sessions.
// A malformed session fails the whole read; skipping belongs to the caller.
func ReadJSONL(path string, dec *transcript.Decoder) ([]*SessionData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sessions []*SessionData
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		s, err := Decode(scanner.Bytes(), dec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		sessions = append(sessions, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session log: %w", err)
	}
	return sessions, nil
}

// WritePatches writes the patch predictions file consumed by the scoring
// harness. Killed sessions are excluded: a patch only exists for runs that
// completed.
func WritePatches(path string, sessions []*SessionData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating patches file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, s := range sessions {
		if s.Killed {
			continue
		}
		if err := enc.Encode(s.Patch); err != nil {
			return fmt.Errorf("encoding patch for %s: %w", s.Fixture.InstanceID, err)
		}
	}
	return f.Close()
}
