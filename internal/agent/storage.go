package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lunarfall/swevals/internal/transcript"
)

// readSessionStorage collects a session's transcript from the agent's storage
// tree: one JSON file per message under message/<sessionID>/, and one per
// part under part/<messageID>/. Each message is followed by its parts, files
// in name order.
func (r *Runner) readSessionStorage(sessionID string) ([]transcript.Record, error) {
	messagesDir := filepath.Join(r.StoragePath, "message", sessionID)
	messageFiles, err := sortedJSONFiles(messagesDir)
	if err != nil {
		return nil, fmt.Errorf("reading session storage: %w", err)
	}

	var records []transcript.Record
	for _, msgFile := range messageFiles {
		raw, err := os.ReadFile(msgFile)
		if err != nil {
			return nil, fmt.Errorf("reading message file: %w", err)
		}
		rec, err := r.decoder.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", msgFile, err)
		}
		records = append(records, rec)

		messageID, err := recordID(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", msgFile, err)
		}
		partFiles, err := sortedJSONFiles(filepath.Join(r.StoragePath, "part", messageID))
		if err != nil {
			return nil, fmt.Errorf("reading parts for message %s: %w", messageID, err)
		}
		for _, partFile := range partFiles {
			rawPart, err := os.ReadFile(partFile)
			if err != nil {
				return nil, fmt.Errorf("reading part file: %w", err)
			}
			part, err := r.decoder.DecodeRecord(rawPart)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", partFile, err)
			}
			records = append(records, part)
		}
	}
	return records, nil
}

func recordID(raw []byte) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	if probe.ID == "" {
		return "", fmt.Errorf("stored message has no id")
	}
	return probe.ID, nil
}

func sortedJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
