// Package harness drives the external SWE-bench evaluation harness: docker
// preflight, subprocess invocation, and loading of the harness's own report.
package harness

import (
	"encoding/json"
	"fmt"
	"os"
)

// Report is the scoring harness's own evaluation report. The harness owns
// this format; only the three fields the pipeline consumes are typed, and
// every other key is preserved verbatim so the report passes through
// downstream files unchanged.
type Report struct {
	ResolvedInstances int      `json:"resolved_instances"`
	ResolvedIDs       []string `json:"resolved_ids"`
	TotalInstances    int      `json:"total_instances"`

	extra map[string]json.RawMessage
}

// UnmarshalJSON decodes the typed fields and stashes everything else.
func (r *Report) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	type alias Report
	var typed alias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	*r = Report(typed)

	delete(fields, "resolved_instances")
	delete(fields, "resolved_ids")
	delete(fields, "total_instances")
	if len(fields) > 0 {
		r.extra = fields
	}
	return nil
}

// MarshalJSON re-emits the typed fields alongside the preserved ones.
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.extra)+3)
	for k, v := range r.extra {
		out[k] = v
	}
	put := func(k string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[k] = data
		return nil
	}
	if err := put("resolved_instances", r.ResolvedInstances); err != nil {
		return nil, err
	}
	if err := put("resolved_ids", r.ResolvedIDs); err != nil {
		return nil, err
	}
	if err := put("total_instances", r.TotalInstances); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// LoadReport reads a harness report file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading harness report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing harness report %s: %w", path, err)
	}
	return &r, nil
}
