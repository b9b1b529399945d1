package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigArgs(t *testing.T) {
	t.Parallel()

	cfg := Config{
		DatasetName:     "princeton-nlp/SWE-bench_Lite",
		PredictionsPath: "/data/runs/baseline/swebench_patches.jsonl",
		Split:           "dev",
		Namespace:       "none",
		MaxWorkers:      4,
		RunID:           "baseline",
		ForceRebuild:    false,
		ReportDir:       "/data/runs/baseline/swebench_report",
	}

	want := []string{
		"--dataset_name", "princeton-nlp/SWE-bench_Lite",
		"--predictions_path", "/data/runs/baseline/swebench_patches.jsonl",
		"--split", "dev",
		"--namespace", "none",
		"--force_rebuild", "false",
		"--max_workers", "4",
		"--run_id", "baseline",
		"--report_dir", "/data/runs/baseline/swebench_report",
	}
	if got := cfg.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	t.Parallel()

	r := NewRunner("/harness", "", "", true, nil)
	if r.Python != "python3" {
		t.Errorf("python = %q, want python3", r.Python)
	}
	if r.logger == nil {
		t.Error("logger should default, not stay nil")
	}
}

func TestReportRoundTripPreservesUnknownFields(t *testing.T) {
	t.Parallel()

	raw := `{
		"total_instances": 4,
		"submitted_instances": 4,
		"completed_instances": 3,
		"resolved_instances": 2,
		"unresolved_instances": 1,
		"resolved_ids": ["django__django-1", "sympy__sympy-2"],
		"error_ids": [],
		"schema_version": 2
	}`

	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.ResolvedInstances != 2 || r.TotalInstances != 4 || len(r.ResolvedIDs) != 2 {
		t.Errorf("typed fields = %+v", r)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decoding round trip: %v", err)
	}
	// Keys the pipeline does not understand survive the round trip.
	if decoded["submitted_instances"] != float64(4) {
		t.Errorf("submitted_instances = %v, want 4", decoded["submitted_instances"])
	}
	if decoded["schema_version"] != float64(2) {
		t.Errorf("schema_version = %v, want 2", decoded["schema_version"])
	}
	if decoded["resolved_instances"] != float64(2) {
		t.Errorf("resolved_instances = %v, want 2", decoded["resolved_instances"])
	}
}

func TestLoadReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.json")
	content := `{"total_instances":1,"resolved_instances":1,"resolved_ids":["flask__flask-3"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing report: %v", err)
	}

	r, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if r.ResolvedInstances != 1 || r.ResolvedIDs[0] != "flask__flask-3" {
		t.Errorf("report = %+v", r)
	}

	if _, err := LoadReport(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadReport() should fail for a missing file")
	}
}
