package models

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestLoadReplicationYAML(t *testing.T) {
	path := writeTestFile(t, "replication.yaml", `
source: PG_SOURCE
target: SNOWFLAKE
defaults:
  mode: incremental
  primary_key: [id]
  source_options:
    header: true
streams:
  public.users: {}
  public.orders:
    mode: full-refresh
    disabled: true
env:
  TZ: UTC
`)

	r, err := LoadReplication(path)
	if err != nil {
		t.Fatalf("LoadReplication failed: %v", err)
	}
	if r.Source != "PG_SOURCE" || r.Target != "SNOWFLAKE" {
		t.Errorf("connections not parsed: %+v", r)
	}
	if r.Defaults.Mode != Incremental {
		t.Errorf("expected defaults mode incremental, got %s", r.Defaults.Mode)
	}
	if len(r.Defaults.PrimaryKey) != 1 || r.Defaults.PrimaryKey[0] != "id" {
		t.Errorf("primary_key not parsed: %v", r.Defaults.PrimaryKey)
	}
	if !r.Streams["public.orders"].Disabled {
		t.Error("disabled flag not parsed")
	}
	if r.Env["TZ"] != "UTC" {
		t.Errorf("env not parsed: %v", r.Env)
	}
	if r.FilePath != path {
		t.Errorf("expected FilePath %s, got %s", path, r.FilePath)
	}
}

func TestLoadReplicationJSON(t *testing.T) {
	path := writeTestFile(t, "replication.json",
		`{"source": "A", "target": "B", "streams": {"s1": {"update_key": "updated_at"}}}`)

	r, err := LoadReplication(path)
	if err != nil {
		t.Fatalf("LoadReplication failed: %v", err)
	}
	if r.Streams["s1"].UpdateKey != "updated_at" {
		t.Errorf("update_key not parsed: %+v", r.Streams["s1"])
	}
}

func TestLoadReplicationInvalid(t *testing.T) {
	path := writeTestFile(t, "replication.yaml", "source: A\nstreams: {s1: {}}\n")

	if _, err := LoadReplication(path); err == nil {
		t.Fatal("expected a validation error for a replication without a target")
	}
}

func TestLoadReplicationMissingFile(t *testing.T) {
	if _, err := LoadReplication(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadPipelineYAML(t *testing.T) {
	path := writeTestFile(t, "pipeline.yaml", `
env:
  STAGE: prod
steps:
  - type: log
    message: starting
  - type: command
    command: [echo, hello]
    if: $RUN_ECHO
`)

	p, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline failed: %v", err)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p.Steps))
	}
	if p.Steps[1].If != "$RUN_ECHO" {
		t.Errorf("if condition not parsed: %q", p.Steps[1].If)
	}
	if p.Env["STAGE"] != "prod" {
		t.Errorf("env not parsed: %v", p.Env)
	}
}

func TestLoadPipelineUnknownStepType(t *testing.T) {
	path := writeTestFile(t, "pipeline.yaml", "steps:\n  - type: teleport\n")

	if _, err := LoadPipeline(path); err == nil {
		t.Fatal("expected an error for an unknown step type")
	}
}

func TestLoadRunSpecYAML(t *testing.T) {
	path := writeTestFile(t, "run.yaml", `
source:
  conn: PG
  stream: public.users
target:
  conn: SNOWFLAKE
  object: analytics.users
mode: incremental
stream_options:
  batch_limit: 5000
`)

	spec, err := LoadRunSpec(path)
	if err != nil {
		t.Fatalf("LoadRunSpec failed: %v", err)
	}
	if spec.Source.Conn != "PG" || spec.Target.Object != "analytics.users" {
		t.Errorf("spec not parsed: %+v", spec)
	}
	if spec.Mode != Incremental {
		t.Errorf("expected mode incremental, got %s", spec.Mode)
	}
	if spec.StreamOptions["batch_limit"] != 5000 {
		t.Errorf("stream_options not parsed: %v", spec.StreamOptions)
	}
}
