package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrydata/ferry/internal/engine"
	"github.com/ferrydata/ferry/internal/steps"
	"github.com/ferrydata/ferry/pkg/models"
)

// installFakeEngine stands in for the real engine binary. The script records
// its argv and stdin to files so the test can verify the full invocation.
func installFakeEngine(t *testing.T, dir string) {
	t.Helper()
	script := `#!/bin/sh
echo "$@" > "` + dir + `/argv.txt"
cat > "` + dir + `/stdin.txt"
echo "id,name"
echo "1,alice"
echo "2,bob"
`
	path := filepath.Join(dir, "ferry-engine")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake engine: %v", err)
	}
	t.Setenv("FERRY_BINARY", path)
}

func TestEndToEndStreamTransfer(t *testing.T) {
	dir := t.TempDir()
	installFakeEngine(t, dir)

	// 1. Build a spec that both feeds records in and streams records out
	spec := &models.RunSpec{
		Input: models.InputFromMaps([]map[string]interface{}{
			{"id": 10, "name": "source-a"},
			{"id": 11, "name": "source-b"},
		}),
		InputColumns: []string{"id", "name"},
	}

	// 2. Stream the transfer
	records, err := engine.Stream(context.Background(), spec)
	if err != nil {
		t.Fatalf("Failed to start stream: %v", err)
	}

	var names []string
	for rec, err := range records {
		if err != nil {
			t.Fatalf("Stream error: %v", err)
		}
		v, _ := rec.Get("name")
		names = append(names, v.(string))
	}

	// 3. Verify the engine's output came through the decoder
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("Unexpected records: %v", names)
	}

	// 4. Verify the engine received the encoded input on stdin
	stdin, err := os.ReadFile(filepath.Join(dir, "stdin.txt"))
	if err != nil {
		t.Fatalf("Failed to read captured stdin: %v", err)
	}
	want := "id,name\n10,source-a\n11,source-b\n"
	if string(stdin) != want {
		t.Errorf("Expected stdin %q, got %q", want, stdin)
	}

	// 5. Verify the argv shape
	argv, err := os.ReadFile(filepath.Join(dir, "argv.txt"))
	if err != nil {
		t.Fatalf("Failed to read captured argv: %v", err)
	}
	got := string(argv)
	if got != "run --stdin csv --mode full-refresh --stdout csv\n" {
		t.Errorf("Unexpected argv: %q", got)
	}
}

func TestEndToEndPipeline(t *testing.T) {
	dir := t.TempDir()
	installFakeEngine(t, dir)

	repPath := filepath.Join(dir, "replication.yaml")
	repYAML := `
source: PG
target: SNOWFLAKE
streams:
  public.users: {}
`
	if err := os.WriteFile(repPath, []byte(repYAML), 0600); err != nil {
		t.Fatalf("Failed to write replication file: %v", err)
	}

	outPath := filepath.Join(dir, "marker.txt")
	p := &models.Pipeline{
		Env: map[string]string{"OUT": outPath},
		Steps: []models.Step{
			{Type: models.StepLog, Message: "pipeline starting"},
			{Type: models.StepReplication, Path: repPath},
			{Type: models.StepWrite, To: "$OUT", Content: "done"},
		},
	}

	results, err := steps.NewRunner(nil).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Pipeline execution failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Status != steps.StatusSucceeded {
			t.Errorf("Step %d (%s): expected succeeded, got %s", res.Index, res.Type, res.Status)
		}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Expected the write step's file: %v", err)
	}
	if string(data) != "done" {
		t.Errorf("Unexpected file content %q", data)
	}
}
