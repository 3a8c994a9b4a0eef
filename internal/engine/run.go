package engine

import (
	"context"
	"iter"

	"github.com/ferrydata/ferry/internal/stream"
	"github.com/ferrydata/ferry/pkg/models"
)

// Run executes an ad-hoc transfer to completion without record streaming on
// the read side. When the spec carries an input, records are streamed to the
// engine's stdin.
func Run(ctx context.Context, spec *models.RunSpec) (*ExitResult, error) {
	inv, err := BuildRun(spec, OutputCapture)
	if err != nil {
		return nil, err
	}
	h, err := Execute(ctx, inv, ExecOptions{Input: inputFor(spec), Output: OutputCapture})
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

// Stream executes the spec and returns its output as a lazy row-record
// sequence. Stopping iteration early terminates the engine.
func Stream(ctx context.Context, spec *models.RunSpec) (iter.Seq2[stream.Record, error], error) {
	inv, err := BuildRun(spec, OutputRows)
	if err != nil {
		return nil, err
	}
	h, err := Execute(ctx, inv, ExecOptions{Input: inputFor(spec), Output: OutputRows})
	if err != nil {
		return nil, err
	}
	return h.Records(models.FormatCSV), nil
}

// StreamBatches executes the spec and returns its output as a lazy
// columnar-batch sequence, preserving per-column types end to end.
// Requesting batch output together with a target object is rejected at
// build time.
func StreamBatches(ctx context.Context, spec *models.RunSpec) (iter.Seq2[*stream.Batch, error], error) {
	inv, err := BuildRun(spec, OutputArrow)
	if err != nil {
		return nil, err
	}
	h, err := Execute(ctx, inv, ExecOptions{Input: inputFor(spec), Output: OutputArrow})
	if err != nil {
		return nil, err
	}
	return h.Batches(), nil
}

// RunReplication executes a replication to completion. extraEnv overlays the
// replication's own env, which overlays the process environment.
func RunReplication(ctx context.Context, r *models.Replication, extraEnv map[string]string) (*ExitResult, error) {
	inv, err := BuildReplication(r)
	if err != nil {
		return nil, err
	}
	if len(extraEnv) > 0 {
		inv.Env = MergeEnv(r.Env, extraEnv)
	}
	h, err := Execute(ctx, inv, ExecOptions{Output: OutputCapture})
	if err != nil {
		return nil, err
	}
	return h.Wait()
}

func inputFor(spec *models.RunSpec) *stream.Input {
	if spec.Input == nil {
		return nil
	}
	return &stream.Input{
		Columns: spec.InputColumns,
		Format:  spec.InputFormat,
		Records: spec.Input,
	}
}
