package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ferrydata/ferry/internal/stream"
	"github.com/ferrydata/ferry/pkg/logger"
	"github.com/ferrydata/ferry/pkg/models"
)

// OutputMode selects how engine stdout is consumed.
type OutputMode int

const (
	// OutputCapture collects stdout lines into the exit result.
	OutputCapture OutputMode = iota
	// OutputRows exposes stdout as a lazy row-record sequence.
	OutputRows
	// OutputArrow exposes stdout as a lazy columnar-batch sequence.
	OutputArrow
)

// stderrTailLines bounds the captured stderr window.
const stderrTailLines = 20

// maxLineBytes bounds a single engine output line in the line-oriented
// drainers. Past this, the line is malformed beyond use and the pipe is
// drained raw so the child can still exit.
const maxLineBytes = 16 * 1024 * 1024

// ExecOptions wires the streaming channels of one invocation.
type ExecOptions struct {
	// Input, when set, is streamed to the engine's stdin under backpressure.
	Input  *stream.Input
	Output OutputMode
}

// Handle owns one engine process: its pipes, its stderr drainer, its stdin
// writer and the temp config artifact. All exit paths, success, failure and
// abandoned consumption, converge on the same cleanup.
type Handle struct {
	cmd      *exec.Cmd
	tempPath string
	stdout   io.ReadCloser
	stderr   *tailBuffer
	group    *errgroup.Group

	outputMu sync.Mutex
	output   []string

	written atomic.Int64

	waitOnce sync.Once
	waitRes  *ExitResult
	waitErr  error
}

// Execute spawns the engine. The stderr drainer always runs, so the engine
// can never deadlock on a full stderr pipe regardless of whether records
// are flowing.
func Execute(ctx context.Context, inv *Invocation, opts ExecOptions) (*Handle, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Env = inv.Env

	h := &Handle{cmd: cmd, tempPath: inv.TempPath, stderr: newTailBuffer(stderrTailLines)}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		h.removeTemp()
		return nil, fmt.Errorf("wire stderr: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		h.removeTemp()
		return nil, fmt.Errorf("wire stdout: %w", err)
	}
	var stdinPipe io.WriteCloser
	if opts.Input != nil {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			h.removeTemp()
			return nil, fmt.Errorf("wire stdin: %w", err)
		}
	}

	logger.Debug("starting engine: %s %s", inv.Path, strings.Join(inv.Args, " "))
	if err := cmd.Start(); err != nil {
		h.removeTemp()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	h.group = new(errgroup.Group)
	h.group.Go(func() error {
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Text()
			h.stderr.add(line)
			logger.Debug("engine: %s", line)
		}
		if err := scanner.Err(); err != nil {
			// Keep consuming so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, stderrPipe)
			return fmt.Errorf("read engine stderr: %w", err)
		}
		return nil
	})

	if opts.Input != nil {
		in := opts.Input
		h.group.Go(func() error {
			n, encodeErr := stream.Encode(stdinPipe, in)
			h.written.Store(n)
			// Closing stdin signals end-of-stream exactly once, after
			// the last record.
			closeErr := stdinPipe.Close()
			if encodeErr != nil {
				return fmt.Errorf("stream input: %w", encodeErr)
			}
			if closeErr != nil {
				return fmt.Errorf("close engine stdin: %w", closeErr)
			}
			return nil
		})
	}

	switch opts.Output {
	case OutputRows, OutputArrow:
		h.stdout = stdoutPipe
	default:
		h.group.Go(func() error {
			scanner := bufio.NewScanner(stdoutPipe)
			scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
			for scanner.Scan() {
				line := scanner.Text()
				h.outputMu.Lock()
				h.output = append(h.output, line)
				h.outputMu.Unlock()
				logger.Debug("engine: %s", line)
			}
			if err := scanner.Err(); err != nil {
				_, _ = io.Copy(io.Discard, stdoutPipe)
				return fmt.Errorf("read engine stdout: %w", err)
			}
			return nil
		})
	}

	return h, nil
}

// Wait blocks until the process exits, then reports the terminal result.
// A non-zero exit surfaces as a ProcessError carrying the exit code and the
// captured stderr tail. Temp artifact removal runs on this path no matter
// what; a removal failure never masks a ProcessError.
func (h *Handle) Wait() (*ExitResult, error) {
	h.waitOnce.Do(func() {
		groupErr := h.group.Wait()
		waitErr := h.cmd.Wait()

		res := &ExitResult{
			Stderr:         h.stderr.String(),
			Output:         h.outputLines(),
			RecordsWritten: h.written.Load(),
		}

		var procErr error
		if waitErr != nil {
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				res.Code = exitErr.ExitCode()
				procErr = &ProcessError{Code: res.Code, Stderr: res.Stderr}
			} else {
				procErr = fmt.Errorf("wait for engine: %w", waitErr)
			}
		}

		resourceErr := h.removeTemp()

		switch {
		case procErr != nil:
			h.waitErr = procErr
		case groupErr != nil:
			h.waitErr = groupErr
		case resourceErr != nil:
			h.waitErr = resourceErr
		}
		h.waitRes = res
	})
	return h.waitRes, h.waitErr
}

// Records exposes engine stdout as a lazy, forward-only record sequence.
// Abandoning the sequence early terminates the engine and releases the
// pipes and temp artifact. After a clean EOF the process exit is checked,
// so a late engine failure still surfaces to the consumer.
func (h *Handle) Records(format models.Format) iter.Seq2[stream.Record, error] {
	return func(yield func(stream.Record, error) bool) {
		if h.stdout == nil {
			yield(stream.Record{}, fmt.Errorf("engine was not executed in row streaming mode"))
			return
		}
		finished := false
		defer func() {
			if !finished {
				h.shutdown()
			}
		}()
		for rec, err := range stream.DecodeRows(h.stdout, format) {
			if err != nil {
				yield(stream.Record{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		finished = true
		if _, err := h.Wait(); err != nil {
			yield(stream.Record{}, err)
		}
	}
}

// Batches is the columnar counterpart of Records.
func (h *Handle) Batches() iter.Seq2[*stream.Batch, error] {
	return func(yield func(*stream.Batch, error) bool) {
		if h.stdout == nil {
			yield(nil, fmt.Errorf("engine was not executed in batch streaming mode"))
			return
		}
		finished := false
		defer func() {
			if !finished {
				h.shutdown()
			}
		}()
		for batch, err := range stream.DecodeBatches(h.stdout) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
		finished = true
		if _, err := h.Wait(); err != nil {
			yield(nil, err)
		}
	}
}

// RecordsWritten reports how many input records reached the engine's stdin.
func (h *Handle) RecordsWritten() int64 {
	return h.written.Load()
}

// shutdown terminates the process and funnels into the shared cleanup.
// Used when the consumer abandons a stream or decoding fails mid-stream.
func (h *Handle) shutdown() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	if h.stdout != nil {
		_ = h.stdout.Close()
	}
	_, _ = h.Wait()
}

func (h *Handle) removeTemp() error {
	if h.tempPath == "" {
		return nil
	}
	path := h.tempPath
	h.tempPath = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &ResourceError{Op: "remove temp config", Path: path, Err: err}
	}
	return nil
}

func (h *Handle) outputLines() []string {
	h.outputMu.Lock()
	defer h.outputMu.Unlock()
	out := make([]string, len(h.output))
	copy(out, h.output)
	return out
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}
