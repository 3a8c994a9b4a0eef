// Package steps interprets pipeline steps. Steps run strictly in order: no
// step starts before the previous one completes, a failed step halts the
// pipeline, and a skipped step does not.
package steps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ferrydata/ferry/internal/engine"
	"github.com/ferrydata/ferry/pkg/logger"
	"github.com/ferrydata/ferry/pkg/models"
)

// Status is the outcome of one executed step.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result records one step's outcome in execution order.
type Result struct {
	Index    int
	Type     models.StepType
	ID       string
	Status   Status
	Output   string
	Err      error
	Duration time.Duration
}

// StepError wraps the failure of a step body with its position in the
// pipeline. Remaining steps never run.
type StepError struct {
	Index int
	Type  models.StepType
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Type, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner executes pipelines. Env is the caller-level environment overlay,
// applied under the pipeline's env, which in turn sits under each step's.
type Runner struct {
	Env        map[string]string
	httpClient *http.Client
}

func NewRunner(env map[string]string) *Runner {
	return &Runner{Env: env, httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Run validates the whole pipeline up front, so an unknown step type fails
// before any step executes, then walks the steps sequentially.
func (r *Runner) Run(ctx context.Context, p *models.Pipeline) ([]Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(p.Steps))
	for i := range p.Steps {
		step := &p.Steps[i]
		env := overlay(r.Env, p.Env, step.Env)

		if shouldSkip(step, env) {
			logger.Info("step %d (%s) skipped", i, step.Type)
			results = append(results, Result{Index: i, Type: step.Type, ID: step.ID, Status: StatusSkipped})
			continue
		}

		logger.Debug("running step %d (%s)", i, step.Type)
		start := time.Now()
		output, err := r.execute(ctx, step, env)
		res := Result{
			Index:    i,
			Type:     step.Type,
			ID:       step.ID,
			Output:   output,
			Duration: time.Since(start),
		}
		if err != nil {
			res.Status = StatusFailed
			res.Err = err
			results = append(results, res)
			logger.Error("step %d (%s) failed after %s: %v", i, step.Type, res.Duration, err)
			return results, &StepError{Index: i, Type: step.Type, Err: err}
		}
		res.Status = StatusSucceeded
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) execute(ctx context.Context, step *models.Step, env map[string]string) (string, error) {
	switch step.Type {
	case models.StepLog:
		return r.runLog(step, env)
	case models.StepCopy:
		return r.runCopy(ctx, step, env)
	case models.StepReplication:
		return r.runReplication(ctx, step, env)
	case models.StepHTTP:
		return r.runHTTP(ctx, step, env)
	case models.StepCommand:
		return r.runCommand(ctx, step, env)
	case models.StepRead:
		return r.runRead(step, env)
	case models.StepWrite:
		return r.runWrite(step, env)
	case models.StepDelete:
		return r.runDelete(step, env)
	default:
		return "", &models.ConfigError{Reason: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

func (r *Runner) runLog(step *models.Step, env map[string]string) (string, error) {
	message := expand(step.Message, env)
	switch strings.ToLower(step.Level) {
	case "warn", "warning":
		logger.Warn("%s", message)
	case "debug":
		logger.Debug("%s", message)
	default:
		logger.Info("%s", message)
	}
	return message, nil
}

// runCopy drives a sub-transfer through the command builder and executor:
// the engine moves the data, the step only describes it.
func (r *Runner) runCopy(ctx context.Context, step *models.Step, env map[string]string) (string, error) {
	spec := &models.RunSpec{
		Source: models.Source{Conn: expand(step.From, env)},
		Target: models.Target{Object: expand(step.To, env)},
		Mode:   models.FullRefresh,
		Env:    env,
	}
	if step.Recursive {
		spec.StreamOptions = models.Options{"recursive": true}
	}
	res, err := engine.Run(ctx, spec)
	if err != nil {
		return "", err
	}
	return strings.Join(res.Output, "\n"), nil
}

func (r *Runner) runReplication(ctx context.Context, step *models.Step, env map[string]string) (string, error) {
	rep, err := models.LoadReplication(expand(step.Path, env))
	if err != nil {
		return "", err
	}
	if len(step.Streams) > 0 {
		if err := rep.SelectStreams(step.Streams); err != nil {
			return "", err
		}
	}
	if step.Mode != "" {
		rep.SetDefaultMode(step.Mode)
	}
	if len(step.Streams) > 0 || step.Mode != "" {
		// The document diverged from the file on disk; force a temp
		// artifact so the engine sees the narrowed config.
		rep.FilePath = ""
	}
	res, err := engine.RunReplication(ctx, rep, env)
	if err != nil {
		return "", err
	}
	return strings.Join(res.Output, "\n"), nil
}

func (r *Runner) runHTTP(ctx context.Context, step *models.Step, env map[string]string) (string, error) {
	method := strings.ToUpper(step.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if step.Payload != "" {
		body = strings.NewReader(expand(step.Payload, env))
	}
	req, err := http.NewRequestWithContext(ctx, method, expand(step.URL, env), body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	for k, v := range step.Headers {
		req.Header.Set(k, expand(v, env))
	}

	client := r.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode >= 400 {
		return string(payload), fmt.Errorf("http request returned status %d", resp.StatusCode)
	}
	return string(payload), nil
}

func (r *Runner) runCommand(ctx context.Context, step *models.Step, env map[string]string) (string, error) {
	args := make([]string, len(step.Command))
	for i, a := range step.Command {
		args[i] = expand(a, env)
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = engine.MergeEnv(env)
	if step.WorkingDir != "" {
		cmd.Dir = expand(step.WorkingDir, env)
	}

	out, err := cmd.CombinedOutput()
	if step.Print {
		for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
			logger.Info("%s", line)
		}
	}
	if err != nil {
		return string(out), fmt.Errorf("command %q: %w", args[0], err)
	}
	if step.Capture || step.Print {
		return string(out), nil
	}
	return "", nil
}

func (r *Runner) runRead(step *models.Step, env map[string]string) (string, error) {
	path := expand(step.From, env)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if step.Print {
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			logger.Info("%s", line)
		}
	}
	return string(data), nil
}

func (r *Runner) runWrite(step *models.Step, env map[string]string) (string, error) {
	path := expand(step.To, env)
	if err := os.WriteFile(path, []byte(expand(step.Content, env)), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (r *Runner) runDelete(step *models.Step, env map[string]string) (string, error) {
	path := expand(step.Location, env)
	var err error
	if step.Recursive {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("delete %s: %w", path, err)
	}
	return path, nil
}

// shouldSkip evaluates a step's skip condition against the merged env.
// Empty, "false" and "0" (after expansion) skip the step.
func shouldSkip(step *models.Step, env map[string]string) bool {
	if step.If == "" {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(expand(step.If, env)))
	return v == "" || v == "false" || v == "0"
}

func expand(s string, env map[string]string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

// overlay merges env layers left to right, later layers winning. The result
// is a fresh map; no layer is mutated.
func overlay(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
