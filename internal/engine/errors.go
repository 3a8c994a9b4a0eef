package engine

import "fmt"

// ExitResult is the terminal outcome of one engine invocation.
type ExitResult struct {
	Code           int
	Stderr         string
	Output         []string
	RecordsWritten int64
}

// ProcessError reports a non-zero engine exit. The captured stderr tail is
// carried alongside the code.
type ProcessError struct {
	Code   int
	Stderr string
}

func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("engine exited with code %d", e.Code)
	}
	return fmt.Sprintf("engine exited with code %d:\n%s", e.Code, e.Stderr)
}

// ResourceError reports a temp artifact creation or deletion failure. When a
// ProcessError occurs on the same run, the ProcessError is reported instead.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
