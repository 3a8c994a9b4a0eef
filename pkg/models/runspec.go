package models

import "iter"

// InputRecords is a caller-supplied pull-based record source. The transport
// drains it under backpressure: the next record is only pulled once the
// engine has consumed the previous one. The sequence may be lazily produced
// but must be finite; the write side of the engine's stdin is closed after
// the last record.
type InputRecords = iter.Seq[map[string]interface{}]

// InputFromMaps adapts an in-memory slice of records to an InputRecords.
func InputFromMaps(records []map[string]interface{}) InputRecords {
	return func(yield func(map[string]interface{}) bool) {
		for _, rec := range records {
			if !yield(rec) {
				return
			}
		}
	}
}

// RunSpec is an ad-hoc single transfer. When Input is set it supersedes the
// source connection: records are streamed to the engine's stdin instead of
// the engine reading from a connection.
type RunSpec struct {
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`
	Target Target `json:"target,omitempty" yaml:"target,omitempty"`
	Mode   Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`

	Select        []string          `json:"select,omitempty" yaml:"select,omitempty"`
	Where         string            `json:"where,omitempty" yaml:"where,omitempty"`
	Limit         int               `json:"limit,omitempty" yaml:"limit,omitempty"`
	StreamOptions Options           `json:"stream_options,omitempty" yaml:"stream_options,omitempty"`
	Env           map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Input streams in-process records to the engine. InputColumns pins the
	// column order; when empty, the first record's keys are used in sorted
	// order. InputFormat selects the stdin transport (csv, jsonlines or
	// arrow), defaulting to csv.
	Input        InputRecords `json:"-" yaml:"-"`
	InputColumns []string     `json:"-" yaml:"-"`
	InputFormat  Format       `json:"-" yaml:"-"`

	Debug bool `json:"-" yaml:"-"`
}

// Validate checks the spec before anything is launched.
func (s *RunSpec) Validate() error {
	if s.Input == nil && s.Source.Conn == "" {
		return configErrorf("a source connection or an input is required")
	}
	switch s.InputFormat {
	case "", FormatCSV, FormatJSONLines, FormatArrow:
	default:
		return configErrorf("unsupported input format %q", s.InputFormat)
	}
	if s.Limit < 0 {
		return configErrorf("limit cannot be negative")
	}
	return nil
}

// Task is the legacy flat-field form of a run spec, kept for callers of the
// old API. It is a thin adapter, not a separate execution path.
type Task struct {
	SrcConn    string
	SrcStream  string
	SrcOptions Options
	TgtConn    string
	TgtObject  string
	TgtOptions Options
	Mode       Mode
	Select     []string
	Where      string
	Limit      int
	Env        map[string]string
	Debug      bool
}

// RunSpec translates the legacy field names to the current spec.
func (t *Task) RunSpec() *RunSpec {
	mode := t.Mode
	if mode == "" {
		mode = FullRefresh
	}
	return &RunSpec{
		Source: Source{Conn: t.SrcConn, Stream: t.SrcStream, Options: t.SrcOptions},
		Target: Target{Conn: t.TgtConn, Object: t.TgtObject, Options: t.TgtOptions},
		Mode:   mode,
		Select: t.Select,
		Where:  t.Where,
		Limit:  t.Limit,
		Env:    t.Env,
		Debug:  t.Debug,
	}
}
