package models

// StepType is the closed set of step variants a pipeline may contain.
type StepType string

const (
	StepLog         StepType = "log"
	StepCopy        StepType = "copy"
	StepReplication StepType = "replication"
	StepHTTP        StepType = "http"
	StepCommand     StepType = "command"
	StepRead        StepType = "read"
	StepWrite       StepType = "write"
	StepDelete      StepType = "delete"
)

var knownStepTypes = map[StepType]bool{
	StepLog:         true,
	StepCopy:        true,
	StepReplication: true,
	StepHTTP:        true,
	StepCommand:     true,
	StepRead:        true,
	StepWrite:       true,
	StepDelete:      true,
}

// Step is one unit of pipeline work. Exactly one variant, selected by Type,
// is interpreted at execution time; the other variant fields stay zero.
type Step struct {
	Type StepType `json:"type" yaml:"type"`
	ID   string   `json:"id,omitempty" yaml:"id,omitempty"`
	// If holds a skip condition. It is expanded against the merged
	// environment before evaluation; empty, "false" or "0" skips the step.
	If  string            `json:"if,omitempty" yaml:"if,omitempty"`
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// log
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`

	// copy, read, write, delete
	From      string `json:"from,omitempty" yaml:"from,omitempty"`
	To        string `json:"to,omitempty" yaml:"to,omitempty"`
	Content   string `json:"content,omitempty" yaml:"content,omitempty"`
	Location  string `json:"location,omitempty" yaml:"location,omitempty"`
	Recursive bool   `json:"recursive,omitempty" yaml:"recursive,omitempty"`

	// replication
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Streams []string `json:"streams,omitempty" yaml:"streams,omitempty"`
	Mode    Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`

	// http
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Payload string            `json:"payload,omitempty" yaml:"payload,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// command
	Command    []string `json:"command,omitempty" yaml:"command,omitempty"`
	Print      bool     `json:"print,omitempty" yaml:"print,omitempty"`
	Capture    bool     `json:"capture,omitempty" yaml:"capture,omitempty"`
	WorkingDir string    `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`
}

// Validate checks the variant tag and its required payload fields.
func (s *Step) Validate() error {
	if !knownStepTypes[s.Type] {
		return configErrorf("unknown step type %q", s.Type)
	}
	switch s.Type {
	case StepLog:
		if s.Message == "" {
			return configErrorf("log step requires a message")
		}
	case StepCopy:
		if s.From == "" || s.To == "" {
			return configErrorf("copy step requires from and to")
		}
	case StepReplication:
		if s.Path == "" {
			return configErrorf("replication step requires a path")
		}
	case StepHTTP:
		if s.URL == "" {
			return configErrorf("http step requires a url")
		}
	case StepCommand:
		if len(s.Command) == 0 {
			return configErrorf("command step requires a command")
		}
	case StepRead:
		if s.From == "" {
			return configErrorf("read step requires a from path")
		}
	case StepWrite:
		if s.To == "" {
			return configErrorf("write step requires a to path")
		}
	case StepDelete:
		if s.Location == "" {
			return configErrorf("delete step requires a location")
		}
	}
	return nil
}

// Pipeline is an ordered list of steps. Step order is execution order;
// there is no reordering and no parallel execution across steps.
type Pipeline struct {
	Steps []Step            `json:"steps" yaml:"steps"`
	Env   map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	Debug    bool   `json:"-" yaml:"-"`
	FilePath string `json:"-" yaml:"-"`
}

// Validate checks every step up front, so an unknown step type fails the
// pipeline before any step runs.
func (p *Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return configErrorf("pipeline has no steps")
	}
	for i := range p.Steps {
		if err := p.Steps[i].Validate(); err != nil {
			return configErrorf("step %d: %v", i, err)
		}
	}
	return nil
}
