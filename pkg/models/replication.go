package models

import (
	"encoding/json"
	"sort"
)

// ReplicationStream is one named unit of work within a replication. A zero
// field means "not set" and falls back to the replication defaults.
type ReplicationStream struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Mode          Mode     `json:"mode,omitempty" yaml:"mode,omitempty"`
	Object        string   `json:"object,omitempty" yaml:"object,omitempty"`
	Select        []string `json:"select,omitempty" yaml:"select,omitempty"`
	Where         string   `json:"where,omitempty" yaml:"where,omitempty"`
	PrimaryKey    []string `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	UpdateKey     string   `json:"update_key,omitempty" yaml:"update_key,omitempty"`
	SQL           string   `json:"sql,omitempty" yaml:"sql,omitempty"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	SourceOptions Options  `json:"source_options,omitempty" yaml:"source_options,omitempty"`
	TargetOptions Options  `json:"target_options,omitempty" yaml:"target_options,omitempty"`
	Schedule      string   `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Disabled      bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

func (s *ReplicationStream) Enable()  { s.Disabled = false }
func (s *ReplicationStream) Disable() { s.Disabled = true }

// withDefaults returns a copy of s with unset fields filled from defaults.
// Option maps merge per key, the stream's own key winning.
func (s *ReplicationStream) withDefaults(defaults *ReplicationStream) *ReplicationStream {
	out := *s
	if defaults == nil {
		return &out
	}
	if out.Mode == "" {
		out.Mode = defaults.Mode
	}
	if out.Object == "" {
		out.Object = defaults.Object
	}
	if len(out.Select) == 0 {
		out.Select = defaults.Select
	}
	if out.Where == "" {
		out.Where = defaults.Where
	}
	if len(out.PrimaryKey) == 0 {
		out.PrimaryKey = defaults.PrimaryKey
	}
	if out.UpdateKey == "" {
		out.UpdateKey = defaults.UpdateKey
	}
	if out.Schedule == "" {
		out.Schedule = defaults.Schedule
	}
	out.SourceOptions = mergeOptions(defaults.SourceOptions, s.SourceOptions)
	out.TargetOptions = mergeOptions(defaults.TargetOptions, s.TargetOptions)
	return &out
}

// mergeOptions overlays over onto base without mutating either.
func mergeOptions(base, over Options) Options {
	if base == nil && over == nil {
		return nil
	}
	out := base.Clone()
	if out == nil {
		out = Options{}
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Replication is a named set of streams sharing one source/target
// connection pair and default stream properties.
type Replication struct {
	Source   string                        `json:"source" yaml:"source"`
	Target   string                        `json:"target" yaml:"target"`
	Defaults *ReplicationStream            `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Streams  map[string]*ReplicationStream `json:"streams" yaml:"streams"`
	Env      map[string]string             `json:"env,omitempty" yaml:"env,omitempty"`

	// Debug and FilePath drive the invocation, not the document.
	Debug    bool   `json:"-" yaml:"-"`
	FilePath string `json:"-" yaml:"-"`
}

// AddStreams merges more streams into the replication.
func (r *Replication) AddStreams(streams map[string]*ReplicationStream) {
	if r.Streams == nil {
		r.Streams = map[string]*ReplicationStream{}
	}
	for name, s := range streams {
		r.Streams[name] = s
	}
}

func (r *Replication) EnableStreams(names []string) {
	for _, name := range names {
		if s, ok := r.Streams[name]; ok {
			s.Enable()
		}
	}
}

func (r *Replication) DisableStreams(names []string) {
	for _, name := range names {
		if s, ok := r.Streams[name]; ok {
			s.Disable()
		}
	}
}

// SelectStreams disables every stream not named. Unknown names are a
// configuration error.
func (r *Replication) SelectStreams(names []string) error {
	wanted := map[string]bool{}
	for _, name := range names {
		if _, ok := r.Streams[name]; !ok {
			return configErrorf("unknown stream %q", name)
		}
		wanted[name] = true
	}
	for name, s := range r.Streams {
		if !wanted[name] {
			s.Disable()
		}
	}
	return nil
}

func (r *Replication) SetDefaultMode(mode Mode) {
	if r.Defaults == nil {
		r.Defaults = &ReplicationStream{}
	}
	r.Defaults.Mode = mode
}

// StreamNames returns the stream names in sorted order.
func (r *Replication) StreamNames() []string {
	names := make([]string, 0, len(r.Streams))
	for name := range r.Streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveStreams resolves the execution set: disabled streams are dropped and
// defaults are overlaid onto the rest. The returned streams are copies;
// resolving never mutates the replication.
func (r *Replication) ActiveStreams() map[string]*ReplicationStream {
	out := map[string]*ReplicationStream{}
	for name, s := range r.Streams {
		if s == nil || s.Disabled {
			continue
		}
		out[name] = s.withDefaults(r.Defaults)
	}
	return out
}

// Validate checks the replication before anything is launched.
func (r *Replication) Validate() error {
	if r.Source == "" {
		return configErrorf("replication source connection is required")
	}
	if r.Target == "" {
		return configErrorf("replication target connection is required")
	}
	if len(r.Streams) == 0 {
		return configErrorf("replication has no streams")
	}
	for name, s := range r.Streams {
		if name == "" {
			return configErrorf("replication stream with empty name")
		}
		if s == nil {
			return configErrorf("stream %q has no definition", name)
		}
	}
	return nil
}

// Document serializes the replication to its canonical JSON document.
func (r *Replication) Document() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}
