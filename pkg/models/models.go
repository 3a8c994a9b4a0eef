// Package models defines the configuration model for ferry transfers:
// sources, targets, replications, pipelines and ad-hoc run specs.
// Instances serialize to the canonical JSON document consumed by the
// ferry engine; the engine, not this package, interprets connector and
// format specific option keys.
package models

import "fmt"

// Mode is the transfer semantics requested from the engine. The
// orchestrator never interprets the mode, it only serializes it.
type Mode string

const (
	FullRefresh Mode = "full-refresh"
	Incremental Mode = "incremental"
	Truncate    Mode = "truncate"
	Snapshot    Mode = "snapshot"
	Backfill    Mode = "backfill"
)

// Format identifies a file or transport format understood by the engine.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatJSON      Format = "json"
	FormatJSONLines Format = "jsonlines"
	FormatXML       Format = "xml"
	FormatXLSX      Format = "xlsx"
	FormatParquet   Format = "parquet"
	FormatArrow     Format = "arrow"
	FormatAvro      Format = "avro"
	FormatRaw       Format = "raw"
)

// Compression identifies a compression codec understood by the engine.
type Compression string

const (
	CompressionAuto   Compression = "auto"
	CompressionNone   Compression = "none"
	CompressionZip    Compression = "zip"
	CompressionGzip   Compression = "gzip"
	CompressionSnappy Compression = "snappy"
	CompressionZstd   Compression = "zstd"
)

// Options is an opaque connector- or format-specific option blob. Keys are
// passed through to the engine untouched; unknown keys are not an error here.
type Options map[string]interface{}

// Clone returns a shallow copy, so overlays never mutate the original map.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Source describes where records are read from.
type Source struct {
	Conn       string   `json:"conn,omitempty" yaml:"conn,omitempty"`
	Stream     string   `json:"stream,omitempty" yaml:"stream,omitempty"`
	PrimaryKey []string `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	UpdateKey  string   `json:"update_key,omitempty" yaml:"update_key,omitempty"`
	Limit      int      `json:"limit,omitempty" yaml:"limit,omitempty"`
	Options    Options  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Target describes where records are written to.
type Target struct {
	Conn    string  `json:"conn,omitempty" yaml:"conn,omitempty"`
	Object  string  `json:"object,omitempty" yaml:"object,omitempty"`
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// ConfigError reports an invalid or contradictory configuration. It is
// always raised before any process is launched.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

func configErrorf(format string, v ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, v...)}
}
