package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadReplication reads and parses a replication file from the given path.
// Both YAML and JSON documents are accepted. Duplicate stream names are
// rejected by the parser, which keeps stream names unique by construction.
func LoadReplication(filePath string) (*Replication, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read replication file '%s': %w", filePath, err)
	}

	var r Replication
	if err := yaml.Unmarshal(bytes, &r); err != nil {
		return nil, fmt.Errorf("failed to parse replication file '%s': %w", filePath, err)
	}
	r.FilePath = filePath

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRunSpec reads and parses an ad-hoc run config from the given path.
func LoadRunSpec(filePath string) (*RunSpec, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}

	var s RunSpec
	if err := yaml.Unmarshal(bytes, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadPipeline reads and parses a pipeline file from the given path.
func LoadPipeline(filePath string) (*Pipeline, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file '%s': %w", filePath, err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(bytes, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file '%s': %w", filePath, err)
	}
	p.FilePath = filePath

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
