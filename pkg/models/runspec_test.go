package models

import (
	"errors"
	"testing"
)

func TestRunSpecValidate(t *testing.T) {
	spec := &RunSpec{Source: Source{Conn: "PG", Stream: "public.users"}}
	if err := spec.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunSpecValidateNoSource(t *testing.T) {
	spec := &RunSpec{Target: Target{Conn: "SNOWFLAKE"}}
	err := spec.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRunSpecValidateInputSupersedesSource(t *testing.T) {
	spec := &RunSpec{
		Input:  InputFromMaps([]map[string]interface{}{{"id": 1}}),
		Target: Target{Conn: "SNOWFLAKE", Object: "public.t"},
	}
	if err := spec.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunSpecValidateInputFormat(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatJSONLines, FormatArrow} {
		spec := &RunSpec{Input: InputFromMaps(nil), InputFormat: format}
		if err := spec.Validate(); err != nil {
			t.Errorf("format %s: unexpected error %v", format, err)
		}
	}

	spec := &RunSpec{
		Input:       InputFromMaps(nil),
		InputFormat: FormatParquet,
	}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected an error for an unsupported input format")
	}
}

func TestRunSpecValidateNegativeLimit(t *testing.T) {
	spec := &RunSpec{Source: Source{Conn: "PG"}, Limit: -1}
	if err := spec.Validate(); err == nil {
		t.Fatal("expected an error for a negative limit")
	}
}

func TestTaskRunSpec(t *testing.T) {
	task := &Task{
		SrcConn:   "PG",
		SrcStream: "public.users",
		TgtConn:   "SNOWFLAKE",
		TgtObject: "analytics.users",
		Select:    []string{"id", "email"},
		Limit:     50,
	}

	spec := task.RunSpec()
	if spec.Source.Conn != "PG" || spec.Source.Stream != "public.users" {
		t.Errorf("source did not translate: %+v", spec.Source)
	}
	if spec.Target.Conn != "SNOWFLAKE" || spec.Target.Object != "analytics.users" {
		t.Errorf("target did not translate: %+v", spec.Target)
	}
	if spec.Mode != FullRefresh {
		t.Errorf("expected default mode full-refresh, got %s", spec.Mode)
	}
	if err := spec.Validate(); err != nil {
		t.Errorf("translated spec should validate: %v", err)
	}
}

func TestInputFromMaps(t *testing.T) {
	records := []map[string]interface{}{{"id": 1}, {"id": 2}, {"id": 3}}
	var count int
	for range InputFromMaps(records) {
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 records, got %d", count)
	}
}
