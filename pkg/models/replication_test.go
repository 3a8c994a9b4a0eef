package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func testReplication() *Replication {
	return &Replication{
		Source: "PG_SOURCE",
		Target: "SNOWFLAKE",
		Defaults: &ReplicationStream{
			Mode:          Incremental,
			Object:        "analytics.{stream_table}",
			SourceOptions: Options{"empty_as_null": true, "header": true},
		},
		Streams: map[string]*ReplicationStream{
			"public.users": {},
			"public.orders": {
				Mode:          FullRefresh,
				SourceOptions: Options{"header": false},
			},
			"public.events": {Disabled: true},
		},
	}
}

func TestActiveStreamsOverlaysDefaults(t *testing.T) {
	r := testReplication()

	active := r.ActiveStreams()
	if len(active) != 2 {
		t.Fatalf("expected 2 active streams, got %d", len(active))
	}
	if _, ok := active["public.events"]; ok {
		t.Fatal("disabled stream must not be active")
	}

	users := active["public.users"]
	if users.Mode != Incremental {
		t.Errorf("expected default mode incremental, got %s", users.Mode)
	}
	if users.Object != "analytics.{stream_table}" {
		t.Errorf("expected default object, got %s", users.Object)
	}

	// The stream's own key wins per key, the rest of the defaults survive.
	orders := active["public.orders"]
	if orders.Mode != FullRefresh {
		t.Errorf("expected stream mode full-refresh, got %s", orders.Mode)
	}
	if orders.SourceOptions["header"] != false {
		t.Errorf("expected stream option header=false, got %v", orders.SourceOptions["header"])
	}
	if orders.SourceOptions["empty_as_null"] != true {
		t.Errorf("expected default option empty_as_null=true, got %v", orders.SourceOptions["empty_as_null"])
	}
}

func TestActiveStreamsDoesNotMutate(t *testing.T) {
	r := testReplication()

	active := r.ActiveStreams()
	active["public.users"].Mode = Truncate
	active["public.orders"].SourceOptions["header"] = "mutated"

	if r.Streams["public.users"].Mode != "" {
		t.Error("resolving must not write the default mode back to the stream")
	}
	if r.Streams["public.orders"].SourceOptions["header"] != false {
		t.Error("resolving must not mutate the stream's option map")
	}
	if r.Defaults.SourceOptions["header"] != true {
		t.Error("resolving must not mutate the defaults option map")
	}
}

func TestEnableDisableStreams(t *testing.T) {
	r := testReplication()

	r.DisableStreams([]string{"public.users"})
	if !r.Streams["public.users"].Disabled {
		t.Fatal("expected public.users disabled")
	}
	if r.Streams["public.orders"].Disabled {
		t.Fatal("disabling one stream must not touch the others")
	}

	r.EnableStreams([]string{"public.users", "public.events"})
	if r.Streams["public.users"].Disabled || r.Streams["public.events"].Disabled {
		t.Fatal("expected both streams enabled")
	}
}

func TestSelectStreams(t *testing.T) {
	r := testReplication()

	if err := r.SelectStreams([]string{"public.orders"}); err != nil {
		t.Fatalf("SelectStreams failed: %v", err)
	}
	active := r.ActiveStreams()
	if len(active) != 1 {
		t.Fatalf("expected 1 active stream, got %d", len(active))
	}
	if _, ok := active["public.orders"]; !ok {
		t.Fatal("expected public.orders to stay active")
	}
}

func TestSelectStreamsUnknownName(t *testing.T) {
	r := testReplication()

	err := r.SelectStreams([]string{"public.nope"})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSetDefaultMode(t *testing.T) {
	r := &Replication{
		Source:  "A",
		Target:  "B",
		Streams: map[string]*ReplicationStream{"s1": {}},
	}

	r.SetDefaultMode(Truncate)
	if r.Defaults == nil || r.Defaults.Mode != Truncate {
		t.Fatalf("expected defaults mode truncate, got %+v", r.Defaults)
	}
	if r.ActiveStreams()["s1"].Mode != Truncate {
		t.Fatal("expected default mode to reach the stream")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	r := testReplication()
	r.FilePath = "/tmp/ignored.yaml"
	r.Debug = true

	doc, err := r.Document()
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	var decoded Replication
	if err := json.Unmarshal(doc, &decoded); err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	if decoded.Source != r.Source || decoded.Target != r.Target {
		t.Errorf("connections did not survive the round trip")
	}
	if len(decoded.Streams) != len(r.Streams) {
		t.Errorf("expected %d streams, got %d", len(r.Streams), len(decoded.Streams))
	}
	if decoded.FilePath != "" || decoded.Debug {
		t.Error("invocation-only fields must not appear in the document")
	}

	// Serializing the decoded form again reproduces the document exactly.
	again, err := decoded.Document()
	if err != nil {
		t.Fatalf("Document on decoded copy failed: %v", err)
	}
	if string(again) != string(doc) {
		t.Errorf("round trip is not idempotent:\n %s\n %s", doc, again)
	}
}

func TestReplicationValidate(t *testing.T) {
	cases := []struct {
		name string
		r    Replication
	}{
		{"missing source", Replication{Target: "B", Streams: map[string]*ReplicationStream{"s": {}}}},
		{"missing target", Replication{Source: "A", Streams: map[string]*ReplicationStream{"s": {}}}},
		{"no streams", Replication{Source: "A", Target: "B"}},
		{"nil stream", Replication{Source: "A", Target: "B", Streams: map[string]*ReplicationStream{"s": nil}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.r.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}
