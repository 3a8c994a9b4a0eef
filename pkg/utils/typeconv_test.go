package utils

import (
	"testing"
	"time"
)

func TestToString(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"hello", "hello"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{1.5, "1.5"},
		{true, "true"},
		{ts, "2024-05-01T12:00:00Z"},
	}
	for _, tc := range cases {
		if got := ToString(tc.in); got != tc.want {
			t.Errorf("ToString(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestToInt64(t *testing.T) {
	if n, err := ToInt64("123"); err != nil || n != 123 {
		t.Errorf("expected 123, got %d (%v)", n, err)
	}
	if _, err := ToInt64(struct{}{}); err == nil {
		t.Error("expected an error for an unconvertible value")
	}
}

func TestToBool(t *testing.T) {
	if b, err := ToBool(" true "); err != nil || !b {
		t.Errorf("expected true, got %v (%v)", b, err)
	}
	if b, err := ToBool(0); err != nil || b {
		t.Errorf("expected false, got %v (%v)", b, err)
	}
}

func TestToTime(t *testing.T) {
	got, err := ToTime("2024-05-01 12:00:00")
	if err != nil {
		t.Fatalf("ToTime failed: %v", err)
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	if _, err := ToTime("not a date"); err == nil {
		t.Error("expected an error for an unparseable date")
	}
}
