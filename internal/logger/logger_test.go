package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNew_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	log := New("ridehail", "info", &buf)

	log.Debug("hidden")
	log.Info("ride accepted", "ride_id", "r1")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "ride accepted" || entry["service"] != "ridehail" || entry["ride_id"] != "r1" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
	if _, ok := entry["host"]; !ok {
		t.Error("expected host key")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "loud": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
