package output

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func newJSONTestLogger(buf *bytes.Buffer) *OutputLogger {
	handler := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewWithSlog(slog.New(handler), true)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("Expected JSON log line, got error %v", err)
		}
		records = append(records, rec)
	}
	return records
}

func TestLoggerWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ol := newJSONTestLogger(&buf)

	ol.Component("cli").With("method", "getSteps").Info("invoking plugin method")

	records := decodeLines(t, &buf)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0]["component"] != "cli" {
		t.Errorf("Expected component cli, got %v", records[0]["component"])
	}
	if records[0]["method"] != "getSteps" {
		t.Errorf("Expected method getSteps, got %v", records[0]["method"])
	}
}

func TestJSONModeMessages(t *testing.T) {
	var buf bytes.Buffer
	ol := newJSONTestLogger(&buf)

	if !ol.JSONMode() {
		t.Fatal("Expected JSON mode")
	}
	ol.Progress("Waiting for %s to complete", "getWeight")
	ol.Status("Serving on %s", "127.0.0.1:8765")

	records := decodeLines(t, &buf)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["msg"] != "progress" || records[0]["message"] != "Waiting for getWeight to complete" {
		t.Errorf("Unexpected progress record %v", records[0])
	}
	if records[1]["msg"] != "status" {
		t.Errorf("Expected status record, got %v", records[1])
	}
}
