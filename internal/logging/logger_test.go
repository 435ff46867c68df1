package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"hublink/internal/logging"
)

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("session opened",
		logging.String(logging.FieldPluginID, "my-plugin"),
		logging.Int("port", 9500))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "session opened" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry["ts"] == nil {
		t.Fatal("missing ts field")
	}
	if entry[logging.FieldPluginID] != "my-plugin" {
		t.Fatalf("missing plugin id: %v", entry)
	}
	if entry["port"] != float64(9500) {
		t.Fatalf("unexpected port: %v", entry["port"])
	}
}

func TestConsoleHandlerComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "transport").Warn("send failed",
		logging.Error(errors.New("broken pipe")))

	line := buf.String()
	if !strings.Contains(line, "transport: send failed") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "broken pipe") {
		t.Fatalf("error detail missing: %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	line := buf.String()
	if strings.Contains(line, "hidden") {
		t.Fatalf("suppressed levels leaked: %q", line)
	}
	if !strings.Contains(line, "visible") {
		t.Fatalf("warn line missing: %q", line)
	}
}

func TestUnsupportedFormatFails(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped", logging.String("k", "v"))
}
