package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWithWriter(t *testing.T) {
	var buf bytes.Buffer

	if err := InitWithWriter(Config{Level: "warn"}, &buf); err != nil {
		t.Fatalf("InitWithWriter() error: %v", err)
	}

	if GetLogger().GetLevel() != zerolog.WarnLevel {
		t.Errorf("Expected warn level, got %v", GetLogger().GetLevel())
	}

	Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line should be filtered at warn level, got %q", buf.String())
	}

	Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Error("warn line should be written")
	}
}

func TestDebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer

	if err := InitWithWriter(Config{Level: "error", Debug: true}, &buf); err != nil {
		t.Fatalf("InitWithWriter() error: %v", err)
	}

	if GetLogger().GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %v", GetLogger().GetLevel())
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init(Config{Level: "chatty"}); err == nil {
		t.Error("Init() should fail for unknown level")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	if err := InitWithWriter(Config{Level: "info"}, &buf); err != nil {
		t.Fatalf("InitWithWriter() error: %v", err)
	}

	l := WithComponent("topology")
	l.Info().Msg("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["component"] != "topology" {
		t.Errorf("component = %v, want topology", entry["component"])
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
}
