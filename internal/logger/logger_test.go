package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuildJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	l, err := Build(Options{JSON: true, Output: []string{path}, Service: "hh-roster"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	l.Debug("hidden")
	l.Info("query answered", zap.Duration("took", 1500*time.Millisecond))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected a single info entry, got %d: %s", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}

	for key, want := range map[string]string{
		"msg":     "query answered",
		"level":   "info",
		"service": "hh-roster",
		"took":    "1.5s",
	} {
		if entry[key] != want {
			t.Fatalf("%s: expected %q, got %v", key, want, entry[key])
		}
	}
}

func TestBuildDebugConsole(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.txt")
	l, err := Build(Options{Debug: true, Output: []string{path}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	l.Debug("starting with config")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "debug") || !strings.Contains(string(data), "starting with config") {
		t.Fatalf("debug entry missing: %q", data)
	}
}
