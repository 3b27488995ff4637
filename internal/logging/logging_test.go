package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := ParseLevel(tc.input); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := New(Options{
		Level:      slog.LevelInfo,
		FilePath:   path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		Console:    false,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("test entry", "keyword", "wool socks")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "test entry" || entry["keyword"] != "wool socks" {
		t.Errorf("entry = %v, missing expected fields", entry)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(Options{
		Level:    slog.LevelWarn,
		FilePath: path,
		Console:  false,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if strings.Contains(string(data), "suppressed") {
		t.Error("info entry written despite warn level")
	}
	if !strings.Contains(string(data), "emitted") {
		t.Error("warn entry missing")
	}
}

func TestRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rotate.log")

	w, err := NewRotatingWriter(path, 64, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	line := strings.Repeat("x", 40) + "\n"
	for i := 0; i < 4; i++ {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	// Every write fits under the threshold alone, so each pair forces a
	// rotation and both backup slots fill up.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("primary log file missing: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("first backup missing: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) > 3 {
		t.Errorf("found %d files, want at most primary plus 2 backups", len(entries))
	}
}
