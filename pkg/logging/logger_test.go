package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temp log directory and resets
// the package-level state so each test starts clean.
func setupTestDir(t *testing.T) (cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "perch-logging-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	runID = ""
	runIDOnce = sync.Once{}

	return func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		runID = origRunID
		runIDOnce = sync.Once{}

		os.RemoveAll(tempDir)
	}
}

func TestNew(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("test-component")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "test-component" {
		t.Errorf("Expected component test-component, got %s", logger.component)
	}
	if logger.RunID() == "" {
		t.Error("Expected non-empty run ID")
	}
	if logger.LogPath() == "" {
		t.Error("Expected non-empty log path")
	}
}

func TestLoggerWritesEntries(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("scraper")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infof("checked %d mentions", 3)
	logger.Errorf("navigation failed: %s", "timeout")
	logger.Close()

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{"[scraper]", "[INFO]", "checked 3 mentions", "[ERROR]", "navigation failed: timeout"} {
		if !strings.Contains(content, want) {
			t.Errorf("Log file missing %q, content:\n%s", want, content)
		}
	}
}

func TestComponentsShareLogFile(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	a, err := New("auth")
	if err != nil {
		t.Fatalf("Failed to create first logger: %v", err)
	}
	defer a.Close()

	b, err := New("monitor")
	if err != nil {
		t.Fatalf("Failed to create second logger: %v", err)
	}
	defer b.Close()

	if a.LogPath() != b.LogPath() {
		t.Errorf("Expected shared log file, got %s and %s", a.LogPath(), b.LogPath())
	}
	if a.RunID() != b.RunID() {
		t.Error("Expected shared run ID across components")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestLogFileNaming(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := New("test")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	base := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(base, "-perch.log") {
		t.Errorf("Expected log file name ending in -perch.log, got %s", base)
	}
	if !strings.HasPrefix(base, logger.RunID()) {
		t.Errorf("Expected log file name starting with run ID %s, got %s", logger.RunID(), base)
	}
}
