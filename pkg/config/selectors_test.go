package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSelectorsAreComplete(t *testing.T) {
	sel := DefaultSelectors()

	if sel.Version == "" {
		t.Error("Default table must carry a version")
	}
	if sel.HomeURL == "" || sel.LoginURL == "" || sel.StatusURL == "" {
		t.Error("Default table missing canonical URLs")
	}
	for name, list := range map[string][]string{
		"mention_urls":    sel.MentionURLs,
		"home_signal":     sel.HomeSignal,
		"username_inputs": sel.UsernameInputs,
		"password_inputs": sel.PasswordInputs,
		"next_labels":     sel.NextLabels,
		"compose_box":     sel.ComposeBox,
		"send_buttons":    sel.SendButtons,
	} {
		if len(list) == 0 {
			t.Errorf("Default table has empty %s strategy list", name)
		}
	}
}

func TestLoadSelectorsEmptyPathReturnsDefaults(t *testing.T) {
	sel, err := LoadSelectors("")
	if err != nil {
		t.Fatalf("LoadSelectors failed: %v", err)
	}
	if sel.Version != DefaultSelectors().Version {
		t.Errorf("Expected default version, got %s", sel.Version)
	}
}

func TestSelectorsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")

	orig := DefaultSelectors()
	orig.Version = "test-1"
	orig.MentionURLs = []string{"https://example.com/notifications"}

	if err := orig.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors failed: %v", err)
	}

	if loaded.Version != "test-1" {
		t.Errorf("Expected version test-1, got %s", loaded.Version)
	}
	if len(loaded.MentionURLs) != 1 || loaded.MentionURLs[0] != "https://example.com/notifications" {
		t.Errorf("Mention URLs did not round-trip: %v", loaded.MentionURLs)
	}
	// Untouched fields keep their defaults after a partial override.
	if len(loaded.HomeSignal) == 0 {
		t.Error("Expected home signal defaults to survive round-trip")
	}
}

func TestLoadSelectorsPartialOverrideKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")

	override := "version: drift-patch-3\nhome_signal:\n  - '#new-home-marker'\n"
	if err := os.WriteFile(path, []byte(override), 0600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	sel, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors failed: %v", err)
	}
	if sel.Version != "drift-patch-3" {
		t.Errorf("Expected overridden version, got %s", sel.Version)
	}
	if len(sel.HomeSignal) != 1 || sel.HomeSignal[0] != "#new-home-marker" {
		t.Errorf("Expected overridden home signal, got %v", sel.HomeSignal)
	}
	if sel.LoginURL != DefaultSelectors().LoginURL {
		t.Error("Expected untouched fields to keep defaults")
	}
}

func TestLoadSelectorsRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selectors.yaml")

	if err := os.WriteFile(path, []byte("{not yaml: ["), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := LoadSelectors(path); err == nil {
		t.Error("Expected error for malformed selector table")
	}
}

func TestLoadSelectorsRejectsMissingFile(t *testing.T) {
	if _, err := LoadSelectors(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing override file")
	}
}
