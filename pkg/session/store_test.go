package session

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/perchlabs/perch/pkg/browser"
	"github.com/perchlabs/perch/pkg/logging"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	t.Setenv("PERCH_LOG_DIR", t.TempDir())
	log, _ := logging.New("session-test")
	t.Cleanup(func() { log.Close() })
	return log
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger(t))

	saved := &Session{
		Cookies: []browser.Cookie{
			{Name: "auth_token", Value: "abc123", Domain: ".x.com", Path: "/", Expires: 1893456000},
			{Name: "ct0", Value: "csrf-token", Domain: ".x.com", Path: "/"},
		},
		LocalStorage: map[string]string{"device_id": "d-42", "lang": "en"},
		SavedAt:      time.Now().Truncate(time.Second),
	}

	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := store.Restore()
	if restored == nil {
		t.Fatal("Restore returned nil for a saved session")
	}

	if !reflect.DeepEqual(restored.Cookies, saved.Cookies) {
		t.Errorf("Cookie set did not round-trip:\nsaved    %+v\nrestored %+v", saved.Cookies, restored.Cookies)
	}
	if !reflect.DeepEqual(restored.LocalStorage, saved.LocalStorage) {
		t.Errorf("Local storage did not round-trip:\nsaved    %v\nrestored %v", saved.LocalStorage, restored.LocalStorage)
	}
}

func TestRestoreAbsentFileReturnsNil(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), testLogger(t))

	if sess := store.Restore(); sess != nil {
		t.Errorf("Expected nil for absent file, got %+v", sess)
	}
}

func TestRestoreMalformedFileReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := NewFileStore(path, testLogger(t))
	if sess := store.Restore(); sess != nil {
		t.Errorf("Expected nil for malformed file, got %+v", sess)
	}
}

func TestRestoreEmptyCookiesReturnsNil(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"), testLogger(t))

	if err := store.Save(&Session{LocalStorage: map[string]string{"k": "v"}, SavedAt: time.Now()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if sess := store.Restore(); sess != nil {
		t.Error("Expected nil for a session without cookies")
	}
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	store := NewFileStore(path, testLogger(t))

	err := store.Save(&Session{
		Cookies: []browser.Cookie{{Name: "auth", Value: "v"}},
		SavedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Session file not created: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, testLogger(t))

	if err := store.Save(&Session{Cookies: []browser.Cookie{{Name: "a", Value: "b"}}, SavedAt: time.Now()}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store.Discard()
	if sess := store.Restore(); sess != nil {
		t.Error("Expected nil after discard")
	}

	// Discarding again must be harmless.
	store.Discard()
}
