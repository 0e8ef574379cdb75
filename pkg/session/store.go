package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perchlabs/perch/pkg/logging"
)

// FileStore persists sessions as a JSON document at a fixed path.
type FileStore struct {
	path string
	log  *logging.Logger
}

// NewFileStore creates a store for the given path.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Path returns the session file location.
func (s *FileStore) Path() string { return s.path }

// Restore reads the persisted session. An absent or malformed file returns
// nil, not an error: callers treat nil as "fresh login required".
func (s *FileStore) Restore() *Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warnf("session file unreadable, treating as absent: %v", err)
		}
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Warnf("session file malformed, treating as absent: %v", err)
		return nil
	}
	if len(sess.Cookies) == 0 {
		s.log.Warnf("session file carries no cookies, treating as absent")
		return nil
	}

	s.log.Infof("restored session saved at %s (%d cookies)", sess.SavedAt.Format("2006-01-02 15:04:05"), len(sess.Cookies))
	return &sess
}

// Save serializes the session. Persistence is best-effort: a login that
// succeeded in memory must not be undone by a write failure, so callers
// log and swallow the returned error.
func (s *FileStore) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	s.log.Infof("saved session (%d cookies, %d storage keys)", len(sess.Cookies), len(sess.LocalStorage))
	return nil
}

// Discard removes the persisted session, used when validation reports the
// saved state stale. Missing file is fine.
func (s *FileStore) Discard() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Warnf("failed to discard session file: %v", err)
	}
}
