// Package session persists and restores browser authentication state so
// login can be skipped across agent restarts.
package session

import (
	"time"

	"github.com/perchlabs/perch/pkg/browser"
)

// applyNavTimeout bounds the origin navigation during restore.
const applyNavTimeout = 15 * time.Second

// Driver is the slice of browser operations capture and restore consume.
// *browser.Driver implements it; tests script it.
type Driver interface {
	Cookies() ([]browser.Cookie, error)
	SetCookies(cookies []browser.Cookie) error
	LocalStorage() (map[string]string, error)
	SetLocalStorage(entries map[string]string) error
	Goto(url string, timeout time.Duration) error
}

// Session is the serialized authentication state of the browser context.
// One agent instance owns its session exclusively: written after a fresh
// login, read at startup, discarded when validation reports stale.
type Session struct {
	Cookies      []browser.Cookie  `json:"cookies"`
	LocalStorage map[string]string `json:"localStorage"`
	SavedAt      time.Time         `json:"timestamp"`
}

// Capture snapshots the driver's cookies and localStorage into a Session.
// The driver must currently be on the platform origin for the localStorage
// snapshot to be meaningful; a storage read failure degrades to an empty
// snapshot since cookies alone usually carry the authentication.
func Capture(d Driver) (*Session, error) {
	cookies, err := d.Cookies()
	if err != nil {
		return nil, err
	}

	storage, err := d.LocalStorage()
	if err != nil {
		storage = map[string]string{}
	}

	return &Session{
		Cookies:      cookies,
		LocalStorage: storage,
		SavedAt:      time.Now(),
	}, nil
}

// Apply installs the session into the driver. Cookies go in first, then the
// driver navigates to originURL so the localStorage write lands on the
// platform origin rather than the blank startup page. Cookie installation
// or navigation failing is fatal to the restore; the localStorage write is
// best-effort for the same reason Capture tolerates its absence.
func Apply(s *Session, d Driver, originURL string) error {
	if err := d.SetCookies(s.Cookies); err != nil {
		return err
	}
	if err := d.Goto(originURL, applyNavTimeout); err != nil {
		return err
	}
	_ = d.SetLocalStorage(s.LocalStorage)
	return nil
}
