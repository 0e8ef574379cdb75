// Package auth establishes and validates the authenticated browser session.
//
// The platform exposes no semantic contract for its login flow: button
// labels, input names, and even the number of steps shift without notice.
// Every step therefore works through a layered strategy list (label text,
// then structural selectors, then the keyboard) instead of a single
// selector, and every wait is bounded.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/perchlabs/perch/pkg/config"
	"github.com/perchlabs/perch/pkg/logging"
)

// Driver is the slice of browser operations the login flow and the session
// validator consume. *browser.Driver implements it; tests script it.
type Driver interface {
	Goto(url string, timeout time.Duration) error
	Settle(delay time.Duration)
	FillAny(selectors []string, value string, timeout time.Duration) error
	ClickAny(selectors []string, timeout time.Duration) (string, error)
	ClickByText(labels []string, timeout time.Duration) (bool, error)
	Press(key string) error
	ExistsAny(selectors []string, timeout time.Duration) bool
	Screenshot(label string) (string, error)
	URL() string
}

// Timeouts for the login sequence.
const (
	loginNavTimeout  = 15 * time.Second
	stepTimeout      = 10 * time.Second
	advanceTimeout   = 3 * time.Second
	emailProbeWait   = 4 * time.Second
	homeSignalWait   = 30 * time.Second
	manualWindowWait = 120 * time.Second
	stepSettle       = 2 * time.Second
)

// Login drives the browser from unauthenticated to authenticated.
type Login struct {
	drv   Driver
	creds config.Credentials
	sel   *config.Selectors
	log   *logging.Logger
}

// NewLogin creates the login state machine.
func NewLogin(drv Driver, creds config.Credentials, sel *config.Selectors, log *logging.Logger) *Login {
	return &Login{drv: drv, creds: creds, sel: sel, log: log}
}

// Run executes the full login sequence. On success the browser sits on the
// authenticated home timeline. On failure it returns a *LoginError with a
// best-effort diagnostic snapshot already captured.
func (l *Login) Run() error {
	l.log.Infof("starting login flow for @%s", l.creds.Username)

	if err := l.drv.Goto(l.sel.LoginURL, loginNavTimeout); err != nil {
		return l.fail(UnknownFailure, err)
	}
	l.drv.Settle(stepSettle)

	// Username step.
	if err := l.drv.FillAny(l.sel.UsernameInputs, l.creds.Username, stepTimeout); err != nil {
		return l.fail(ElementNotFound, fmt.Errorf("username input: %w", err))
	}
	if err := l.advance(l.sel.NextLabels, l.sel.NextButtons); err != nil {
		return l.fail(ElementNotFound, fmt.Errorf("advance past username: %w", err))
	}
	l.drv.Settle(stepSettle)

	// The flow sometimes inserts an email-verification prompt here. Probe
	// briefly; absence is the normal path, not an error.
	l.maybeCompleteEmailStep()

	// Password step.
	if err := l.drv.FillAny(l.sel.PasswordInputs, l.creds.Password, stepTimeout); err != nil {
		return l.fail(ElementNotFound, fmt.Errorf("password input: %w", err))
	}
	if err := l.advance(l.sel.SubmitLabels, l.sel.LoginButtons); err != nil {
		return l.fail(ElementNotFound, fmt.Errorf("submit login: %w", err))
	}

	// Await the authenticated-home signal.
	if l.drv.ExistsAny(l.sel.HomeSignal, homeSignalWait) {
		l.log.Infof("login complete, home signal present")
		return nil
	}

	url := l.drv.URL()
	if !ContainsAny(url, l.sel.ChallengeIndicators) {
		return l.fail(UnknownFailure, fmt.Errorf("home signal absent after submit"))
	}

	// Challenge flow: allow a human to finish 2FA or similar out of band
	// in the controlled browser, then re-check.
	l.log.Warnf("verification challenge at %s, waiting up to %s for manual completion", url, manualWindowWait)
	if shot, err := l.drv.Screenshot("login-challenge"); err == nil {
		l.log.Infof("challenge snapshot captured at %s", shot)
	}
	if l.drv.ExistsAny(l.sel.HomeSignal, manualWindowWait) {
		l.log.Infof("manual verification completed, home signal present")
		return nil
	}
	return l.fail(ManualVerificationTimeout, fmt.Errorf("manual verification window elapsed"))
}

// advance moves past the current step's confirm control. Strategy order:
// case-insensitive label text over all interactive elements, then the fixed
// structural selector list, then Enter on the focused field.
func (l *Login) advance(labels, structural []string) error {
	clicked, err := l.drv.ClickByText(labels, advanceTimeout)
	if err != nil {
		l.log.Debugf("label scan failed, trying structural selectors: %v", err)
	}
	if clicked {
		return nil
	}

	if sel, err := l.drv.ClickAny(structural, advanceTimeout); err == nil {
		l.log.Debugf("advanced via structural selector %q", sel)
		return nil
	}

	l.log.Debugf("no advance control found, submitting via keyboard")
	return l.drv.Press("Enter")
}

// maybeCompleteEmailStep fills the email-verification prompt when the flow
// presents one. A visible password field means the flow skipped straight
// ahead and the reappeared text input is not a verification prompt.
func (l *Login) maybeCompleteEmailStep() {
	if l.drv.ExistsAny(l.sel.PasswordInputs, time.Second) {
		return
	}
	if !l.drv.ExistsAny(l.sel.EmailInputs, emailProbeWait) {
		return
	}

	if l.creds.Email == "" {
		l.log.Warnf("email verification prompt appeared but no email is configured")
		return
	}

	l.log.Infof("email verification prompt detected, supplying configured email")
	if err := l.drv.FillAny(l.sel.EmailInputs, l.creds.Email, stepTimeout); err != nil {
		l.log.Warnf("email verification fill failed: %v", err)
		return
	}
	if err := l.advance(l.sel.NextLabels, l.sel.NextButtons); err != nil {
		l.log.Warnf("email verification advance failed: %v", err)
	}
	l.drv.Settle(stepSettle)
}

// fail captures a diagnostic snapshot and wraps the cause. The capture is
// best-effort and must never mask the original failure.
func (l *Login) fail(kind LoginErrorKind, cause error) error {
	url := l.drv.URL()
	shot, err := l.drv.Screenshot("login-failure")
	if err != nil {
		l.log.Debugf("diagnostic screenshot unavailable: %v", err)
		shot = ""
	}

	l.log.Errorf("login failed (%s) at %s: %v", kind, url, cause)
	return &LoginError{Kind: kind, URL: url, Screenshot: shot, Err: cause}
}

// ContainsAny reports whether s contains any of the given substrings,
// case-insensitively. Used for URL classification.
func ContainsAny(s string, substrings []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
